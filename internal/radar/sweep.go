package radar

import (
	"math"
	"time"

	"lab-radar.klederson.com/internal/config"
)

// Sweep is the rotating beam of the radar view. It advances by the time
// elapsed since the previous Update, so a stalled UI does not make it jump.
type Sweep struct {
	angle float64 // radians, [0, 2π)
	rate  float64 // radians per second
	trail float64 // radians lit behind the beam
	last  time.Time
	now   func() time.Time
}

// NewSweep creates a sweep at north turning at rpm revolutions per minute.
func NewSweep(rpm float64) *Sweep {
	return &Sweep{
		rate:  rpm / 60 * 2 * math.Pi,
		trail: config.SweepTrailDeg * math.Pi / 180,
		last:  time.Now(),
		now:   time.Now,
	}
}

// Update advances the beam. Gaps longer than a second count as one second.
func (s *Sweep) Update() {
	t := s.now()
	dt := math.Min(t.Sub(s.last).Seconds(), 1)
	s.last = t
	if dt > 0 {
		s.angle = NormalizeAngle(s.angle + dt*s.rate)
	}
}

// Angle returns the beam direction in radians.
func (s *Sweep) Angle() float64 { return s.angle }

// Intensity is the glow in [0, 1] at cellAngle: 1 under the beam, fading
// linearly to 0 at the end of the trail.
func (s *Sweep) Intensity(cellAngle float64) float64 {
	if s == nil || s.trail <= 0 {
		return 0
	}
	behind := NormalizeAngle(s.angle - cellAngle)
	if behind > s.trail {
		return 0
	}
	return 1 - behind/s.trail
}
