package location

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/geo"
)

// SimSource is a demo source that walks randomly around a start point.
type SimSource struct {
	mu      sync.Mutex
	pos     geo.Coordinate
	heading float64
	rng     *rand.Rand
	step    float64
	every   time.Duration
	now     func() time.Time
}

// NewSimSource creates a walker starting at start. The same seed yields the
// same walk.
func NewSimSource(start geo.Coordinate, seed int64) *SimSource {
	rng := rand.New(rand.NewSource(seed))
	return &SimSource{
		pos:     start,
		heading: rng.Float64() * 360,
		rng:     rng,
		step:    config.SimStepMeters,
		every:   config.SimStepInterval,
		now:     time.Now,
	}
}

func (s *SimSource) Watch(ctx context.Context, _ Options, fn func(Event)) error {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	fn(Event{Coord: s.advance()})
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(Event{Coord: s.advance()})
		}
	}
}

func (s *SimSource) Current(_ context.Context, _ Options) (geo.Coordinate, error) {
	return s.advance(), nil
}

// advance turns by up to ±30 degrees and moves one step.
func (s *SimSource) advance() geo.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.heading = math.Mod(s.heading+(s.rng.Float64()-0.5)*60+360, 360)
	rad := s.heading * math.Pi / 180
	s.pos = geo.Offset(s.pos, s.step*math.Cos(rad), s.step*math.Sin(rad))

	c := s.pos
	c.Timestamp = s.now().UnixMilli()
	return c.WithHeading(s.heading)
}
