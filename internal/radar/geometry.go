package radar

import (
	"math"

	"lab-radar.klederson.com/internal/config"
)

// cellOffset returns the offset of a cell from the center in column units,
// with rows stretched by the terminal aspect ratio. y grows northward.
func cellOffset(col, row, centerX, centerY int) (x, y float64) {
	return float64(col - centerX), float64(centerY-row) / config.AspectRatio
}

// CellDistance is the distance from a cell to the radar center in columns.
func CellDistance(col, row, centerX, centerY int) float64 {
	return math.Hypot(cellOffset(col, row, centerX, centerY))
}

// CellAngle is the bearing of a cell from the center, in radians [0, 2π)
// clockwise from north.
func CellAngle(col, row, centerX, centerY int) float64 {
	x, y := cellOffset(col, row, centerX, centerY)
	return NormalizeAngle(math.Atan2(x, y))
}

// RingChar is the character tangent to a ring at angle.
func RingChar(angle float64) rune {
	return []rune(`-/|\-/|\`)[octant(angle)]
}

func octant(angle float64) int {
	return int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// DegreesToAngle converts a compass bearing in degrees to radar radians.
func DegreesToAngle(deg float64) float64 {
	return NormalizeAngle(deg * math.Pi / 180)
}

// AngleDiff returns the shortest angular distance between two angles.
// Result is in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// MetersToRadius converts distance in meters to radar cells. Labs beyond
// maxRange are pinned to the outer ring.
func MetersToRadius(meters, maxRange, radarRadius float64) float64 {
	if maxRange <= 0 || meters >= maxRange {
		return radarRadius
	}
	return (meters / maxRange) * radarRadius
}
