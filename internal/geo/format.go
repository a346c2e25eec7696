package geo

import (
	"fmt"
	"math"
	"time"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// FormatBearing renders a heading as "NW 314°".
func FormatBearing(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/45)) % len(compassPoints)
	return fmt.Sprintf("%s %d°", compassPoints[idx], int(math.Round(deg))%360)
}

// FormatTimestamp renders unix milliseconds as local wall-clock time.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}

// FormatDistance renders meters, switching to kilometers above 1000m.
func FormatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1fkm", m/1000)
	}
	return fmt.Sprintf("%.0fm", m)
}
