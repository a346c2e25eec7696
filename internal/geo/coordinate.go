package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// EarthRadiusM is the mean earth radius used for great-circle distances.
const EarthRadiusM = 6371000.0

var (
	ErrLatitude  = errors.New("latitude out of range [-90, 90]")
	ErrLongitude = errors.New("longitude out of range [-180, 180]")
	ErrHeading   = errors.New("heading out of range [0, 360)")
)

// Coordinate is a single normalized position sample.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Heading   *float64 // Degrees clockwise from north, nil when unknown
	Timestamp int64    // Unix milliseconds
}

// New builds a coordinate without heading.
func New(lat, lon float64, ts time.Time) Coordinate {
	return Coordinate{Latitude: lat, Longitude: lon, Timestamp: ts.UnixMilli()}
}

// WithHeading returns a copy of c carrying the given heading.
func (c Coordinate) WithHeading(deg float64) Coordinate {
	c.Heading = &deg
	return c
}

// Validate checks the coordinate ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: %v", ErrLatitude, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: %v", ErrLongitude, c.Longitude)
	}
	if c.Heading != nil && (*c.Heading < 0 || *c.Heading >= 360) {
		return fmt.Errorf("%w: %v", ErrHeading, *c.Heading)
	}
	return nil
}

// HeadingOrZero returns the heading, or 0 when unknown.
func (c Coordinate) HeadingOrZero() float64 {
	if c.Heading == nil {
		return 0
	}
	return *c.Heading
}

// Time returns the sample timestamp.
func (c Coordinate) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	return HaversineMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineMeters calculates the great-circle distance between two points in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)
	deltaLat := lat2Rad - lat1Rad
	deltaLon := degreesToRadians(lon2 - lon1)

	a := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Pow(math.Sin(deltaLon/2), 2)

	// Rounding can push a slightly above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// Offset moves c by the given meters north and east. Used by the simulator.
func Offset(c Coordinate, north, east float64) Coordinate {
	dLat := north / EarthRadiusM * 180 / math.Pi
	dLon := east / (EarthRadiusM * math.Cos(degreesToRadians(c.Latitude))) * 180 / math.Pi
	c.Latitude = math.Max(-90, math.Min(90, c.Latitude+dLat))
	c.Longitude = c.Longitude + dLon
	if c.Longitude > 180 {
		c.Longitude -= 360
	} else if c.Longitude < -180 {
		c.Longitude += 360
	}
	return c
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// clockwise from north in [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
