package location

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"go.bug.st/serial"
)

const nmeaStream = `$GPRMC,161804.000,V,5205.2808,N,00507.6435,E,0.0,0.0,190126,,,N*77
garbage line
$GPRMC,161803.000,A,5205.2808,N,00507.6435,E,1.2,314.0,190126,,,A*6D
$GPGGA,161805.000,5205.2808,N,00507.6435,E,1,08,3.5,10.0,M,47.0,M,,*6D
$GPRMC,161806.000,A,5205.3000,N,00507.7000,E,0.0,0.0,190126,,,A*6F
$GPGGA,161805.000,5205.2808,N,00507.6435,E,1,08,0.9,10.0,M,47.0,M,,*62
$GPRMC,161806.000,A,5205.3000,N,00507.7000,E,0.0,0.0,190126,,,A*6F
`

func streamSource(data string) *SerialSource {
	src := NewSerialSource("/dev/ttyFAKE", 0)
	src.open = func(string, int) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(data)), nil
	}
	return src
}

func TestSerialWatchParsesValidFixes(t *testing.T) {
	var got []Event
	err := streamSource(nmeaStream).Watch(context.Background(), Options{}, func(ev Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fixes, want 3", len(got))
	}

	first := got[0].Coord
	if math.Abs(first.Latitude-52.08801) > 1e-4 || math.Abs(first.Longitude-5.12739) > 1e-4 {
		t.Fatalf("first fix = %v", first)
	}
	if first.HeadingOrZero() != 314 {
		t.Fatalf("heading = %v, want 314", first.HeadingOrZero())
	}
	wantTS := time.Date(2026, 1, 19, 16, 18, 3, 0, time.UTC).UnixMilli()
	if first.Timestamp != wantTS {
		t.Fatalf("timestamp = %d, want %d", first.Timestamp, wantTS)
	}
	if got[1].Coord.Heading != nil {
		t.Fatal("stationary fix should carry no heading")
	}
}

func TestSerialHighAccuracyDropsPoorFixes(t *testing.T) {
	var got []Event
	_ = streamSource(nmeaStream).Watch(context.Background(), Options{HighAccuracy: true}, func(ev Event) {
		got = append(got, ev)
	})
	if len(got) != 1 {
		t.Fatalf("got %d fixes, want 1 (only after HDOP 0.9)", len(got))
	}
}

func TestSerialCurrentReturnsFirstFix(t *testing.T) {
	c, err := streamSource(nmeaStream).Current(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if c.HeadingOrZero() != 314 {
		t.Fatalf("coord = %+v", c)
	}

	_, err = streamSource("").Current(context.Background(), Options{})
	var lerr *LocationError
	if !errors.As(err, &lerr) || lerr.Code != PositionUnavailable {
		t.Fatalf("err = %v, want PositionUnavailable", err)
	}
}

func TestSerialOpenErrorsMapToTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"port error", &serial.PortError{}, func(err error) bool {
			var cerr *CapabilityError
			var lerr *LocationError
			return errors.As(err, &cerr) || errors.As(err, &lerr)
		}},
		{"other", errors.New("io"), func(err error) bool {
			var lerr *LocationError
			return errors.As(err, &lerr) && lerr.Code == PositionUnavailable
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSerialSource("/dev/none", 0)
			src.open = func(string, int) (io.ReadCloser, error) { return nil, tt.err }
			err := src.Watch(context.Background(), Options{}, func(Event) {})
			if !tt.check(err) {
				t.Fatalf("unexpected error mapping: %v", err)
			}
		})
	}
}
