package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"go.bug.st/serial"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/geo"
)

// SerialSource reads NMEA sentences from a GPS receiver on a serial port.
type SerialSource struct {
	Port string
	Baud int

	open func(port string, baud int) (io.ReadCloser, error)
}

// NewSerialSource creates a source for the given port (e.g. "/dev/ttyUSB0").
func NewSerialSource(port string, baud int) *SerialSource {
	if baud <= 0 {
		baud = config.DefaultBaudRate
	}
	return &SerialSource{Port: port, Baud: baud, open: openSerial}
}

func openSerial(port string, baud int) (io.ReadCloser, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SerialPorts lists the serial ports present on the system.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

func (s *SerialSource) Watch(ctx context.Context, opts Options, fn func(Event)) error {
	rc, err := s.openPort()
	if err != nil {
		return err
	}
	return readFixes(ctx, rc, opts, func(c geo.Coordinate) bool {
		fn(Event{Coord: c})
		return true
	})
}

func (s *SerialSource) Current(ctx context.Context, opts Options) (geo.Coordinate, error) {
	rc, err := s.openPort()
	if err != nil {
		return geo.Coordinate{}, err
	}

	var (
		fix geo.Coordinate
		got bool
	)
	err = readFixes(ctx, rc, opts, func(c geo.Coordinate) bool {
		fix, got = c, true
		return false
	})
	if got {
		return fix, nil
	}
	if err == nil {
		err = &LocationError{Code: PositionUnavailable, Err: errors.New("no valid fix before end of stream")}
	}
	return geo.Coordinate{}, err
}

func (s *SerialSource) openPort() (io.ReadCloser, error) {
	rc, err := s.open(s.Port, s.Baud)
	if err == nil {
		return rc, nil
	}

	var perr *serial.PortError
	if errors.As(err, &perr) {
		switch perr.Code() {
		case serial.PermissionDenied:
			return nil, &LocationError{Code: PermissionDenied, Err: err}
		case serial.PortNotFound, serial.InvalidSerialPort:
			return nil, &CapabilityError{Feature: "gps on " + s.Port, Err: err}
		}
	}
	return nil, &LocationError{Code: PositionUnavailable, Err: err}
}

// readFixes parses NMEA lines from rc and calls fn for each valid RMC fix
// until fn returns false, ctx is done or the stream ends. rc is always closed.
func readFixes(ctx context.Context, rc io.ReadCloser, opts Options, fn func(geo.Coordinate) bool) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = rc.Close()
	}()

	hdop := -1.0
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch m := sentence.(type) {
		case nmea.GGA:
			hdop = m.HDOP
		case nmea.RMC:
			if m.Validity != nmea.ValidRMC {
				continue
			}
			if opts.HighAccuracy && (hdop < 0 || hdop > config.MaxHighAccuracyHDOP) {
				continue
			}
			if !fn(rmcCoordinate(m)) {
				return nil
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return &LocationError{Code: PositionUnavailable, Err: fmt.Errorf("read nmea: %w", err)}
	}
	return nil
}

func rmcCoordinate(m nmea.RMC) geo.Coordinate {
	ts := time.Now()
	if m.Date.Valid && m.Time.Valid {
		ts = time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
	}

	c := geo.New(m.Latitude, m.Longitude, ts)
	// Course over ground is meaningless while standing still.
	if m.Speed > 0 && m.Course >= 0 && m.Course < 360 {
		c = c.WithHeading(m.Course)
	}
	return c
}
