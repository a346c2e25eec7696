package location

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/geo"
)

// Options are passed through to the platform source.
type Options struct {
	HighAccuracy bool
}

// Event carries either a coordinate or an error.
type Event struct {
	Coord geo.Coordinate
	Err   error
}

// Source is a platform position provider.
type Source interface {
	// Watch pushes samples and transient errors to fn until ctx is done or a
	// terminal error is returned.
	Watch(ctx context.Context, opts Options, fn func(Event)) error
	// Current returns a single fresh sample.
	Current(ctx context.Context, opts Options) (geo.Coordinate, error)
}

// ModeKind selects how samples are acquired.
type ModeKind int

const (
	ModeContinuous ModeKind = iota
	ModeInterval
	ModeReplay
)

func (k ModeKind) String() string {
	switch k {
	case ModeInterval:
		return "interval"
	case ModeReplay:
		return "replay"
	default:
		return "continuous"
	}
}

// Mode is an acquisition mode. Interval is only used by ModeInterval.
type Mode struct {
	Kind     ModeKind
	Interval time.Duration
}

func Continuous() Mode { return Mode{Kind: ModeContinuous} }

// Interval polls every d. A zero interval degrades to continuous.
func Interval(d time.Duration) Mode {
	if d <= 0 {
		return Continuous()
	}
	return Mode{Kind: ModeInterval, Interval: d}
}

func Replay() Mode { return Mode{Kind: ModeReplay} }

// ModeFromSeconds maps the update-interval setting: 0 continuous, >0 poll, <0 replay.
func ModeFromSeconds(seconds int) Mode {
	switch {
	case seconds == 0:
		return Continuous()
	case seconds > 0:
		return Interval(time.Duration(seconds) * time.Second)
	default:
		return Replay()
	}
}

// ReplayCoordinate is the fixed demo sample: Utrecht, heading 314, stamped
// 16:18:03 minus 2h on the current UTC day.
func ReplayCoordinate(now time.Time) geo.Coordinate {
	day := now.UTC().Truncate(24 * time.Hour)
	ts := day.Add(-2*time.Hour + 16*time.Hour + 18*time.Minute + 3*time.Second)
	return geo.New(config.ReplayLatitude, config.ReplayLongitude, ts).WithHeading(config.ReplayHeading)
}

// Sampler owns the single active acquisition source.
type Sampler struct {
	source Source
	opts   Options
	now    func() time.Time

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	active      atomic.Int32
	capReported bool
}

// NewSampler creates a sampler. A nil source means the platform has no
// position capability.
func NewSampler(src Source, opts Options) *Sampler {
	return &Sampler{source: src, opts: opts, now: time.Now}
}

// SetOptions changes the options used by the next Start.
func (s *Sampler) SetOptions(opts Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// Start cancels any previous acquisition and begins a new one. The returned
// channel is closed when acquisition ends; it is never reused.
func (s *Sampler) Start(ctx context.Context, mode Mode) <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	out := make(chan Event, 1)
	if s.source == nil && mode.Kind != ModeReplay {
		if !s.capReported {
			s.capReported = true
			out <- Event{Err: &CapabilityError{Feature: "geolocation"}}
		}
		close(out)
		return out
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.active.Add(1)

	go func() {
		defer close(done)
		defer close(out)
		defer s.active.Add(-1)
		s.run(runCtx, mode, s.opts, out)
	}()
	return out
}

// Stop cancels the active acquisition and waits for it to finish.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Sampler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
		s.done = nil
	}
}

// Active returns the number of running acquisition sources (0 or 1).
func (s *Sampler) Active() int {
	return int(s.active.Load())
}

func (s *Sampler) run(ctx context.Context, mode Mode, opts Options, out chan<- Event) {
	switch mode.Kind {
	case ModeReplay:
		send(ctx, out, Event{Coord: ReplayCoordinate(s.now())})
	case ModeInterval:
		s.poll(ctx, mode.Interval, opts, out)
	default:
		s.watch(ctx, opts, out)
	}
}

func (s *Sampler) watch(ctx context.Context, opts Options, out chan<- Event) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := s.source.Watch(wctx, opts, func(ev Event) {
		if !send(wctx, out, ev) || isFatal(ev.Err) {
			cancel()
		}
	})
	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		send(ctx, out, Event{Err: err})
	}
}

func (s *Sampler) poll(ctx context.Context, every time.Duration, opts Options, out chan<- Event) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c, err := s.source.Current(ctx, opts)
			if ctx.Err() != nil {
				return
			}
			ev := Event{Coord: c, Err: err}
			if !send(ctx, out, ev) || isFatal(err) {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// isFatal reports errors after which acquisition stays stopped.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	var lerr *LocationError
	if errors.As(err, &lerr) {
		return lerr.Fatal()
	}
	var cerr *CapabilityError
	return errors.As(err, &cerr)
}
