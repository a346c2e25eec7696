package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/metrics"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/store/kv"
)

// Durable keys for the last sample and the refresh anchor.
const (
	keyCurrentPrefix = "current_"
	keyFetchedPrefix = "fetched_"
)

// LabFetcher loads the lab set around a position.
type LabFetcher interface {
	FetchLabs(ctx context.Context, pos geo.Coordinate) ([]labs.Lab, error)
}

// Scanner runs the notification scan.
type Scanner interface {
	Scan(ctx context.Context, radius float64) int
}

// Settings is the subset of settings the engine reads on every cycle.
type Settings interface {
	BlockSize() float64
	NotificationDistance() float64
}

// Deps groups the engine's collaborators.
type Deps struct {
	Store    *labs.Store
	Remote   LabFetcher
	Notifier Scanner
	Settings Settings
	KV       kv.Store
	Messages *msglog.Log
	Log      logger.Logger
}

// Cycle reports what one position update did.
type Cycle struct {
	Decision Decision
	FetchErr error // Set when a large refresh failed; the stale set was kept
	Labs     int
	Notified int
}

// Engine turns position samples into large or small refreshes.
type Engine struct {
	Deps

	mu      sync.Mutex
	anchor  *geo.Coordinate
	current *geo.Coordinate
}

// New creates an engine and restores the persisted anchor so a restart does
// not force a redundant fetch.
func New(ctx context.Context, deps Deps) *Engine {
	e := &Engine{Deps: deps}
	if c, ok := e.loadCoordinate(ctx, keyFetchedPrefix); ok {
		e.anchor = &c
	}
	if c, ok := e.loadCoordinate(ctx, keyCurrentPrefix); ok {
		e.current = &c
	}
	return e
}

// Anchor returns the position of the last successful large refresh.
func (e *Engine) Anchor() (geo.Coordinate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.anchor == nil {
		return geo.Coordinate{}, false
	}
	return *e.anchor, true
}

// Current returns the last handled sample.
func (e *Engine) Current() (geo.Coordinate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return geo.Coordinate{}, false
	}
	return *e.current, true
}

// HandlePosition runs one refresh cycle for c. Within a cycle distances are
// always recomputed before the notification scan.
func (e *Engine) HandlePosition(ctx context.Context, c geo.Coordinate) (Cycle, error) {
	ctx = logger.WithAction(ctx, "changed_position")
	if err := c.Validate(); err != nil {
		e.Log.Warn(ctx, "invalid coordinate dropped", "error", err.Error())
		return Cycle{}, fmt.Errorf("handle position: %w", err)
	}

	e.mu.Lock()
	e.current = &c
	var anchor *geo.Coordinate
	if e.anchor != nil {
		a := *e.anchor
		anchor = &a
	}
	e.mu.Unlock()

	e.saveCoordinate(ctx, keyCurrentPrefix, c)

	cycle := Cycle{Decision: Decide(anchor, c, e.Settings.BlockSize())}
	e.Messages.Append(fmt.Sprintf("changedPosition %s (%.0fm/%.0fm)", cycle.Decision.Kind, cycle.Decision.Moved, cycle.Decision.Threshold))
	metrics.RefreshTotal.WithLabelValues(cycle.Decision.Kind.String()).Inc()

	if cycle.Decision.Kind == RefreshLarge {
		cycle.FetchErr = e.largeRefresh(ctx, c)
	}

	cycle.Notified = e.smallRefresh(ctx, c)
	cycle.Labs = e.Store.Len()
	metrics.LabsGauge.Set(float64(cycle.Labs))
	return cycle, nil
}

// largeRefresh replaces the lab set and moves the anchor only on success.
func (e *Engine) largeRefresh(ctx context.Context, c geo.Coordinate) error {
	e.Messages.Append("changedPositionLarge: " + c.String())

	fetched, err := e.Remote.FetchLabs(ctx, c)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("fetch_labs").Inc()
		e.Log.Error(ctx, "large refresh failed, keeping previous labs", err)
		e.Messages.Append("fetch labs: " + err.Error())
		return err
	}

	e.Store.ReplaceAll(ctx, fetched)

	e.mu.Lock()
	anchor := c
	e.anchor = &anchor
	e.mu.Unlock()
	e.saveCoordinate(ctx, keyFetchedPrefix, c)

	e.Log.Info(ctx, "large refresh done", "labs", len(fetched))
	return nil
}

func (e *Engine) smallRefresh(ctx context.Context, c geo.Coordinate) int {
	e.Store.RecomputeDistances(c)

	radius := e.Settings.NotificationDistance()
	if radius <= 0 || e.Notifier == nil {
		return 0
	}
	if n := e.Store.ResetOutside(radius); n > 0 {
		e.Log.Debug(ctx, "approach episodes ended", "labs", n)
	}
	return e.Notifier.Scan(ctx, radius)
}

func (e *Engine) saveCoordinate(ctx context.Context, prefix string, c geo.Coordinate) {
	if e.KV == nil {
		return
	}

	heading := "" // unknown
	if c.Heading != nil {
		heading = strconv.FormatFloat(*c.Heading, 'f', -1, 64)
	}
	values := map[string]string{
		"latitude":  strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(c.Longitude, 'f', -1, 64),
		"heading":   heading,
		"timestamp": strconv.FormatInt(c.Timestamp, 10),
	}
	for k, v := range values {
		if err := e.KV.Set(ctx, prefix+k, v); err != nil {
			perr := &labs.PersistenceError{Key: prefix + k, Err: err}
			e.Log.Error(ctx, "persist coordinate", perr)
			return
		}
	}
}

func (e *Engine) loadCoordinate(ctx context.Context, prefix string) (geo.Coordinate, bool) {
	if e.KV == nil {
		return geo.Coordinate{}, false
	}

	get := func(k string) (string, bool) {
		v, ok, err := e.KV.Get(ctx, prefix+k)
		if err != nil {
			e.Log.Error(ctx, "load coordinate", &labs.PersistenceError{Key: prefix + k, Err: err})
			return "", false
		}
		return v, ok
	}

	latS, ok1 := get("latitude")
	lonS, ok2 := get("longitude")
	if !ok1 || !ok2 {
		return geo.Coordinate{}, false
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, false
	}

	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if ts, ok := get("timestamp"); ok {
		c.Timestamp, _ = strconv.ParseInt(ts, 10, 64)
	}
	if h, ok := get("heading"); ok && h != "" {
		if deg, err := strconv.ParseFloat(h, 64); err == nil {
			c = c.WithHeading(deg)
		}
	}
	if c.Validate() != nil {
		return geo.Coordinate{}, false
	}
	return c, true
}
