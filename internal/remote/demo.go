package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
)

var demoNames = []string{
	"Old Canal Wharf", "Cathedral Steps", "Botanic Gate", "Clock Tower",
	"Railway Bridge", "Market Fountain", "Observatory", "Fortress Wall",
	"Music Box Museum", "Windmill", "Castle Moat", "Guild Hall",
}

type demoLab struct {
	lab      labs.Lab
	question string
	answer   string
}

// DemoClient serves generated labs around the first requested position.
// It needs no network and is used by demo mode.
type DemoClient struct {
	mu     sync.Mutex
	rng    *rand.Rand
	count  int
	labs   map[string]demoLab
	order  []string
	center *geo.Coordinate
}

// NewDemoClient creates a demo source with count labs. The same seed yields
// the same labs.
func NewDemoClient(count int, seed int64) *DemoClient {
	return &DemoClient{
		rng:   rand.New(rand.NewSource(seed)),
		count: count,
		labs:  make(map[string]demoLab),
	}
}

func (d *DemoClient) generate(center geo.Coordinate) {
	d.center = &center
	for i := 0; i < d.count; i++ {
		id := fmt.Sprintf("demo-%02d", i+1)
		// Spread labs over roughly 1.5km, denser near the center.
		dist := 30 + math.Pow(d.rng.Float64(), 1.5)*1500
		bearing := d.rng.Float64() * 2 * math.Pi
		pos := geo.Offset(center, dist*math.Cos(bearing), dist*math.Sin(bearing))

		steps := 10 + d.rng.Intn(90)
		d.labs[id] = demoLab{
			lab: labs.Lab{
				ID:        id,
				Title:     demoNames[i%len(demoNames)],
				Latitude:  pos.Latitude,
				Longitude: pos.Longitude,
			},
			question: fmt.Sprintf("How many steps lead up to the %s?", strings.ToLower(demoNames[i%len(demoNames)])),
			answer:   fmt.Sprint(steps),
		}
		d.order = append(d.order, id)
	}
}

func (d *DemoClient) FetchLabs(_ context.Context, pos geo.Coordinate) ([]labs.Lab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.center == nil {
		d.generate(pos)
	}
	out := make([]labs.Lab, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.labs[id].lab)
	}
	return out, nil
}

func (d *DemoClient) FetchDetail(_ context.Context, id string) (Detail, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.labs[id]
	if !ok {
		return Detail{}, &RemoteError{Op: "detail", Status: 404, Body: "unknown lab " + id}
	}
	return Detail{ID: id, Question: l.question}, nil
}

// SubmitAnswer accepts the exact answer, rates answers within 10% as partial
// and anything else as wrong. Correct answers carry a journal and ask for a
// rating.
func (d *DemoClient) SubmitAnswer(_ context.Context, id, value string) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.labs[id]
	if !ok {
		return Result{}, &RemoteError{Op: "log", Status: 404, Body: "unknown lab " + id}
	}

	value = strings.TrimSpace(value)
	switch {
	case value == l.answer:
		return Result{
			Code:           ResultCorrect,
			JournalMessage: "Well done! You found " + l.lab.Title + ".",
			AdventureID:    "demo-adventure",
			Rating:         json.RawMessage(`{}`),
		}, nil
	case nearlyEqual(value, l.answer):
		return Result{Code: ResultPartial}, nil
	default:
		return Result{Code: 1}, nil
	}
}

func nearlyEqual(got, want string) bool {
	var g, w float64
	if _, err := fmt.Sscan(got, &g); err != nil {
		return false
	}
	if _, err := fmt.Sscan(want, &w); err != nil || w == 0 {
		return false
	}
	return math.Abs(g-w)/w <= 0.1
}

func (d *DemoClient) SubmitReview(context.Context, Review) error { return nil }

func (d *DemoClient) FetchUser(context.Context) (User, error) {
	return User{Username: "demo"}, nil
}
