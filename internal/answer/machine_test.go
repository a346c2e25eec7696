package answer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/remote"
	"lab-radar.klederson.com/internal/store/kv"
)

type fakeSubmitter struct {
	result  remote.Result
	err     error
	reviews []remote.Review
	block   chan struct{}
}

func (f *fakeSubmitter) SubmitAnswer(ctx context.Context, id, value string) (remote.Result, error) {
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeSubmitter) SubmitReview(_ context.Context, r remote.Review) error {
	f.reviews = append(f.reviews, r)
	return f.err
}

type markerRecorder struct {
	mu     sync.Mutex
	colors map[string]labs.Color
}

func (r *markerRecorder) SetMarkerColor(id string, c labs.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.colors == nil {
		r.colors = make(map[string]labs.Color)
	}
	r.colors[id] = c
}

type journalRecorder struct {
	shown map[string]Journal
}

func (r *journalRecorder) ShowJournal(id string, j Journal) {
	if r.shown == nil {
		r.shown = make(map[string]Journal)
	}
	r.shown[id] = j
}

func newMachine(sub *fakeSubmitter) (*Machine, *labs.Store, *kv.Memory) {
	mem := kv.NewMemory()
	store := labs.NewStore(mem, logger.Discard())
	store.ReplaceAll(context.Background(), []labs.Lab{{ID: "l1", Title: "Dom"}})
	return NewMachine(store, sub, msglog.New(10), logger.Discard()), store, mem
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		code remote.ResultCode
		want labs.Color
	}{
		{0, labs.ColorYellow},
		{3, labs.ColorYellow},
		{2, labs.ColorOrange},
		{1, labs.ColorRed},
		{4, labs.ColorRed},
		{-1, labs.ColorRed},
		{99, labs.ColorRed},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.code); got != tt.want {
			t.Errorf("ColorFor(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSubmitCorrectWithJournal(t *testing.T) {
	sub := &fakeSubmitter{result: remote.Result{Code: 3, JournalMessage: "Well done\nsee you"}}
	m, store, mem := newMachine(sub)
	markers := &markerRecorder{}
	journals := &journalRecorder{}
	m.SetMarkerSink(markers)
	m.SetJournalRenderer(journals)

	out, err := m.Submit(context.Background(), "l1", "42")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if out.Color != labs.ColorYellow || m.State("l1") != StateYellow {
		t.Fatalf("color = %v state = %v", out.Color, m.State("l1"))
	}
	if lab, _ := store.Get("l1"); lab.Color != labs.ColorYellow {
		t.Fatalf("store color = %v", lab.Color)
	}
	if markers.colors["l1"] != labs.ColorYellow {
		t.Fatalf("marker color = %v", markers.colors["l1"])
	}
	if raw, ok, _ := mem.Get(context.Background(), "lab:l1"); !ok || !strings.Contains(raw, "yellow") {
		t.Fatalf("persisted = %q ok=%v", raw, ok)
	}

	j, ok := journals.shown["l1"]
	if !ok || out.Journal == nil {
		t.Fatal("journal not rendered")
	}
	lines := j.Render()
	if len(lines) != 2 || lines[0] != "Well done" {
		t.Fatalf("journal lines = %q", lines)
	}
	if out.ReviewFor != "" {
		t.Fatal("review requested without rating")
	}
}

func TestSubmitRoutesRatingToReview(t *testing.T) {
	sub := &fakeSubmitter{result: remote.Result{Code: 0, AdventureID: "adv-7", Rating: []byte(`{"max":5}`)}}
	m, _, _ := newMachine(sub)

	out, err := m.Submit(context.Background(), "l1", "x")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.ReviewFor != "adv-7" {
		t.Fatalf("ReviewFor = %q, want adv-7", out.ReviewFor)
	}

	if err := m.SubmitReview(context.Background(), remote.Review{AdventureID: out.ReviewFor, Rating: 5, Text: "great"}); err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}
	if len(sub.reviews) != 1 || sub.reviews[0].AdventureID != "adv-7" {
		t.Fatalf("reviews = %+v", sub.reviews)
	}
	if err := m.SubmitReview(context.Background(), remote.Review{Rating: 9}); err == nil {
		t.Fatal("out of range rating accepted")
	}
}

func TestSubmitPartialAndWrong(t *testing.T) {
	sub := &fakeSubmitter{result: remote.Result{Code: 2, JournalMessage: "ignored"}}
	m, store, _ := newMachine(sub)

	out, _ := m.Submit(context.Background(), "l1", "a")
	if out.Color != labs.ColorOrange || out.Journal != nil {
		t.Fatalf("outcome = %+v", out)
	}

	// Re-submission goes through waiting to a new terminal state.
	sub.result = remote.Result{Code: 1}
	out, _ = m.Submit(context.Background(), "l1", "b")
	if out.Color != labs.ColorRed || m.State("l1") != StateRed {
		t.Fatalf("outcome = %+v state = %v", out, m.State("l1"))
	}
	if lab, _ := store.Get("l1"); lab.Color != labs.ColorRed {
		t.Fatalf("store color = %v", lab.Color)
	}
}

func TestSubmitWaitingWhileInFlight(t *testing.T) {
	sub := &fakeSubmitter{result: remote.Result{Code: 0}, block: make(chan struct{})}
	m, _, _ := newMachine(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Submit(context.Background(), "l1", "a")
	}()

	for m.State("l1") != StateWaiting {
		time.Sleep(time.Millisecond)
	}
	close(sub.block)
	<-done
	if m.State("l1") != StateYellow {
		t.Fatalf("state = %v, want yellow", m.State("l1"))
	}
}

func TestSubmitTransportErrorStaysWaiting(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection reset")}
	m, store, _ := newMachine(sub)

	_, err := m.Submit(context.Background(), "l1", "a")
	if err == nil || !errors.Is(err, sub.err) {
		t.Fatalf("err = %v", err)
	}
	if m.State("l1") != StateWaiting {
		t.Fatalf("state = %v, want waiting", m.State("l1"))
	}
	if lab, _ := store.Get("l1"); lab.Color != labs.ColorNone {
		t.Fatalf("color changed on failure: %v", lab.Color)
	}
}

func TestSubmitUnknownLabStillPersists(t *testing.T) {
	sub := &fakeSubmitter{result: remote.Result{Code: 0}}
	m, _, mem := newMachine(sub)

	if _, err := m.Submit(context.Background(), "hidden", "a"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok, _ := mem.Get(context.Background(), "lab:hidden"); !ok {
		t.Fatal("patch not persisted for lab outside the store")
	}
}
