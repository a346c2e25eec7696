package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"lab-radar.klederson.com/internal/answer"
	"lab-radar.klederson.com/internal/engine"
	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/location"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/notify"
	"lab-radar.klederson.com/internal/remote"
	"lab-radar.klederson.com/internal/settings"
	"lab-radar.klederson.com/internal/store/kv"
)

type fakeRemote struct {
	mu      sync.Mutex
	labs    []labs.Lab
	result  remote.Result
	answers []string
	reviews []remote.Review
}

func (f *fakeRemote) FetchLabs(context.Context, geo.Coordinate) ([]labs.Lab, error) {
	return append([]labs.Lab(nil), f.labs...), nil
}

func (f *fakeRemote) FetchDetail(_ context.Context, id string) (remote.Detail, error) {
	return remote.Detail{ID: id, Question: "How many steps?"}, nil
}

func (f *fakeRemote) SubmitAnswer(_ context.Context, id, value string) (remote.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, id+"="+value)
	return f.result, nil
}

func (f *fakeRemote) SubmitReview(_ context.Context, r remote.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, r)
	return nil
}

func (f *fakeRemote) FetchUser(context.Context) (remote.User, error) {
	return remote.User{Username: "walker"}, nil
}

func testDeps(t *testing.T) (Deps, *fakeRemote) {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	mem := kv.NewMemory()
	msgs := msglog.New(50)
	st := labs.NewStore(mem, log)
	set := settings.Defaults()

	client := &fakeRemote{labs: []labs.Lab{
		{ID: "a", Title: "Dom tower", Latitude: 52.0907, Longitude: 5.1214},
		{ID: "b", Title: "Canal", Latitude: 52.0880131, Longitude: 5.1283913},
	}}

	dispatcher := notify.NewDispatcher(st, client, notify.NewDirectChannel(io.Discard), msgs, log)
	eng := engine.New(ctx, engine.Deps{
		Store:    st,
		Remote:   client,
		Notifier: dispatcher,
		Settings: set,
		KV:       mem,
		Messages: msgs,
		Log:      log,
	})

	return Deps{
		Settings:   set,
		Store:      st,
		Engine:     eng,
		Dispatcher: dispatcher,
		Answers:    answer.NewMachine(st, client, msgs, log),
		Remote:     client,
		Messages:   msgs,
		Log:        log,
	}, client
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

var utrecht = geo.Coordinate{Latitude: 52.0880131, Longitude: 5.1273913, Timestamp: 1}

// loaded returns a model that has completed one refresh cycle.
func loaded(t *testing.T) (AppModel, *fakeRemote) {
	t.Helper()
	deps, client := testDeps(t)
	m := New(context.Background(), deps)
	m.shared.gen = 1

	m, cmd := update(t, m, PositionMsg{Event: location.Event{Coord: utrecht}, Gen: 1})
	if cmd == nil {
		t.Fatal("position did not start a cycle")
	}
	msg := cmd()
	cycle, ok := msg.(CycleMsg)
	if !ok {
		t.Fatalf("cmd returned %T, want CycleMsg", msg)
	}
	if cycle.Cycle.Decision.Kind != engine.RefreshLarge {
		t.Fatalf("first cycle = %v, want large", cycle.Cycle.Decision.Kind)
	}
	m, _ = update(t, m, cycle)
	return m, client
}

func TestPositionRunsCycle(t *testing.T) {
	m, _ := loaded(t)
	if len(m.labs) != 2 {
		t.Fatalf("labs = %d, want 2", len(m.labs))
	}
	if m.labs[0].ID != "b" {
		t.Fatalf("nearest lab = %s, want b", m.labs[0].ID)
	}
	if m.position == nil || m.position.Latitude != utrecht.Latitude {
		t.Fatalf("position = %+v", m.position)
	}
}

func TestStalePositionIgnored(t *testing.T) {
	deps, _ := testDeps(t)
	m := New(context.Background(), deps)
	m.shared.gen = 2

	m, cmd := update(t, m, PositionMsg{Event: location.Event{Coord: utrecht}, Gen: 1})
	if cmd != nil || m.position != nil {
		t.Fatal("event from a replaced sampler run was handled")
	}
}

func TestLocationErrorShownAndSamplingContinues(t *testing.T) {
	deps, _ := testDeps(t)
	m := New(context.Background(), deps)

	ev := location.Event{Err: &location.LocationError{Code: location.Timeout}}
	m, _ = update(t, m, PositionMsg{Event: ev, Gen: m.shared.gen})
	if m.lastErr == "" {
		t.Fatal("location error not surfaced")
	}
	if !strings.Contains(deps.Messages.Latest(), "location") {
		t.Fatalf("message log = %q", deps.Messages.Latest())
	}
}

func TestHideAnsweredToggle(t *testing.T) {
	m, _ := loaded(t)
	m.shared.Store.SetColor(context.Background(), "a", labs.ColorYellow)

	m, _ = update(t, m, keyRunes("h"))
	if len(m.labs) != 1 || m.labs[0].ID != "b" {
		t.Fatalf("visible labs = %+v", m.labs)
	}
	if !m.shared.Settings.HideAnswered() {
		t.Fatal("setting not toggled")
	}

	m, _ = update(t, m, keyRunes("h"))
	if len(m.labs) != 2 {
		t.Fatalf("labs after unhide = %d", len(m.labs))
	}
}

func TestAnswerInputFlow(t *testing.T) {
	m, client := loaded(t)

	m, _ = update(t, m, keyRunes("a"))
	if m.input != inputAnswer || m.inputLab != "b" {
		t.Fatalf("input = %v lab = %q", m.input, m.inputLab)
	}
	m, _ = update(t, m, keyRunes("4"))
	m, _ = update(t, m, keyRunes("2"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = update(t, m, keyRunes("7"))

	if info := m.statusInfo(); info.Input != "47" || !strings.Contains(info.InputPrompt, "Canal") {
		t.Fatalf("status input = %+v", info)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.input != inputNone {
		t.Fatal("enter did not submit")
	}
	msg := cmd().(AnswerMsg)
	if msg.Err != nil || msg.Outcome.Color != labs.ColorYellow {
		t.Fatalf("answer = %+v", msg)
	}
	m, _ = update(t, m, msg)

	if client.answers[0] != "b=47" {
		t.Fatalf("submitted %v", client.answers)
	}
	if l, _ := m.shared.Store.Get("b"); l.Color != labs.ColorYellow {
		t.Fatalf("color = %v", l.Color)
	}
}

func TestEscCancelsInput(t *testing.T) {
	m, client := loaded(t)
	m, _ = update(t, m, keyRunes("a"))
	m, _ = update(t, m, keyRunes("1"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil || m.input != inputNone || len(client.answers) != 0 {
		t.Fatal("esc should cancel without submitting")
	}
}

func TestReviewFlow(t *testing.T) {
	m, client := loaded(t)
	m, _ = update(t, m, AnswerMsg{LabID: "b", Outcome: answer.Outcome{LabID: "b", Color: labs.ColorYellow, ReviewFor: "adv-1"}})
	if m.reviewFor != "adv-1" {
		t.Fatalf("reviewFor = %q", m.reviewFor)
	}

	m, _ = update(t, m, keyRunes("v"))
	for _, r := range "5 lovely" {
		if r == ' ' {
			m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m, _ = update(t, m, keyRunes(string(r)))
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("review not submitted")
	}
	m, _ = update(t, m, cmd())

	if m.reviewFor != "" {
		t.Fatal("review request not cleared")
	}
	want := remote.Review{AdventureID: "adv-1", Rating: 5, Text: "lovely"}
	if len(client.reviews) != 1 || client.reviews[0] != want {
		t.Fatalf("reviews = %+v", client.reviews)
	}
}

func TestParseReview(t *testing.T) {
	tests := []struct {
		in      string
		rating  int
		text    string
		wantErr bool
	}{
		{"4", 4, "", false},
		{"1 meh  ", 1, "meh", false},
		{"0 nope", 0, "", true},
		{"six", 0, "", true},
	}
	for _, tt := range tests {
		r, err := parseReview("adv", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseReview(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (r.Rating != tt.rating || r.Text != tt.text) {
			t.Errorf("parseReview(%q) = %+v", tt.in, r)
		}
	}
}

func TestPagesAndPermission(t *testing.T) {
	m, _ := loaded(t)

	m, _ = update(t, m, keyRunes("m"))
	if m.page != pageMessages {
		t.Fatal("m should open the messages page")
	}
	m, _ = update(t, m, keyRunes("m"))
	if m.page != pageRadar {
		t.Fatal("m should close the messages page")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.page != pageDetail || cmd == nil {
		t.Fatal("enter should open the detail page")
	}
	m, _ = update(t, m, cmd())
	if m.question != "How many steps?" {
		t.Fatalf("question = %q", m.question)
	}

	m, _ = update(t, m, keyRunes("n"))
	if m.shared.Dispatcher.Permission() != notify.PermissionGranted {
		t.Fatal("n should grant notifications")
	}
}

func TestJournalAndNotificationMsgs(t *testing.T) {
	m, _ := loaded(t)

	m, _ = update(t, m, JournalMsg{LabID: "b", Journal: answer.Journal{Message: "well done"}})
	if m.page != pageJournal || len(m.journal) != 1 {
		t.Fatalf("journal page = %v lines = %v", m.page, m.journal)
	}

	m, _ = update(t, m, NotificationMsg{Notification: notify.Notification{Title: "Canal"}})
	if n, ok := m.shared.banners.Last(); !ok || n.Title != "Canal" {
		t.Fatal("banner not recorded")
	}
}

func TestViewRenders(t *testing.T) {
	m, _ := loaded(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	for _, p := range []page{pageRadar, pageDetail, pageJournal, pageMessages} {
		m.page = p
		out := m.View()
		if !strings.Contains(out, "LAB-RADAR") {
			t.Fatalf("page %d missing menu bar", p)
		}
	}
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgramSink(t *testing.T) {
	rec := &recordingSender{}
	sink := programSink{p: rec}
	sink.SetMarkerColor("a", labs.ColorRed)
	sink.ShowJournal("a", answer.Journal{Message: "hi"})

	if len(rec.msgs) != 2 {
		t.Fatalf("sent %d msgs", len(rec.msgs))
	}
	if mm, ok := rec.msgs[0].(MarkerMsg); !ok || mm.Color != labs.ColorRed {
		t.Fatalf("first msg = %#v", rec.msgs[0])
	}
}

func TestBannerRing(t *testing.T) {
	r := NewBannerRing(3)
	if _, ok := r.Last(); ok || r.Values() != nil {
		t.Fatal("empty ring should have nothing")
	}
	for _, title := range []string{"1", "2", "3", "4", "5"} {
		r.Push(notify.Notification{Title: title})
	}

	var got []string
	for _, n := range r.Values() {
		got = append(got, n.Title)
	}
	if strings.Join(got, ",") != "3,4,5" || r.Len() != 3 {
		t.Fatalf("values = %v", got)
	}
	if n, _ := r.Last(); n.Title != "5" {
		t.Fatalf("last = %q", n.Title)
	}
}

func TestRunHeadlessReplay(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Settings.Set(settings.KeyUpdateInterval, -1)

	var out bytes.Buffer
	if err := RunHeadless(context.Background(), deps, &out); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	got := out.String()
	for _, want := range []string{"large refresh", "labs=2", "NW 314°"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
