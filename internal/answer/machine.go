package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/metrics"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/remote"
)

// State is the submission state of one lab.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateYellow
	StateOrange
	StateRed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateYellow:
		return "yellow"
	case StateOrange:
		return "orange"
	case StateRed:
		return "red"
	default:
		return "idle"
	}
}

// ColorFor maps a result code to the terminal color: 0 and 3 are correct,
// 2 is partial, anything else is wrong.
func ColorFor(code remote.ResultCode) labs.Color {
	switch code {
	case remote.ResultCorrect, remote.ResultCorrectAlt:
		return labs.ColorYellow
	case remote.ResultPartial:
		return labs.ColorOrange
	default:
		return labs.ColorRed
	}
}

func stateFor(c labs.Color) State {
	switch c {
	case labs.ColorYellow:
		return StateYellow
	case labs.ColorOrange:
		return StateOrange
	default:
		return StateRed
	}
}

// Journal is the feedback shown after a correct answer.
type Journal struct {
	ImageURL string
	VideoID  string
	Message  string
}

const videoEmbedURL = "https://www.youtube-nocookie.com/embed/"

// Render returns the journal as display lines.
func (j Journal) Render() []string {
	var lines []string
	if j.ImageURL != "" {
		lines = append(lines, "image: "+j.ImageURL)
	}
	if j.VideoID != "" {
		lines = append(lines, "video: "+videoEmbedURL+j.VideoID)
	}
	if j.Message != "" {
		lines = append(lines, strings.Split(j.Message, "\n")...)
	}
	return lines
}

// Outcome is the terminal result of one submission.
type Outcome struct {
	LabID   string
	Color   labs.Color
	Code    remote.ResultCode
	Journal *Journal
	// AdventureID is set when the server asked for a review.
	ReviewFor string
}

// Submitter is the part of the remote client used for answers and reviews.
type Submitter interface {
	SubmitAnswer(ctx context.Context, id, value string) (remote.Result, error)
	SubmitReview(ctx context.Context, review remote.Review) error
}

// MarkerSink receives marker color updates for the map view.
type MarkerSink interface {
	SetMarkerColor(id string, c labs.Color)
}

// JournalRenderer displays journal content.
type JournalRenderer interface {
	ShowJournal(labID string, j Journal)
}

// Machine drives labs through waiting to a terminal color.
type Machine struct {
	store    *labs.Store
	client   Submitter
	messages *msglog.Log
	log      logger.Logger

	markers  MarkerSink
	renderer JournalRenderer

	mu     sync.Mutex
	states map[string]State
}

func NewMachine(store *labs.Store, client Submitter, messages *msglog.Log, log logger.Logger) *Machine {
	return &Machine{
		store:    store,
		client:   client,
		messages: messages,
		log:      log,
		states:   make(map[string]State),
	}
}

// SetMarkerSink installs the map marker observer.
func (m *Machine) SetMarkerSink(s MarkerSink) { m.markers = s }

// SetJournalRenderer installs the journal display.
func (m *Machine) SetJournalRenderer(r JournalRenderer) { m.renderer = r }

// State returns the current state for id.
func (m *Machine) State(id string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id]
}

func (m *Machine) setState(id string, s State) {
	m.mu.Lock()
	m.states[id] = s
	m.mu.Unlock()
}

// Submit sends value as the answer for lab id. On a transport failure the lab
// stays in StateWaiting and the error is returned; there is no retry.
func (m *Machine) Submit(ctx context.Context, id, value string) (Outcome, error) {
	ctx = logger.WithLabID(logger.WithAction(ctx, "submit_answer"), id)
	ctx = logger.WithRequestID(ctx, uuid.NewString())

	m.setState(id, StateWaiting)
	m.log.Info(ctx, "submitting answer")

	res, err := m.client.SubmitAnswer(ctx, id, value)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("submit_answer").Inc()
		m.log.Error(ctx, "submit answer", err)
		m.messages.Append(fmt.Sprintf("answer %s: %v", id, err))
		return Outcome{LabID: id}, fmt.Errorf("submit answer %s: %w", id, err)
	}

	color := ColorFor(res.Code)
	out := Outcome{LabID: id, Color: color, Code: res.Code}

	if color == labs.ColorYellow {
		if res.HasJournal() {
			j := Journal{ImageURL: res.JournalImage, VideoID: res.JournalVideoID, Message: res.JournalMessage}
			out.Journal = &j
			if m.renderer != nil {
				m.renderer.ShowJournal(id, j)
			}
		}
		if res.HasRating() {
			out.ReviewFor = res.AdventureID
			if out.ReviewFor == "" {
				out.ReviewFor = id
			}
		}
	}

	// State is updated regardless of any display filtering.
	m.store.SetColor(ctx, id, color)
	if m.markers != nil {
		m.markers.SetMarkerColor(id, color)
	}
	if err := m.store.Persist(ctx, id, labs.Patch{Color: color}); err != nil {
		var perr *labs.PersistenceError
		if errors.As(err, &perr) {
			m.messages.Append("persist " + id + ": " + perr.Err.Error())
		}
	}

	m.setState(id, stateFor(color))
	metrics.AnswersTotal.WithLabelValues(color.String()).Inc()
	m.messages.Append(fmt.Sprintf("answer %s: %s", id, color))
	return out, nil
}

// SubmitReview posts a rating for an adventure.
func (m *Machine) SubmitReview(ctx context.Context, review remote.Review) error {
	ctx = logger.WithAction(ctx, "submit_review")
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("submit review: rating %d out of range 1-5", review.Rating)
	}
	if err := m.client.SubmitReview(ctx, review); err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("submit_review").Inc()
		m.log.Error(ctx, "submit review", err)
		m.messages.Append("review: " + err.Error())
		return fmt.Errorf("submit review: %w", err)
	}
	m.messages.Append("review sent for " + review.AdventureID)
	return nil
}
