package app

import (
	"time"

	"lab-radar.klederson.com/internal/answer"
	"lab-radar.klederson.com/internal/engine"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/location"
	"lab-radar.klederson.com/internal/notify"
	"lab-radar.klederson.com/internal/remote"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// PositionMsg carries one sampler event. Gen identifies the sampler run so
// events from a replaced run are ignored.
type PositionMsg struct {
	Event location.Event
	Gen   int
}

// SamplerClosedMsg reports that a sampler run ended.
type SamplerClosedMsg struct {
	Gen int
}

// CycleMsg reports a finished refresh cycle.
type CycleMsg struct {
	Cycle engine.Cycle
	Err   error
	Gen   int
}

// NotificationMsg is delivered by the background notification worker.
type NotificationMsg struct {
	Notification notify.Notification
}

// AnswerMsg reports a finished answer submission.
type AnswerMsg struct {
	LabID   string
	Outcome answer.Outcome
	Err     error
}

// ReviewMsg reports a finished review submission.
type ReviewMsg struct {
	AdventureID string
	Err         error
}

// JournalMsg asks the view to show a journal.
type JournalMsg struct {
	LabID   string
	Journal answer.Journal
}

// MarkerMsg reports a marker color change.
type MarkerMsg struct {
	LabID string
	Color labs.Color
}

// UserMsg carries the fetched user profile.
type UserMsg struct {
	User remote.User
	Err  error
}

// DetailMsg carries the question text for the detail panel.
type DetailMsg struct {
	Detail remote.Detail
	Err    error
}
