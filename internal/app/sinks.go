package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"lab-radar.klederson.com/internal/answer"
	"lab-radar.klederson.com/internal/labs"
)

// sender is the part of *tea.Program the sinks use.
type sender interface {
	Send(msg tea.Msg)
}

// programSink forwards answer machine callbacks into the event loop.
type programSink struct {
	p sender
}

func (s programSink) SetMarkerColor(id string, c labs.Color) {
	s.p.Send(MarkerMsg{LabID: id, Color: c})
}

func (s programSink) ShowJournal(id string, j answer.Journal) {
	s.p.Send(JournalMsg{LabID: id, Journal: j})
}
