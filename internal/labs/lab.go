package labs

import (
	"fmt"
	"strings"
)

// Color is the visible state of a lab.
type Color string

const (
	ColorNone   Color = ""
	ColorYellow Color = "yellow" // answered correctly
	ColorOrange Color = "orange" // partial answer / hint
	ColorRed    Color = "red"    // wrong answer
	ColorGreen  Color = "green"
)

// ParseColor accepts the persisted color names; unknown values map to ColorNone.
func ParseColor(s string) Color {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case ColorYellow, ColorOrange, ColorRed, ColorGreen:
		return c
	default:
		return ColorNone
	}
}

func (c Color) String() string {
	if c == ColorNone {
		return "none"
	}
	return string(c)
}

// Lab is a single visitable point of interest.
type Lab struct {
	ID          string
	Title       string
	Latitude    float64
	Longitude   float64
	Distance    float64 // Meters from the current position, derived
	Color       Color   // Derived from answer results
	Notified    bool
	KeyImageURL string
}

// DisplayTitle returns the title or the id when the title is empty.
func (l *Lab) DisplayTitle() string {
	if l.Title == "" {
		return "[" + l.ID + "]"
	}
	return l.Title
}

// Answered reports whether the lab was answered correctly.
func (l *Lab) Answered() bool {
	return l.Color == ColorYellow
}

// Patch is the persisted partial record of a lab.
type Patch struct {
	Color Color `json:"color,omitempty"`
}

// PersistenceError reports a failed durable write or read. It is never fatal
// to the in-memory state.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func patchKey(id string) string {
	return "lab:" + id
}
