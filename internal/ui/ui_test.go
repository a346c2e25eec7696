package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/msglog"
)

func TestRenderLabListHeight(t *testing.T) {
	ls := make([]labs.Lab, 20)
	for i := range ls {
		ls[i] = labs.Lab{ID: string(rune('a' + i)), Title: "Lab", Distance: float64(i * 10)}
	}

	for _, h := range []int{6, 12, 30} {
		out := RenderLabList(ls, 30, h, ListState{Cursor: 15})
		if got := len(strings.Split(out, "\n")); got != h {
			t.Errorf("height %d rendered %d lines", h, got)
		}
	}
}

func TestRenderLabListEmpty(t *testing.T) {
	out := RenderLabList(nil, 30, 10, ListState{})
	if !strings.Contains(out, "No labs") {
		t.Fatalf("empty list hint missing:\n%s", out)
	}
}

func TestRenderLabListWaiting(t *testing.T) {
	ls := []labs.Lab{{ID: "x", Title: "X"}, {ID: "y", Title: "Y"}}
	out := RenderLabList(ls, 40, 12, ListState{Cursor: 1, Waiting: func(id string) bool { return id == "x" }})
	if !strings.Contains(out, "waiting") {
		t.Fatalf("waiting indicator missing:\n%s", out)
	}
}

func TestStatusBarInputReplacesSummary(t *testing.T) {
	out := RenderStatusBar(80, StatusInfo{Mode: "continuous", InputPrompt: "Answer X:", Input: "42"})
	if !strings.Contains(out, "Answer X:") || !strings.Contains(out, "42_") {
		t.Fatalf("input line missing: %q", out)
	}
	if strings.Contains(out, "Labs:") {
		t.Fatal("summary shown while typing")
	}
}

func TestStatusBarSummary(t *testing.T) {
	out := RenderStatusBar(120, StatusInfo{
		Mode:       "interval",
		Permission: "granted",
		Labs:       3,
		ByColor:    map[labs.Color]int{labs.ColorYellow: 2},
		FromAnchor: -1,
		Threshold:  250,
	})
	for _, want := range []string{"[interval]", "Labs: 3", "Y:2", "Anchor: --", "granted"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
}

func TestMessagesPage(t *testing.T) {
	rows := []msglog.Row{{Time: "10:00:02", Text: "second"}, {Time: "10:00:01", Text: "first"}}
	out := RenderMessagesPage(rows, 60, 10, 0)
	if strings.Index(out, "second") > strings.Index(out, "first") {
		t.Fatal("messages not newest first")
	}
	if got := len(strings.Split(out, "\n")); got != 10 {
		t.Fatalf("rendered %d lines, want 10", got)
	}
}

func TestCompassSize(t *testing.T) {
	out := RenderCompass(21, 9, 0, 50, 100)
	lines := strings.Split(out, "\n")
	if len(lines) != 9 {
		t.Fatalf("compass rows = %d", len(lines))
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w != 21 {
			t.Fatalf("compass row width = %d", w)
		}
	}
	if RenderCompass(5, 3, 0, 0, 0) != "" {
		t.Fatal("tiny compass should be empty")
	}
}

func TestProximityColor(t *testing.T) {
	if proximityColor(50, 100) != "#FFAA00" {
		t.Error("inside radius should be amber")
	}
	if proximityColor(150, 100) != "#00FF41" {
		t.Error("near radius should be bright")
	}
	if proximityColor(5000, 0) != "#005511" {
		t.Error("far without radius should be dim")
	}
}

func TestSectorChars(t *testing.T) {
	if arrowTip(0) != '^' || arrowTip(3.14159) != 'v' {
		t.Error("arrow tips wrong")
	}
	if shaftChar(1.5708) != '-' {
		t.Error("east shaft should be horizontal")
	}
}
