package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
)

// StatusInfo is what the bottom bar summarizes.
type StatusInfo struct {
	Mode         string
	Permission   string
	Labs         int
	ByColor      map[labs.Color]int
	FromAnchor   float64 // Meters from the last large refresh, negative when unknown
	Threshold    float64
	Err          string
	Input        string // Non-empty while the user is typing
	InputPrompt  string
	HideAnswered bool
}

// RenderStatusBar renders the bottom status bar. An active input line
// replaces the summary.
func RenderStatusBar(width int, s StatusInfo) string {
	if s.InputPrompt != "" {
		line := StyleMenuKey.Render(s.InputPrompt+" ") + StyleInput.Render(s.Input+"_")
		return StyleStatusBar.Width(width).Render(line + pad(width-lipgloss.Width(line)))
	}

	mode := StyleStatusActive.Render("[" + s.Mode + "]")
	if s.Err != "" {
		mode = StyleStatusError.Render("[" + s.Mode + ": " + s.Err + "]")
	}

	anchor := "--"
	if s.FromAnchor >= 0 {
		anchor = fmt.Sprintf("%s/%s", geo.FormatDistance(s.FromAnchor), geo.FormatDistance(s.Threshold))
	}

	hidden := ""
	if s.HideAnswered {
		hidden = "  hiding answered"
	}

	info := fmt.Sprintf(" Labs: %d  Y:%d O:%d R:%d  Anchor: %s  Notify: %s%s",
		s.Labs, s.ByColor[labs.ColorYellow], s.ByColor[labs.ColorOrange], s.ByColor[labs.ColorRed],
		anchor, s.Permission, hidden)

	content := mode + StyleStatusBar.Foreground(ColorGreen).Render(info)
	return StyleStatusBar.Width(width).Render(content + pad(width-lipgloss.Width(content)))
}
