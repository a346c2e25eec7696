package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/radar"
)

// DetailInfo is the lab detail view model.
type DetailInfo struct {
	Lab      labs.Lab
	State    string
	Bearing  float64  // Degrees from the current position to the lab
	Heading  *float64 // Current heading, nil when unknown
	Radius   float64  // Notification distance
	Question string
}

// RenderDetailPanel renders the lab detail overlay that replaces the radar area.
func RenderDetailPanel(d DetailInfo, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	lines := panelHeader("LAB DETAIL", "[ESC]", innerW)

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	fields := []struct{ label, value string }{
		{"Title", d.Lab.DisplayTitle()},
		{"ID", d.Lab.ID},
		{"Color", ColorStyle(d.Lab.Color).Render(d.Lab.Color.String())},
		{"State", d.State},
		{"Distance", geo.FormatDistance(d.Lab.Distance)},
		{"Bearing", geo.FormatBearing(d.Bearing)},
		{"Notified", fmt.Sprint(d.Lab.Notified)},
	}
	if d.Question != "" {
		fields = append(fields, struct{ label, value string }{"Question", d.Question})
	}

	for _, f := range fields {
		lines = append(lines, labelSty.Render(fmt.Sprintf("  %-10s", f.label))+valSty.Render(f.value))
	}
	lines = append(lines, "")

	compassH := height - len(lines) - 5
	if compassH < 5 {
		compassH = 5
	}
	compassW := innerW
	if compassW > compassH*3 {
		compassW = compassH * 3
	}

	// Point relative to the direction of travel when it is known.
	rel := d.Bearing
	if d.Heading != nil {
		rel -= *d.Heading
	}
	compass := RenderCompass(compassW, compassH, radar.DegreesToAngle(rel), d.Lab.Distance, d.Radius)
	if compass != "" {
		prefix := pad((innerW - compassW) / 2)
		for _, cl := range strings.Split(compass, "\n") {
			lines = append(lines, prefix+cl)
		}
	}

	ref := "north up"
	if d.Heading != nil {
		ref = "heading " + geo.FormatBearing(*d.Heading)
	}
	label := fmt.Sprintf("%s  %s  %s", geo.FormatDistance(d.Lab.Distance), geo.FormatBearing(d.Bearing), ref)
	lines = append(lines, pad((innerW-len(label))/2)+valSty.Render(label))

	return StylePanelActive.Width(width - 2).Height(height - 2).Render(fill(lines, height-2))
}

// RenderJournalPanel renders the journal shown after a correct answer.
func RenderJournalPanel(title string, journal []string, reviewFor string, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	lines := panelHeader("JOURNAL", "[ESC]", innerW)
	lines = append(lines, StyleLabTitle.Render("  "+title), "")

	bodySty := lipgloss.NewStyle().Foreground(ColorGreen).Width(innerW - 2)
	for _, l := range journal {
		lines = append(lines, "  "+bodySty.Render(l))
	}

	if reviewFor != "" {
		lines = append(lines, "", StyleMenuKey.Render("  [V]")+StyleMenuLabel.Render(" rate this adventure (1-5)"))
	}

	return StylePanelActive.Width(width - 2).Height(height - 2).Render(fill(lines, height-2))
}

func panelHeader(title, hint string, innerW int) []string {
	t := StylePanelTitle.Render(title)
	h := StyleHelp.Render(hint)
	return []string{
		t + pad(innerW-lipgloss.Width(t)-lipgloss.Width(h)) + h,
		StyleRadarRing.Render(strings.Repeat("-", innerW)),
		"",
	}
}

// fill pads lines to n rows and truncates overflow.
func fill(lines []string, n int) string {
	if n < 1 {
		n = 1
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
