package ui

import (
	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/msglog"
)

// RenderMessagesPage renders the message log, newest first.
func RenderMessagesPage(rows []msglog.Row, width, height, offset int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	lines := panelHeader("MESSAGES", "[M] back", innerW)

	if len(rows) == 0 {
		lines = append(lines, StyleHelp.Render("  No messages yet"))
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	if offset < 0 {
		offset = 0
	}

	timeSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	textSty := lipgloss.NewStyle().Foreground(ColorGreen)
	for _, r := range rows[offset:] {
		line := timeSty.Render(" "+r.Time+" ") + textSty.Render(r.Text)
		lines = append(lines, truncStyled(line, innerW))
	}

	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(fill(lines, height-2))
}
