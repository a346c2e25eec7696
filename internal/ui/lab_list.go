package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
)

// Cursor row style: black text on bright green
var cursorRowSty = lipgloss.NewStyle().
	Foreground(ColorBlack).
	Background(ColorMatrixGreen).
	Bold(true)

// ListState holds the list view options.
type ListState struct {
	Cursor       int
	HideAnswered bool
	Waiting      func(id string) bool
}

// RenderLabList renders the scrollable lab list panel. The header stays fixed
// at the top; only the entries scroll.
func RenderLabList(ls []labs.Lab, width, height int, st ListState) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("LABS [%d]", len(ls)))
	separator := StyleRadarRing.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator, renderFilterBar(st.HideAnswered)}
	headerCount := len(headerLines)

	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}
	space := innerH - headerCount

	var lines []string
	if len(ls) == 0 {
		lines = append(lines, "", StyleHelp.Render(" No labs..."), StyleHelp.Render(" Waiting for position"))
	} else {
		const linesPerLab = 3 // 2 content + 1 blank
		maxVisible := space / linesPerLab
		if maxVisible < 1 {
			maxVisible = 1
		}

		viewStart := 0
		if st.Cursor >= maxVisible {
			viewStart = st.Cursor - maxVisible + 1
		}

		for i := viewStart; i < len(ls) && len(lines) < space; i++ {
			waiting := st.Waiting != nil && st.Waiting(ls[i].ID)
			lines = append(lines, renderLabEntry(&ls[i], innerW, i == st.Cursor, waiting)...)
		}
	}

	if len(lines) > space {
		lines = lines[:space]
	}
	for len(lines) < space {
		lines = append(lines, "")
	}

	all := append(headerLines, lines...)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))
	return clampLines(rendered, height)
}

func renderLabEntry(l *labs.Lab, maxW int, isCursor, waiting bool) []string {
	cursor := "  "
	if isCursor {
		cursor = ">>"
	}

	title := l.DisplayTitle()
	titleMax := maxW - 8
	if titleMax < 4 {
		titleMax = 4
	}
	if len(title) > titleMax {
		title = title[:titleMax]
	}

	mark := "o"
	switch l.Color {
	case labs.ColorYellow:
		mark = "Y"
	case labs.ColorOrange:
		mark = "O"
	case labs.ColorRed:
		mark = "X"
	case labs.ColorGreen:
		mark = "G"
	}

	status := ""
	if waiting {
		status = "  waiting..."
	} else if l.Notified {
		status = "  notified"
	}

	raw1 := truncRaw(fmt.Sprintf("%s %s %s", cursor, mark, title), maxW)
	raw2 := truncRaw(fmt.Sprintf("     %s  %s%s", geo.FormatDistance(l.Distance), l.ID, status), maxW)

	if isCursor {
		return []string{cursorRowSty.Render(raw1), cursorRowSty.Render(raw2), ""}
	}

	line1 := fmt.Sprintf("   %s %s", ColorStyle(l.Color).Render(mark), StyleLabTitle.Render(title))
	line2 := "     " + StyleLabDist.Render(geo.FormatDistance(l.Distance)) + "  " + StyleLabID.Render(l.ID)
	if waiting {
		line2 += StyleWaiting.Render("  waiting...")
	} else if l.Notified {
		line2 += StyleHelp.Render("  notified")
	}
	return []string{truncStyled(line1, maxW), truncStyled(line2, maxW), ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if len(s) > w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}

// truncStyled drops styled content that would wrap inside the panel.
func truncStyled(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(w).Render(s)
}

// clampLines forces rendered output to exactly height lines. lipgloss
// Height() only sets a minimum.
func clampLines(rendered string, height int) string {
	out := strings.Split(rendered, "\n")
	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func renderFilterBar(hideAnswered bool) string {
	if hideAnswered {
		return " " + StyleFilterActive.Render("[H:hide answered]")
	}
	return " " + StyleFilterInactive.Render("[H:hide answered]")
}
