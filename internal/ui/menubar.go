package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, user string, sampling bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"A", "nswer"},
		{"N", "otify"},
		{"H", "ide"},
		{"M", "essages"},
		{"R", "estart"},
		{"Q", "uit"},
	}

	var menu strings.Builder
	for _, k := range keys {
		menu.WriteString("  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label))
	}

	status := StyleStatusIdle.Render("IDLE")
	if sampling {
		status = StyleStatusActive.Render("TRACKING")
	}

	left := StyleMenuKey.Render(title) + menu.String()
	right := status + "  " + StyleMenuLabel.Render("User: "+user) + " "

	return StyleMenuBar.Width(width).Render(left + pad(width-lipgloss.Width(left)-lipgloss.Width(right)) + right)
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
