package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the main panel and the lab list horizontally, with the
// menu bar on top and the status bar (preceded by an optional banner) at the
// bottom.
func ComposeLayout(menuBar, mainPanel, labList, banner, statusBar string) string {
	middle := mainPanel
	if labList != "" {
		middle = lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, labList)
	}
	rows := []string{menuBar, middle}
	if banner != "" {
		rows = append(rows, banner)
	}
	rows = append(rows, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
