package ui

import (
	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/radar"
)

// Matrix color palette
var (
	ColorMatrixGreen  = lipgloss.Color("#00FF41")
	ColorGreen        = lipgloss.Color("#00CC33")
	ColorMidGreen     = lipgloss.Color("#008F11")
	ColorDimGreen     = lipgloss.Color("#004A0A")
	ColorBlack        = lipgloss.Color("#000000")
	ColorBorderBright = lipgloss.Color("#00FF41")
	ColorBorderNorm   = lipgloss.Color("#00AA22")
	ColorError        = lipgloss.Color("#FF3300")
	ColorWarning      = lipgloss.Color("#FFAA00")
)

// Pre-built styles
var (
	StyleMenuBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleMenuLabel = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorGreen).
			Padding(0, 1)

	StyleStatusActive = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleStatusIdle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	StyleStatusError = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderNorm)

	StylePanelActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderBright)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleLabTitle = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleLabID = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleLabDist = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleWaiting = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Blink(true)

	StyleFilterActive = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleFilterInactive = lipgloss.NewStyle().
				Foreground(ColorDimGreen)

	StyleRadarRing = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDimGreen)

	StyleBanner = lipgloss.NewStyle().
			Foreground(ColorBlack).
			Background(ColorWarning).
			Bold(true).
			Padding(0, 1)

	StyleInput = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Background(lipgloss.Color("#003300"))
)

// ColorStyle returns the foreground style for a lab color.
func ColorStyle(c labs.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(radar.MarkerColor(c)).Bold(c != labs.ColorNone)
}
