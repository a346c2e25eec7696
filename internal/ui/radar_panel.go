package ui

// RenderRadarPanel wraps radar content with a styled border.
// The radar itself is rendered by the radar package.
func RenderRadarPanel(width, height int, radarContent, legend string) string {
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(radarContent + "\n" + legend)
}

// RenderBanner renders the most recent notification above the status bar.
func RenderBanner(width int, text string) string {
	if text == "" {
		return ""
	}
	return StyleBanner.Width(width).Render(truncRaw(text, width-2))
}
