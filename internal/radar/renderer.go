package radar

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
)

var (
	colorBright   = lipgloss.Color("#00FF41")
	colorMid      = lipgloss.Color("#008F11")
	colorDim      = lipgloss.Color("#004A0A")
	colorLabelDim = lipgloss.Color("#008F11")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing     = lipgloss.NewStyle().Foreground(colorMid)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleLabelDim = lipgloss.NewStyle().Foreground(colorLabelDim)
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(colorBright).Bold(true)
)

// labColors maps a lab color to its marker color on the radar.
var labColors = map[labs.Color]lipgloss.Color{
	labs.ColorNone:   lipgloss.Color("#00FFAA"),
	labs.ColorYellow: lipgloss.Color("#FFD700"),
	labs.ColorOrange: lipgloss.Color("#FF8800"),
	labs.ColorRed:    lipgloss.Color("#FF3300"),
	labs.ColorGreen:  lipgloss.Color("#33FF66"),
}

// MarkerColor returns the display color for a lab color.
func MarkerColor(c labs.Color) lipgloss.Color {
	if col, ok := labColors[c]; ok {
		return col
	}
	return labColors[labs.ColorNone]
}

func markerSymbol(c labs.Color) string {
	switch c {
	case labs.ColorYellow:
		return "Y"
	case labs.ColorOrange:
		return "O"
	case labs.ColorRed:
		return "X"
	case labs.ColorGreen:
		return "G"
	default:
		return "*"
	}
}

const maxLabelLen = 8

// Blip is one lab placed relative to the radar center.
type Blip struct {
	ID       string
	Angle    float64 // Radians, 0=north, clockwise
	Distance float64 // Meters
	Label    string
	Color    labs.Color
	Selected bool
}

// Blips positions labs around origin. Labs without coordinates are skipped.
func Blips(origin geo.Coordinate, ls []labs.Lab, selectedID string) []Blip {
	out := make([]Blip, 0, len(ls))
	for i := range ls {
		l := &ls[i]
		if l.Latitude == 0 && l.Longitude == 0 {
			continue
		}
		pos := geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
		label := l.DisplayTitle()
		if len(label) > maxLabelLen {
			label = label[:maxLabelLen]
		}
		out = append(out, Blip{
			ID:       l.ID,
			Angle:    DegreesToAngle(geo.Bearing(origin, pos)),
			Distance: geo.Distance(origin, pos),
			Label:    label,
			Color:    l.Color,
			Selected: l.ID == selectedID,
		})
	}
	return out
}

type blipPos struct {
	col, row int
	blip     Blip
	label    string
	labelCol int
	labelRow int
}

type segment struct{ start, end int }

// Render produces the complete radar display as a styled string. The outer
// ring is maxRange meters from the center.
func Render(width, height int, blips []Blip, sweep *Sweep, maxRange float64) string {
	if width < 10 || height < 5 {
		return ""
	}

	centerX := width / 2
	centerY := height / 2
	radius := float64(min(centerX-1, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}

	ringRadii := make([]float64, config.RingCount)
	for i := range ringRadii {
		ringRadii[i] = radius * float64(i+1) / float64(config.RingCount)
	}

	bps := placeBlips(blips, centerX, centerY, radius, width, maxRange)

	type labelCell struct {
		idx     int
		charIdx int
	}
	labelMap := make(map[int]labelCell)
	for i, bp := range bps {
		for ci := 0; ci < len(bp.label); ci++ {
			labelMap[bp.labelRow*width+bp.labelCol+ci] = labelCell{idx: i, charIdx: ci}
		}
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if lc, ok := labelMap[row*width+col]; ok {
				bp := bps[lc.idx]
				sb.WriteString(styleLabel(bp.blip, sweep, col, row, centerX, centerY, bp.label[lc.charIdx]))
				continue
			}
			sb.WriteString(renderCell(col, row, centerX, centerY, radius, ringRadii, sweep, bps))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// placeBlips computes positions and resolves label collisions. Labels that
// cannot be placed right, below or above are dropped.
func placeBlips(blips []Blip, centerX, centerY int, radius float64, width int, maxRange float64) []blipPos {
	bps := make([]blipPos, 0, len(blips))
	occupied := make(map[int][]segment)

	collides := func(row, start, end int) bool {
		for _, seg := range occupied[row] {
			if start < seg.end && end > seg.start {
				return true
			}
		}
		return false
	}

	for _, b := range blips {
		r := MetersToRadius(b.Distance, maxRange, radius)
		dc := centerX + int(math.Round(r*math.Sin(b.Angle)))
		dr := centerY - int(math.Round(r*math.Cos(b.Angle)*config.AspectRatio))

		label := b.Label
		lc := dc + 2
		if lc+len(label) >= width {
			lc = dc - len(label) - 1
		}
		if lc < 0 {
			lc = 0
		}

		lr := dr
		placed := false
		for _, tryRow := range []int{dr, dr + 1, dr - 1} {
			if !collides(tryRow, lc, lc+len(label)) {
				lr = tryRow
				placed = true
				break
			}
		}
		if !placed {
			label = ""
		}

		bps = append(bps, blipPos{col: dc, row: dr, blip: b, label: label, labelCol: lc, labelRow: lr})
		occupied[dr] = append(occupied[dr], segment{dc, dc + 1})
		if label != "" {
			occupied[lr] = append(occupied[lr], segment{lc, lc + len(label)})
		}
	}

	return bps
}

func styleLabel(b Blip, sweep *Sweep, col, row, centerX, centerY int, ch byte) string {
	s := string(ch)
	if b.Selected {
		return styleSelected.Render(s)
	}
	if sweep.Intensity(CellAngle(col, row, centerX, centerY)) > 0.5 {
		return lipgloss.NewStyle().Foreground(colorBright).Bold(true).Render(s)
	}
	if b.Color == labs.ColorNone {
		return styleLabelDim.Render(s)
	}
	return lipgloss.NewStyle().Foreground(MarkerColor(b.Color)).Render(s)
}

func renderCell(col, row, centerX, centerY int, radius float64, ringRadii []float64, sweep *Sweep, bps []blipPos) string {
	dist := CellDistance(col, row, centerX, centerY)
	angle := CellAngle(col, row, centerX, centerY)

	// Input is sorted nearest first, so the nearest lab wins a shared cell.
	for _, bp := range bps {
		if col == bp.col && row == bp.row {
			return renderBlip(bp.blip, sweep, angle)
		}
	}

	if dist > radius+0.5 {
		return " "
	}

	if col == centerX && row == centerY {
		return styleCenter.Render("+")
	}

	if col == centerX {
		return renderSweepChar('|', sweep, angle)
	}
	if row == centerY {
		return renderSweepChar('-', sweep, angle)
	}

	for _, ringR := range ringRadii {
		if math.Abs(dist-ringR) < 0.8 {
			return renderSweepChar(RingChar(angle), sweep, angle)
		}
	}

	return renderInteriorCell(sweep, angle)
}

func renderBlip(b Blip, sweep *Sweep, cellAngle float64) string {
	sym := markerSymbol(b.Color)
	if b.Selected {
		return styleSelected.Render("@")
	}
	sty := lipgloss.NewStyle().Foreground(MarkerColor(b.Color)).Bold(true)
	if sweep.Intensity(cellAngle) > 0.5 && b.Color == labs.ColorNone {
		sty = sty.Foreground(colorBright)
	}
	return sty.Render(sym)
}

func renderSweepChar(ch rune, sweep *Sweep, angle float64) string {
	color := sweepColor(sweep.Intensity(angle))
	if color == "" {
		return styleRing.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func renderInteriorCell(sweep *Sweep, angle float64) string {
	color := sweepColor(sweep.Intensity(angle))
	if color == "" {
		return styleDot.Render(".")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(".")
}

func sweepColor(intensity float64) string {
	switch {
	case intensity <= 0:
		return ""
	case intensity > 0.8:
		return "#00FF41"
	case intensity > 0.5:
		return "#00CC33"
	case intensity > 0.3:
		return "#00AA22"
	default:
		return "#005511"
	}
}

// RenderLegend produces the radar legend line for the given range.
func RenderLegend(width int, maxRange float64) string {
	entries := []labs.Color{labs.ColorNone, labs.ColorYellow, labs.ColorOrange, labs.ColorRed}
	legend := " "
	for _, c := range entries {
		name := "open"
		if c != labs.ColorNone {
			name = c.String()
		}
		legend += "  " + lipgloss.NewStyle().Foreground(MarkerColor(c)).Render(markerSymbol(c)+" "+name)
	}
	legend += "  " + styleRing.Render("ring "+geo.FormatDistance(maxRange/float64(config.RingCount)))

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
