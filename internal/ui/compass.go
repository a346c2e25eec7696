package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lab-radar.klederson.com/internal/radar"
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellAxis
	cellRing
	cellRadius
	cellMark
	cellArrow
)

type compassCell struct {
	ch   byte
	kind cellKind
}

// compassGrid is a fixed-size character canvas. Later writes of a higher
// kind win over lower ones.
type compassGrid struct {
	w, h   int
	cx, cy float64
	rx, ry float64
	cells  []compassCell
}

func newCompassGrid(w, h int) *compassGrid {
	g := &compassGrid{
		w:     w,
		h:     h,
		cx:    float64(w) / 2,
		cy:    float64(h) / 2,
		cells: make([]compassCell, w*h),
	}
	g.rx = math.Max(g.cx-2, 3)
	g.ry = math.Max(g.cy-2, 2)
	return g
}

func (g *compassGrid) set(col, row int, ch byte, kind cellKind) {
	if col < 0 || col >= g.w || row < 0 || row >= g.h {
		return
	}
	c := &g.cells[row*g.w+col]
	if kind >= c.kind {
		c.ch, c.kind = ch, kind
	}
}

// point maps a polar position (fraction of the ring radius, angle clockwise
// from north) to a cell.
func (g *compassGrid) point(frac, angle float64) (int, int) {
	col := int(math.Round(g.cx + frac*g.rx*math.Sin(angle)))
	row := int(math.Round(g.cy - frac*g.ry*math.Cos(angle)))
	return col, row
}

func (g *compassGrid) ellipse(frac float64, kind cellKind, char func(float64) byte) {
	const steps = 80
	for i := 0; i < steps; i++ {
		a := float64(i) * 2 * math.Pi / steps
		col, row := g.point(frac, a)
		g.set(col, row, char(a), kind)
	}
}

// RenderCompass draws a compass pointing toward a lab. angle is the bearing
// in radians (0 = up, clockwise), already relative to the heading when one
// is known. The arrow tip sits at the lab's distance on a scale of twice the
// notification radius; the inner dotted ring marks the radius itself.
func RenderCompass(width, height int, angle, distance, radius float64) string {
	if width < 9 || height < 5 {
		return ""
	}
	g := newCompassGrid(width, height)
	cx, cy := int(math.Round(g.cx)), int(math.Round(g.cy))

	for r := cy - int(g.ry) + 1; r < cy+int(g.ry); r++ {
		g.set(cx, r, ':', cellAxis)
	}
	for c := cx - int(g.rx) + 1; c < cx+int(g.rx); c++ {
		g.set(c, cy, '.', cellAxis)
	}

	g.ellipse(1, cellRing, ringChar)
	if radius > 0 {
		g.ellipse(0.5, cellRadius, func(float64) byte { return '\'' })
	}

	g.set(cx, cy-int(math.Round(g.ry))-1, 'N', cellMark)
	g.set(cx, cy+int(math.Round(g.ry))+1, 'S', cellMark)
	g.set(cx+int(math.Round(g.rx))+1, cy, 'E', cellMark)
	g.set(cx-int(math.Round(g.rx))-1, cy, 'W', cellMark)
	g.set(cx, cy, '+', cellMark)

	tip := arrowLength(distance, radius)
	steps := int(math.Max(g.rx, g.ry)*tip) + 1
	if steps < 2 {
		steps = 2
	}
	shaft := shaftChar(angle)
	var tipCol, tipRow int
	for s := 1; s <= steps; s++ {
		tipCol, tipRow = g.point(tip*float64(s)/float64(steps), angle)
		g.set(tipCol, tipRow, shaft, cellArrow)
	}
	g.set(tipCol, tipRow, arrowTip(angle), cellArrow)

	return g.render(lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(distance, radius))).Bold(true))
}

// arrowLength is the tip position as a fraction of the outer ring. Labs
// beyond the scale are pinned to the ring.
func arrowLength(distance, radius float64) float64 {
	const minFrac, maxFrac = 0.25, 0.95
	scale := radius * 2
	if scale <= 0 {
		scale = 1000
	}
	frac := distance / scale
	return math.Max(minFrac, math.Min(frac, 1)*maxFrac)
}

func (g *compassGrid) render(arrowSty lipgloss.Style) string {
	styles := map[cellKind]lipgloss.Style{
		cellAxis:   lipgloss.NewStyle().Foreground(lipgloss.Color("#003300")),
		cellRing:   lipgloss.NewStyle().Foreground(ColorDimGreen),
		cellRadius: lipgloss.NewStyle().Foreground(lipgloss.Color("#AA7700")),
		cellMark:   lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true),
		cellArrow:  arrowSty,
	}

	var sb strings.Builder
	for row := 0; row < g.h; row++ {
		for col := 0; col < g.w; col++ {
			c := g.cells[row*g.w+col]
			if c.kind == cellEmpty {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteString(styles[c.kind].Render(string(c.ch)))
		}
		if row < g.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// sector returns the 45° sector index (0=N, 1=NE, ...) of an angle.
func sector(a float64) int {
	return int(math.Round(radar.NormalizeAngle(a)/(math.Pi/4))) % 8
}

func ringChar(a float64) byte  { return "-\\|/-\\|/"[sector(a)] }
func shaftChar(a float64) byte { return "|/-\\|/-\\"[sector(a)] }
func arrowTip(a float64) byte  { return "^/>\\v/<\\"[sector(a)] }

// proximityColor turns amber inside the notification radius and fades with
// distance outside it.
func proximityColor(distance, radius float64) string {
	switch {
	case radius > 0 && distance < radius:
		return "#FFAA00"
	case radius > 0 && distance < radius*2:
		return "#00FF41"
	case distance < 500:
		return "#00CC33"
	case distance < 1000:
		return "#00AA22"
	default:
		return "#005511"
	}
}
