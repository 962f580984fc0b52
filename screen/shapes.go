package screen

import (
	"math"
	"sort"
	"strings"

	"github.com/pe-ge/cda/engine"
)

// Stimulus sizes in cm.
const (
	fixRadius      = 0.15
	arrowShaft     = 0.25
	arrowPointBase = 3.0
	arrowSize      = 2.0
	arrowY         = 1.5
	textY          = 5.0
	promptY        = -5.5
	textHeight     = 0.5
	patchPixels    = 40
)

// vec is a point in pixels, y pointing down.
type vec struct{ x, y float64 }

// layout converts cm around the screen center into pixels.
type layout struct {
	w, h    int
	pxPerCM float64
}

func newLayout(m engine.Monitor) layout {
	ppcm := 1.0
	if m.WidthCM > 0 {
		ppcm = float64(m.Width) / m.WidthCM
	}
	return layout{w: m.Width, h: m.Height, pxPerCM: ppcm}
}

func (l layout) px(p engine.Point) vec {
	return vec{
		x: float64(l.w)/2 + p.X*l.pxPerCM,
		y: float64(l.h)/2 - p.Y*l.pxPerCM,
	}
}

// rectCorners returns the corners of a w by h cm rectangle centered at pos
// and turned clockwise by ori degrees.
func (l layout) rectCorners(pos engine.Point, w, h float64, ori int) []vec {
	th := float64(ori) * math.Pi / 180
	sin, cos := math.Sincos(th)
	local := [4][2]float64{{-w / 2, -h / 2}, {w / 2, -h / 2}, {w / 2, h / 2}, {-w / 2, h / 2}}
	out := make([]vec, 0, 4)
	for _, c := range local {
		x := c[0]*cos + c[1]*sin
		y := -c[0]*sin + c[1]*cos
		out = append(out, l.px(engine.Point{X: pos.X + x, Y: pos.Y + y}))
	}
	return out
}

// arrow returns the cue polygon pointing towards side.
func (l layout) arrow(side engine.Hemifield) []vec {
	verts := [][2]float64{
		{-0.5 * arrowPointBase, 0},
		{-0.25 * arrowPointBase, arrowSize * arrowShaft},
		{-0.25 * arrowPointBase, 0.5 * arrowShaft},
		{0.5 * arrowPointBase, 0.5 * arrowShaft},
		{0.5 * arrowPointBase, -0.5 * arrowShaft},
		{-0.25 * arrowPointBase, -0.5 * arrowShaft},
		{-0.25 * arrowPointBase, -arrowSize * arrowShaft},
	}
	mirror := -float64(side)
	out := make([]vec, len(verts))
	for i, v := range verts {
		out[i] = l.px(engine.Point{X: v[0] * mirror, Y: arrowY + v[1]})
	}
	return out
}

// circle approximates a disc with a polygon.
func (l layout) circle(center engine.Point, r float64) []vec {
	const n = 24
	out := make([]vec, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / n
		out[i] = l.px(engine.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return out
}

// span is one horizontal run of a filled polygon.
type span struct {
	y, x0, x1 float64
}

// scanline fills poly with horizontal spans, one per pixel row, using the
// even-odd rule.
func scanline(poly []vec) []span {
	if len(poly) < 3 {
		return nil
	}
	minY, maxY := poly[0].y, poly[0].y
	for _, p := range poly[1:] {
		minY = math.Min(minY, p.y)
		maxY = math.Max(maxY, p.y)
	}

	var spans []span
	var xs []float64
	for y := math.Floor(minY) + 0.5; y <= maxY; y++ {
		xs = xs[:0]
		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			if (a.y <= y && b.y > y) || (b.y <= y && a.y > y) {
				xs = append(xs, a.x+(y-a.y)*(b.x-a.x)/(b.y-a.y))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			spans = append(spans, span{y: y, x0: xs[i], x1: xs[i+1]})
		}
	}
	return spans
}

// wrap breaks text into lines of at most width runes at spaces. Explicit
// newlines are kept.
func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case len([]rune(line))+1+len([]rune(word)) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}
