// Package export renders stored trajectories as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/bugsim/internal/analysis"
)

// Series is one named line of a time series plot.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

var palette = []string{"#00ff88", "#ff4444", "#00ccff", "#ffcc00", "#ff00ff", "#88ff88"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// pad widens the box by 10% on each side and keeps both ranges non-zero.
func (b *bounds) pad() {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func newBounds() bounds {
	return bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func path(sb *strings.Builder, xs, ys []float64, b bounds, width, height int, color string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
	for i := range xs {
		x, y := b.project(xs[i], ys[i], width, height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TrajectoryToSVG draws a phase portrait as a single path.
func TrajectoryToSVG(portrait *analysis.PhasePortrait2D, width, height int, strokeColor string) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}

	b := newBounds()
	xs := make([]float64, len(portrait.Points))
	ys := make([]float64, len(portrait.Points))
	for i, p := range portrait.Points {
		xs[i], ys[i] = p.X, p.Y
		b.add(p.X, p.Y)
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, xs, ys, b, width, height, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// TimeSeriesSVG draws every series against times on shared axes, with a
// legend in the top-left corner. Series without a color get one from the
// palette.
func TimeSeriesSVG(times []float64, series []Series, width, height int) string {
	if len(times) < 2 || len(series) == 0 {
		return ""
	}

	b := newBounds()
	for _, s := range series {
		for i, v := range s.Values {
			if i < len(times) {
				b.add(times[i], v)
			}
		}
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	for si, s := range series {
		color := s.Color
		if color == "" {
			color = palette[si%len(palette)]
		}
		n := min(len(times), len(s.Values))
		if n < 2 {
			continue
		}
		path(&sb, times[:n], s.Values[:n], b, width, height, color)
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*si, color, s.Name)
	}
	sb.WriteString("</svg>")
	return sb.String()
}
