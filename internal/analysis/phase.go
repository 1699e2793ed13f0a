package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/bugsim/internal/dynamo"
)

var ErrAxis = errors.New("analysis: axis out of range")

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// PortraitFromStates projects recorded states onto two compartments.
func PortraitFromStates(states [][]float64, xIdx, yIdx int) (*PhasePortrait2D, error) {
	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(states)),
	}
	for i, s := range states {
		if xIdx < 0 || yIdx < 0 || xIdx >= len(s) || yIdx >= len(s) {
			return nil, fmt.Errorf("%w: sample %d has %d values", ErrAxis, i, len(s))
		}
		portrait.Points = append(portrait.Points, Point{X: s[xIdx], Y: s[yIdx]})
	}
	return portrait, nil
}

// GeneratePhasePortrait runs a simulation and records the phase space
// trajectory, including the initial state.
func GeneratePhasePortrait(
	ctx context.Context,
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	xIdx, yIdx int,
	cfg dynamo.Config,
) (*PhasePortrait2D, error) {
	if xIdx < 0 || yIdx < 0 || xIdx >= len(x0) || yIdx >= len(x0) {
		return nil, fmt.Errorf("%w: state has %d values", ErrAxis, len(x0))
	}

	result, err := dynamo.New(sys, integ).Run(ctx, x0, cfg)
	if err != nil {
		return nil, err
	}

	states := make([][]float64, len(result.States))
	for i, s := range result.States {
		states[i] = s
	}
	return PortraitFromStates(states, xIdx, yIdx)
}

// PhasePortraitToASCII converts phase portrait to ASCII art. Points are
// drawn '.', 'o' and '●' for the early, middle and late third of the
// trajectory.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	n := len(portrait.Points)
	for i, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			switch {
			case i < n/3:
				canvas[row][col] = '.'
			case i < 2*n/3:
				canvas[row][col] = 'o'
			default:
				canvas[row][col] = '●'
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%10.3g ┌%s┐\n", maxY, strings.Repeat("─", width))
	for i, row := range canvas {
		if i == height/2 {
			fmt.Fprintf(&sb, "%10.3g │", (maxY+minY)/2)
		} else {
			sb.WriteString(strings.Repeat(" ", 11) + "│")
		}
		sb.WriteString(string(row))
		sb.WriteString("│\n")
	}
	fmt.Fprintf(&sb, "%10.3g └%s┘\n", minY, strings.Repeat("─", width))

	left := fmt.Sprintf("%.3g", minX)
	right := fmt.Sprintf("%.3g", maxX)
	gap := width + 2 - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	sb.WriteString(strings.Repeat(" ", 11) + left + strings.Repeat(" ", gap) + right + "\n")
	return sb.String()
}
