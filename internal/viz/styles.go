package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	GlassPanel    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("#444466"))
	Subtle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	KeyHint       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)
	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	MetricValue   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	MetricLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	NegativeValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6666"))
	ActiveParam   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	SparkHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// SparklineChart renders a mini sparkline of the last width values.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}

	return result.String()
}

// ProgressBar renders a bar filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 0.8 {
		return SparkHigh.Render(bar)
	} else if percent > 0.4 {
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// RatesTable renders one row per compartment with its value and rate of
// change.
func RatesTable(names []string, y, ydot []float64) string {
	nameWidth := len("compartment")
	for _, n := range names {
		nameWidth = max(nameWidth, len(n))
	}

	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(fmt.Sprintf("%-*s %14s %14s", nameWidth, "compartment", "value", "rate")))
	sb.WriteString("\n")
	for i, n := range names {
		if i >= len(y) || i >= len(ydot) {
			break
		}
		rate := fmt.Sprintf("%14.6g", ydot[i])
		if ydot[i] < 0 {
			rate = NegativeValue.Render(rate)
		} else {
			rate = MetricValue.Render(rate)
		}
		sb.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", nameWidth, n)))
		sb.WriteString(fmt.Sprintf(" %14.6g ", y[i]))
		sb.WriteString(rate)
		sb.WriteString("\n")
	}
	return GlassPanel.Render(strings.TrimRight(sb.String(), "\n"))
}

// Separator draws a decorated horizontal rule.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
