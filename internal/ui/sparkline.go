package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline creates a sparkline visualization from a slice of float64
// values. The width parameter determines how many of the most recent data
// points to display. Values are mapped to 8 vertical levels based on the
// min/max range of the window.
func RenderSparkline(data []float64, width int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	// Use only the most recent 'width' data points
	if len(data) > width {
		data = data[len(data)-width:]
	}

	// Find min and max values
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	sb.Grow(len(data) * 4) // UTF-8 block chars are up to 3 bytes + some buffer

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		var level int
		if valueRange == 0 {
			// All values are the same, use middle level
			level = numLevels / 2
		} else {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// RenderBar renders a labeled horizontal bar scaled to maxValue, e.g.
//
//	sensors/temp  ████████░ 42
//
// labelWidth pads the label column so stacked bars align.
func RenderBar(label string, value, maxValue int, barWidth, labelWidth int, color lipgloss.Color) string {
	if barWidth <= 0 {
		barWidth = 10
	}
	if len(label) > labelWidth && labelWidth > 3 {
		label = label[:labelWidth-1] + "…"
	}

	filled := 0
	if maxValue > 0 {
		filled = value * barWidth / maxValue
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 1 && value > 0 {
		filled = 1
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	styled := lipgloss.NewStyle().Foreground(color).Render(bar)
	return fmt.Sprintf("%-*s %s %d", labelWidth, label, styled, value)
}
