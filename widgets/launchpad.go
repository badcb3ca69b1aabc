package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"midi-looper/midi"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(colors [][3]uint8) string {
	var out strings.Builder
	for i, c := range colors {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(c))
	}
	return out.String()
}

// RenderPadPreview draws the bottom rows of an 8-wide grid as the device
// would show them (row 0 at the bottom). Unlit pads are drawn as off.
func RenderPadPreview(leds []midi.LEDUpdate, rows int) string {
	grid := make([][][3]uint8, rows)
	for row := range grid {
		grid[row] = make([][3]uint8, 8)
		for col := range grid[row] {
			grid[row][col] = padOff
		}
	}
	for _, led := range leds {
		if led.Row < 0 || led.Row >= rows || led.Col < 0 || led.Col >= 8 {
			continue
		}
		if led.Color != ([3]uint8{}) {
			grid[led.Row][led.Col] = led.Color
		}
	}

	lines := make([]string, 0, rows)
	for row := rows - 1; row >= 0; row-- {
		lines = append(lines, RenderPadRow(grid[row]))
	}
	return strings.Join(lines, "\n")
}

// off pads still show as a faint outline
var padOff = [3]uint8{50, 50, 50}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
