package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
	Loop    LoopColors
}

type Symbols struct {
	// Loop states
	Recording rune // ● capturing input
	Playing   rune // ▶ replaying
	Stopped   rune // ■ silent
	Undone    rune // □ on the undo stack

	// Pad preview
	Pad    rune // ■ lit
	PadOff rune // · dark
}

// LoopColors are the fixed state colors shared by the TUI and the pads.
// They don't follow the palette: red must read as recording on any theme.
type LoopColors struct {
	Recording RGB
	Playing   RGB
	Stopped   RGB
	Undone    RGB
	Action    RGB // an available pad action
	Off       RGB
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Recording: '●',
			Playing:   '▶',
			Stopped:   '■',
			Undone:    '□',

			Pad:    '■',
			PadOff: '·',
		},
		Loop: LoopColors{
			Recording: RGB{255, 0, 0},
			Playing:   RGB{0, 255, 0},
			Stopped:   RGB{120, 30, 30},
			Undone:    RGB{30, 40, 110},
			Action:    RGB{180, 180, 180},
			Off:       RGB{0, 0, 0},
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted  = 0.2
	RoleFG     = 0.4
	RoleAccent = 0.5
)

// Style helpers

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

// Lip converts a fixed RGB (e.g. a LoopColors entry) for lipgloss
func (t *Theme) Lip(c RGB) lipgloss.Color {
	return rgbToLipgloss(c)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
