package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/plasmafractal/pkg/display"
)

// halfBlock shows two vertically stacked pixels in one terminal cell: the
// upper one as foreground, the lower one as background.
const halfBlock = "▀"

// renderCanvas draws f as rows of half-blocks, two pixel rows per line.
// Colors degrade to whatever profile r detects for its output.
func renderCanvas(r *lipgloss.Renderer, f *display.Frame) string {
	var b strings.Builder
	base := r.NewStyle()
	for y := 0; y < f.Height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < f.Width; x++ {
			top := f.At(x, y)
			var bottom uint32
			if y+1 < f.Height {
				bottom = f.At(x, y+1)
			}
			b.WriteString(base.Foreground(termColor(top)).Background(termColor(bottom)).Render(halfBlock))
		}
	}
	return b.String()
}

// termColor converts a packed ARGB pixel to a terminal color. Transparent
// pixels leave the cell's default color.
func termColor(p uint32) lipgloss.TerminalColor {
	if p>>24 == 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(fmt.Sprintf("#%06x", p&0xFFFFFF))
}

// canvasSize returns the frame size in pixels for a terminal area of
// cols x rows cells.
func canvasSize(cols, rows int) (int, int) {
	return max(cols, 0), max(rows, 0) * 2
}
