package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/plasmafractal/pkg/display"
)

func solidFrame(w, h int, p uint32) *display.Frame {
	f := &display.Frame{Width: w, Height: h, Pix: make([]uint32, w*h)}
	for i := range f.Pix {
		f.Pix[i] = p
	}
	return f
}

func TestRenderCanvas(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})

	tests := []struct {
		name  string
		w, h  int
		lines int
	}{
		{"even height", 4, 4, 2},
		{"odd height", 3, 5, 3},
		{"single row", 7, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderCanvas(r, solidFrame(tt.w, tt.h, 0xFF336699))
			lines := strings.Split(out, "\n")
			if len(lines) != tt.lines {
				t.Fatalf("got %d lines, want %d", len(lines), tt.lines)
			}
			for i, line := range lines {
				if n := strings.Count(line, halfBlock); n != tt.w {
					t.Errorf("line %d has %d cells, want %d", i, n, tt.w)
				}
			}
		})
	}
}

func TestRenderCanvasEmpty(t *testing.T) {
	if out := renderCanvas(lipgloss.NewRenderer(&bytes.Buffer{}), solidFrame(5, 0, 0)); out != "" {
		t.Errorf("empty frame rendered %q", out)
	}
}

func TestTermColor(t *testing.T) {
	tests := []struct {
		name string
		p    uint32
		want lipgloss.TerminalColor
	}{
		{"opaque", 0xFF123456, lipgloss.Color("#123456")},
		{"black", 0xFF000000, lipgloss.Color("#000000")},
		{"transparent", 0x00FFFFFF, lipgloss.NoColor{}},
		{"zero", 0, lipgloss.NoColor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := termColor(tt.p); got != tt.want {
				t.Errorf("termColor(%#08x) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestCanvasSize(t *testing.T) {
	tests := []struct {
		cols, rows int
		w, h       int
	}{
		{80, 24, 80, 48},
		{1, 1, 1, 2},
		{0, 10, 0, 20},
		{-3, -1, 0, 0},
	}

	for _, tt := range tests {
		w, h := canvasSize(tt.cols, tt.rows)
		if w != tt.w || h != tt.h {
			t.Errorf("canvasSize(%d, %d) = %dx%d, want %dx%d", tt.cols, tt.rows, w, h, tt.w, tt.h)
		}
	}
}
