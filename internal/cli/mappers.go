package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// swatchWidth is the number of cells in a mapper's preview ramp.
const swatchWidth = 24

// mappersCommand creates the mappers command listing the tone mappers.
func (c *CLI) mappersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mappers",
		Short: "List the available tone mappers",
		Long:  `List the tone mappers that can be selected with --fractal or the fractal config key, with a preview of each ramp from low to high.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return renderMappers(cmd.OutOrStdout(), cfg.Fractal)
		},
	}
}

// renderMappers writes a table of registered mappers to w, marking current.
func renderMappers(w io.Writer, current string) error {
	r := lipgloss.NewRenderer(w)
	names := tone.Names()

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		m, err := tone.Lookup(name)
		if err != nil {
			return err
		}
		marker := "  "
		if name == current {
			marker = "▸ "
		}
		note := ""
		if name == tone.DefaultName {
			note = "default"
		}
		rows = append(rows, []string{marker, name, renderCanvas(r, swatch(m, swatchWidth)), note})
	}

	headerStyle := r.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(colorDim)).
		Headers("", "Mapper", "Ramp", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1 && names[row] == current:
				return r.NewStyle().Foreground(colorGreen).Bold(true)
			case col == 3:
				return r.NewStyle().Foreground(colorDim)
			}
			return r.NewStyle()
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// swatch renders m's ramp over heights 0..1 as a width x 2 frame.
func swatch(m tone.Mapper, width int) *display.Frame {
	f := &display.Frame{Width: width, Height: 2, Pix: make([]uint32, width*2)}
	for x := 0; x < width; x++ {
		v := m.Scale(float32(x), 0, float32(width-1))
		p := m.Color(v)
		f.Pix[x] = p
		f.Pix[width+x] = p
	}
	return f
}
