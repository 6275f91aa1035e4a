package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/config"
	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/observability"
	"github.com/matzehuels/plasmafractal/pkg/pipeline"
)

// printOptions holds the flags of the print command.
type printOptions struct {
	genFlags
	width    int  // canvas width in terminal columns
	height   int  // canvas height in terminal rows
	exponent int  // grid exponent; negative derives it from the canvas
	stats    bool // print generation statistics to stderr
}

// printCommand creates the print command for one-shot rendering.
func (c *CLI) printCommand() *cobra.Command {
	opts := printOptions{width: 64, height: 32, exponent: -1}

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render a single plasma to stdout",
		Long: `Generate one plasma cloud and print it as truecolor half-blocks.

Each terminal cell shows two pixels, so a 64x32 canvas is a 64x64 image.
The grid size is chosen to cover the canvas unless --exponent is given.`,
		Example: `  plasma print
  plasma print --width 120 --height 40 --fractal firewater
  plasma print --seed 42 --decay 0.6 --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			return c.runPrint(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "canvas width in columns")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "canvas height in rows")
	cmd.Flags().IntVar(&opts.exponent, "exponent", opts.exponent, "grid exponent n for a 2^n+1 grid (default: fit the canvas)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print generation statistics")

	return cmd
}

// runPrint generates one image for cfg and writes it to out. Progress and
// statistics go to errOut.
func (c *CLI) runPrint(ctx context.Context, out, errOut io.Writer, cfg config.Config, opts printOptions) error {
	if opts.width <= 0 || opts.height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %dx%d", opts.width, opts.height)
	}
	width, height := canvasSize(opts.width, opts.height)

	n := opts.exponent
	if n < 0 {
		n = min(heightfield.ExponentFor(width, height), errors.MaxExponent)
	}
	req, err := cfg.Request(n)
	if err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	side := heightfield.Side(n)
	spinner := newSpinnerWithContext(ctx, errOut, fmt.Sprintf("Generating %dx%d plasma...", side, side))
	spinner.Start()

	prog := newProgress(logger)
	res, err := pipeline.Generate(ctx, req,
		pipeline.WithLogger(logger),
		pipeline.WithBudget(cfg.Budget()),
		pipeline.WithHooks(retryHooks{GenerationHooks: observability.Generation(), spinner: spinner}))
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Generation failed")
		return fmt.Errorf("generate %dx%d plasma: %w", side, side, err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Generated %dx%d plasma", res.Stats.Side, res.Stats.Side))

	frame := display.Render(res.Buffer, width, height, display.Options{
		Scale:      cfg.Scale(),
		Brightness: cfg.Brightness,
	})
	if _, err := fmt.Fprintln(out, renderCanvas(lipgloss.NewRenderer(out), frame)); err != nil {
		return err
	}

	if opts.stats {
		printStats(errOut, res)
	}
	return nil
}

// retryHooks forwards generation events and shows allocation fallbacks on
// the spinner.
type retryHooks struct {
	observability.GenerationHooks
	spinner *Spinner
}

func (h retryHooks) OnAllocationRetry(ctx context.Context, id string, exponent int, err error) {
	h.GenerationHooks.OnAllocationRetry(ctx, id, exponent, err)
	if exponent > 0 {
		side := heightfield.Side(exponent - 1)
		h.spinner.Update(fmt.Sprintf("Out of memory, retrying at %dx%d...", side, side))
	}
}

// printStats writes a short key/value summary of a generation.
func printStats(w io.Writer, res pipeline.Result) {
	s := res.Stats
	printKeyValue(w, "grid", StyleNumber.Render(fmt.Sprintf("%dx%d", s.Side, s.Side))+StyleDim.Render(fmt.Sprintf(" (n=%d)", s.Exponent)))
	printKeyValue(w, "seed", StyleNumber.Render(fmt.Sprint(s.Seed)))
	printKeyValue(w, "range", fmt.Sprintf("%.3f .. %.3f", s.Min, s.Max))
	printKeyValue(w, "attempts", StyleNumber.Render(fmt.Sprint(s.Attempts)))
	printKeyValue(w, "time", joinDim(
		"fill "+s.FillTime.Round(time.Microsecond).String(),
		"map "+s.MapTime.Round(time.Microsecond).String(),
		"total "+s.Total.Round(time.Microsecond).String(),
	))
}
