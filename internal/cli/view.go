package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/config"
	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/observability"
	"github.com/matzehuels/plasmafractal/pkg/pipeline"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// Step sizes for the interactive controls.
const (
	paramStep      = 0.05
	brightnessStep = 0.1
)

// viewHelp lists the key bindings shown in the status line.
const viewHelp = "r reseed  m mapper  +/- deviation  [/] decay  b/B brightness  s scale  x cancel  q quit"

// generator is the part of pipeline.Generator the viewer drives.
type generator interface {
	Start(pipeline.Request) (string, error)
	Cancel()
	Latest() *tone.Buffer
	State() pipeline.State
}

// resultMsg carries a finished generation into the bubbletea loop.
type resultMsg pipeline.Result

// =============================================================================
// Command
// =============================================================================

// viewCommand creates the interactive full-screen viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags   genFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show plasma clouds in the terminal",
		Long: `Fill the terminal with a plasma cloud and regenerate it whenever the window
is resized or a parameter changes. Generation runs in the background; the
previous image stays on screen until the new one is ready.

Keys:
  ` + viewHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			return c.runView(cmd.Context(), cfg, logFile)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the viewer is running")
	return cmd
}

// runView runs the viewer until the user quits or ctx is cancelled. Logs are
// discarded unless logPath is set, since they would tear the alt screen.
func (c *CLI) runView(ctx context.Context, cfg config.Config, logPath string) error {
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "open log file %s", logPath)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, c.Logger.GetLevel())
	observability.SetGenerationHooks(newLogHooks(logger))

	var prog *tea.Program
	gen := pipeline.NewGenerator(
		pipeline.WithLogger(logger),
		pipeline.WithBudget(cfg.Budget()),
		pipeline.WithNotify(func(res pipeline.Result) {
			prog.Send(resultMsg(res))
		}),
	)
	defer gen.Close()

	m := newViewModel(gen, cfg, lipgloss.DefaultRenderer())
	prog = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// =============================================================================
// Model
// =============================================================================

// viewModel is the bubbletea model of the viewer. The canvas is cached and
// only re-rendered when the image, the size or a display setting changes.
type viewModel struct {
	gen      generator
	cfg      config.Config
	renderer *lipgloss.Renderer

	width, height int
	canvas        string

	last pipeline.Result // last completed or exhausted result
	err  error
}

func newViewModel(gen generator, cfg config.Config, r *lipgloss.Renderer) viewModel {
	return viewModel{gen: gen, cfg: cfg, renderer: r}
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.redraw()
		m.restart()

	case resultMsg:
		m.last = pipeline.Result(msg)
		m.redraw()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.gen.Cancel()
			return m, tea.Quit
		case "r":
			m.cfg.Seed = rand.Uint64N(math.MaxUint64) + 1
			m.restart()
		case "m":
			m.cfg.Fractal = tone.Next(m.cfg.Fractal)
			m.restart()
		case "+", "=":
			m.cfg.Deviation = adjust(m.cfg.Deviation, paramStep, 0, 1)
			m.restart()
		case "-":
			m.cfg.Deviation = adjust(m.cfg.Deviation, -paramStep, 0, 1)
			m.restart()
		case "]":
			m.cfg.Decay = adjust(m.cfg.Decay, paramStep, 0, 1)
			m.restart()
		case "[":
			m.cfg.Decay = adjust(m.cfg.Decay, -paramStep, 0, 1)
			m.restart()
		case "b":
			m.cfg.Brightness = adjust(m.cfg.Brightness, brightnessStep, -1, 1)
			m.redraw()
		case "B":
			m.cfg.Brightness = adjust(m.cfg.Brightness, -brightnessStep, -1, 1)
			m.redraw()
		case "s":
			m.cfg.ScaleType = m.cfg.Scale().Next().String()
			m.redraw()
		case "x":
			m.gen.Cancel()
		}
	}
	return m, nil
}

func (m viewModel) View() string {
	if m.width == 0 {
		return "initializing..."
	}
	var b strings.Builder
	b.WriteString(m.canvas)
	b.WriteString("\n")
	b.WriteString(m.status())
	return b.String()
}

// canvasRows is the number of terminal rows available to the image.
func (m viewModel) canvasRows() int {
	return max(m.height-1, 0)
}

// restart starts a generation sized to the current canvas.
func (m *viewModel) restart() {
	w, h := canvasSize(m.width, m.canvasRows())
	if w == 0 || h == 0 {
		return
	}
	n := min(heightfield.ExponentFor(w, h), errors.MaxExponent)
	req, err := m.cfg.Request(n)
	if err == nil {
		_, err = m.gen.Start(req)
	}
	m.err = err
}

// redraw re-renders the latest published image into the canvas.
func (m *viewModel) redraw() {
	w, h := canvasSize(m.width, m.canvasRows())
	frame := display.Render(m.gen.Latest(), w, h, display.Options{
		Scale:      m.cfg.Scale(),
		Brightness: m.cfg.Brightness,
	})
	m.canvas = renderCanvas(m.renderer, frame)
}

// status renders the one-line summary under the canvas.
func (m viewModel) status() string {
	state := m.gen.State()
	var label string
	switch {
	case m.err != nil:
		label = StyleError.Render(errors.UserMessage(m.err))
	case state == pipeline.StateRunning:
		label = StyleWarning.Render("generating")
	case state == pipeline.StateExhausted:
		label = StyleError.Render("out of memory")
	case state == pipeline.StateCancelled:
		label = StyleDim.Render("cancelled")
	case state == pipeline.StateCompleted:
		label = StyleSuccess.Render("ready")
	}

	size := ""
	if s := m.last.Stats; s.Side > 0 && m.last.Buffer != nil {
		size = StyleNumber.Render(fmt.Sprintf("%dx%d", s.Side, s.Side)) +
			StyleDim.Render(fmt.Sprintf(" in %s, %d attempts", s.Total.Round(time.Millisecond), s.Attempts))
	}

	line := joinDim(
		StyleTitle.Render(appName),
		StyleValue.Render(m.cfg.Fractal),
		size,
		fmt.Sprintf("dev %.2f  decay %.2f  bright %+.1f", m.cfg.Deviation, m.cfg.Decay, m.cfg.Brightness),
		m.cfg.ScaleType,
		label,
		StyleDim.Render(viewHelp),
	)
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}

// adjust adds step to v and clamps the result to [lo, hi].
func adjust(v, step, lo, hi float32) float32 {
	v += step
	// Snap to hundredths.
	v = float32(math.Round(float64(v)*100) / 100)
	return max(lo, min(hi, v))
}
