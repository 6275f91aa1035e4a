//go:build ebiten

package cli

import (
	"context"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/matzehuels/plasmafractal/pkg/buildinfo"
	"github.com/matzehuels/plasmafractal/pkg/config"
	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/pipeline"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

const (
	windowWidth  = 800
	windowHeight = 800
)

// runWindow opens the window and blocks until it is closed or ctx is done.
func (c *CLI) runWindow(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	g := &windowGame{ctx: ctx, cfg: cfg, logger: logger}
	g.gen = pipeline.NewGenerator(
		pipeline.WithLogger(logger),
		pipeline.WithBudget(cfg.Budget()),
		pipeline.WithNotify(func(pipeline.Result) { g.dirty.Store(true) }),
	)
	defer g.gen.Close()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle(appName + " " + buildinfo.Short())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	return ctx.Err()
}

// windowGame adapts a pipeline.Generator to the ebiten.Game interface. The
// generator publishes from its worker; the game loop picks the image up on
// the next Update.
type windowGame struct {
	ctx    context.Context
	gen    *pipeline.Generator
	cfg    config.Config
	logger *log.Logger

	width, height int
	img           *ebiten.Image
	dirty         atomic.Bool
}

// Update handles input and uploads a newly published image.
func (g *windowGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.gen.Cancel()
		return ebiten.Termination
	}

	restart, redraw := false, false
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.cfg.Seed = rand.Uint64N(math.MaxUint64) + 1
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.cfg.Fractal = tone.Next(g.cfg.Fractal)
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.cfg.Deviation = adjust(g.cfg.Deviation, paramStep, 0, 1)
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.cfg.Deviation = adjust(g.cfg.Deviation, -paramStep, 0, 1)
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.cfg.Decay = adjust(g.cfg.Decay, paramStep, 0, 1)
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.cfg.Decay = adjust(g.cfg.Decay, -paramStep, 0, 1)
		restart = true
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.cfg.Brightness = adjust(g.cfg.Brightness, brightnessStep, -1, 1)
		redraw = true
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.cfg.Brightness = adjust(g.cfg.Brightness, -brightnessStep, -1, 1)
		redraw = true
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.cfg.ScaleType = g.cfg.Scale().Next().String()
		redraw = true
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		g.gen.Cancel()
	}

	if restart {
		g.start()
	}
	if redraw || g.dirty.Swap(false) {
		g.upload()
	}
	return nil
}

// Draw copies the current image to the screen.
func (g *windowGame) Draw(screen *ebiten.Image) {
	if g.img != nil {
		screen.DrawImage(g.img, nil)
	}
}

// Layout tracks the window size and starts a generation when it changes.
func (g *windowGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(g.width, g.height)
		g.upload()
		g.start()
	}
	return g.width, g.height
}

// start requests an image sized to the window.
func (g *windowGame) start() {
	if g.width <= 0 || g.height <= 0 {
		return
	}
	n := min(heightfield.ExponentFor(g.width, g.height), errors.MaxExponent)
	req, err := g.cfg.Request(n)
	if err == nil {
		_, err = g.gen.Start(req)
	}
	if err != nil {
		g.logger.Error("start generation", "error", err)
	}
}

// upload renders the latest image into the window-sized texture.
func (g *windowGame) upload() {
	if g.img == nil {
		return
	}
	frame := display.Render(g.gen.Latest(), g.width, g.height, display.Options{
		Scale:      g.cfg.Scale(),
		Brightness: g.cfg.Brightness,
	})
	g.img.WritePixels(frame.RGBA())
}
