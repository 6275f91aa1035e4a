// Package cli implements the plasma command-line interface.
//
// This package provides commands for generating plasma clouds by random
// midpoint displacement and showing them in a terminal or a desktop window.
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - view: Interactive full-screen viewer that regenerates on resize
//   - print: Render a single plasma to stdout as truecolor half-blocks
//   - window: Desktop window host (requires the ebiten build tag)
//   - mappers: List the registered tone mappers
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/plasma/config.toml (or --config).
// Flags given on the command line override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/buildinfo"
	"github.com/matzehuels/plasmafractal/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "plasma"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty selects the default location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Plasma renders random midpoint displacement clouds",
		Long:         `Plasma generates "plasma cloud" images by recursively subdividing a square grid and displacing midpoints with decaying random noise, then maps the heights to colors.`,
		Version:      buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/plasma/config.toml)")

	// Register all subcommands
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.printCommand())
	root.AddCommand(c.windowCommand())
	root.AddCommand(c.mappersCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config",
		"fractal", cfg.Fractal,
		"deviation", cfg.Deviation,
		"decay", cfg.Decay,
		"scale", cfg.ScaleType)
	return cfg, nil
}
