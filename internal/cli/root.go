package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/buildinfo"
	"github.com/matzehuels/plasmafractal/pkg/observability"
)

// Execute runs the plasma CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. Generation events are logged through observability hooks
// registered here.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string) error {
	c := New(os.Stderr, LogInfo)
	root := newRoot(c)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newRoot wires the global flags and logging onto c's command tree.
func newRoot(c *CLI) *cobra.Command {
	var verbose bool

	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		c.Logger.Debug("starting", "version", buildinfo.Short())
		observability.SetGenerationHooks(newLogHooks(c.Logger))
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}
	return root
}
