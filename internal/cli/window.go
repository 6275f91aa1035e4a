package cli

import (
	"github.com/spf13/cobra"
)

// windowCommand creates the desktop window host. Builds without the ebiten
// tag report how to enable it.
func (c *CLI) windowCommand() *cobra.Command {
	var flags genFlags

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show plasma clouds in a desktop window",
		Long: `Open a resizable window that fills with a plasma cloud and regenerates it
whenever the window is resized or a parameter changes.

Keys: R reseed, M mapper, Up/Down deviation, Left/Right decay, B/N brightness,
S scale, X cancel, Q/Esc quit.

Requires a build with -tags ebiten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			return c.runWindow(cmd.Context(), cfg)
		},
	}

	flags.register(cmd)
	return cmd
}
