package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plasmafractal/pkg/config"
	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// genFlags holds the generation and display flags shared by view, print and
// window. Only flags set explicitly on the command line override the config
// file.
type genFlags struct {
	deviation  float32 // initial displacement magnitude
	decay      float32 // per-level deviation multiplier
	brightness float32 // display brightness in [-1, 1]
	fractal    string  // tone mapper name
	scale      string  // scale type: center or fill
	seed       uint64  // displacement seed (0 = random)
}

// register adds the generation flags to cmd.
func (f *genFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float32Var(&f.deviation, "deviation", 0, "initial displacement in [0,1] (default from config, 1.0)")
	fl.Float32Var(&f.decay, "decay", 0, "per-level deviation multiplier in [0,1] (default from config, 0.5)")
	fl.Float32Var(&f.brightness, "brightness", 0, "display brightness in [-1,1]")
	fl.StringVar(&f.fractal, "fractal", "", "tone mapper: "+strings.Join(tone.Names(), ", "))
	fl.StringVar(&f.scale, "scale", "", "scale type: center (default), fill")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed for reproducible output (0 = random)")

	_ = cmd.RegisterFlagCompletionFunc("fractal", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return tone.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("scale", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(display.ScaleTypes))
		for i, st := range display.ScaleTypes {
			names[i] = st.String()
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// apply overlays the flags that were set on cmd onto cfg and sanitizes the
// result.
func (f *genFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("deviation") {
		cfg.Deviation = f.deviation
	}
	if fl.Changed("decay") {
		cfg.Decay = f.decay
	}
	if fl.Changed("brightness") {
		cfg.Brightness = f.brightness
	}
	if fl.Changed("fractal") {
		cfg.Fractal = f.fractal
	}
	if fl.Changed("scale") {
		cfg.ScaleType = f.scale
	}
	if fl.Changed("seed") {
		cfg.Seed = f.seed
	}
	if err := cfg.Sanitize(); err != nil {
		return err
	}
	_, err := cfg.Mapper()
	return err
}
