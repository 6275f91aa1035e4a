//go:build !ebiten

package cli

import (
	"context"

	"github.com/matzehuels/plasmafractal/pkg/config"
	"github.com/matzehuels/plasmafractal/pkg/errors"
)

// runWindow reports that this binary was built without window support.
func (c *CLI) runWindow(context.Context, config.Config) error {
	return errors.New(errors.ErrCodeUnsupported,
		"the window command requires the ebiten build tag; rebuild with `go build -tags ebiten ./cmd/plasma` or use `plasma view`")
}
