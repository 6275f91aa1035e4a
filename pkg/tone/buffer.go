package tone

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
)

// Buffer is a square image of packed 0xAARRGGBB pixels in row-major order.
// A Buffer handed to a consumer must not be modified.
type Buffer struct {
	Side int
	Pix  []uint32
}

// NewBuffer allocates a Buffer for a field of exponent n under budget b.
// Failures wrap heightfield.ErrAllocation like field allocations do.
func NewBuffer(b heightfield.Budget, n int) (buf *Buffer, err error) {
	side := heightfield.Side(n)
	if side == 0 {
		return nil, &errors.AllocationError{Exponent: n, Cause: fmt.Errorf("%w: invalid exponent", heightfield.ErrAllocation)}
	}
	cells, err := b.Check(n, side*side)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = &errors.AllocationError{Exponent: n, Cells: cells, Cause: fmt.Errorf("%w: %v", heightfield.ErrAllocation, r)}
		}
	}()

	return &Buffer{Side: side, Pix: make([]uint32, cells)}, nil
}

// At returns the packed color at (x, y).
func (b *Buffer) At(x, y int) uint32 { return b.Pix[y*b.Side+x] }

// RGBA returns the pixels as non-premultiplied R, G, B, A bytes, the layout
// expected by image.NRGBA and ebiten.Image.WritePixels for opaque images.
func (b *Buffer) RGBA() []byte {
	out := make([]byte, 4*len(b.Pix))
	for i, c := range b.Pix {
		o := i * 4
		out[o+0] = uint8(c >> 16)
		out[o+1] = uint8(c >> 8)
		out[o+2] = uint8(c)
		out[o+3] = uint8(c >> 24)
	}
	return out
}

// Image wraps the pixels in an image.NRGBA.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.RGBA(),
		Stride: 4 * b.Side,
		Rect:   image.Rect(0, 0, b.Side, b.Side),
	}
}

// =============================================================================
// Mapping
// =============================================================================

// Apply allocates a Buffer and maps f into it with m.
func Apply(ctx context.Context, f *heightfield.Field, m Mapper) (*Buffer, error) {
	buf, err := NewBuffer(heightfield.Budget{}, f.Exponent())
	if err != nil {
		return nil, err
	}
	if err := ApplyInto(ctx, f, m, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ApplyInto maps f into buf, which must have the same side. It computes the
// field's min and max once and then converts row bands concurrently. It stops
// early and returns the context error if ctx is cancelled.
func ApplyInto(ctx context.Context, f *heightfield.Field, m Mapper, buf *Buffer) error {
	if m == nil {
		return errors.New(errors.ErrCodeInvalidMapper, "mapper is nil")
	}
	if buf.Side != f.Side() || len(buf.Pix) != len(f.Cells()) {
		return errors.New(errors.ErrCodeInternal, "buffer side %d does not match field side %d", buf.Side, f.Side())
	}

	lo, hi := f.MinMax()
	cells := f.Cells()
	side := f.Side()

	procs := runtime.GOMAXPROCS(0)
	rows := side / (4 * procs)
	if rows < 1 {
		rows = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(procs)

	for y0 := 0; y0 < side; y0 += rows {
		y1 := min(y0+rows, side)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := y0 * side; i < y1*side; i++ {
				buf.Pix[i] = m.Color(m.Scale(cells[i], lo, hi))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("map field: %w", err)
	}
	return ctx.Err()
}
