// Package heightfield provides the square elevation grid filled by midpoint
// displacement.
//
// A Field has side 2^n + 1 so that it can be halved repeatedly down to
// single-cell spans while every split line lands on a grid row or column.
// Values are stored row-major (index = y*side + x), the same ordering used by
// the pixel buffers derived from it.
//
// # Allocation
//
// Grids grow with 4^n, so allocation is the operation that fails first when
// memory is tight. New and Budget.Allocate never panic: an allocation that
// exceeds the configured cell budget, or that the runtime rejects, is reported
// as an *errors.AllocationError wrapping ErrAllocation so that callers can
// retry with a smaller exponent.
package heightfield

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/matzehuels/plasmafractal/pkg/errors"
)

// ErrAllocation is wrapped by every allocation failure in this package and in
// packages that allocate per-field buffers (see tone.NewBuffer).
var ErrAllocation = errors.New(errors.ErrCodeResourceExhausted, "allocation failed")

// DefaultMaxCells bounds a single allocation at 2^26 cells (256 MiB of
// float32), which admits exponents up to 12.
const DefaultMaxCells = 1 << 26

// Field is a square grid of float32 heights with side 2^n + 1.
type Field struct {
	n     int
	side  int
	cells []float32
}

// Side returns the side length 2^n + 1 for exponent n.
// It returns 0 for negative exponents or exponents that overflow int.
func Side(n int) int {
	if n < 0 || n > 30 {
		return 0
	}
	return (1 << n) + 1
}

// New allocates a zeroed Field with side 2^n + 1 using DefaultMaxCells.
func New(n int) (*Field, error) {
	return Budget{MaxCells: DefaultMaxCells}.Allocate(n)
}

// Budget limits the number of cells a single allocation may request.
// A zero MaxCells means unlimited (only the runtime can refuse).
type Budget struct {
	MaxCells int
}

// Allocate returns a zeroed Field of side 2^n + 1 or an allocation error.
func (b Budget) Allocate(n int) (f *Field, err error) {
	side := Side(n)
	if side == 0 {
		return nil, &errors.AllocationError{Exponent: n, Cause: fmt.Errorf("%w: invalid exponent", ErrAllocation)}
	}
	cells, err := b.Check(n, side*side)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = &errors.AllocationError{Exponent: n, Cells: cells, Cause: fmt.Errorf("%w: %v", ErrAllocation, r)}
		}
	}()

	return &Field{n: n, side: side, cells: make([]float32, cells)}, nil
}

// Check reports whether an allocation of cells elements at exponent n fits
// the budget. It returns cells unchanged on success.
func (b Budget) Check(n, cells int) (int, error) {
	if b.MaxCells > 0 && cells > b.MaxCells {
		return cells, &errors.AllocationError{
			Exponent: n,
			Cells:    cells,
			Cause:    fmt.Errorf("%w: %d cells exceeds budget of %d", ErrAllocation, cells, b.MaxCells),
		}
	}
	return cells, nil
}

// IsAllocation reports whether err is an allocation failure.
func IsAllocation(err error) bool {
	return stderrors.Is(err, ErrAllocation)
}

// Exponent returns n for a field of side 2^n + 1.
func (f *Field) Exponent() int { return f.n }

// Side returns the number of cells along one edge.
func (f *Field) Side() int { return f.side }

// Cells exposes the backing slice in row-major order.
func (f *Field) Cells() []float32 { return f.cells }

// Index returns the linear slice index for coordinates (x, y).
func (f *Field) Index(x, y int) int { return y*f.side + x }

// At returns the height at (x, y).
func (f *Field) At(x, y int) float32 { return f.cells[y*f.side+x] }

// Set stores v at (x, y).
func (f *Field) Set(x, y int, v float32) { f.cells[y*f.side+x] = v }

// MinMax returns the smallest and largest height in the field.
// NaN cells are ignored; a field with no comparable cells returns (0, 0).
func (f *Field) MinMax() (lo, hi float32) {
	lo = math.MaxFloat32
	hi = -math.MaxFloat32
	seen := false
	for _, v := range f.cells {
		if v != v {
			continue
		}
		seen = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !seen {
		return 0, 0
	}
	return lo, hi
}

// ExponentFor returns the exponent whose side best matches a display area:
// n = round(log2(max(width, height))). Degenerate sizes yield 0.
func ExponentFor(width, height int) int {
	m := width
	if height > m {
		m = height
	}
	if m <= 1 {
		return 0
	}
	return int(math.Log2(float64(m)) + 0.5)
}
