package subdivide

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/plasmafractal/pkg/heightfield"
)

func newField(t *testing.T, n int) *heightfield.Field {
	t.Helper()
	f, err := heightfield.New(n)
	if err != nil {
		t.Fatalf("heightfield.New(%d): %v", n, err)
	}
	return f
}

func assertRows(t *testing.T, f *heightfield.Field, want [][]float32) {
	t.Helper()
	for y, row := range want {
		for x, v := range row {
			if got := f.At(x, y); got != v {
				t.Errorf("cell (%d,%d) = %v, want %v", x, y, got, v)
			}
		}
	}
}

func TestDivideThreeByThreeWithoutDeviation(t *testing.T) {
	f := newField(t, 1)
	e := New(DefaultDecay, &SequenceDisplacer{}, nil)

	e.Divide(f, 0, 0, 2, 0, 0, 1, 1, 0)

	// p0=0.5 p1=1.0 p2=0.5 p3=0.0 m=0.5
	assertRows(t, f, [][]float32{
		{0.0, 0.5, 1.0},
		{0.0, 0.5, 1.0},
		{0.0, 0.5, 1.0},
	})
}

func TestFillThreeByThreeGolden(t *testing.T) {
	f := newField(t, 1)
	d := &SequenceDisplacer{Values: []float32{0.25, -0.25, 0.125, -0.375, 0.375}}
	e := New(DefaultDecay, d, nil)

	if err := e.Fill(f, 0.5); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	assertRows(t, f, [][]float32{
		{0.25, 0, -0.25},
		{-0.0625, 0.125, -0.0625},
		{-0.375, -0.125, 0.125},
	})
	if d.Calls() != 5 {
		t.Errorf("displacer calls = %d, want 5", d.Calls())
	}
}

func TestFillFiveByFiveGolden(t *testing.T) {
	f := newField(t, 2)
	d := &SequenceDisplacer{Values: []float32{
		0.25, -0.25, 0.125, -0.375, // corners
		0.375,                       // root center, r=1
		-0.5, 0.25, 0.125, -0.125,   // quadrant centers, r=0.5
	}}
	e := New(0.5, d, nil)

	if err := e.Fill(f, 1); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	assertRows(t, f, [][]float32{
		{0.25, 0.125, 0, -0.125, -0.25},
		{0.09375, -0.125, 0.15625, 0.125, -0.15625},
		{-0.0625, 0.125, 0.3125, 0.125, -0.0625},
		{-0.21875, -0.125, 0.09375, 0.125, 0.03125},
		{-0.375, -0.25, -0.125, 0, 0.125},
	})
	if d.Calls() != 9 {
		t.Errorf("displacer calls = %d, want 9 (4 corners + 1 + 4 centers)", d.Calls())
	}
}

func TestDividePreservesCorners(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	f := newField(t, 5)

	for i := 0; i < 200; i++ {
		// Random aligned sub-square: size is a power of two that fits.
		size := 1 << rng.IntN(6)
		x := rng.IntN((f.Side()-1)/size) * size
		y := rng.IntN((f.Side()-1)/size) * size
		a, b, c, d := rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()

		e := New(rng.Float32(), NewRandomDisplacer(uint64(i+1)), nil)
		e.Divide(f, x, y, size, rng.Float32(), a, b, c, d)

		if f.At(x, y) != a || f.At(x+size, y) != b || f.At(x+size, y+size) != c || f.At(x, y+size) != d {
			t.Fatalf("corners of (%d,%d,%d) corrupted: got %v %v %v %v want %v %v %v %v",
				x, y, size,
				f.At(x, y), f.At(x+size, y), f.At(x+size, y+size), f.At(x, y+size),
				a, b, c, d)
		}
	}
}

func TestFillIsDeterministicForSeed(t *testing.T) {
	fill := func(seed uint64) []float32 {
		f := newField(t, 6)
		if err := New(0.5, NewRandomDisplacer(seed), nil).Fill(f, 1); err != nil {
			t.Fatal(err)
		}
		return f.Cells()
	}

	a, b := fill(42), fill(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs between identical seeds: %v vs %v", i, a[i], b[i])
		}
	}

	c := fill(43)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical fields")
	}
}

func TestZeroDecayFlattensBelowRoot(t *testing.T) {
	// With decay 0 only the root center is displaced; every other interior
	// cell is a plain average of its neighbours' corners.
	f := newField(t, 2)
	d := &SequenceDisplacer{Values: []float32{0, 0, 0, 0, 0.25, 0.4, 0.4, 0.4, 0.4}}
	if err := New(0, d, nil).Fill(f, 1); err != nil {
		t.Fatal(err)
	}
	if got := f.At(2, 2); got != 0.25 {
		t.Errorf("root center = %v, want 0.25", got)
	}
	if got := f.At(1, 1); got != 0.0625 {
		t.Errorf("quadrant center = %v, want 0.0625 (undisplaced average)", got)
	}
}

func TestFillObservesPreCancelledFlag(t *testing.T) {
	f := newField(t, 4)
	var flag Flag
	flag.Cancel()

	d := &SequenceDisplacer{Values: []float32{0.1, 0.2, 0.3, 0.4, 0.4}}
	e := New(0.5, d, &flag)

	err := e.Fill(f, 1)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Fill error = %v, want ErrCancelled", err)
	}
	if !e.Cancelled() {
		t.Error("Cancelled() = false after cancelled fill")
	}
	// Only the seeding draws happen; no center is ever displaced.
	if d.Calls() != 4 {
		t.Errorf("displacer calls = %d, want 4", d.Calls())
	}
	if got := f.At(f.Side()/2, f.Side()/2); got != 0 {
		t.Errorf("center written despite cancellation: %v", got)
	}
}

func TestFillStopsAtPolledDepth(t *testing.T) {
	f := newField(t, 3)
	d := &SequenceDisplacer{}

	// The root passes its poll; the first child trips the countdown.
	e := New(0.5, d, CancelAfter(1))
	if err := e.Fill(f, 1); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Fill error = %v, want ErrCancelled", err)
	}
	if d.Calls() != 5 {
		t.Errorf("displacer calls = %d, want 5 (4 corners + root center)", d.Calls())
	}
}

func TestFillResetsCancelledState(t *testing.T) {
	f := newField(t, 2)
	var flag Flag
	e := New(0.5, NewRandomDisplacer(1), &flag)

	flag.Cancel()
	if err := e.Fill(f, 1); err == nil {
		t.Fatal("expected cancellation")
	}

	e.Cancel = nil
	if err := e.Fill(f, 1); err != nil {
		t.Fatalf("second Fill should run to completion: %v", err)
	}
}

func TestRandomDisplacerRange(t *testing.T) {
	d := NewRandomDisplacer(99)
	for _, r := range []float32{1, 0.25} {
		for i := 0; i < 10000; i++ {
			v := d.Displace(r)
			if v < -r/2 || v >= r/2 {
				t.Fatalf("Displace(%v) = %v, outside [-r/2, r/2)", r, v)
			}
		}
	}
	if got := d.Displace(0); got != 0 {
		t.Errorf("Displace(0) = %v, want 0", got)
	}
}

func TestRandomDisplacerZeroSeed(t *testing.T) {
	d := NewRandomDisplacer(0)
	if d.Seed() == 0 {
		t.Error("zero seed should be replaced by a drawn seed")
	}
}

func TestSequenceDisplacerScalesAndDrains(t *testing.T) {
	d := &SequenceDisplacer{Values: []float32{0.5, -0.25}}
	if got := d.Displace(2); got != 1 {
		t.Errorf("first = %v, want 1", got)
	}
	if got := d.Displace(4); got != -1 {
		t.Errorf("second = %v, want -1", got)
	}
	if got := d.Displace(4); got != 0 {
		t.Errorf("drained = %v, want 0", got)
	}
	d.Displace(1)
	if d.Calls() != 4 {
		t.Errorf("Calls() = %d, want 4 including draws past the end", d.Calls())
	}
}
