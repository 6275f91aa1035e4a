package tone

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/subdivide"
)

func TestLinearRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		min, max float32
	}{
		{"unit", 0, 1},
		{"negative", -0.73, 0.41},
		{"wide", -12.5, 1e3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, m := range []Mapper{Color(), Grayscale()} {
				if got := m.Scale(tt.min, tt.min, tt.max); got != 0 {
					t.Errorf("Scale(min) = %v, want 0", got)
				}
				if got := m.Scale(tt.max, tt.min, tt.max); got != 1 {
					t.Errorf("Scale(max) = %v, want 1", got)
				}
			}
		})
	}
}

func TestLinearFlatField(t *testing.T) {
	if got := Linear(0.3, 0.3, 0.3); got != 0 {
		t.Errorf("Linear on flat field = %v, want 0", got)
	}
}

func TestGrayscaleTruncates(t *testing.T) {
	g := Grayscale()
	tests := []struct {
		v    float32
		want uint32
	}{
		{0, 0xFF000000},
		{0.5, 0xFF7F7F7F},
		{1, 0xFFFFFFFF},
		{-0.2, 0xFF000000},
		{1.7, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		if got := g.Color(tt.v); got != tt.want {
			t.Errorf("Grayscale.Color(%v) = %#08x, want %#08x", tt.v, got, tt.want)
		}
	}
}

func TestGrayscaleMidpointOnUnitField(t *testing.T) {
	g := Grayscale()
	if got := g.Color(g.Scale(0.5, 0, 1)); got != 0xFF7F7F7F {
		t.Errorf("mapped 0.5 = %#08x, want 0xff7f7f7f", got)
	}
}

func TestColorRamp(t *testing.T) {
	c := Color()
	// Expected values follow float32 arithmetic with truncation, so 0.5
	// lands on green 0x65 rather than 0x66.
	tests := []struct {
		v    float32
		want uint32
	}{
		{0, 0xFF0099FF},
		{0.25, 0xFF7F197F},
		{0.5, 0xFFFF6500},
		{1, 0xFF0098FF},
	}

	for _, tt := range tests {
		got := c.Color(tt.v)
		if got != tt.want {
			t.Errorf("Color.Color(%v) = %#08x, want %#08x", tt.v, got, tt.want)
		}
	}
}

func TestColorRampBreakpoints(t *testing.T) {
	c := Color()

	// Green bottoms out at 0.3 and peaks at 0.8.
	green := func(v float32) uint32 { return c.Color(v) >> 8 & 0xFF }
	if g := green(0.3); g != 0 {
		t.Errorf("green at 0.3 = %d, want 0", g)
	}
	if g := green(0.8); g < 250 {
		t.Errorf("green at 0.8 = %d, want near 255", g)
	}

	// Red peaks and blue vanishes at 0.5.
	if r := c.Color(0.5) >> 16 & 0xFF; r != 255 {
		t.Errorf("red at 0.5 = %d, want 255", r)
	}
	if b := c.Color(0.5) & 0xFF; b != 0 {
		t.Errorf("blue at 0.5 = %d, want 0", b)
	}
}

func TestBaseMappersAreOpaque(t *testing.T) {
	for _, m := range []Mapper{Color(), Grayscale()} {
		for v := float32(0); v <= 1; v += 0.05 {
			if a := m.Color(v) >> 24; a != 0xFF {
				t.Fatalf("%T alpha at %v = %#x, want 0xff", m, v, a)
			}
		}
	}
}

func TestChannelClamps(t *testing.T) {
	tests := []struct {
		c    float32
		want uint32
	}{
		{-1, 0},
		{0, 0},
		{0.999, 254},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := Channel(tt.c); got != tt.want {
			t.Errorf("Channel(%v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestWithAlpha(t *testing.T) {
	m := WithAlpha(Grayscale(), 0x80)
	if got := m.Color(1); got != 0x80FFFFFF {
		t.Errorf("Color(1) = %#08x, want 0x80ffffff", got)
	}
	if got := m.Scale(2, 0, 4); got != 0.5 {
		t.Errorf("Scale should delegate to base, got %v", got)
	}
}

func TestWithOverlay(t *testing.T) {
	m := WithOverlay(Color(), 0x000000FF)
	if got := m.Color(0.5) & 0xFF; got != 0xFF {
		t.Errorf("blue channel = %#x, want 0xff", got)
	}
	if got := m.Color(0.5) >> 16 & 0xFF; got != 0xFF {
		t.Errorf("red channel should be untouched, got %#x", got)
	}
}

func TestWithCeiling(t *testing.T) {
	m := WithCeiling(Grayscale(), 0.5)

	if got := m.Scale(0, 0, 1); got != 0 {
		t.Errorf("Scale(min) = %v, want 0", got)
	}
	if got := m.Scale(0.5, 0, 1); got != 1 {
		t.Errorf("Scale(ceiling) = %v, want 1", got)
	}
	if got := m.Scale(0.9, 0, 1); got != 1 {
		t.Errorf("Scale above ceiling = %v, want 1", got)
	}
	if got := m.Scale(0.25, 0, 1); got != 0.5 {
		t.Errorf("Scale(0.25) = %v, want 0.5", got)
	}

	// Out-of-range fractions fall back to no ceiling.
	if got := WithCeiling(Grayscale(), 0).Scale(0.5, 0, 1); got != 0.5 {
		t.Errorf("zero fraction Scale(0.5) = %v, want 0.5", got)
	}
}

func TestWithMaxHeight(t *testing.T) {
	tests := []struct {
		name          string
		value, lo, hi float32
		want          float32
	}{
		{"field minimum", 0, 0, 2, 0},
		{"below ceiling", 0.4, 0, 2, 0.5},
		{"at ceiling", 0.8, 0, 2, 1},
		{"above ceiling", 1.9, 0, 2, 1},
		{"field below ceiling", 0.5, 0, 0.6, 0.625},
		{"ceiling under minimum", 1.5, 1, 2, 1},
	}

	m := WithMaxHeight(Grayscale(), 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Scale(tt.value, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Scale(%v, %v, %v) = %v, want %v", tt.value, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestFuncsDefaults(t *testing.T) {
	var f Funcs
	if f.Color(0.5) != Color().Color(0.5) {
		t.Error("zero Funcs should behave like Color()")
	}

	custom := Funcs{
		Base:      Grayscale(),
		ColorFunc: func(float32) uint32 { return 0xFF112233 },
	}
	if custom.Color(0.1) != 0xFF112233 {
		t.Error("ColorFunc should override")
	}
	if custom.Scale(1, 0, 2) != 0.5 {
		t.Error("Scale should delegate to Base")
	}
}

// =============================================================================
// Apply
// =============================================================================

func filledField(t *testing.T, n int, seed uint64) *heightfield.Field {
	t.Helper()
	f, err := heightfield.New(n)
	if err != nil {
		t.Fatal(err)
	}
	if err := subdivide.New(0.5, subdivide.NewRandomDisplacer(seed), nil).Fill(f, 1); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestApplyMatchesSequentialDefinition(t *testing.T) {
	f := filledField(t, 7, 3)
	m := Color()

	buf, err := Apply(context.Background(), f, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Side != f.Side() || len(buf.Pix) != f.Side()*f.Side() {
		t.Fatalf("buffer side %d len %d, field side %d", buf.Side, len(buf.Pix), f.Side())
	}

	lo, hi := f.MinMax()
	for i, v := range f.Cells() {
		if want := m.Color(m.Scale(v, lo, hi)); buf.Pix[i] != want {
			t.Fatalf("pixel %d = %#08x, want %#08x", i, buf.Pix[i], want)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := filledField(t, 6, 11)
	before := append([]float32(nil), f.Cells()...)

	a, err := Apply(context.Background(), f, Grayscale())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Apply(context.Background(), f, Grayscale())
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between runs", i)
		}
	}
	for i := range before {
		if before[i] != f.Cells()[i] {
			t.Fatalf("Apply modified field cell %d", i)
		}
	}
}

func TestApplyExtremesHitRampEnds(t *testing.T) {
	f := filledField(t, 4, 5)
	buf, err := Apply(context.Background(), f, Grayscale())
	if err != nil {
		t.Fatal(err)
	}

	var sawBlack, sawWhite bool
	for _, c := range buf.Pix {
		switch c {
		case 0xFF000000:
			sawBlack = true
		case 0xFFFFFFFF:
			sawWhite = true
		}
	}
	if !sawBlack || !sawWhite {
		t.Errorf("grayscale should reach both ends: black=%v white=%v", sawBlack, sawWhite)
	}
}

func TestApplyCancelled(t *testing.T) {
	f := filledField(t, 5, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Apply(ctx, f, Color())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Apply error = %v, want context.Canceled", err)
	}
}

func TestApplyIntoRejectsMismatch(t *testing.T) {
	f := filledField(t, 2, 1)
	buf, err := NewBuffer(heightfield.Budget{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyInto(context.Background(), f, Color(), buf); !perrors.Is(err, perrors.ErrCodeInternal) {
		t.Errorf("mismatched sides error = %v", err)
	}
	if err := ApplyInto(context.Background(), f, nil, buf); !perrors.Is(err, perrors.ErrCodeInvalidMapper) {
		t.Errorf("nil mapper error = %v", err)
	}
}

func TestNewBufferBudget(t *testing.T) {
	_, err := NewBuffer(heightfield.Budget{MaxCells: 10}, 2)
	if !heightfield.IsAllocation(err) {
		t.Errorf("NewBuffer over budget error = %v, want allocation error", err)
	}
}

func TestBufferRGBA(t *testing.T) {
	buf := &Buffer{Side: 1, Pix: []uint32{0x80112233}}
	got := buf.RGBA()
	want := []byte{0x11, 0x22, 0x33, 0x80}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RGBA() = %x, want %x", got, want)
		}
	}

	img := buf.Image()
	r, g, b, a := img.NRGBAAt(0, 0).R, img.NRGBAAt(0, 0).G, img.NRGBAAt(0, 0).B, img.NRGBAAt(0, 0).A
	if r != 0x11 || g != 0x22 || b != 0x33 || a != 0x80 {
		t.Errorf("Image() pixel = %x %x %x %x", r, g, b, a)
	}
}
