package display

import (
	"testing"

	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

func TestBrightness(t *testing.T) {
	tests := []struct {
		name string
		b    float32
		in   uint32
		want uint32
	}{
		{"zero is identity", 0, 0xFF123456, 0xFF123456},
		{"full brighten saturates", 1, 0xFF000000, 0xFFFFFFFF},
		{"full darken blacks out", -1, 0xFFFFFFFF, 0xFF000000},
		{"half brighten adds 127", 0.5, 0xFF000080, 0xFF7F7FFF},
		{"half darken scales", -0.5, 0xFFFF6400, 0xFF7F3100},
		{"alpha preserved", -1, 0x80FFFFFF, 0x80000000},
		{"clamped above one", 3, 0x00000000, 0x00FFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Brightness(tt.b)(tt.in); got != tt.want {
				t.Errorf("Brightness(%v)(%#08x) = %#08x, want %#08x", tt.b, tt.in, got, tt.want)
			}
		})
	}
}

func TestParseScaleType(t *testing.T) {
	tests := []struct {
		in      string
		want    ScaleType
		wantErr bool
	}{
		{"", ScaleCenter, false},
		{"center", ScaleCenter, false},
		{" FILL ", ScaleFill, false},
		{"centerCrop", ScaleCenter, true},
		{"matrix", ScaleCenter, true},
	}

	for _, tt := range tests {
		got, err := ParseScaleType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScaleType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseScaleType(%q) code = %q", tt.in, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseScaleType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScaleTypeNextCycles(t *testing.T) {
	if ScaleCenter.Next() != ScaleFill || ScaleFill.Next() != ScaleCenter {
		t.Error("Next should cycle center -> fill -> center")
	}
	if ScaleFill.String() != "fill" || ScaleMatrix.String() != "matrix" || ScaleType(7).String() != "unknown" {
		t.Error("unexpected String values")
	}
	if ScaleMatrix.Next() != ScaleCenter {
		t.Errorf("ScaleMatrix.Next() = %v, want center", ScaleMatrix.Next())
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		st                     ScaleType
		want                   Affine
	}{
		{"center wide viewport crops vertically", 100, 100, 200, 100, ScaleCenter, Affine{SX: 2, SY: 2, DX: 0, DY: -50}},
		{"center tall viewport crops horizontally", 10, 10, 10, 40, ScaleCenter, Affine{SX: 4, SY: 4, DX: -15, DY: 0}},
		{"center identity", 9, 9, 9, 9, ScaleCenter, Affine{SX: 1, SY: 1}},
		{"fill stretches axes", 100, 100, 200, 50, ScaleFill, Affine{SX: 2, SY: 0.5}},
		{"matrix is identity", 100, 100, 200, 50, ScaleMatrix, Affine{SX: 1, SY: 1}},
		{"degenerate", 0, 10, 10, 10, ScaleFill, Affine{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.srcW, tt.srcH, tt.dstW, tt.dstH, tt.st); got != tt.want {
				t.Errorf("Fit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAffineInverseRoundTrip(t *testing.T) {
	a := Affine{SX: 2, SY: 4, DX: -3, DY: 5}
	inv := a.Inverse()

	x, y := a.Apply(1.5, -2)
	bx, by := inv.Apply(x, y)
	if bx != 1.5 || by != -2 {
		t.Errorf("round trip = (%v, %v), want (1.5, -2)", bx, by)
	}

	if (Affine{}).Inverse() != (Affine{}) {
		t.Error("inverse of a degenerate transform should be zero")
	}
}

func TestSample(t *testing.T) {
	buf := &tone.Buffer{Side: 2, Pix: []uint32{1, 2, 3, 4}}
	inv := Fit(2, 2, 4, 4, ScaleFill).Inverse()

	tests := []struct {
		x, y int
		want uint32
	}{
		{0, 0, 1}, {1, 1, 1}, {2, 0, 2}, {3, 3, 4}, {0, 3, 3},
		{-1, 0, 0}, {4, 0, 0},
	}
	for _, tt := range tests {
		if got := Sample(buf, inv, tt.x, tt.y); got != tt.want {
			t.Errorf("Sample(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
	if Sample(nil, inv, 0, 0) != 0 {
		t.Error("nil buffer should sample transparent")
	}
}

func TestRender(t *testing.T) {
	buf := &tone.Buffer{Side: 3, Pix: []uint32{
		0xFF000001, 0xFF000002, 0xFF000003,
		0xFF000004, 0xFF000005, 0xFF000006,
		0xFF000007, 0xFF000008, 0xFF000009,
	}}

	f := Render(buf, 3, 3, Options{})
	for i := range buf.Pix {
		if f.Pix[i] != buf.Pix[i] {
			t.Fatalf("identity render pixel %d = %#08x, want %#08x", i, f.Pix[i], buf.Pix[i])
		}
	}

	// A 1x3 strip keeps the middle column under center crop.
	strip := Render(buf, 1, 3, Options{Scale: ScaleCenter})
	for y, want := range []uint32{0xFF000002, 0xFF000005, 0xFF000008} {
		if got := strip.At(0, y); got != want {
			t.Errorf("strip row %d = %#08x, want %#08x", y, got, want)
		}
	}

	dark := Render(buf, 3, 3, Options{Brightness: -1})
	if dark.At(1, 1) != 0xFF000000 {
		t.Errorf("darkened pixel = %#08x, want opaque black", dark.At(1, 1))
	}

	empty := Render(nil, 2, 2, Options{})
	if len(empty.Pix) != 4 || empty.Pix[0] != 0 {
		t.Error("nil buffer should render a transparent frame")
	}
}

func TestRenderMatrix(t *testing.T) {
	buf := &tone.Buffer{Side: 3, Pix: []uint32{
		0xFF000001, 0xFF000002, 0xFF000003,
		0xFF000004, 0xFF000005, 0xFF000006,
		0xFF000007, 0xFF000008, 0xFF000009,
	}}

	// Shift one column right: column 0 is uncovered.
	shifted := Render(buf, 3, 3, Options{Scale: ScaleMatrix, Matrix: Affine{SX: 1, SY: 1, DX: 1}})
	for y := 0; y < 3; y++ {
		if got := shifted.At(0, y); got != 0 {
			t.Errorf("uncovered pixel (0, %d) = %#08x, want transparent", y, got)
		}
		for x := 1; x < 3; x++ {
			if got, want := shifted.At(x, y), buf.At(x-1, y); got != want {
				t.Errorf("shifted pixel (%d, %d) = %#08x, want %#08x", x, y, got, want)
			}
		}
	}

	// Doubling shows the top-left source pixel in a 2x2 block.
	zoomed := Render(buf, 2, 2, Options{Scale: ScaleMatrix, Matrix: Affine{SX: 2, SY: 2}})
	for i, got := range zoomed.Pix {
		if got != 0xFF000001 {
			t.Errorf("zoomed pixel %d = %#08x, want 0xff000001", i, got)
		}
	}

	// The matrix is ignored for the named scale types.
	fill := Render(buf, 3, 3, Options{Scale: ScaleFill, Matrix: Affine{SX: 2, SY: 2}})
	if fill.At(2, 2) != 0xFF000009 {
		t.Errorf("fill pixel (2, 2) = %#08x, want 0xff000009", fill.At(2, 2))
	}
}

func TestFrameRGBA(t *testing.T) {
	f := &Frame{Width: 1, Height: 1, Pix: []uint32{0xFF102030}}
	got := f.RGBA()
	if got[0] != 0x10 || got[1] != 0x20 || got[2] != 0x30 || got[3] != 0xFF {
		t.Errorf("RGBA() = %x", got)
	}
}
