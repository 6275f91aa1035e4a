// Package display adapts published plasma images to a viewport.
//
// The generation pipeline always produces a square buffer of side 2^n+1,
// which rarely matches the surface that shows it. This package provides the
// display-time pieces that sit between the two: a brightness filter, the
// scale/crop transform for the supported scale types (or a caller-supplied
// Affine with ScaleMatrix), and nearest-neighbour resampling into a Frame of
// the viewport's size.
//
// Nothing here touches a buffer in place. Published buffers are shared with
// the generator and must be treated as immutable.
package display

import (
	"math"
	"strings"

	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// =============================================================================
// Brightness
// =============================================================================

// Brightness returns a per-pixel filter for b in [-1, 1]. Positive values add
// b*255 to every channel; negative values scale every channel by 1+b. Alpha is
// preserved. Out-of-range b is clamped.
func Brightness(b float32) func(uint32) uint32 {
	b = clamp(b, -1, 1)
	add := uint32(0)
	if b > 0 {
		add = uint32(b * 255)
	}
	mul := uint32(255)
	if b < 0 {
		mul = uint32((1 + b) * 255)
	}

	channel := func(c uint32) uint32 {
		return min(255, c*mul/255+add)
	}
	return func(p uint32) uint32 {
		r := channel(p >> 16 & 0xFF)
		g := channel(p >> 8 & 0xFF)
		bl := channel(p & 0xFF)
		return p&0xFF000000 | r<<16 | g<<8 | bl
	}
}

func clamp(v, lo, hi float32) float32 {
	if v != v {
		return 0
	}
	return max(lo, min(hi, v))
}

// =============================================================================
// Scale types
// =============================================================================

// ScaleType selects how a square image is fitted to a viewport.
type ScaleType int

const (
	// ScaleCenter scales uniformly until the viewport is covered and centres
	// the image, cropping whatever overflows.
	ScaleCenter ScaleType = iota

	// ScaleFill stretches each axis independently to the viewport.
	ScaleFill

	// ScaleMatrix applies the caller's Options.Matrix unchanged. It has no
	// configuration name and is not part of the ScaleTypes cycle.
	ScaleMatrix
)

// ScaleTypes lists the accepted names in their cycle order.
var ScaleTypes = []ScaleType{ScaleCenter, ScaleFill}

// String returns the configuration name of st.
func (st ScaleType) String() string {
	switch st {
	case ScaleCenter:
		return "center"
	case ScaleFill:
		return "fill"
	case ScaleMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Next returns the scale type after st in ScaleTypes, wrapping around. A type
// outside the cycle moves to the first entry.
func (st ScaleType) Next() ScaleType {
	for i, t := range ScaleTypes {
		if t == st {
			return ScaleTypes[(i+1)%len(ScaleTypes)]
		}
	}
	return ScaleTypes[0]
}

// ParseScaleType parses a configuration name, ignoring case and surrounding
// space. The empty string selects ScaleCenter.
func ParseScaleType(s string) (ScaleType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center":
		return ScaleCenter, nil
	case "fill":
		return ScaleFill, nil
	default:
		return ScaleCenter, errors.New(errors.ErrCodeInvalidInput, "invalid scale type: %q (must be one of: center, fill)", s)
	}
}

// =============================================================================
// Transform
// =============================================================================

// Affine maps source coordinates to destination coordinates:
// dx = x*SX + DX, dy = y*SY + DY.
type Affine struct {
	SX, SY float64
	DX, DY float64
}

// Apply transforms (x, y).
func (a Affine) Apply(x, y float64) (float64, float64) {
	return x*a.SX + a.DX, y*a.SY + a.DY
}

// Inverse returns the transform from destination back to source. A
// degenerate axis maps everything to 0.
func (a Affine) Inverse() Affine {
	inv := Affine{}
	if a.SX != 0 {
		inv.SX = 1 / a.SX
		inv.DX = -a.DX / a.SX
	}
	if a.SY != 0 {
		inv.SY = 1 / a.SY
		inv.DY = -a.DY / a.SY
	}
	return inv
}

// Fit computes the transform that places a srcW x srcH image into a
// dstW x dstH viewport according to st. ScaleMatrix carries no geometry of
// its own and yields the identity.
func Fit(srcW, srcH, dstW, dstH int, st ScaleType) Affine {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Affine{}
	}
	if st == ScaleMatrix {
		return Affine{SX: 1, SY: 1}
	}
	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)

	if st == ScaleFill {
		return Affine{SX: sx, SY: sy}
	}

	s := math.Max(sx, sy)
	return Affine{
		SX: s,
		SY: s,
		DX: (float64(dstW) - float64(srcW)*s) / 2,
		DY: (float64(dstH) - float64(srcH)*s) / 2,
	}
}

// Sample returns the source pixel that lands on destination pixel (x, y)
// under the inverse transform inv, or 0 (transparent) outside the source.
func Sample(buf *tone.Buffer, inv Affine, x, y int) uint32 {
	if buf == nil {
		return 0
	}
	fx, fy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
	sx, sy := int(math.Floor(fx)), int(math.Floor(fy))
	if sx < 0 || sy < 0 || sx >= buf.Side || sy >= buf.Side {
		return 0
	}
	return buf.At(sx, sy)
}

// =============================================================================
// Frame
// =============================================================================

// Frame is a viewport-sized image of packed 0xAARRGGBB pixels.
type Frame struct {
	Width, Height int
	Pix           []uint32
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) uint32 { return f.Pix[y*f.Width+x] }

// RGBA returns the pixels as R, G, B, A bytes.
func (f *Frame) RGBA() []byte {
	return (&tone.Buffer{Pix: f.Pix}).RGBA()
}

// Options controls how Render fits and filters an image.
type Options struct {
	Scale      ScaleType
	Brightness float32

	// Matrix maps image to viewport coordinates when Scale is ScaleMatrix.
	Matrix Affine
}

// transform returns the image-to-viewport transform for a side x side image.
func (o Options) transform(side, width, height int) Affine {
	if o.Scale == ScaleMatrix {
		return o.Matrix
	}
	return Fit(side, side, width, height, o.Scale)
}

// Render resamples buf into a width x height frame. A nil buf yields a
// transparent frame.
func Render(buf *tone.Buffer, width, height int, opts Options) *Frame {
	f := &Frame{Width: width, Height: height, Pix: make([]uint32, width*height)}
	if buf == nil || width <= 0 || height <= 0 {
		return f
	}

	inv := opts.transform(buf.Side, width, height).Inverse()
	filter := Brightness(opts.Brightness)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := Sample(buf, inv, x, y)
			if p != 0 && opts.Brightness != 0 {
				p = filter(p)
			}
			f.Pix[y*width+x] = p
		}
	}
	return f
}
