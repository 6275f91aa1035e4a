// Package tone converts height fields into packed ARGB pixel buffers.
//
// Conversion is a two-stage hook supplied by a Mapper:
//
//  1. Scale maps a raw height into a normalized value, given the global
//     minimum and maximum of the field.
//  2. Color maps the normalized value to a packed 0xAARRGGBB color.
//
// Apply runs one min/max pass over the field and then writes
// Color(Scale(v, min, max)) for every cell, in the field's row-major order, at
// the same index of the output Buffer. The field is never modified.
//
// # Variants
//
// Two base mappers are provided: Color (a red/green/blue ramp with breakpoints
// at 0.3, 0.5 and 0.8) and Grayscale. Both use a linear Scale and force full
// opacity. New looks are built by wrapping a base mapper (WithAlpha,
// WithOverlay, WithCeiling, WithMaxHeight, Funcs) rather than by
// re-implementing it, and can be made available by name through Register.
//
// # Rounding
//
// Float-to-byte conversion truncates: a channel value c in [0, 1] becomes
// uint8(c*255), so 0.5 maps to 0x7F. Channels are clamped to [0, 255] first so
// that a biased Scale never bleeds into a neighbouring channel.
//
// # Concurrency
//
// Apply maps row bands concurrently, so Mapper implementations must be safe
// for concurrent use. All mappers in this package are stateless.
package tone

// Mapper is the pluggable two-stage tone/color hook.
type Mapper interface {
	// Scale maps value into a normalized range given the field's min and max.
	Scale(value, min, max float32) float32

	// Color maps a normalized value to a packed 0xAARRGGBB color.
	Color(value float32) uint32
}

// OpaqueAlpha is the alpha channel forced by the base mappers.
const OpaqueAlpha uint32 = 0xFF << 24

// Linear rescales value from [min, max] to [0, 1]. A flat field (max <= min)
// maps everything to 0.
func Linear(value, min, max float32) float32 {
	if max <= min {
		return 0
	}
	return (value - min) / (max - min)
}

// Channel converts a unit channel value to a byte by truncation, clamping to
// the valid range first.
func Channel(c float32) uint32 {
	v := c * 255
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(v)
}

// Pack assembles a color from unit channel values with full opacity.
func Pack(r, g, b float32) uint32 {
	return OpaqueAlpha | Channel(r)<<16 | Channel(g)<<8 | Channel(b)
}

// =============================================================================
// Base Variants
// =============================================================================

// ColorMapper produces the classic plasma ramp.
type ColorMapper struct{}

// Color returns the default color variant.
func Color() Mapper { return ColorMapper{} }

// Scale rescales linearly to [0, 1].
func (ColorMapper) Scale(value, min, max float32) float32 { return Linear(value, min, max) }

// Color maps v with piecewise-linear channels:
//
//	red   = (v < 0.5 ? v : 1-v) * 2
//	green = (v < 0.3 ? 0.3-v : v < 0.8 ? v-0.3 : 1.3-v) * 2
//	blue  = (v < 0.5 ? 0.5-v : v-0.5) * 2
func (ColorMapper) Color(v float32) uint32 {
	var r, g, b float32

	if v < 0.5 {
		r = v
	} else {
		r = 1 - v
	}

	switch {
	case v < 0.3:
		g = 0.3 - v
	case v < 0.8:
		g = v - 0.3
	default:
		g = 1.3 - v
	}

	if v < 0.5 {
		b = 0.5 - v
	} else {
		b = v - 0.5
	}

	return Pack(r*2, g*2, b*2)
}

// GrayscaleMapper replicates the normalized value into all three channels.
type GrayscaleMapper struct{}

// Grayscale returns the grayscale variant.
func Grayscale() Mapper { return GrayscaleMapper{} }

// Scale rescales linearly to [0, 1].
func (GrayscaleMapper) Scale(value, min, max float32) float32 { return Linear(value, min, max) }

// Color returns an opaque gray of intensity v.
func (GrayscaleMapper) Color(v float32) uint32 { return Pack(v, v, v) }
