package tone

// =============================================================================
// Decorators
// =============================================================================

// WithAlpha forces the alpha byte of every color produced by m.
func WithAlpha(m Mapper, alpha uint8) Mapper {
	return Funcs{
		Base: m,
		ColorFunc: func(v float32) uint32 {
			return m.Color(v)&0x00FFFFFF | uint32(alpha)<<24
		},
	}
}

// WithOverlay ORs mask into every color produced by m. An overlay of
// 0x000000FF saturates the blue channel.
func WithOverlay(m Mapper, mask uint32) Mapper {
	return Funcs{
		Base: m,
		ColorFunc: func(v float32) uint32 {
			return m.Color(v) | mask
		},
	}
}

// WithCeiling caps the effective maximum at min + frac*(max-min), saturating
// every height above it at 1. frac is clamped to (0, 1].
func WithCeiling(m Mapper, frac float32) Mapper {
	if frac <= 0 || frac != frac {
		frac = 1
	}
	if frac > 1 {
		frac = 1
	}
	return Funcs{
		Base: m,
		ScaleFunc: func(value, min, max float32) float32 {
			s := m.Scale(value, min, min+frac*(max-min))
			if s > 1 {
				return 1
			}
			return s
		},
	}
}

// WithMaxHeight caps the effective maximum at the absolute height ceiling,
// saturating every height above it at 1. A ceiling at or below the field
// minimum saturates the whole field.
func WithMaxHeight(m Mapper, ceiling float32) Mapper {
	return Funcs{
		Base: m,
		ScaleFunc: func(value, min, max float32) float32 {
			if ceiling <= min {
				return 1
			}
			s := m.Scale(value, min, ceiling)
			if s > 1 {
				return 1
			}
			return s
		},
	}
}

// Funcs builds a Mapper from optional functions. A nil function delegates to
// Base; a nil Base falls back to Color().
type Funcs struct {
	Base      Mapper
	ScaleFunc func(value, min, max float32) float32
	ColorFunc func(value float32) uint32
}

// Scale calls ScaleFunc or delegates to Base.
func (f Funcs) Scale(value, min, max float32) float32 {
	if f.ScaleFunc != nil {
		return f.ScaleFunc(value, min, max)
	}
	return f.base().Scale(value, min, max)
}

// Color calls ColorFunc or delegates to Base.
func (f Funcs) Color(value float32) uint32 {
	if f.ColorFunc != nil {
		return f.ColorFunc(value)
	}
	return f.base().Color(value)
}

func (f Funcs) base() Mapper {
	if f.Base == nil {
		return ColorMapper{}
	}
	return f.Base
}
