package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MaxExponent is the largest size exponent accepted as input. A side of
// 2^15+1 already needs more than 4 GiB for the field alone.
const MaxExponent = 15

// ValidateUnit checks that a tuning parameter lies in [0, 1].
// NaN is rejected explicitly because it compares false against both bounds.
func ValidateUnit(name string, v float64) error {
	return ValidateRange(name, v, 0, 1)
}

// ValidateRange checks that v lies in the closed interval [lo, hi].
func ValidateRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) {
		return New(ErrCodeInvalidInput, "%s is NaN", name)
	}
	if v < lo || v > hi {
		return New(ErrCodeInvalidInput, "%s out of range: %v (must be within [%v, %v])", name, v, lo, hi)
	}
	return nil
}

// ValidateExponent checks a grid size exponent.
func ValidateExponent(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "exponent cannot be negative: %d", n)
	}
	if n > MaxExponent {
		return New(ErrCodeInvalidInput, "exponent too large: %d (max %d)", n, MaxExponent)
	}
	return nil
}

// mapperNameRegex matches registry names such as "color" or "fire-water_2".
var mapperNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateMapperName validates a tone mapper registry name.
func ValidateMapperName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidMapper, "mapper name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidMapper, "mapper name too long (max 64 characters)")
	}
	if !mapperNameRegex.MatchString(name) {
		return New(ErrCodeInvalidMapper, "invalid mapper name: %q", name)
	}
	return nil
}

// ValidateConfigPath validates a configuration file path supplied by the user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must end in .toml
func ValidateConfigPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "config path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "config path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "config path contains invalid characters")
		}
	}

	if !strings.HasSuffix(strings.ToLower(path), ".toml") {
		return New(ErrCodeInvalidPath, "config file must have a .toml extension: %q", path)
	}

	return nil
}
