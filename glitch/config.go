package glitch

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid glitch config")

// Config holds the bounds the filter draws its random fractions from.
// Horizontal shifts are fractions of the image width, band heights are
// fractions of the image height.
type Config struct {
	HShiftMin float64
	HShiftMax float64
	VBandMin  float64
	VBandMax  float64
}

// DefaultConfig returns the stock glitch settings.
func DefaultConfig() Config {
	return Config{
		HShiftMin: 0.0,
		HShiftMax: 0.025,
		VBandMin:  0.1,
		VBandMax:  0.2,
	}
}

// Validate checks that 0 <= HShiftMin <= HShiftMax < 1 and
// 0 < VBandMin <= VBandMax <= 1.
func (c Config) Validate() error {
	if c.HShiftMin < 0 || c.HShiftMax < c.HShiftMin || c.HShiftMax >= 1 {
		return fmt.Errorf("%w: horizontal shift range [%g, %g) must lie within [0, 1)", ErrInvalidConfig, c.HShiftMin, c.HShiftMax)
	}
	if c.VBandMin <= 0 || c.VBandMax < c.VBandMin || c.VBandMax > 1 {
		return fmt.Errorf("%w: band height range [%g, %g) must lie within (0, 1]", ErrInvalidConfig, c.VBandMin, c.VBandMax)
	}
	return nil
}
