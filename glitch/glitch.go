// Package glitch implements a band-shift glitch filter.
//
// The red and green channels of an image are cut into horizontal bands of
// random height, and every band is shifted left or right by a small random
// number of columns. Columns uncovered by a shift repeat the edge pixel of
// the band. The blue channel is passed through untouched.
package glitch

import (
	"errors"
	"fmt"
	"log/slog"
)

// Band is the half-open row interval [Lower, Upper) of a channel plane.
type Band struct {
	Lower int
	Upper int
}

// Height returns the number of rows in the band.
func (b Band) Height() int { return b.Upper - b.Lower }

// Filter renders the glitch effect. A Filter draws from a single Source and
// is therefore not safe for concurrent use.
type Filter struct {
	cfg Config
	src Source
}

// New returns a filter using cfg and src. A nil src is replaced by a
// randomly seeded one.
func New(cfg Config, src Source) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewRandomSource()
	}
	return &Filter{cfg: cfg, src: src}, nil
}

// Config returns the filter configuration.
func (f *Filter) Config() Config { return f.cfg }

// Render returns a glitched copy of img. Channels 0 and 1 are distorted
// with independent band layouts, channel 2 is copied as is. img is not
// modified.
//
// Images with zero width or height are returned as an unchanged copy.
func (f *Filter) Render(img *RGB) (*RGB, error) {
	if img == nil {
		return nil, errors.New("glitch: nil image")
	}
	if err := img.checkLayout(); err != nil {
		return nil, err
	}

	out := NewRGB(img.Rect)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		Logger().Debug("empty image, nothing to glitch", slog.Int("width", w), slog.Int("height", h))
		return out, nil
	}

	for c := 0; c < 3; c++ {
		plane := img.plane(c)
		if c < 2 {
			plane = f.wave(plane, w, h, c)
		}
		out.setPlane(c, plane)
	}

	Logger().Info("rendered glitch", slog.Int("width", w), slog.Int("height", h))
	return out, nil
}

// Bands splits height rows into consecutive bands whose heights are drawn
// from [VBandMin, VBandMax) as a fraction of height. The bands cover
// [0, height) without gaps or overlaps, and every band holds at least one
// row so that short images still terminate.
func (f *Filter) Bands(height int) []Band {
	var bands []Band
	f.eachBand(height, func(b Band) {
		bands = append(bands, b)
	})
	return bands
}

// eachBand draws the bands of a plane with height rows and calls fn for
// each one before the next is drawn.
func (f *Filter) eachBand(height int, fn func(Band)) {
	for lower := 0; lower < height; {
		frac := f.src.Uniform(f.cfg.VBandMin, f.cfg.VBandMax)
		upper := lower + max(int(float64(height)*frac), 1)
		b := Band{Lower: lower, Upper: min(upper, height)}
		fn(b)
		lower = b.Upper
	}
}

// wave distorts one channel plane band by band.
func (f *Filter) wave(plane []uint8, w, h, channel int) []uint8 {
	banded := make([]uint8, len(plane))
	f.eachBand(h, func(b Band) {
		shift, right := f.shiftBand(banded, plane, w, b)
		Logger().Debug("shifted band",
			slog.Int("channel", channel),
			slog.Int("lower", b.Lower),
			slog.Int("upper", b.Upper),
			slog.Int("shift", shift),
			slog.Bool("right", right))
	})
	return banded
}

// shiftBand writes the rows of band b of src, displaced horizontally, into
// dst. It returns the shift amount and whether the band moved right.
func (f *Filter) shiftBand(dst, src []uint8, w int, b Band) (int, bool) {
	shift := f.shiftAmount(w)
	right := f.src.Bool()

	for y := b.Lower; y < b.Upper; y++ {
		in := src[y*w : (y+1)*w]
		out := dst[y*w : (y+1)*w]
		if right {
			copy(out[shift:], in[:w-shift])
			fill(out[:shift], in[0])
		} else {
			copy(out[:w-shift], in[shift:])
			fill(out[w-shift:], in[w-1])
		}
	}
	return shift, right
}

// shiftAmount draws a shift of floor(w * fraction) columns, kept within
// [0, w).
func (f *Filter) shiftAmount(w int) int {
	frac := f.src.Uniform(f.cfg.HShiftMin, f.cfg.HShiftMax)
	shift := int(float64(w) * frac)
	if shift < 0 || shift >= w {
		Logger().Warn("shift out of range, clamping", slog.Int("shift", shift), slog.Int("width", w))
		shift = min(max(shift, 0), w-1)
	}
	return shift
}

func fill(s []uint8, v uint8) {
	for i := range s {
		s[i] = v
	}
}

// Render glitches img with the default configuration and a randomly seeded
// source.
func Render(img *RGB) (*RGB, error) {
	f, err := New(DefaultConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("glitch: %w", err)
	}
	return f.Render(img)
}
