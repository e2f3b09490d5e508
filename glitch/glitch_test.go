package glitch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"testing"
)

// cycleSource replays fixed draws in order, starting over when exhausted.
type cycleSource struct {
	uniforms []float64
	bools    []bool
	ui, bi   int
}

func (s *cycleSource) Uniform(low, high float64) float64 {
	if len(s.uniforms) == 0 {
		return low
	}
	v := s.uniforms[s.ui%len(s.uniforms)]
	s.ui++
	return v
}

func (s *cycleSource) Bool() bool {
	if len(s.bools) == 0 {
		return true
	}
	v := s.bools[s.bi%len(s.bools)]
	s.bi++
	return v
}

// columnImage returns a w*h image where channel c of column x holds
// (c+1)*(x+1), so every row reads 1,2,3,... in channel 0.
func columnImage(w, h int) *RGB {
	img := NewRGB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				img.Pix[i+c] = uint8((c + 1) * (x + 1))
			}
		}
	}
	return img
}

func randomImage(seed uint64, r image.Rectangle) *RGB {
	rng := rand.New(rand.NewPCG(seed, 1))
	img := NewRGB(r)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.UintN(256))
	}
	return img
}

func channelRow(img *RGB, c, y int) []uint8 {
	w := img.Rect.Dx()
	row := make([]uint8, w)
	for x := 0; x < w; x++ {
		row[x] = img.Pix[img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)+c]
	}
	return row
}

func TestRenderSingleBand(t *testing.T) {
	tests := []struct {
		name  string
		shift float64
		right bool
		want0 []uint8
		want1 []uint8
	}{
		{
			"no shift right",
			0,
			true,
			[]uint8{1, 2, 3, 4},
			[]uint8{2, 4, 6, 8},
		},
		{
			"no shift left",
			0,
			false,
			[]uint8{1, 2, 3, 4},
			[]uint8{2, 4, 6, 8},
		},
		{
			"shift right by one",
			0.25,
			true,
			[]uint8{1, 1, 2, 3},
			[]uint8{2, 2, 4, 6},
		},
		{
			"shift left by one",
			0.25,
			false,
			[]uint8{2, 3, 4, 4},
			[]uint8{4, 6, 8, 8},
		},
		{
			"shift right by two",
			0.5,
			true,
			[]uint8{1, 1, 1, 2},
			[]uint8{2, 2, 2, 4},
		},
		{
			"shift left by three",
			0.75,
			false,
			[]uint8{4, 4, 4, 4},
			[]uint8{8, 8, 8, 8},
		},
	}

	for i := range tests {
		t.Run(tests[i].name, func(t *testing.T) {
			src := &cycleSource{
				// A band fraction of 1 yields one band spanning all rows.
				uniforms: []float64{1, tests[i].shift},
				bools:    []bool{tests[i].right},
			}
			f, err := New(DefaultConfig(), src)
			if err != nil {
				t.Fatalf("expected no error but got error %s", err.Error())
			}

			in := columnImage(4, 4)
			out, err := f.Render(in)
			if err != nil {
				t.Fatalf("expected no error but got error %s", err.Error())
			}

			for y := 0; y < 4; y++ {
				if got := channelRow(out, 0, y); !bytes.Equal(got, tests[i].want0) {
					t.Errorf("row %d channel 0: expected %v but got %v", y, tests[i].want0, got)
				}
				if got := channelRow(out, 1, y); !bytes.Equal(got, tests[i].want1) {
					t.Errorf("row %d channel 1: expected %v but got %v", y, tests[i].want1, got)
				}
				if got, want := channelRow(out, 2, y), channelRow(in, 2, y); !bytes.Equal(got, want) {
					t.Errorf("row %d channel 2: expected %v but got %v", y, want, got)
				}
			}
		})
	}
}

func TestRenderUniformImageUnchanged(t *testing.T) {
	in := NewRGB(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(in.Pix); i += 3 {
		in.Pix[i], in.Pix[i+1], in.Pix[i+2] = 10, 20, 30
	}

	for _, shift := range []float64{0, 0.25} {
		f, err := New(DefaultConfig(), &cycleSource{uniforms: []float64{0.5, shift}})
		if err != nil {
			t.Fatalf("expected no error but got error %s", err.Error())
		}
		out, err := f.Render(in)
		if err != nil {
			t.Fatalf("expected no error but got error %s", err.Error())
		}
		if !bytes.Equal(out.Pix, in.Pix) {
			t.Errorf("shift fraction %g: expected uniform image to be unchanged, got %v", shift, out.Pix)
		}
	}
}

func TestRenderBandsShiftIndependently(t *testing.T) {
	// Two bands of two rows each: the first moves right, the second left.
	src := &cycleSource{
		uniforms: []float64{0.5, 0.25},
		bools:    []bool{true, false},
	}
	f, err := New(DefaultConfig(), src)
	if err != nil {
		t.Fatalf("expected no error but got error %s", err.Error())
	}

	out, err := f.Render(columnImage(4, 4))
	if err != nil {
		t.Fatalf("expected no error but got error %s", err.Error())
	}

	want := [][]uint8{
		{1, 1, 2, 3},
		{1, 1, 2, 3},
		{2, 3, 4, 4},
		{2, 3, 4, 4},
	}
	for y := range want {
		if got := channelRow(out, 0, y); !bytes.Equal(got, want[y]) {
			t.Errorf("row %d: expected %v but got %v", y, want[y], got)
		}
	}
}

func TestRenderProperties(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 1, 1),
		image.Rect(0, 0, 3, 2),
		image.Rect(0, 0, 64, 48),
		image.Rect(0, 0, 200, 7),
		image.Rect(10, 20, 90, 140),
		image.Rect(-5, -5, 41, 3),
	}

	for seed := uint64(0); seed < 8; seed++ {
		for _, r := range rects {
			in := randomImage(seed, r)
			orig := append([]uint8(nil), in.Pix...)

			f, err := New(DefaultConfig(), NewSource(seed))
			if err != nil {
				t.Fatalf("expected no error but got error %s", err.Error())
			}
			out, err := f.Render(in)
			if err != nil {
				t.Fatalf("seed %d rect %v: expected no error but got error %s", seed, r, err.Error())
			}

			if out.Bounds() != in.Bounds() {
				t.Errorf("seed %d: expected bounds %v but got %v", seed, in.Bounds(), out.Bounds())
			}
			if len(out.Pix) != len(in.Pix) {
				t.Errorf("seed %d rect %v: expected %d samples but got %d", seed, r, len(in.Pix), len(out.Pix))
			}
			if !bytes.Equal(in.Pix, orig) {
				t.Errorf("seed %d rect %v: input image was modified", seed, r)
			}
			for y := 0; y < r.Dy(); y++ {
				if got, want := channelRow(out, 2, y), channelRow(in, 2, y); !bytes.Equal(got, want) {
					t.Errorf("seed %d rect %v row %d: channel 2 expected %v but got %v", seed, r, y, want, got)
				}
			}
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	in := randomImage(3, image.Rect(0, 0, 320, 240))

	render := func(seed uint64) []uint8 {
		f, err := New(DefaultConfig(), NewSource(seed))
		if err != nil {
			t.Fatalf("expected no error but got error %s", err.Error())
		}
		out, err := f.Render(in)
		if err != nil {
			t.Fatalf("expected no error but got error %s", err.Error())
		}
		return out.Pix
	}

	if a, b := render(42), render(42); !bytes.Equal(a, b) {
		t.Errorf("expected identical output for identical seeds")
	}
	if a, b := render(42), render(43); bytes.Equal(a, b) {
		t.Errorf("expected different output for different seeds")
	}
}

func TestRenderEmptyImage(t *testing.T) {
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 0, 0),
		image.Rect(0, 0, 0, 10),
		image.Rect(0, 0, 10, 0),
	} {
		f, _ := New(DefaultConfig(), NewSource(1))
		out, err := f.Render(NewRGB(r))
		if err != nil {
			t.Errorf("rect %v: expected no error but got error %s", r, err.Error())
			continue
		}
		if out.Bounds() != r {
			t.Errorf("rect %v: expected same bounds but got %v", r, out.Bounds())
		}
	}
}

func TestRenderInvalidLayout(t *testing.T) {
	tests := []struct {
		name string
		img  *RGB
	}{
		{
			"four samples per pixel",
			&RGB{Pix: make([]uint8, 4*4), Stride: 4, Rect: image.Rect(0, 0, 2, 2)},
		},
		{
			"short buffer",
			&RGB{Pix: make([]uint8, 5), Stride: 6, Rect: image.Rect(0, 0, 2, 2)},
		},
	}

	for i := range tests {
		t.Run(tests[i].name, func(t *testing.T) {
			f, _ := New(DefaultConfig(), NewSource(1))
			out, err := f.Render(tests[i].img)
			if !errors.Is(err, ErrInvalidChannelCount) {
				t.Errorf("expected ErrInvalidChannelCount but got %v", err)
			}
			if out != nil {
				t.Errorf("expected no output image on error")
			}
		})
	}
}

func TestBandsPartition(t *testing.T) {
	cfgs := []Config{
		DefaultConfig(),
		{HShiftMin: 0, HShiftMax: 0.5, VBandMin: 0.01, VBandMax: 0.02},
		{HShiftMin: 0, HShiftMax: 0.5, VBandMin: 1, VBandMax: 1},
	}

	for _, cfg := range cfgs {
		for seed := uint64(0); seed < 4; seed++ {
			f, err := New(cfg, NewSource(seed))
			if err != nil {
				t.Fatalf("expected no error but got error %s", err.Error())
			}
			for _, height := range []int{1, 2, 3, 5, 9, 10, 11, 97, 1080} {
				bands := f.Bands(height)
				if len(bands) == 0 {
					t.Fatalf("height %d: expected at least one band", height)
				}
				if bands[0].Lower != 0 {
					t.Errorf("height %d: expected first band to start at 0 but got %d", height, bands[0].Lower)
				}
				for j, b := range bands {
					if b.Height() < 1 {
						t.Errorf("height %d: band %d %v is empty", height, j, b)
					}
					if j > 0 && bands[j-1].Upper != b.Lower {
						t.Errorf("height %d: band %d starts at %d, previous ended at %d", height, j, b.Lower, bands[j-1].Upper)
					}
				}
				if last := bands[len(bands)-1].Upper; last != height {
					t.Errorf("height %d: expected last band to end at %d but got %d", height, height, last)
				}
			}
		}
	}
}

func TestBandsDefaultHeights(t *testing.T) {
	f, _ := New(DefaultConfig(), NewSource(7))
	bands := f.Bands(1000)
	// All but the last band are between 10% and 20% of the height.
	for _, b := range bands[:len(bands)-1] {
		if b.Height() < 100 || b.Height() >= 200 {
			t.Errorf("expected band height in [100, 200) but got %d", b.Height())
		}
	}
}

func TestShiftAmount(t *testing.T) {
	f, _ := New(DefaultConfig(), NewSource(11))
	for _, w := range []int{1, 2, 39, 40, 41, 1000, 4096} {
		for n := 0; n < 100; n++ {
			s := f.shiftAmount(w)
			if s < 0 || s >= w {
				t.Fatalf("width %d: shift %d outside [0, %d)", w, s, w)
			}
			if limit := int(float64(w) * 0.025); s > limit {
				t.Fatalf("width %d: shift %d larger than %d", w, s, limit)
			}
		}
	}

	// Out of range draws are clamped.
	f, _ = New(DefaultConfig(), &cycleSource{uniforms: []float64{1.5, -0.5}})
	if s := f.shiftAmount(10); s != 9 {
		t.Errorf("expected clamped shift 9 but got %d", s)
	}
	if s := f.shiftAmount(10); s != 0 {
		t.Errorf("expected clamped shift 0 but got %d", s)
	}
}

func TestShiftBandEdgeReplication(t *testing.T) {
	const w, h = 97, 13
	rng := rand.New(rand.NewPCG(5, 5))
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8(rng.UintN(256))
	}

	cfg := Config{HShiftMin: 0, HShiftMax: 0.5, VBandMin: 0.1, VBandMax: 0.2}
	f, _ := New(cfg, NewSource(9))
	for n := 0; n < 50; n++ {
		dst := make([]uint8, w*h)
		b := Band{Lower: 2, Upper: 9}
		shift, right := f.shiftBand(dst, src, w, b)

		for y := b.Lower; y < b.Upper; y++ {
			in, out := src[y*w:(y+1)*w], dst[y*w:(y+1)*w]
			for x := 0; x < w; x++ {
				var want uint8
				switch {
				case right && x < shift:
					want = in[0]
				case right:
					want = in[x-shift]
				case x >= w-shift:
					want = in[w-1]
				default:
					want = in[x+shift]
				}
				if out[x] != want {
					t.Fatalf("shift %d right %v row %d col %d: expected %d but got %d", shift, right, y, x, want, out[x])
				}
			}
		}
		for y := 0; y < h; y++ {
			if y >= b.Lower && y < b.Upper {
				continue
			}
			for x := 0; x < w; x++ {
				if dst[y*w+x] != 0 {
					t.Fatalf("row %d outside the band was written", y)
				}
			}
		}
	}
}

// bandRecorder collects the bands logged while rendering.
type bandRecorder struct {
	bands map[int][]Band
}

func (r *bandRecorder) Enabled(context.Context, slog.Level) bool { return true }
func (r *bandRecorder) WithAttrs([]slog.Attr) slog.Handler       { return r }
func (r *bandRecorder) WithGroup(string) slog.Handler            { return r }

func (r *bandRecorder) Handle(_ context.Context, rec slog.Record) error {
	if rec.Message != "shifted band" {
		return nil
	}
	var channel int
	var b Band
	rec.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "channel":
			channel = int(a.Value.Int64())
		case "lower":
			b.Lower = int(a.Value.Int64())
		case "upper":
			b.Upper = int(a.Value.Int64())
		}
		return true
	})
	r.bands[channel] = append(r.bands[channel], b)
	return nil
}

func TestRenderBandsPartition(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	for _, height := range []int{1, 4, 9, 97, 480} {
		rec := &bandRecorder{bands: map[int][]Band{}}
		SetLogger(slog.New(rec))

		f, _ := New(DefaultConfig(), NewSource(uint64(height)))
		if _, err := f.Render(randomImage(1, image.Rect(0, 0, 16, height))); err != nil {
			t.Fatalf("expected no error but got error %s", err.Error())
		}

		if _, ok := rec.bands[2]; ok {
			t.Errorf("height %d: channel 2 should not be banded", height)
		}
		for _, channel := range []int{0, 1} {
			bands := rec.bands[channel]
			if len(bands) == 0 {
				t.Fatalf("height %d channel %d: expected at least one band", height, channel)
			}
			lower := 0
			for _, b := range bands {
				if b.Lower != lower || b.Height() < 1 {
					t.Errorf("height %d channel %d: band %v does not continue at row %d", height, channel, b, lower)
				}
				lower = b.Upper
			}
			if lower != height {
				t.Errorf("height %d channel %d: expected bands to end at %d but got %d", height, channel, height, lower)
			}
		}
	}
}

func TestBandsMatchRender(t *testing.T) {
	// With a shift fraction of zero every draw after a band draw is a shift,
	// so Render and Bands see the same band fractions.
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	rec := &bandRecorder{bands: map[int][]Band{}}
	SetLogger(slog.New(rec))

	f, _ := New(DefaultConfig(), &cycleSource{uniforms: []float64{0.3, 0}})
	if _, err := f.Render(columnImage(4, 10)); err != nil {
		t.Fatalf("expected no error but got error %s", err.Error())
	}

	f, _ = New(DefaultConfig(), &cycleSource{uniforms: []float64{0.3}})
	want := f.Bands(10)
	got := rec.bands[0]
	if len(got) != len(want) {
		t.Fatalf("expected bands %v but got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("band %d: expected %v but got %v", i, want[i], got[i])
		}
	}
}

func TestNewConfig(t *testing.T) {
	cfg := Config{HShiftMin: 0.01, HShiftMax: 0.05, VBandMin: 0.2, VBandMax: 0.4}
	f, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("expected no error but got error %s", err.Error())
	}
	if f.Config() != cfg {
		t.Errorf("expected config %+v but got %+v", cfg, f.Config())
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(Config{HShiftMax: 2, VBandMin: 0.1, VBandMax: 0.2}, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig but got %v", err)
	}
}

func TestRenderPackageFunc(t *testing.T) {
	in := randomImage(1, image.Rect(0, 0, 50, 50))
	out, err := Render(in)
	if err != nil {
		t.Fatalf("expected no error but got error %s", err.Error())
	}
	if out.Bounds() != in.Bounds() {
		t.Errorf("expected bounds %v but got %v", in.Bounds(), out.Bounds())
	}
}
