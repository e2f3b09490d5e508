package glitch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidChannelCount is returned for images that do not carry exactly
// three color channels.
var ErrInvalidChannelCount = errors.New("invalid channel count")

// RGB is an in-memory image whose At method returns color.RGBA values.
type RGB struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewRGB returns a new RGB image with the given bounds.
func NewRGB(r image.Rectangle) *RGB {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &RGB{
		Pix:    make([]uint8, 3*w*h),
		Stride: 3 * w,
		Rect:   r,
	}
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

func (p *RGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3] // Small cap improves performance, see https://golang.org/issue/27857
	return color.RGBA{s[0], s[1], s[2], 255}
}

// SetRGBA stores the color channels of c, dropping alpha.
func (p *RGB) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0] = c.R
	s[1] = c.G
	s[2] = c.B
}

// Opaque reports whether the image is fully opaque, which an RGB image
// always is.
func (p *RGB) Opaque() bool { return true }

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// checkLayout verifies that Pix and Stride can hold three samples for
// every pixel in Rect.
func (p *RGB) checkLayout() error {
	w, h := p.Rect.Dx(), p.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if p.Stride < 3*w {
		return fmt.Errorf("%w: stride %d holds fewer than 3 samples for %d pixels per row", ErrInvalidChannelCount, p.Stride, w)
	}
	if need := (h-1)*p.Stride + 3*w; len(p.Pix) < need {
		return fmt.Errorf("%w: %d samples for a %dx%d image, need %d", ErrInvalidChannelCount, len(p.Pix), w, h, need)
	}
	return nil
}

// plane copies channel c into a dense width*height slice.
func (p *RGB) plane(c int) []uint8 {
	w, h := p.Rect.Dx(), p.Rect.Dy()
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := p.Pix[y*p.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = row[x*3+c]
		}
	}
	return out
}

// setPlane writes a dense width*height slice back into channel c.
func (p *RGB) setPlane(c int, plane []uint8) {
	w, h := p.Rect.Dx(), p.Rect.Dy()
	for y := 0; y < h; y++ {
		row := p.Pix[y*p.Stride:]
		for x := 0; x < w; x++ {
			row[x*3+c] = plane[y*w+x]
		}
	}
}

// ChannelCount reports how many channels a decoded image carries: 1 for
// gray images, 4 for images with translucent pixels and 3 otherwise.
func ChannelCount(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}

// FromImage converts img into an RGB image. Unless convert is set, images
// that are not three-channel fail with ErrInvalidChannelCount; with convert
// gray values are replicated and alpha is dropped.
func FromImage(img image.Image, convert bool) (*RGB, error) {
	if rgb, ok := img.(*RGB); ok {
		return rgb, nil
	}

	if n := ChannelCount(img); n != 3 && !convert {
		return nil, fmt.Errorf("%w: image has %d channel(s), expected 3", ErrInvalidChannelCount, n)
	}

	b := img.Bounds()
	dst := NewRGB(b)
	// Translucent *image.RGBA samples are premultiplied, unpremultiply them
	// like any other non-NRGBA image.
	switch src := img.(type) {
	case *image.RGBA:
		if !src.Opaque() {
			convertEach(dst, img)
			break
		}
		copyInterleaved(dst, src.Pix, src.Stride, 4)
	case *image.NRGBA:
		copyInterleaved(dst, src.Pix, src.Stride, 4)
	default:
		convertEach(dst, img)
	}
	return dst, nil
}

// convertEach converts img pixel by pixel through NRGBAModel, so colors are
// unpremultiplied before alpha is dropped.
func convertEach(dst *RGB, img image.Image) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
}

// copyInterleaved copies the first three samples of every pixel of an
// interleaved buffer with bpp samples per pixel.
func copyInterleaved(dst *RGB, pix []uint8, stride, bpp int) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		src := pix[y*stride:]
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			copy(row[x*3:x*3+3], src[x*bpp:x*bpp+3])
		}
	}
}
