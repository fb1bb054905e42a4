package software

import (
	"image"
	"math"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"
)

// source is a read-only view of a target image with its sampler state.
type source struct {
	img    *exr.RGBAImage
	filter render_target.Filter
	w, h   int
}

func newSource(img *exr.RGBAImage, filter render_target.Filter) *source {
	return &source{img: img, filter: filter, w: img.Rect.Dx(), h: img.Rect.Dy()}
}

// sample reads the image at viewport coordinates u, v with clamp-to-edge addressing.
func (s *source) sample(u, v float32) common.Color {
	if s.w == 0 || s.h == 0 {
		return common.Clear
	}
	fx := u*float32(s.w) - 0.5
	fy := (1-v)*float32(s.h) - 0.5

	if s.filter == render_target.FilterPoint {
		return s.texel(int(math.Round(float64(fx))), int(math.Round(float64(fy))))
	}

	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := s.texel(x0, y0)
	c10 := s.texel(x0+1, y0)
	c01 := s.texel(x0, y0+1)
	c11 := s.texel(x0+1, y0+1)

	var out common.Color
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

func (s *source) texel(x, y int) common.Color {
	x = common.Clamp(x, 0, s.w-1)
	y = common.Clamp(y, 0, s.h-1)
	off := s.img.PixOffset(s.img.Rect.Min.X+x, s.img.Rect.Min.Y+y)
	var c common.Color
	copy(c[:], s.img.Pix[off:off+4])
	return c
}

// quantize rounds c to the precision of the storage format.
func quantize(f render_target.Format, c common.Color) common.Color {
	switch f {
	case render_target.FormatDefaultHDR:
		for i := range c {
			c[i] = half.FromFloat32(c[i]).Float32()
		}
	case render_target.FormatR32Float:
		c[1], c[2], c[3] = 0, 0, 1
	default:
		for i := range c {
			c[i] = float32(math.Round(float64(common.Saturate(c[i])*255))) / 255
		}
	}
	return c
}

func newImage(w, h int) *exr.RGBAImage {
	return exr.NewRGBAImage(image.Rect(0, 0, w, h))
}

func cloneImage(img *exr.RGBAImage) *exr.RGBAImage {
	out := exr.NewRGBAImage(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}
