package renderer

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"
)

// copyRowAlignment is the row pitch alignment WebGPU requires for texture to buffer copies.
const copyRowAlignment = 256

// textureFormat maps a render target format to the GPU texture format that stores it.
func textureFormat(f render_target.Format) wgpu.TextureFormat {
	switch f {
	case render_target.FormatDefaultHDR:
		return wgpu.TextureFormatRGBA16Float
	case render_target.FormatR32Float:
		return wgpu.TextureFormatR32Float
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func bytesPerPixel(f wgpu.TextureFormat) int {
	switch f {
	case wgpu.TextureFormatRGBA16Float:
		return 8
	default:
		return 4
	}
}

func alignedRowPitch(n int) int {
	return (n + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
}

// encodePixels packs img into rows of stride bytes in the layout of format.
func encodePixels(format wgpu.TextureFormat, img *exr.RGBAImage, stride int) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, stride*h)
	row := make([]float32, w*4)
	red := make([]float32, w)
	for y := range h {
		for x := range w {
			r, g, b, a := img.RGBA(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			copy(row[x*4:], []float32{r, g, b, a})
		}
		dst := out[y*stride:]
		switch format {
		case wgpu.TextureFormatRGBA16Float:
			half.ConvertFloat32ToBytes(dst[:w*8], row)
		case wgpu.TextureFormatR32Float:
			for x := range w {
				red[x] = row[x*4]
			}
			copy(dst[:w*4], common.SliceToBytes(red))
		default:
			for i, v := range row {
				dst[i] = uint8(math.Round(float64(common.Saturate(v)) * 255))
			}
		}
	}
	return out
}

// decodePixels unpacks rows of stride bytes in the layout of format into a float image.
// Single channel formats read back as (r, 0, 0, 1).
func decodePixels(format wgpu.TextureFormat, data []byte, w, h, stride int) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	row := make([]float32, w*4)
	for y := range h {
		src := data[y*stride:]
		switch format {
		case wgpu.TextureFormatRGBA16Float:
			half.ConvertBytesToFloat32(row, src[:w*8])
		case wgpu.TextureFormatR32Float:
			for x := range w {
				v := math.Float32frombits(binary.LittleEndian.Uint32(src[x*4:]))
				copy(row[x*4:], []float32{v, 0, 0, 1})
			}
		default:
			for i := range row {
				row[i] = float32(src[i]) / 255
			}
		}
		off := img.PixOffset(0, y)
		copy(img.Pix[off:off+w*4], row)
	}
	return img
}
