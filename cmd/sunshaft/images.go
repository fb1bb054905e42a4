package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-openexr/exr"
	xdraw "golang.org/x/image/draw"
)

var errUnknownImageFormat = errors.New("unknown image format")

// loadImage reads a PNG, JPEG or OpenEXR file as linear float pixels.
// hdr reports whether the file can hold values above 1.
func loadImage(path string) (img *exr.RGBAImage, hdr bool, err error) {
	if isEXR(path) {
		img, err := exr.DecodeFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return img, true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return toFloat(src), false, nil
}

// loadDepth reads the first channel of an OpenEXR depth image, resampled to width x height.
func loadDepth(path string, width, height int) (*exr.RGBAImage, error) {
	img, err := exr.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode depth %s: %w", path, err)
	}
	return resampleNearest(img, width, height), nil
}

// constantDepth returns a depth image with every pixel at d.
func constantDepth(width, height int, d float32) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, d, d, d, 1)
		}
	}
	return img
}

// resize scales img to width, keeping its aspect ratio. LDR images are filtered with
// Catmull-Rom; HDR images are point sampled so values above 1 survive.
func resize(img *exr.RGBAImage, width int, hdr bool) *exr.RGBAImage {
	b := img.Bounds()
	if width <= 0 || width == b.Dx() {
		return img
	}
	height := max(1, int(math.Round(float64(b.Dy())*float64(width)/float64(b.Dx()))))
	if hdr {
		return resampleNearest(img, width, height)
	}

	src := toRGBA64(img)
	dst := image.NewRGBA64(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return toFloat(dst)
}

// resampleNearest point samples img to width x height without clamping.
func resampleNearest(img *exr.RGBAImage, width, height int) *exr.RGBAImage {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := exr.NewRGBAImage(image.Rect(0, 0, width, height))
	for y := range height {
		sy := b.Min.Y + min(b.Dy()-1, y*b.Dy()/height)
		for x := range width {
			sx := b.Min.X + min(b.Dx()-1, x*b.Dx()/width)
			r, g, bl, a := img.RGBA(sx, sy)
			dst.SetRGBA(x, y, r, g, bl, a)
		}
	}
	return dst
}

// toFloat converts any image to float pixels in [0, 1].
func toFloat(src image.Image) *exr.RGBAImage {
	b := src.Bounds()
	dst := exr.NewRGBAImage(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y,
				float32(r)/0xffff, float32(g)/0xffff, float32(bl)/0xffff, float32(a)/0xffff)
		}
	}
	return dst
}

// toRGBA64 clamps float pixels to a 16 bit per channel image.
func toRGBA64(src *exr.RGBAImage) *image.RGBA64 {
	b := src.Bounds()
	dst := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	quantize := func(v float32) uint16 {
		return uint16(math.Round(float64(min(max(v, 0), 1)) * 0xffff))
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.RGBA(x, y)
			dst.SetRGBA64(x-b.Min.X, y-b.Min.Y, color.RGBA64{
				R: quantize(r),
				G: quantize(g),
				B: quantize(bl),
				A: quantize(a),
			})
		}
	}
	return dst
}

// saveImage writes img in the format selected by the file extension.
func saveImage(path string, img *exr.RGBAImage) error {
	if isEXR(path) {
		return exr.EncodeFile(path, img)
	}

	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, toRGBA64(img)) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, toRGBA64(img), &jpeg.Options{Quality: 92}) }
	default:
		return fmt.Errorf("%w: %s", errUnknownImageFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// saveStereo writes both eyes into one multi-part OpenEXR file.
func saveStereo(path string, left, right *exr.RGBAImage) error {
	if !isEXR(path) {
		return fmt.Errorf("%w: stereo output needs an .exr file, got %s", errUnknownImageFormat, path)
	}
	b := left.Bounds()
	return exr.WriteStereoMultiPart(path, b.Dx(), b.Dy(), left, right, exr.CompressionZIP)
}

func isEXR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".exr")
}
