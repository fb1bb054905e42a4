package main

import (
	"errors"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/mrjoshuak/go-openexr/exr"
)

func filled(w, h int, r, g, b float32) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, r, g, b, 1)
		}
	}
	return img
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 5e-3
}

func TestSavePNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	src := filled(4, 3, 0.25, 0.5, 2)
	if err := saveImage(path, src); err != nil {
		t.Fatalf("saveImage() error = %v", err)
	}

	got, hdr, err := loadImage(path)
	if err != nil {
		t.Fatalf("loadImage() error = %v", err)
	}
	if hdr {
		t.Errorf("loadImage() hdr = true, want false for PNG")
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 3 {
		t.Fatalf("Bounds() = %v, want 4x3", got.Bounds())
	}
	r, g, b, a := got.RGBA(2, 1)
	if !near(r, 0.25) || !near(g, 0.5) || !near(b, 1) || !near(a, 1) {
		t.Errorf("RGBA() = %v, %v, %v, %v, want 0.25, 0.5, 1 (clamped), 1", r, g, b, a)
	}
}

func TestSaveUnknownFormat(t *testing.T) {
	err := saveImage(filepath.Join(t.TempDir(), "out.tga"), filled(1, 1, 0, 0, 0))
	if !errors.Is(err, errUnknownImageFormat) {
		t.Errorf("saveImage() error = %v, want %v", err, errUnknownImageFormat)
	}
}

func TestSaveStereoNeedsEXR(t *testing.T) {
	img := filled(2, 2, 0, 0, 0)
	err := saveStereo(filepath.Join(t.TempDir(), "out.png"), img, img)
	if !errors.Is(err, errUnknownImageFormat) {
		t.Errorf("saveStereo() error = %v, want %v", err, errUnknownImageFormat)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		hdr        bool
		width      int
		srcW, srcH int
		srcRed     float32
		wantW      int
		wantH      int
		wantRed    float32
	}{
		{"keep", false, 0, 8, 4, 0.5, 8, 4, 0.5},
		{"ldr half", false, 4, 8, 4, 0.5, 4, 2, 0.5},
		{"hdr keeps range", true, 4, 8, 4, 3, 4, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resize(filled(tt.srcW, tt.srcH, tt.srcRed, 0, 0), tt.width, tt.hdr)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Fatalf("Bounds() = %v, want %dx%d", got.Bounds(), tt.wantW, tt.wantH)
			}
			if r, _, _, _ := got.RGBA(0, 0); !near(r, tt.wantRed) {
				t.Errorf("RGBA(0, 0) red = %v, want %v", r, tt.wantRed)
			}
		})
	}
}

func TestResampleNearest(t *testing.T) {
	src := exr.NewRGBAImage(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, 5, 0, 0, 1)

	got := resampleNearest(src, 4, 4)
	if r, _, _, _ := got.RGBA(3, 3); r != 5 {
		t.Errorf("RGBA(3, 3) red = %v, want 5", r)
	}
	if r, _, _, _ := got.RGBA(1, 1); r != 0 {
		t.Errorf("RGBA(1, 1) red = %v, want 0", r)
	}
}

func TestConstantDepth(t *testing.T) {
	d := constantDepth(3, 2, 1)
	for y := range 2 {
		for x := range 3 {
			if r, _, _, _ := d.RGBA(x, y); r != 1 {
				t.Fatalf("RGBA(%d, %d) = %v, want 1", x, y, r)
			}
		}
	}
}
