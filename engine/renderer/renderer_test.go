package renderer

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mrjoshuak/go-openexr/exr"
)

func solid(w, h int, c common.Color) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c[0], c[1], c[2], c[3])
		}
	}
	return img
}

func TestSoftwareBackend(t *testing.T) {
	r, err := NewRenderer(BackendTypeSoftware)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	defer r.Release()

	if r.BackendType() != BackendTypeSoftware {
		t.Errorf("BackendType() = %s, want software", r.BackendType())
	}

	pool := render_target.NewPool()
	src, _ := pool.External("src", render_target.Descriptor{Width: 4, Height: 4, Format: render_target.FormatDefault})
	dst, _ := pool.External("dst", render_target.Descriptor{Width: 4, Height: 4, Format: render_target.FormatDefault})

	if err := r.Upload(src, solid(4, 4, common.Color{1, 0.5, 0, 1})); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	cmd := command.NewBuffer("copy")
	cmd.Blit(src, dst, command.PassCopy, command.Uniforms{})
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	img, err := r.Image(dst)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if cr, cg, _, _ := img.RGBA(2, 2); cr != 1 || math.Abs(float64(cg)-128.0/255) > 1e-6 {
		t.Errorf("Image().RGBA(2, 2) = (%v, %v), want (1, %v)", cr, cg, 128.0/255)
	}

	if err := r.Resize(640, 480); err != nil {
		t.Errorf("Resize() error = %v, want nil", err)
	}
	if err := r.Present(dst); !errors.Is(err, ErrNoSurface) {
		t.Errorf("Present() error = %v, want ErrNoSurface", err)
	}
}

func TestExecuteWrapsBufferName(t *testing.T) {
	r, err := NewRenderer(BackendTypeSoftware)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	defer r.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := command.NewBuffer("cancelled")
	cmd.ClearColor(render_target.Target{Handle: 1, Descriptor: render_target.Descriptor{Width: 1, Height: 1}}, common.White)
	if err := r.Execute(ctx, cmd); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		in   render_target.Format
		want wgpu.TextureFormat
	}{
		{render_target.FormatDefault, wgpu.TextureFormatRGBA8Unorm},
		{render_target.FormatARGB32, wgpu.TextureFormatRGBA8Unorm},
		{render_target.FormatDefaultHDR, wgpu.TextureFormatRGBA16Float},
		{render_target.FormatR32Float, wgpu.TextureFormatR32Float},
	}
	for _, tt := range tests {
		if got := textureFormat(tt.in); got != tt.want {
			t.Errorf("textureFormat(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAlignedRowPitch(t *testing.T) {
	tests := []struct{ in, want int }{
		{4, 256},
		{256, 256},
		{257, 512},
		{640 * 8, 5120},
	}
	for _, tt := range tests {
		if got := alignedRowPitch(tt.in); got != tt.want {
			t.Errorf("alignedRowPitch(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPixelsHonourRowPadding(t *testing.T) {
	img := solid(3, 2, common.Color{0.5, 2, -1, 1})
	img.SetRGBA(2, 1, 0.25, 0.75, 1, 0)

	tests := []struct {
		name   string
		format wgpu.TextureFormat
		want   common.Color
	}{
		{"rgba8 clamps", wgpu.TextureFormatRGBA8Unorm, common.Color{128.0 / 255, 1, 0, 1}},
		{"rgba16f keeps hdr", wgpu.TextureFormatRGBA16Float, common.Color{0.5, 2, -1, 1}},
		{"r32f keeps red", wgpu.TextureFormatR32Float, common.Color{0.5, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stride := alignedRowPitch(3 * bytesPerPixel(tt.format))
			data := encodePixels(tt.format, img, stride)
			if len(data) != stride*2 {
				t.Fatalf("len(encodePixels()) = %d, want %d", len(data), stride*2)
			}
			out := decodePixels(tt.format, data, 3, 2, stride)
			r, g, b, a := out.RGBA(0, 0)
			got := common.Color{r, g, b, a}
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("decodePixels()(0, 0) = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
