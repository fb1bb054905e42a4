package software

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/exr"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func solid(w, h int, c common.Color) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c[0], c[1], c[2], c[3])
		}
	}
	return img
}

func pixel(t *testing.T, r Renderer, target render_target.Target, x, y int) common.Color {
	t.Helper()
	img, err := r.Image(target)
	if err != nil {
		t.Fatalf("Image(%s) error = %v", target, err)
	}
	cr, cg, cb, ca := img.RGBA(x, y)
	return common.Color{cr, cg, cb, ca}
}

func external(t *testing.T, pool render_target.Pool, name string, w, h int, f render_target.Format) render_target.Target {
	t.Helper()
	target, err := pool.External(name, render_target.Descriptor{Width: w, Height: h, Format: f})
	if err != nil {
		t.Fatalf("External(%s) error = %v", name, err)
	}
	return target
}

func TestUploadAndCopy(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer(WithWorkers(2), WithBandHeight(3))
	src := external(t, pool, "src", 8, 4, render_target.FormatDefaultHDR)
	dst := external(t, pool, "dst", 8, 4, render_target.FormatDefaultHDR)

	img := solid(8, 4, common.Color{0.25, 0.5, 2, 1})
	img.SetRGBA(3, 1, 4, 0, 0, 1)
	if err := r.Upload(src, img); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	cmd := command.NewBuffer("copy")
	cmd.Blit(src, dst, command.PassCopy, command.Uniforms{})
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	tests := []struct {
		x, y int
		want common.Color
	}{
		{0, 0, common.Color{0.25, 0.5, 2, 1}},
		{7, 3, common.Color{0.25, 0.5, 2, 1}},
		{3, 1, common.Color{4, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := pixel(t, r, dst, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestUploadSizeMismatch(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	target := external(t, pool, "color", 4, 4, render_target.FormatDefault)

	if err := r.Upload(target, solid(3, 4, common.White)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Upload() error = %v, want %v", err, ErrSizeMismatch)
	}
	if _, err := r.Image(external(t, pool, "never", 2, 2, render_target.FormatDefault)); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("Image() error = %v, want %v", err, ErrUnknownTarget)
	}
}

func TestClearColorQuantizesToFormat(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	ldr := external(t, pool, "ldr", 2, 2, render_target.FormatDefault)
	hdr := external(t, pool, "hdr", 2, 2, render_target.FormatDefaultHDR)

	c := common.Color{2, -1, 0.5, 1}
	cmd := command.NewBuffer("clear")
	cmd.ClearColor(ldr, c)
	cmd.ClearColor(hdr, c)
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got, want := pixel(t, r, ldr, 1, 1), (common.Color{1, 0, 128.0 / 255, 1}); got != want {
		t.Errorf("ldr pixel = %v, want %v", got, want)
	}
	if got := pixel(t, r, hdr, 1, 1); got != c {
		t.Errorf("hdr pixel = %v, want %v", got, c)
	}
}

func TestClearSkybox(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	sky := external(t, pool, "sky", 4, 64, render_target.FormatDefaultHDR)

	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	cam.Update()
	skybox := camera.Skybox{
		Zenith:  common.Color{0, 0, 1, 1},
		Horizon: common.Color{1, 1, 1, 1},
		Ground:  common.Color{0, 1, 0, 1},
	}

	cmd := command.NewBuffer("sky")
	cmd.ClearSkybox(sky, skybox, cam.InverseViewProjectionMatrix(camera.EyeMono))
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	top := pixel(t, r, sky, 2, 0)
	bottom := pixel(t, r, sky, 2, 63)
	if top.B() <= top.R() {
		t.Errorf("top row = %v, want bluer towards the zenith", top)
	}
	if bottom.G() <= bottom.B() {
		t.Errorf("bottom row = %v, want greener towards the ground", bottom)
	}
}

func TestDepthExtract(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	color := external(t, pool, "color", 4, 4, render_target.FormatDefaultHDR)
	depth := external(t, pool, "depth", 4, 4, render_target.FormatR32Float)
	mask := external(t, pool, "mask", 4, 4, render_target.FormatDefaultHDR)

	if err := r.Upload(color, solid(4, 4, common.White)); err != nil {
		t.Fatalf("Upload(color) error = %v", err)
	}
	d := solid(4, 4, common.Color{1, 0, 0, 1})
	d.SetRGBA(0, 0, 0.5, 0, 0, 1)
	if err := r.Upload(depth, d); err != nil {
		t.Fatalf("Upload(depth) error = %v", err)
	}

	u := command.Uniforms{}.
		WithSunPosition(mgl32.Vec4{0.5, 0.5, 0, 10}).
		WithSunThreshold(common.Color{0.9, 0.9, 0.9, 0}).
		WithDepthThreshold(0.99)

	cmd := command.NewBuffer("extract")
	cmd.Blit(color, mask, command.PassDepthExtract, u)
	if err := r.Execute(context.Background(), cmd); !errors.Is(err, ErrDepthNotBound) {
		t.Fatalf("Execute() without depth error = %v, want %v", err, ErrDepthNotBound)
	}

	cmd.Clear()
	cmd.SetGlobalTexture(command.CameraDepthTexture, depth)
	cmd.Blit(color, mask, command.PassDepthExtract, u)
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, ok := r.Global(command.CameraDepthTexture); !ok || got != depth {
		t.Errorf("Global() = %v, %v, want %v", got, ok, depth)
	}

	// 3 channels * 0.1 above threshold, full falloff inside the radius
	if got := pixel(t, r, mask, 2, 2); !approx(got.R(), 0.3) || !approx(got.A(), 0.3) {
		t.Errorf("sky pixel = %v, want 0.3", got)
	}
	if got := pixel(t, r, mask, 0, 0); got != common.Clear {
		t.Errorf("near pixel = %v, want clear", got)
	}
}

func TestBackgroundExtract(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	color := external(t, pool, "color", 4, 4, render_target.FormatDefaultHDR)
	sky := external(t, pool, "sky", 4, 4, render_target.FormatDefaultHDR)
	mask := external(t, pool, "mask", 4, 4, render_target.FormatDefaultHDR)

	img := solid(4, 4, common.White)
	img.SetRGBA(1, 1, 0, 0, 0, 1)
	if err := r.Upload(color, img); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	u := command.Uniforms{}.
		WithSunPosition(mgl32.Vec4{0.5, 0.5, 0, 10}).
		WithSunThreshold(common.Color{0.5, 0.5, 0.5, 0}).
		WithSkybox(sky)

	cmd := command.NewBuffer("extract")
	cmd.ClearColor(sky, common.White)
	cmd.Blit(color, mask, command.PassBackgroundExtract, u)
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := pixel(t, r, mask, 3, 3); !approx(got.R(), 1) {
		t.Errorf("background pixel = %v, want 1", got)
	}
	if got := pixel(t, r, mask, 1, 1); got != common.Clear {
		t.Errorf("foreground pixel = %v, want clear", got)
	}
}

func TestRadialBlurPreservesUniformImage(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	src := external(t, pool, "src", 16, 9, render_target.FormatDefault)
	dst := external(t, pool, "dst", 16, 9, render_target.FormatDefault)

	if err := r.Upload(src, solid(16, 9, common.Color{0.5, 0.5, 0.5, 1})); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	u := command.Uniforms{}.
		WithSunPosition(mgl32.Vec4{0.2, 0.8, 0, 0.75}).
		WithBlurRadius4(mgl32.Vec4{0.1, 0.1, 0, 0})

	cmd := command.NewBuffer("blur")
	cmd.Blit(src, dst, command.PassRadialBlur, u)
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := pixel(t, r, src, 0, 0)
	for _, p := range [][2]int{{0, 0}, {8, 4}, {15, 8}} {
		if got := pixel(t, r, dst, p[0], p[1]); got != want {
			t.Errorf("pixel(%d, %d) = %v, want %v", p[0], p[1], got, want)
		}
	}
}

func TestComposite(t *testing.T) {
	tests := []struct {
		name    string
		pass    command.Pass
		base    float32
		shafts  float32
		opacity float32
		want    float32
	}{
		{"screen full", command.PassScreen, 0.5, 1, 1, 1},
		{"screen half mask", command.PassScreen, 0.5, 0.5, 1, 0.75},
		{"screen zero opacity", command.PassScreen, 0.5, 1, 0, 0.5},
		{"add", command.PassAdd, 0.25, 0.5, 1, 0.75},
		{"add half opacity", command.PassAdd, 0.25, 0.5, 0.5, 0.5},
		{"add saturates mask", command.PassAdd, 0.25, 4, 1, 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := render_target.NewPool()
			r := NewRenderer()
			color := external(t, pool, "color", 2, 2, render_target.FormatDefaultHDR)
			shafts := external(t, pool, "shafts", 2, 2, render_target.FormatDefaultHDR)

			if err := r.Upload(color, solid(2, 2, common.Color{tt.base, tt.base, tt.base, tt.base})); err != nil {
				t.Fatalf("Upload(color) error = %v", err)
			}
			if err := r.Upload(shafts, solid(2, 2, common.Color{tt.shafts, tt.shafts, tt.shafts, tt.shafts})); err != nil {
				t.Fatalf("Upload(shafts) error = %v", err)
			}

			u := command.Uniforms{}.
				WithOpacity(tt.opacity).
				WithSunColor(common.White).
				WithColorBuffer(shafts)
			cmd := command.NewBuffer("composite")
			cmd.Blit(color, color, tt.pass, u)
			if err := r.Execute(context.Background(), cmd); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := pixel(t, r, color, 1, 0); !approx(got.R(), tt.want) {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	pool := render_target.NewPool()
	r := NewRenderer()
	color := external(t, pool, "color", 2, 2, render_target.FormatDefault)

	cmd := command.NewBuffer("bad")
	cmd.Blit(color, color, command.PassScreen, command.Uniforms{})
	if err := r.Execute(context.Background(), cmd); !errors.Is(err, ErrMissingTexture) {
		t.Errorf("Execute() composite without color buffer error = %v, want %v", err, ErrMissingTexture)
	}

	cmd.Clear()
	cmd.Blit(color, color, command.Pass(42), command.Uniforms{})
	if err := r.Execute(context.Background(), cmd); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Execute() unknown pass error = %v, want %v", err, ErrUnsupported)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd.Clear()
	cmd.ClearColor(color, common.White)
	if err := r.Execute(ctx, cmd); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() cancelled error = %v, want %v", err, context.Canceled)
	}
}

func TestSamplesReachProfiler(t *testing.T) {
	p := profiler.NewProfiler()
	r := NewRenderer(WithProfiler(p))

	cmd := command.NewBuffer("samples")
	cmd.BeginSample(sun_shaft.SampleName)
	cmd.EndSample(sun_shaft.SampleName)
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if s, ok := p.Sample(sun_shaft.SampleName); !ok || s.Count != 1 {
		t.Errorf("Sample() = %+v, %v, want one completed region", s, ok)
	}
}

func TestSunShaftsEndToEnd(t *testing.T) {
	const w, h = 64, 36
	pool := render_target.NewPool()
	r := NewRenderer(WithWorkers(4))
	cam := camera.NewCamera()

	color := external(t, pool, "camera_color", w, h, render_target.FormatDefaultHDR)
	depth := external(t, pool, "camera_depth", w, h, render_target.FormatR32Float)
	if err := r.Upload(color, solid(w, h, common.Color{0.9, 0.9, 0.9, 1})); err != nil {
		t.Fatalf("Upload(color) error = %v", err)
	}
	if err := r.Upload(depth, solid(w, h, common.Color{1, 0, 0, 1})); err != nil {
		t.Fatalf("Upload(depth) error = %v", err)
	}
	before := pixel(t, r, color, w/2, h/2)

	o := sun_shaft.NewOrchestrator(pool)
	cmd := command.NewBuffer("frame")
	if err := o.Render(cmd, sun_shaft.Frame{Camera: cam, Eye: camera.EyeMono, Color: color, Depth: depth}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := r.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	center := pixel(t, r, color, w/2, h/2)
	corner := pixel(t, r, color, 0, 0)
	if center.R() <= before.R() {
		t.Errorf("center = %v, want brighter than %v", center, before)
	}
	if center.R()-before.R() <= corner.R()-before.R() {
		t.Errorf("center gain %v <= corner gain %v, want shafts centered on the sun", center.R()-before.R(), corner.R()-before.R())
	}
	if n := pool.Outstanding(); n != 0 {
		t.Errorf("Outstanding() = %d, want 0", n)
	}
}
