package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/light"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/exr"
	"go.uber.org/zap"
)

var errNoInput = errors.New("missing input image")

const (
	// sunDistance places the sun light at the default far plane.
	sunDistance = 1000

	// lookSensitivity is the camera turn in radians per pixel of right-button drag.
	lookSensitivity = 0.004
	// lookPitchLimit keeps the camera from pitching past straight up or down.
	lookPitchLimit = 1.4
)

// session renders one input image through the sun shaft effect, once per frame.
type session struct {
	logger   *zap.Logger
	renderer renderer.Renderer
	pool     render_target.Pool
	shafts   sun_shaft.Orchestrator
	cam      camera.Camera
	sun      light.Light

	source render_target.Target
	depth  render_target.Target
	colors map[camera.Eye]render_target.Target

	// sunX and sunY are the viewport position the sun light was last aimed at.
	sunX, sunY float32

	// enabled is false to show the source without the effect.
	enabled bool
}

// newRenderer creates the renderer selected by -backend. auto falls back to the
// software backend when no GPU adapter can be used.
func newRenderer(o *options, logger *zap.Logger, prof *profiler.Profiler, win window.Window) (renderer.Renderer, error) {
	opts := []renderer.RendererBuilderOption{
		renderer.WithLogger(logger),
		renderer.WithProfiler(prof),
		renderer.WithSoftwareOptions(software.WithWorkers(o.workers)),
	}
	if win != nil {
		opts = append(opts, renderer.WithWindow(win))
	}

	switch o.backend {
	case "software":
		return renderer.NewRenderer(renderer.BackendTypeSoftware, opts...)
	case "gpu", "wgpu":
		return renderer.NewRenderer(renderer.BackendTypeWGPU, opts...)
	case "auto":
		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, opts...)
		if errors.Is(err, renderer.ErrBackendUnavailable) && win == nil {
			logger.Warn("falling back to the software renderer", zap.Error(err))
			return renderer.NewRenderer(renderer.BackendTypeSoftware, opts...)
		}
		return r, err
	}
	return nil, fmt.Errorf("unknown backend %q", o.backend)
}

// newSession uploads the input image and its depth and binds an orchestrator to them.
// depth may be nil; depth extraction then treats every pixel as sky.
func newSession(r renderer.Renderer, color, depth *exr.RGBAImage, hdr bool, s sun_shaft.Settings, stereo float32, logger *zap.Logger) (*session, error) {
	b := color.Bounds()
	w, h := b.Dx(), b.Dy()

	ctrl := camera.NewCameraController(
		camera.WithTarget(mgl32.Vec3{0, 0, -1}),
		camera.WithRadius(1),
		camera.WithElevationBounds(-lookPitchLimit, lookPitchLimit),
		camera.WithMouseSensitivity(lookSensitivity),
	)
	camOpts := []camera.CameraBuilderOption{
		camera.WithAspect(float32(w) / float32(h)),
		camera.WithController(ctrl),
	}
	if hdr {
		camOpts = append(camOpts, camera.WithHDR())
	}
	if stereo > 0 {
		camOpts = append(camOpts, camera.WithStereo(stereo))
	}
	cam := camera.NewCamera(camOpts...)

	sun := light.NewLight(light.LightTypeDirectional,
		light.WithColor(s.SunColor),
		light.WithEnabled(false),
	)

	format := render_target.FormatDefault
	if hdr {
		format = render_target.FormatDefaultHDR
	}
	pool := render_target.NewPool(render_target.WithLogger(logger))

	ss := &session{
		logger:   logger,
		renderer: r,
		pool:     pool,
		cam:      cam,
		sun:      sun,
		colors:   map[camera.Eye]render_target.Target{},
		sunX:     0.5,
		sunY:     0.5,
		enabled:  true,
		shafts: sun_shaft.NewOrchestrator(pool,
			sun_shaft.WithSettings(s),
			sun_shaft.WithLogger(logger),
			sun_shaft.WithSunLight(sun, sunDistance),
			sun_shaft.WithWorkingFormat(format),
		),
	}

	var err error
	desc := render_target.Descriptor{Width: w, Height: h, Format: format, Filter: render_target.FilterBilinear}
	if ss.source, err = pool.External("source", desc); err != nil {
		return nil, err
	}
	if err := r.Upload(ss.source, color); err != nil {
		return nil, fmt.Errorf("failed to upload source: %w", err)
	}
	for _, eye := range cam.Eyes() {
		if ss.colors[eye], err = pool.External("camera_color_"+eye.String(), desc); err != nil {
			return nil, err
		}
	}

	if depth == nil {
		if _, ok := s.Extraction.(sun_shaft.DepthThreshold); ok {
			logger.Warn("no depth image, every pixel counts as sky")
		}
		depth = constantDepth(w, h, 1)
	}
	depthDesc := render_target.Descriptor{Width: w, Height: h, Format: render_target.FormatR32Float, Filter: render_target.FilterPoint}
	if ss.depth, err = pool.External(command.CameraDepthTexture, depthDesc); err != nil {
		return nil, err
	}
	if err := r.Upload(ss.depth, depth); err != nil {
		return nil, fmt.Errorf("failed to upload depth: %w", err)
	}

	if !common.IsZeroVector(s.SunWorldPosition) {
		p := ss.sunViewport()
		ss.sunX, ss.sunY = p.X(), p.Y()
	}
	return ss, nil
}

// pointSunAt aims the sun light through a viewport point of the mono or left eye.
func (ss *session) pointSunAt(x, y float32) {
	eye := ss.cam.Eyes()[0]
	dir := camera.DirectionFromViewport(ss.cam.InverseViewProjectionMatrix(eye), x, y)
	if dir.Len() == 0 {
		return
	}
	ss.sun.SetDirection(dir.Normalize().Mul(-1))
	ss.sun.SetEnabled(true)
	ss.sunX, ss.sunY = x, y
}

// look turns the camera by a cursor movement in pixels. An aimed sun stays put in the
// world, so its viewport position moves with the camera.
func (ss *session) look(dx, dy float32) {
	ss.cam.Controller().Drag(dx, dy)
	ss.cam.Update()
	if ss.sun.Enabled() {
		p := ss.sunViewport()
		ss.sunX, ss.sunY = p.X(), p.Y()
	}
}

// sunViewport returns the viewport position of the sun for the first eye.
func (ss *session) sunViewport() mgl32.Vec3 {
	eye := ss.cam.Eyes()[0]
	s := ss.shafts.Settings()
	p := s.SunWorldPosition
	if ss.sun.Enabled() {
		p = ss.sun.SunWorldPosition(ss.cam.Position(eye), sunDistance)
	}
	return ss.cam.WorldToViewportPoint(p, eye)
}

// render records and executes one frame for every eye.
func (ss *session) render(ctx context.Context) error {
	cmd := command.NewBuffer("sun_shafts")

	frames := make([]sun_shaft.Frame, 0, len(ss.colors))
	for _, eye := range ss.cam.Eyes() {
		color := ss.colors[eye]
		cmd.Blit(ss.source, color, command.PassCopy, command.Uniforms{}.WithMainTex(ss.source))
		frames = append(frames, sun_shaft.Frame{
			Camera: ss.cam,
			Eye:    eye,
			Color:  color,
			Depth:  ss.depth,
		})
	}

	if ss.enabled {
		if err := ss.shafts.RenderEyes(cmd, frames...); err != nil {
			ss.logger.Warn("frame rendered without sun shafts", zap.Error(err))
		}
	}
	return ss.renderer.Execute(ctx, cmd)
}

// image reads back the composited frame of an eye.
func (ss *session) image(eye camera.Eye) (*exr.RGBAImage, error) {
	return ss.renderer.Image(ss.colors[eye])
}

func (ss *session) release() {
	if n := ss.pool.Outstanding(); n != 0 {
		ss.logger.Warn("temporary targets still outstanding", zap.Int("count", n))
	}
	ss.renderer.Release()
}

// openSession loads the command input, creates the renderer and aims the sun from -sun.
func openSession(o *options, fs *flag.FlagSet, logger *zap.Logger, prof *profiler.Profiler, win window.Window) (*session, error) {
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, errNoInput
	}
	settings, err := o.settings(fs)
	if err != nil {
		return nil, err
	}
	sx, sy, aimed, err := o.sunPoint()
	if err != nil {
		return nil, err
	}

	color, hdr, err := loadImage(fs.Arg(0))
	if err != nil {
		return nil, err
	}
	color = resize(color, o.width, hdr)
	b := color.Bounds()

	var depth *exr.RGBAImage
	if o.depthPath != "" {
		if depth, err = loadDepth(o.depthPath, b.Dx(), b.Dy()); err != nil {
			return nil, err
		}
	}

	r, err := newRenderer(o, logger, prof, win)
	if err != nil {
		return nil, err
	}
	ss, err := newSession(r, color, depth, hdr, settings, float32(o.stereo), logger)
	if err != nil {
		r.Release()
		return nil, err
	}
	if aimed {
		ss.pointSunAt(sx, sy)
	}

	logger.Info("session opened",
		zap.String("input", fs.Arg(0)),
		zap.Stringer("backend", r.BackendType()),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Bool("hdr", hdr),
	)
	return ss, nil
}
