// Package sun_shaft records the screen-space sun shaft effect.
//
// Each frame runs four stages in order: the working buffers are acquired at a
// fraction of the frame resolution, a mask of shaft-casting pixels is extracted
// into the first buffer, the mask is blurred radially around the projected sun
// by ping-ponging between the two buffers, and the result is blended onto the
// camera color target. All of it is recorded into a command.Buffer; pixels are
// produced later by whichever backend executes the buffer.
package sun_shaft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/light"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"go.uber.org/zap"
)

// SampleName is the profiler region recorded around each frame of the effect.
const SampleName = "SunShafts"

// Frame is one eye of one rendered frame.
type Frame struct {
	Camera camera.Camera
	Eye    camera.Eye

	// Color is the camera color target. The effect is composited onto it in place.
	Color render_target.Target

	// Depth is the camera depth target, bound for DepthThreshold extraction when valid.
	Depth render_target.Target
}

type orchestratorImpl struct {
	mu *sync.Mutex

	pool     render_target.Pool
	settings Settings
	logger   *zap.Logger

	sunLight    light.Light
	sunDistance float32

	workingFormat render_target.Format
	state         State
	onTransition  func(from, to State)
}

// Orchestrator records the sun shaft effect for camera frames.
type Orchestrator interface {
	// Settings returns the normalized settings used for the next frame.
	//
	// Returns:
	//   - Settings: the current settings
	Settings() Settings

	// SetSettings replaces the settings. They are normalized once here.
	//
	// Parameters:
	//   - s: the new settings
	SetSettings(s Settings)

	// State returns the stage the orchestrator is in. It is StateIdle between frames.
	//
	// Returns:
	//   - State: the current stage
	State() State

	// Render records the whole effect for one frame.
	// The working buffers are released on every path out of the call. When setup or
	// extraction fails nothing is composited and the frame keeps its original colors.
	//
	// Parameters:
	//   - cmd: the buffer to record into
	//   - f: the frame to process
	//
	// Returns:
	//   - error: ErrNoActiveCamera, ErrNoColorTarget or ErrAllocation
	Render(cmd *command.Buffer, f Frame) error

	// RenderEyes records the effect for several eyes of the same frame, one after the other.
	// A failing eye does not stop the remaining ones.
	//
	// Parameters:
	//   - cmd: the buffer to record into
	//   - frames: one frame per eye
	//
	// Returns:
	//   - error: the joined errors of the failing eyes
	RenderEyes(cmd *command.Buffer, frames ...Frame) error

	// PrepareBuffers acquires the two working buffers at width/divider by height/divider.
	// The buffers use bilinear filtering and have no depth.
	//
	// Parameters:
	//   - width, height: the frame resolution
	//   - s: the frame settings
	//
	// Returns:
	//   - *WorkingBuffers: the acquired buffers, A current
	//   - error: ErrAllocation if either buffer cannot be acquired
	PrepareBuffers(width, height int, s Settings) (*WorkingBuffers, error)

	// ExtractMask records the extraction of the shaft mask from src into dst.
	// Background extractions acquire a full-resolution temporary target, HDR when allowHDR
	// is set, and release it before returning.
	//
	// Parameters:
	//   - cmd: the buffer to record into
	//   - cam: the camera, used for skybox clears
	//   - eye: the eye being rendered
	//   - src: the camera color target
	//   - dst: the working buffer receiving the mask
	//   - s: the frame settings
	//   - sun: the projected sun
	//   - allowHDR: whether the camera renders HDR
	//
	// Returns:
	//   - error: ErrAllocation if the temporary target cannot be acquired
	ExtractMask(cmd *command.Buffer, cam camera.Camera, eye camera.Eye, src, dst render_target.Target, s Settings, sun ProjectedSun, allowHDR bool) error

	// ReleaseBuffers returns both working buffers to the pool.
	//
	// Parameters:
	//   - b: the buffers from PrepareBuffers
	//
	// Returns:
	//   - error: ErrBuffersReleased on a second release, or the pool's release errors
	ReleaseBuffers(b *WorkingBuffers) error
}

var _ Orchestrator = &orchestratorImpl{}

// NewOrchestrator creates an orchestrator drawing its temporary targets from pool.
//
// Parameters:
//   - pool: the render target pool
//   - options: functional options to configure the orchestrator
//
// Returns:
//   - Orchestrator: the new orchestrator
func NewOrchestrator(pool render_target.Pool, options ...OrchestratorBuilderOption) Orchestrator {
	o := &orchestratorImpl{
		mu:            &sync.Mutex{},
		pool:          pool,
		settings:      DefaultSettings(),
		logger:        zap.NewNop(),
		sunDistance:   1000,
		workingFormat: render_target.FormatDefault,
	}
	for _, option := range options {
		option(o)
	}
	o.settings = o.settings.Normalize()
	return o
}

func (o *orchestratorImpl) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *orchestratorImpl) SetSettings(s Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settings = s.Normalize()
}

func (o *orchestratorImpl) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *orchestratorImpl) Render(cmd *command.Buffer, f Frame) (err error) {
	if f.Camera == nil {
		return ErrNoActiveCamera
	}
	if !f.Color.IsValid() {
		return ErrNoColorTarget
	}

	s := o.frameSettings(f)
	d := f.Color.Descriptor

	o.transition(StateSetup)
	defer o.transition(StateIdle)

	buffers, err := o.PrepareBuffers(d.Width, d.Height, s)
	if err != nil {
		o.logger.Warn("skipping sun shafts for frame", zap.Stringer("eye", f.Eye), zap.Error(err))
		return err
	}
	defer func() {
		if releaseErr := o.ReleaseBuffers(buffers); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()

	cmd.BeginSample(SampleName)
	defer cmd.EndSample(SampleName)

	sun := ProjectSun(f.Camera, f.Eye, s)
	if _, ok := s.Extraction.(DepthThreshold); ok {
		f.Camera.RequestDepthTexture(camera.DepthTextureDepth)
		if f.Depth.IsValid() {
			cmd.SetGlobalTexture(command.CameraDepthTexture, f.Depth)
		}
	}

	o.transition(StateExtraction)
	if err := o.ExtractMask(cmd, f.Camera, f.Eye, f.Color, buffers.Current(), s, sun, f.Camera.AllowHDR()); err != nil {
		o.logger.Warn("skipping sun shafts for frame", zap.Stringer("eye", f.Eye), zap.Error(err))
		return err
	}

	o.transition(StateBlurring)
	result := RadialBlur(cmd, buffers, s.RadialBlurIterations, s.BlurRadius, sun, s.MaxRadius, BaseUniforms(s, sun))

	o.transition(StateCompositing)
	Composite(cmd, f.Color, result, s, sun)

	o.logger.Debug("recorded sun shafts",
		zap.Stringer("eye", f.Eye),
		zap.Int("width", d.Width),
		zap.Int("height", d.Height),
		zap.Stringer("extraction", s.Extraction),
		zap.Int("iterations", s.RadialBlurIterations),
		zap.Bool("sun_in_front", sun.InFront()),
	)
	return nil
}

func (o *orchestratorImpl) RenderEyes(cmd *command.Buffer, frames ...Frame) error {
	var errs []error
	for _, f := range frames {
		if err := o.Render(cmd, f); err != nil {
			errs = append(errs, fmt.Errorf("eye %s: %w", f.Eye, err))
		}
	}
	return errors.Join(errs...)
}

func (o *orchestratorImpl) PrepareBuffers(width, height int, s Settings) (*WorkingBuffers, error) {
	div := int(s.ResolutionDivider)
	if div <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrAllocation, s.ResolutionDivider)
	}
	w, h := width/div, height/div
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: working size %dx%d from %dx%d", ErrAllocation, w, h, width, height)
	}

	desc := render_target.Descriptor{
		Width:  w,
		Height: h,
		Format: o.format(),
		Filter: render_target.FilterBilinear,
	}

	b := &WorkingBuffers{}
	for i := range b.targets {
		t, err := o.pool.GetTemporary(desc)
		if err != nil {
			for _, acquired := range b.targets[:i] {
				_ = o.pool.ReleaseTemporary(acquired)
			}
			return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		b.targets[i] = t
	}
	return b, nil
}

func (o *orchestratorImpl) ExtractMask(cmd *command.Buffer, cam camera.Camera, eye camera.Eye, src, dst render_target.Target, s Settings, sun ProjectedSun, allowHDR bool) error {
	u := BaseUniforms(s, sun)

	switch ext := s.Extraction.(type) {
	case DepthThreshold:
		cmd.Blit(src, dst, ext.Pass(), u)
		return nil

	case SkyboxClear, SolidColorClear:
		format := render_target.FormatDefault
		if allowHDR {
			format = render_target.FormatDefaultHDR
		}
		tmp, err := o.pool.GetTemporary(render_target.Descriptor{
			Width:  src.Descriptor.Width,
			Height: src.Descriptor.Height,
			Format: format,
			Filter: render_target.FilterBilinear,
		})
		if err != nil {
			return fmt.Errorf("%w: background target: %w", ErrAllocation, err)
		}

		if solid, ok := ext.(SolidColorClear); ok {
			cmd.ClearColor(tmp, solid.Color)
		} else {
			cmd.ClearSkybox(tmp, cam.Skybox(), cam.InverseViewProjectionMatrix(eye))
		}
		cmd.Blit(src, dst, s.Extraction.Pass(), u.WithSkybox(tmp))

		return o.pool.ReleaseTemporary(tmp)

	default:
		return fmt.Errorf("%w: %T", errUnknownExtraction, s.Extraction)
	}
}

func (o *orchestratorImpl) ReleaseBuffers(b *WorkingBuffers) error {
	if b == nil {
		return nil
	}
	if b.released {
		return ErrBuffersReleased
	}
	b.released = true

	var errs []error
	for _, t := range b.targets {
		if err := o.pool.ReleaseTemporary(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// frameSettings snapshots the settings for one frame, following the bound sun light if any.
func (o *orchestratorImpl) frameSettings(f Frame) Settings {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.settings
	if o.sunLight != nil && o.sunLight.Enabled() {
		s.SunWorldPosition = o.sunLight.SunWorldPosition(f.Camera.Position(f.Eye), o.sunDistance)
		s.SunColor = o.sunLight.Color()
		s.SunIntensity *= o.sunLight.Intensity()
	}
	return s
}

func (o *orchestratorImpl) format() render_target.Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.workingFormat
}

func (o *orchestratorImpl) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	hook := o.onTransition
	o.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
}
