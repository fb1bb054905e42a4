// Package renderer executes recorded sun shaft command buffers on a selectable backend.
//
// The WebGPU backend runs every pass as a full-screen triangle, either headless or into a
// window surface. The software backend runs the same passes on the CPU and is the fallback
// when no adapter is available.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/window"
	"github.com/mrjoshuak/go-openexr/exr"
	"go.uber.org/zap"
)

var (
	ErrBackendUnavailable = errors.New("renderer: no usable GPU adapter or device")
	ErrNoSurface          = errors.New("renderer: backend has no presentation surface")
	ErrUnknownTarget      = errors.New("renderer: target has no storage")
	ErrSizeMismatch       = errors.New("renderer: image size does not match target descriptor")
	ErrUnsupported        = errors.New("renderer: unsupported command")
	ErrDepthNotBound      = errors.New("renderer: depth pass without " + command.CameraDepthTexture)
	ErrMissingTexture     = errors.New("renderer: pass input texture not set")
	ErrReadback           = errors.New("renderer: texture readback failed")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	logger      *zap.Logger
	profiler    *profiler.Profiler

	// Pre-creation config collected from builder options
	window               window.Window
	forceFallbackAdapter bool
	presentMode          PresentMode
	softwareOptions      []software.RendererBuilderOption
}

// Renderer is the high-level entry point that turns command buffers into pixels.
// It owns one backend and forwards uploads, readbacks and presentation to it.
type Renderer interface {
	command.Executor

	// BackendType reports which backend is executing commands.
	//
	// Returns:
	//   - RendererBackendType: the active backend
	BackendType() RendererBackendType

	// Upload copies img into the storage of t, converting to the target's format.
	//
	// Parameters:
	//   - t: the destination target
	//   - img: the source pixels, which must match the target size
	//
	// Returns:
	//   - error: ErrSizeMismatch if the sizes differ
	Upload(t render_target.Target, img *exr.RGBAImage) error

	// Image reads back the current contents of t.
	//
	// Parameters:
	//   - t: the target to read
	//
	// Returns:
	//   - *exr.RGBAImage: the pixels, origin at the top left
	//   - error: an error if t has no storage or the readback failed
	Image(t render_target.Target) (*exr.RGBAImage, error)

	// Forget frees the storage of t.
	//
	// Parameters:
	//   - t: the target whose storage is freed
	Forget(t render_target.Target)

	// Resize reconfigures the presentation surface after a window resize.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Resize(width, height int) error

	// Present shows the contents of t on the window surface.
	//
	// Parameters:
	//   - t: the target to present
	//
	// Returns:
	//   - error: ErrNoSurface for headless and software backends
	Present(t render_target.Target) error

	// Release frees every backend resource. The renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the requested backend. The WGPU backend renders headless
// unless a window is supplied with WithWindow.
//
// Parameters:
//   - backendType: the backend to create
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: ErrBackendUnavailable if the GPU could not be initialised
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeSoftware:
		opts := append([]software.RendererBuilderOption{
			software.WithLogger(r.logger),
			software.WithProfiler(r.profiler),
		}, r.softwareOptions...)
		r.backend = softwareRendererBackend{software.NewRenderer(opts...)}
	default:
		cfg := wgpuBackendConfig{
			forceFallbackAdapter: r.forceFallbackAdapter,
			presentMode:          r.presentMode,
			logger:               r.logger.Named("wgpu"),
			profiler:             r.profiler,
		}
		if r.window != nil {
			cfg.surfaceDescriptor = r.window.SurfaceDescriptor()
		}
		b, err := newWGPURendererBackend(cfg)
		if err != nil {
			return nil, err
		}
		r.backend = b
		if r.window != nil {
			if err := b.ConfigureSurface(r.window.Width(), r.window.Height()); err != nil {
				b.Release()
				return nil, err
			}
		}
	}

	r.logger.Info("renderer created", zap.Stringer("backend", backendType))
	return r, nil
}

func (r *renderer) Execute(ctx context.Context, b *command.Buffer) error {
	if err := r.backend.Execute(ctx, b); err != nil {
		return fmt.Errorf("%s %s: %w", r.backendType, b.Name(), err)
	}
	return nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Upload(t render_target.Target, img *exr.RGBAImage) error {
	return r.backend.Upload(t, img)
}

func (r *renderer) Image(t render_target.Target) (*exr.RGBAImage, error) {
	return r.backend.Image(t)
}

func (r *renderer) Forget(t render_target.Target) {
	r.backend.Forget(t)
}

func (r *renderer) Resize(width, height int) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Present(t render_target.Target) error {
	return r.backend.Present(t)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
