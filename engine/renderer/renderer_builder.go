package renderer

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/window"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger handed to the backend.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger.Named("renderer")
		}
	}
}

// WithProfiler forwards BeginSample/EndSample commands to p.
//
// Parameters:
//   - p: the frame profiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

// WithWindow renders into the window's surface instead of headless. Only the WGPU backend uses it.
//
// Parameters:
//   - w: the window providing the surface descriptor and initial size
//
// Returns:
//   - RendererBuilderOption: a function that applies the window option to a renderer
func WithWindow(w window.Window) RendererBuilderOption {
	return func(r *renderer) {
		r.window = w
	}
}

// WithPresentMode sets the surface present mode applied when the surface is configured.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces the WebGPU adapter request to use the fallback (CPU) adapter.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithSoftwareOptions passes options through to the software backend.
//
// Parameters:
//   - opts: the software renderer options
//
// Returns:
//   - RendererBuilderOption: a function that applies the options to a renderer
func WithSoftwareOptions(opts ...software.RendererBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareOptions = append(r.softwareOptions, opts...)
	}
}
