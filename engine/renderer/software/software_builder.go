package software

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option for configuring a software Renderer.
type RendererBuilderOption func(*rendererImpl)

// WithLogger sets the renderer logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - RendererBuilderOption: functional option to set the logger
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *rendererImpl) {
		if logger != nil {
			r.logger = logger.Named("software")
		}
	}
}

// WithWorkers sets how many goroutines shade pixels in parallel.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: functional option to set the worker count
func WithWorkers(n int) RendererBuilderOption {
	return func(r *rendererImpl) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithBandHeight sets the number of rows shaded by one worker task.
// Values below 1 are ignored.
//
// Parameters:
//   - rows: the band height in pixels
//
// Returns:
//   - RendererBuilderOption: functional option to set the band height
func WithBandHeight(rows int) RendererBuilderOption {
	return func(r *rendererImpl) {
		if rows > 0 {
			r.bandHeight = rows
		}
	}
}

// WithProfiler forwards BeginSample and EndSample commands to p.
//
// Parameters:
//   - p: the profiler receiving sample regions
//
// Returns:
//   - RendererBuilderOption: functional option to set the profiler
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.profiler = p
	}
}
