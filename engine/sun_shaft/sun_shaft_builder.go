package sun_shaft

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/light"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"go.uber.org/zap"
)

// OrchestratorBuilderOption is a functional option for configuring an Orchestrator.
type OrchestratorBuilderOption func(*orchestratorImpl)

// WithSettings sets the initial effect settings. They are normalized after all options are applied.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - OrchestratorBuilderOption: functional option to set the settings
func WithSettings(s Settings) OrchestratorBuilderOption {
	return func(o *orchestratorImpl) {
		o.settings = s
	}
}

// WithLogger sets the logger for skipped frames and per-frame debug output.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - OrchestratorBuilderOption: functional option to set the logger
func WithLogger(logger *zap.Logger) OrchestratorBuilderOption {
	return func(o *orchestratorImpl) {
		if logger != nil {
			o.logger = logger.Named("sun_shaft")
		}
	}
}

// WithSunLight makes every frame follow l: the sun is placed distance units from the
// eye against the light direction, tinted by the light color, and the configured
// intensity is multiplied by the light intensity. A disabled light is ignored.
//
// Parameters:
//   - l: the scene sun
//   - distance: how far from the eye a directional sun is placed
//
// Returns:
//   - OrchestratorBuilderOption: functional option to bind the sun light
func WithSunLight(l light.Light, distance float32) OrchestratorBuilderOption {
	return func(o *orchestratorImpl) {
		o.sunLight = l
		if distance > 0 {
			o.sunDistance = distance
		}
	}
}

// WithWorkingFormat sets the pixel format of the two working buffers.
//
// Parameters:
//   - f: the format, FormatDefault unless set
//
// Returns:
//   - OrchestratorBuilderOption: functional option to set the working format
func WithWorkingFormat(f render_target.Format) OrchestratorBuilderOption {
	return func(o *orchestratorImpl) {
		o.workingFormat = f
	}
}

// WithTransitionHook registers a function called on every stage change of Render.
//
// Parameters:
//   - hook: receives the previous and the new stage
//
// Returns:
//   - OrchestratorBuilderOption: functional option to set the hook
func WithTransitionHook(hook func(from, to State)) OrchestratorBuilderOption {
	return func(o *orchestratorImpl) {
		o.onTransition = hook
	}
}
