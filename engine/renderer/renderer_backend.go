package renderer

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/software"
	"github.com/mrjoshuak/go-openexr/exr"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU reference backend.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	if t == BackendTypeSoftware {
		return "software"
	}
	return "wgpu"
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the contract every backend fulfils for the Renderer.
type RendererBackend interface {
	command.Executor

	Upload(t render_target.Target, img *exr.RGBAImage) error
	Image(t render_target.Target) (*exr.RGBAImage, error)
	Forget(t render_target.Target)

	// ConfigureSurface resizes the presentation surface. Headless backends ignore it.
	ConfigureSurface(width, height int) error

	// Present shows the contents of t on the surface.
	Present(t render_target.Target) error

	Release()
}

// softwareRendererBackend adapts software.Renderer, which has no surface, to RendererBackend.
type softwareRendererBackend struct {
	software.Renderer
}

var _ RendererBackend = softwareRendererBackend{}

func (softwareRendererBackend) ConfigureSurface(int, int) error {
	return nil
}

func (softwareRendererBackend) Present(render_target.Target) error {
	return ErrNoSurface
}

func (softwareRendererBackend) Release() {}
