package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the full-screen render pipeline of one pass for one color target format.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	shader shader.Shader

	vertexEntryPoint   string
	fragmentEntryPoint string
	format             wgpu.TextureFormat

	// renderPipeline is nil until the backend creates it from Descriptor
	renderPipeline *wgpu.RenderPipeline

	cullMode   wgpu.CullMode
	topology   wgpu.PrimitiveTopology
	frontFace  wgpu.FrontFace
	writeMask  wgpu.ColorWriteMask
	blendState *wgpu.BlendState
}

// Pipeline describes a full-screen render pipeline: one vertex entry point that emits a
// viewport-covering triangle and one fragment entry point that shades every pixel of the target.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader both entry points are taken from.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// EntryPoint returns the entry point used for a stage.
	//
	// Parameters:
	//   - stage: the pipeline stage
	//
	// Returns:
	//   - string: the entry point function name
	EntryPoint(stage shader.Stage) string

	// Format returns the color target format the pipeline renders into.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color target format
	Format() wgpu.TextureFormat

	// Descriptor assembles the creation descriptor for the GPU pipeline.
	//
	// Parameters:
	//   - layout: the pipeline layout holding the shader's bind group layouts
	//   - module: the compiled shader module
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor to pass to Device.CreateRenderPipeline
	Descriptor(layout *wgpu.PipelineLayout, module *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// RenderPipeline returns the GPU pipeline, or nil if it has not been created yet.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the underlying pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, or nil when the fragment output replaces the target
	BlendState() *wgpu.BlendState

	// Release frees the GPU pipeline if one was created.
	Release()
}

var _ Pipeline = &pipeline{}

// Key builds the cache key of the pipeline for a fragment entry point and target format.
//
// Parameters:
//   - fragmentEntryPoint: the fragment entry point name
//   - format: the color target format
//
// Returns:
//   - string: the cache key
func Key(fragmentEntryPoint string, format wgpu.TextureFormat) string {
	return fmt.Sprintf("%s/%d", fragmentEntryPoint, format)
}

// NewPipeline creates a full-screen pipeline. The vertex entry point defaults to the shader's
// first vertex entry point.
//
// Parameters:
//   - s: the shader providing both stages
//   - fragmentEntryPoint: the fragment entry point to run
//   - format: the color target format
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
func NewPipeline(s shader.Shader, fragmentEntryPoint string, format wgpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:        Key(fragmentEntryPoint, format),
		shader:             s,
		fragmentEntryPoint: fragmentEntryPoint,
		format:             format,
		cullMode:           wgpu.CullModeNone,
		topology:           wgpu.PrimitiveTopologyTriangleList,
		frontFace:          wgpu.FrontFaceCCW,
		writeMask:          wgpu.ColorWriteMaskAll,
	}
	if vs := s.EntryPoints(shader.StageVertex); len(vs) > 0 {
		p.vertexEntryPoint = vs[0]
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) EntryPoint(stage shader.Stage) string {
	if stage == shader.StageVertex {
		return p.vertexEntryPoint
	}
	return p.fragmentEntryPoint
}

func (p *pipeline) Format() wgpu.TextureFormat {
	return p.format
}

func (p *pipeline) Descriptor(layout *wgpu.PipelineLayout, module *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.vertexEntryPoint,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.fragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    p.format,
				Blend:     p.blendState,
				WriteMask: p.writeMask,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
