package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// ErrNoEntryPoint is returned when a shader source declares no vertex or no fragment entry point.
var ErrNoEntryPoint = errors.New("shader: missing entry point")

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	// StageVertex is the vertex stage, which here only emits the full-screen triangle.
	StageVertex Stage = iota

	// StageFragment is the fragment stage, one entry point per blit pass.
	StageFragment
)

func (s Stage) attribute() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	entryPoints                map[Stage][]string
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a pre-processed WGSL module with the reflection data the GPU backend needs to
// build pipelines and bind pass inputs by role.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and labels.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code with all annotations expanded
	Source() string

	// EntryPoints lists the entry point names declared for a stage, in source order.
	//
	// Parameters:
	//   - stage: the pipeline stage to list
	//
	// Returns:
	//   - []string: the entry point function names
	EntryPoints(stage Stage) []string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is declared there
	BindGroupVarName(group, binding int) string

	// Binding finds the group and binding of the resource registered under a provider role.
	//
	// Parameters:
	//   - role: the binding role, e.g. AnnotationArgMainTexture
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if no provider annotation names the role
	Binding(role AnnotationArg) (int, int, bool)

	// Declarations returns the group and provider annotations found by the pre-processor.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the WGSL module descriptor
	Module() *wgpu.ShaderModuleDescriptor

	// Compile validates the processed source by translating it to SPIR-V.
	//
	// Returns:
	//   - []byte: the SPIR-V binary
	//   - error: the translation error, if any
	Compile() ([]byte, error)
}

var _ Shader = &shader{}

// NewShader pre-processes a WGSL source and extracts its entry points and bind group layouts.
// Texture bindings registered under the depth_texture role are laid out as unfilterable so they
// can hold R32Float targets.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - source: the raw WGSL source containing @oxy: annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: a pre-processing error, or ErrNoEntryPoint
func NewShader(key, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		entryPoints:  make(map[Stage][]string, 2),
		declarations: append([]Annotation(nil), pp.Declarations()...),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: processed},
		},
	}
	for _, stage := range []Stage{StageVertex, StageFragment} {
		s.entryPoints[stage] = parseEntryPoints(processed, stage.attribute())
		if len(s.entryPoints[stage]) == 0 {
			return nil, fmt.Errorf("shader %q: %w for %s stage", key, ErrNoEntryPoint, stage.attribute())
		}
	}

	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, wgpu.ShaderStageFragment)
	if group, binding, ok := s.Binding(AnnotationArgDepthTexture); ok {
		desc := s.bindGroupLayoutDescriptors[group]
		for i := range desc.Entries {
			if desc.Entries[i].Binding == uint32(binding) {
				desc.Entries[i].Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			}
		}
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoints(stage Stage) []string {
	return s.entryPoints[stage]
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) Binding(role AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Type == AnnotationTypeProvider && len(d.Args) == 2 && d.Args[1] == role {
			return *d.Group, *d.Binding, true
		}
	}
	return 0, 0, false
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Compile() ([]byte, error) {
	spirv, err := naga.Compile(s.source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", s.key, err)
	}
	return spirv, nil
}
