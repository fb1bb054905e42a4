package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewPipelineDefaults(t *testing.T) {
	s, err := shader.NewShader("sun_shafts", shader.SunShaftsSource)
	if err != nil {
		t.Fatalf("NewShader() error = %v", err)
	}

	p := NewPipeline(s, "fs_radial_blur", wgpu.TextureFormatRGBA16Float)
	if got := p.EntryPoint(shader.StageVertex); got != "vs_fullscreen" {
		t.Errorf("EntryPoint(vertex) = %q, want vs_fullscreen", got)
	}
	if got := p.EntryPoint(shader.StageFragment); got != "fs_radial_blur" {
		t.Errorf("EntryPoint(fragment) = %q, want fs_radial_blur", got)
	}
	if p.PipelineKey() != Key("fs_radial_blur", wgpu.TextureFormatRGBA16Float) {
		t.Errorf("PipelineKey() = %q, want %q", p.PipelineKey(), Key("fs_radial_blur", wgpu.TextureFormatRGBA16Float))
	}
	if p.BlendState() != nil {
		t.Errorf("BlendState() = %v, want nil", p.BlendState())
	}

	desc := p.Descriptor(nil, nil)
	if desc.Fragment == nil || len(desc.Fragment.Targets) != 1 {
		t.Fatalf("Descriptor().Fragment.Targets missing")
	}
	if got := desc.Fragment.Targets[0].Format; got != wgpu.TextureFormatRGBA16Float {
		t.Errorf("target format = %v, want RGBA16Float", got)
	}
	if desc.Primitive.CullMode != wgpu.CullModeNone {
		t.Errorf("cull mode = %v, want none", desc.Primitive.CullMode)
	}
	if desc.Multisample.Count != 1 {
		t.Errorf("multisample count = %d, want 1", desc.Multisample.Count)
	}
}

func TestKeyDistinguishesFormats(t *testing.T) {
	if Key("fs_copy", wgpu.TextureFormatRGBA8Unorm) == Key("fs_copy", wgpu.TextureFormatRGBA16Float) {
		t.Errorf("Key() collides across formats")
	}
}

func TestOptions(t *testing.T) {
	s, err := shader.NewShader("sun_shafts", shader.SunShaftsSource)
	if err != nil {
		t.Fatalf("NewShader() error = %v", err)
	}
	p := NewPipeline(s, "fs_add", wgpu.TextureFormatRGBA8Unorm,
		WithCullMode(wgpu.CullModeBack),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithVertexEntryPoint("vs_other"),
	)
	if p.CullMode() != wgpu.CullModeBack {
		t.Errorf("CullMode() = %v, want back", p.CullMode())
	}
	if p.WriteMask() != wgpu.ColorWriteMaskRed {
		t.Errorf("WriteMask() = %v, want red", p.WriteMask())
	}
	if got := p.EntryPoint(shader.StageVertex); got != "vs_other" {
		t.Errorf("EntryPoint(vertex) = %q, want vs_other", got)
	}
}
