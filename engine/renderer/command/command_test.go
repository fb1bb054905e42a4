package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/go-gl/mathgl/mgl32"
)

func TestUniformKeyNames(t *testing.T) {
	want := []string{
		"_Opacity", "_BlurRadius4", "_SunColor", "_SunPosition", "_SunThreshold",
		"_Skybox", "_ColorBuffer", "_MainTex", "_DepthThreshold",
	}
	keys := UniformKeys()
	if len(keys) != len(want) {
		t.Fatalf("len(UniformKeys()) = %d, want %d", len(keys), len(want))
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("UniformKey(%d).String() = %q, want %q", i, k.String(), want[i])
		}
	}
}

func TestPassIndices(t *testing.T) {
	tests := []struct {
		pass Pass
		want int
	}{
		{PassScreen, 0},
		{PassRadialBlur, 1},
		{PassDepthExtract, 2},
		{PassBackgroundExtract, 3},
		{PassAdd, 4},
	}
	for _, tt := range tests {
		if int(tt.pass) != tt.want {
			t.Errorf("%s = %d, want %d", tt.pass, int(tt.pass), tt.want)
		}
	}
}

func TestUniformsAreValues(t *testing.T) {
	base := Uniforms{}.WithOpacity(0.5).WithSunColor(common.White)
	derived := base.WithBlurRadius4(mgl32.Vec4{1, 1, 0, 0})

	if base.Has(UniformBlurRadius4) {
		t.Errorf("base.Has(_BlurRadius4) = true after deriving a copy")
	}
	if !derived.Has(UniformOpacity) || !derived.Has(UniformSunColor) {
		t.Errorf("derived.Keys() = %v, want opacity and sun color carried over", derived.Keys())
	}
	if got := derived.Keys(); len(got) != 3 {
		t.Errorf("derived.Keys() = %v, want 3 keys", got)
	}
}

func TestBufferRecordsInOrder(t *testing.T) {
	src := render_target.Target{Handle: 1}
	dst := render_target.Target{Handle: 2}

	b := NewBuffer("test")
	b.BeginSample("frame")
	u := Uniforms{}.WithOpacity(1)
	b.Blit(src, dst, PassRadialBlur, u)
	u = u.WithOpacity(0.25)
	b.ClearColor(dst, common.Clear)
	b.EndSample("frame")

	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}
	blits := b.Blits()
	if len(blits) != 1 {
		t.Fatalf("len(Blits()) = %d, want 1", len(blits))
	}
	if got := blits[0].Uniforms.Opacity(); got != 1 {
		t.Errorf("recorded opacity = %v, want 1 (bundle must be copied)", got)
	}
	if got := blits[0].Uniforms.MainTex(); got != src {
		t.Errorf("recorded _MainTex = %v, want %v", got, src)
	}
	if _, ok := b.Commands()[0].(BeginSample); !ok {
		t.Errorf("Commands()[0] = %T, want BeginSample", b.Commands()[0])
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", b.Len())
	}
}
