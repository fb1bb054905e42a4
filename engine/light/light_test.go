package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSunWorldPosition(t *testing.T) {
	tests := []struct {
		name   string
		light  Light
		viewer mgl32.Vec3
		want   mgl32.Vec3
	}{
		{
			name:   "directional sun overhead",
			light:  NewLight(LightTypeDirectional, WithDirection(mgl32.Vec3{0, -2, 0})),
			viewer: mgl32.Vec3{1, 0, 0},
			want:   mgl32.Vec3{1, 100, 0},
		},
		{
			name:   "point light ignores viewer",
			light:  NewLight(LightTypePoint, WithPosition(mgl32.Vec3{3, 4, 5})),
			viewer: mgl32.Vec3{1, 1, 1},
			want:   mgl32.Vec3{3, 4, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.light.SunWorldPosition(tt.viewer, 100)
			if !got.ApproxEqual(tt.want) {
				t.Errorf("SunWorldPosition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(mgl32.Vec3{0, 0, 5})
	if got := l.Direction(); !got.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("Direction() = %v, want (0, 0, 1)", got)
	}

	l.SetDirection(mgl32.Vec3{})
	if got := l.Direction(); got != (mgl32.Vec3{}) {
		t.Errorf("Direction() = %v, want zero", got)
	}
}
