package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func approxVec3(a, b mgl32.Vec3) bool {
	return approx(a[0], b[0]) && approx(a[1], b[1]) && approx(a[2], b[2])
}

func TestWorldToViewportPoint(t *testing.T) {
	cam := NewCamera()

	tests := []struct {
		name  string
		p     mgl32.Vec3
		check func(v mgl32.Vec3) bool
	}{
		{"straight ahead", mgl32.Vec3{0, 0, -10}, func(v mgl32.Vec3) bool {
			return approxVec3(v, mgl32.Vec3{0.5, 0.5, 10})
		}},
		{"right of center", mgl32.Vec3{2, 0, -10}, func(v mgl32.Vec3) bool {
			return v.X() > 0.5 && approx(v.Y(), 0.5) && v.Z() > 0
		}},
		{"above center", mgl32.Vec3{0, 2, -10}, func(v mgl32.Vec3) bool {
			return v.Y() > 0.5 && approx(v.X(), 0.5)
		}},
		{"behind camera", mgl32.Vec3{0, 0, 10}, func(v mgl32.Vec3) bool {
			return approx(v.Z(), -10)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cam.WorldToViewportPoint(tt.p, EyeMono)
			if !tt.check(got) {
				t.Errorf("WorldToViewportPoint(%v) = %v", tt.p, got)
			}
		})
	}
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10))
	cam := NewCamera(WithController(ctrl))

	if got := cam.Position(EyeMono); !approxVec3(got, mgl32.Vec3{0, 0, 10}) {
		t.Fatalf("Position() = %v, want (0, 0, 10)", got)
	}
	if got := cam.WorldToViewportPoint(mgl32.Vec3{}, EyeMono); !approxVec3(got, mgl32.Vec3{0.5, 0.5, 10}) {
		t.Errorf("WorldToViewportPoint(origin) = %v, want (0.5, 0.5, 10)", got)
	}

	ctrl.SetRadius(4)
	cam.Update()
	if got := cam.Position(EyeMono); !approxVec3(got, mgl32.Vec3{0, 0, 4}) {
		t.Errorf("Position() after SetRadius = %v, want (0, 0, 4)", got)
	}
}

func TestRequestDepthTextureIsIdempotent(t *testing.T) {
	cam := NewCamera()
	if cam.DepthTextureMode() != DepthTextureNone {
		t.Fatalf("DepthTextureMode() = %v, want none", cam.DepthTextureMode())
	}

	cam.RequestDepthTexture(DepthTextureDepth)
	cam.RequestDepthTexture(DepthTextureDepth)
	if got := cam.DepthTextureMode(); got != DepthTextureDepth {
		t.Errorf("DepthTextureMode() = %v, want %v", got, DepthTextureDepth)
	}

	cam.RequestDepthTexture(DepthTextureMotionVectors)
	got := cam.DepthTextureMode()
	if !got.Has(DepthTextureDepth) || !got.Has(DepthTextureMotionVectors) {
		t.Errorf("DepthTextureMode() = %b, want depth and motion vectors", got)
	}
}

func TestStereoEyes(t *testing.T) {
	mono := NewCamera()
	if eyes := mono.Eyes(); len(eyes) != 1 || eyes[0] != EyeMono {
		t.Errorf("Eyes() = %v, want [mono]", eyes)
	}

	cam := NewCamera(WithStereo(0.2))
	eyes := cam.Eyes()
	if len(eyes) != 2 || eyes[0] != EyeLeft || eyes[1] != EyeRight {
		t.Fatalf("Eyes() = %v, want [left right]", eyes)
	}
	if got := cam.Position(EyeLeft); !approxVec3(got, mgl32.Vec3{-0.1, 0, 0}) {
		t.Errorf("Position(left) = %v, want (-0.1, 0, 0)", got)
	}
	if got := cam.Position(EyeRight); !approxVec3(got, mgl32.Vec3{0.1, 0, 0}) {
		t.Errorf("Position(right) = %v, want (0.1, 0, 0)", got)
	}
}

func TestSkyboxSample(t *testing.T) {
	s := DefaultSkybox
	tests := []struct {
		name string
		dir  mgl32.Vec3
		want [4]float32
	}{
		{"zenith", mgl32.Vec3{0, 1, 0}, s.Zenith},
		{"horizon", mgl32.Vec3{1, 0, 0}, s.Horizon},
		{"ground", mgl32.Vec3{0, -1, 0}, s.Ground},
		{"zero direction", mgl32.Vec3{}, s.Horizon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sample(tt.dir)
			for i := range got {
				if !approx(got[i], tt.want[i]) {
					t.Fatalf("Sample(%v) = %v, want %v", tt.dir, got, tt.want)
				}
			}
		})
	}
}

func TestDirectionFromViewport(t *testing.T) {
	cam := NewCamera()
	dir := DirectionFromViewport(cam.InverseViewProjectionMatrix(EyeMono), 0.5, 0.5).Normalize()
	if !approxVec3(dir, mgl32.Vec3{0, 0, -1}) {
		t.Errorf("DirectionFromViewport(center) = %v, want (0, 0, -1)", dir)
	}

	right := DirectionFromViewport(cam.InverseViewProjectionMatrix(EyeMono), 1, 0.5)
	if right.X() <= 0 {
		t.Errorf("DirectionFromViewport(right edge) = %v, want positive x", right)
	}
}

func TestControllerSetPosition(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetPosition(mgl32.Vec3{3, 4, 0})

	if !approx(ctrl.Radius(), 5) {
		t.Errorf("Radius() = %v, want 5", ctrl.Radius())
	}
	if got := ctrl.Position(); !approxVec3(got, mgl32.Vec3{3, 4, 0}) {
		t.Errorf("Position() = %v, want (3, 4, 0)", got)
	}

	ctrl.SetRadius(1e6)
	if got := ctrl.Radius(); got != 500 {
		t.Errorf("Radius() = %v, want clamped 500", got)
	}
}
