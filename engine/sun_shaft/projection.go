package sun_shaft

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectedSun is the sun in viewport space: X and Y in [0, 1] for an on-screen sun,
// Z the view-space depth. A negative Z means the sun is behind the camera.
type ProjectedSun struct {
	X, Y, Z float32
}

// ViewportCenter is the projection used when no sun position is configured.
var ViewportCenter = ProjectedSun{X: 0.5, Y: 0.5, Z: 0}

// InFront reports whether the sun lies in front of the camera.
func (p ProjectedSun) InFront() bool {
	return p.Z >= 0
}

// Vec4 packs the position with the mask radius in W, the layout of the _SunPosition uniform.
func (p ProjectedSun) Vec4(maxRadius float32) mgl32.Vec4 {
	return mgl32.Vec4{p.X, p.Y, p.Z, maxRadius}
}

// ProjectSun projects the configured sun through one eye of the camera.
// A zero SunWorldPosition always yields ViewportCenter, whatever the camera.
//
// Parameters:
//   - cam: the camera to project through
//   - eye: the eye being rendered
//   - s: the frame settings
//
// Returns:
//   - ProjectedSun: the viewport-space sun
func ProjectSun(cam camera.Camera, eye camera.Eye, s Settings) ProjectedSun {
	if common.IsZeroVector(s.SunWorldPosition) || cam == nil {
		return ViewportCenter
	}
	v := cam.WorldToViewportPoint(s.SunWorldPosition, eye)
	return ProjectedSun{X: v.X(), Y: v.Y(), Z: v.Z()}
}
