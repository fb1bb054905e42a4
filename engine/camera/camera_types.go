package camera

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Eye selects which view of a camera is being rendered.
type Eye int

const (
	// EyeMono is the single view of a non-stereo camera.
	EyeMono Eye = iota

	// EyeLeft is the left view of a stereo camera.
	EyeLeft

	// EyeRight is the right view of a stereo camera.
	EyeRight
)

func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return "mono"
	}
}

// DepthTextureMode is a bit set describing which depth products the camera must generate each frame.
type DepthTextureMode uint8

const (
	// DepthTextureNone disables all depth products.
	DepthTextureNone DepthTextureMode = 0

	// DepthTextureDepth requests a linear-sampled scene depth texture.
	DepthTextureDepth DepthTextureMode = 1 << 0

	// DepthTextureDepthNormals requests packed depth and view-space normals.
	DepthTextureDepthNormals DepthTextureMode = 1 << 1

	// DepthTextureMotionVectors requests per-pixel motion vectors.
	DepthTextureMotionVectors DepthTextureMode = 1 << 2
)

// Has reports whether every bit of flag is set in m.
func (m DepthTextureMode) Has(flag DepthTextureMode) bool {
	return m&flag == flag
}

// Skybox is a procedural three-stop sky gradient.
// Directions above the horizon blend from Horizon to Zenith, directions below blend to Ground.
type Skybox struct {
	Zenith  common.Color
	Horizon common.Color
	Ground  common.Color
}

// DefaultSkybox is a clear daytime sky.
var DefaultSkybox = Skybox{
	Zenith:  common.NewColor(0.22, 0.42, 0.78, 1),
	Horizon: common.NewColor(0.78, 0.86, 0.95, 1),
	Ground:  common.NewColor(0.28, 0.26, 0.24, 1),
}

// Sample returns the sky color seen along a world-space direction.
// The direction does not need to be normalized; a zero direction returns the horizon color.
//
// Parameters:
//   - dir: the world-space view direction
//
// Returns:
//   - common.Color: the gradient color for dir
func (s Skybox) Sample(dir mgl32.Vec3) common.Color {
	if dir.Len() == 0 {
		return s.Horizon
	}
	y := dir.Normalize().Y()
	if y >= 0 {
		return lerpColor(s.Horizon, s.Zenith, common.Saturate(y))
	}
	// ground fades in quickly below the horizon
	return lerpColor(s.Horizon, s.Ground, common.Saturate(-y*4))
}

func lerpColor(a, b common.Color, t float32) common.Color {
	var out common.Color
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}
