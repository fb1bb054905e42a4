package camera

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraBuilderOption func(*cameraImpl)

// WithUp sets the camera's up vector.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithHDR enables floating point rendering for the camera.
//
// Returns:
//   - CameraBuilderOption: functional option to enable HDR
func WithHDR() CameraBuilderOption {
	return func(c *cameraImpl) {
		c.allowHDR = true
	}
}

// WithBackgroundColor sets the solid clear color.
//
// Parameters:
//   - col: the background color
//
// Returns:
//   - CameraBuilderOption: functional option to set the background color
func WithBackgroundColor(col common.Color) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.background = col
	}
}

// WithSkybox sets the procedural sky gradient.
//
// Parameters:
//   - s: the skybox
//
// Returns:
//   - CameraBuilderOption: functional option to set the skybox
func WithSkybox(s Skybox) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.skybox = s
	}
}

// WithStereo renders the camera once per eye.
//
// Parameters:
//   - separation: distance between the eyes in world units
//
// Returns:
//   - CameraBuilderOption: functional option to enable stereo rendering
func WithStereo(separation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.stereo = true
		c.eyeSeparation = separation
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
