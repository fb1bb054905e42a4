package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	allowHDR         bool
	depthTextureMode DepthTextureMode
	background       common.Color
	skybox           Skybox

	stereo        bool
	eyeSeparation float32

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each frame via Update(). Without a controller
// the view matrix is the identity: the camera sits at the origin looking down -Z.
//
// Besides the matrices the camera carries the per-camera render state that
// post-processing effects consult: the HDR flag, the requested depth products,
// the clear color and the procedural skybox.
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Position returns the world-space position of the given eye.
	//
	// Parameters:
	//   - eye: the eye to query, EyeMono for non-stereo cameras
	//
	// Returns:
	//   - mgl32.Vec3: the eye position in world space
	Position(eye Eye) mgl32.Vec3

	// ViewMatrix returns the view matrix of the given eye.
	// Stereo eyes are offset by half the eye separation along the camera's right axis.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix(eye Eye) mgl32.Mat4

	// ProjectionMatrix returns the current perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view for the given eye.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix(eye Eye) mgl32.Mat4

	// InverseViewProjectionMatrix returns the inverse of ViewProjectionMatrix(eye).
	// Used to reconstruct world-space view rays for skybox clears.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - mgl32.Mat4: the inverse view-projection matrix
	InverseViewProjectionMatrix(eye Eye) mgl32.Mat4

	// WorldToViewportPoint projects a world-space point into viewport space.
	// X and Y are normalized so the visible area spans [0, 1] with (0, 0) at the bottom left.
	// Z is the view-space depth in world units: positive in front of the camera,
	// negative behind it.
	//
	// Parameters:
	//   - p: the world-space point
	//   - eye: the eye to project through
	//
	// Returns:
	//   - mgl32.Vec3: the viewport-space point
	WorldToViewportPoint(p mgl32.Vec3, eye Eye) mgl32.Vec3

	// AllowHDR reports whether the camera renders into floating point targets.
	//
	// Returns:
	//   - bool: true if HDR rendering is enabled
	AllowHDR() bool

	// DepthTextureMode returns the depth products requested for this camera.
	//
	// Returns:
	//   - DepthTextureMode: the requested depth products
	DepthTextureMode() DepthTextureMode

	// RequestDepthTexture ORs mode into the camera's depth texture mode.
	// Requests accumulate and repeated calls with the same mode have no further effect.
	//
	// Parameters:
	//   - mode: the depth products to request
	RequestDepthTexture(mode DepthTextureMode)

	// BackgroundColor returns the solid clear color of the camera.
	//
	// Returns:
	//   - common.Color: the background color
	BackgroundColor() common.Color

	// Skybox returns the procedural sky gradient used for skybox clears.
	//
	// Returns:
	//   - Skybox: the camera's skybox
	Skybox() Skybox

	// Stereo reports whether the camera renders one view per eye.
	//
	// Returns:
	//   - bool: true for stereo cameras
	Stereo() bool

	// EyeSeparation returns the distance between the two stereo eyes in world units.
	//
	// Returns:
	//   - float32: the eye separation
	EyeSeparation() float32

	// Eyes lists the eyes that must be rendered each frame.
	//
	// Returns:
	//   - []Eye: [EyeLeft, EyeRight] for stereo cameras, [EyeMono] otherwise
	Eyes() []Eye

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// Update reads position/target from controller and recomputes matrices.
	// Should be called once per frame before rendering.
	Update()

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - up: the up vector
	SetUp(up mgl32.Vec3)

	// SetFov sets the field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetAllowHDR toggles floating point rendering for the camera.
	//
	// Parameters:
	//   - allow: true to enable HDR
	SetAllowHDR(allow bool)

	// SetBackgroundColor sets the solid clear color.
	//
	// Parameters:
	//   - c: the new background color
	SetBackgroundColor(c common.Color)

	// SetSkybox replaces the procedural sky gradient.
	//
	// Parameters:
	//   - s: the new skybox
	SetSkybox(s Skybox)

	// SetStereo enables or disables per-eye rendering.
	//
	// Parameters:
	//   - stereo: true to render one view per eye
	//   - separation: distance between the eyes in world units
	SetStereo(stereo bool, separation float32)

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// Until a controller is attached via SetController or the WithController option the
// camera sits at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:            &sync.Mutex{},
		up:            mgl32.Vec3{0, 1, 0},
		fov:           60.0 * (math.Pi / 180.0), // radians
		aspect:        16.0 / 9.0,
		near:          0.3,
		far:           1000.0,
		viewMatrix:    mgl32.Ident4(),
		background:    common.NewColor(0.19, 0.3, 0.47, 1),
		skybox:        DefaultSkybox,
		eyeSeparation: 0.064,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position(eye Eye) mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeView(eye).Inv().Col(3).Vec3()
}

func (c *cameraImpl) ViewMatrix(eye Eye) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeView(eye)
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix(eye Eye) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix.Mul4(c.eyeView(eye))
}

func (c *cameraImpl) InverseViewProjectionMatrix(eye Eye) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix.Mul4(c.eyeView(eye)).Inv()
}

func (c *cameraImpl) WorldToViewportPoint(p mgl32.Vec3, eye Eye) mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.eyeView(eye).Mul4x1(p.Vec4(1))
	depth := -view.Z()

	clip := c.projectionMatrix.Mul4x1(view)
	if clip.W() == 0 {
		return mgl32.Vec3{0.5, 0.5, depth}
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	return mgl32.Vec3{ndcX*0.5 + 0.5, ndcY*0.5 + 0.5, depth}
}

func (c *cameraImpl) AllowHDR() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowHDR
}

func (c *cameraImpl) DepthTextureMode() DepthTextureMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depthTextureMode
}

func (c *cameraImpl) RequestDepthTexture(mode DepthTextureMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depthTextureMode |= mode
}

func (c *cameraImpl) BackgroundColor() common.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

func (c *cameraImpl) Skybox() Skybox {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skybox
}

func (c *cameraImpl) Stereo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stereo
}

func (c *cameraImpl) EyeSeparation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeSeparation
}

func (c *cameraImpl) Eyes() []Eye {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stereo {
		return []Eye{EyeLeft, EyeRight}
	}
	return []Eye{EyeMono}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetAllowHDR(allow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowHDR = allow
}

func (c *cameraImpl) SetBackgroundColor(col common.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = col
}

func (c *cameraImpl) SetSkybox(s Skybox) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skybox = s
}

func (c *cameraImpl) SetStereo(stereo bool, separation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stereo = stereo
	c.eyeSeparation = separation
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// eyeView returns the view matrix shifted for the given stereo eye.
// Caller must hold the mutex.
func (c *cameraImpl) eyeView(eye Eye) mgl32.Mat4 {
	if !c.stereo || eye == EyeMono {
		return c.viewMatrix
	}
	half := c.eyeSeparation / 2
	if eye == EyeLeft {
		return mgl32.Translate3D(half, 0, 0).Mul4(c.viewMatrix)
	}
	return mgl32.Translate3D(-half, 0, 0).Mul4(c.viewMatrix)
}

// updateMatrices recalculates the projection matrix and, when a controller is attached,
// the view matrix from the controller's position and target.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	if c.controller == nil {
		return
	}
	c.viewMatrix = mgl32.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
}

// DirectionFromViewport reconstructs the world-space view direction through a viewport point.
//
// Parameters:
//   - invViewProj: the inverse view-projection matrix of the eye
//   - x, y: the viewport coordinates in [0, 1], origin at the bottom left
//
// Returns:
//   - mgl32.Vec3: the unnormalized world-space direction from the near plane to the far plane
func DirectionFromViewport(invViewProj mgl32.Mat4, x, y float32) mgl32.Vec3 {
	ndcX := x*2 - 1
	ndcY := y*2 - 1
	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	return far.Vec3().Mul(1 / far.W()).Sub(near.Vec3().Mul(1 / near.W()))
}
