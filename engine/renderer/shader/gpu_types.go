package shader

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUSunShaftParamsSource is the canonical WGSL definition of the SunShaftParams struct.
// Matches GPUSunShaftParams layout exactly (192 bytes, uniform aligned).
//
//go:embed assets/sun_shaft_params.wgsl
var GPUSunShaftParamsSource string

// SunShaftsSource holds every full-screen pass of the effect plus the skybox clear.
//
//go:embed assets/sun_shafts.wgsl
var SunShaftsSource string

// GPUSunShaftParams is the GPU-aligned uniform block shared by all sun shaft passes.
// Size: 192 bytes.
type GPUSunShaftParams struct {
	SunPosition    [4]float32  // offset   0: viewport sun position (xy) and falloff radius (w)
	BlurRadius4    [4]float32  // offset  16: per-tap blur step scale
	SunColor       [4]float32  // offset  32: shaft tint
	SunThreshold   [4]float32  // offset  48: brightness threshold
	SkyZenith      [4]float32  // offset  64
	SkyHorizon     [4]float32  // offset  80
	SkyGround      [4]float32  // offset  96
	InvViewProj    [16]float32 // offset 112: column-major inverse view-projection for the skybox clear
	Opacity        float32     // offset 176
	DepthThreshold float32     // offset 180
	_              [2]float32  // offset 184: padding to 16 byte alignment
}

// NewGPUSunShaftParams packs the uniform values of a recorded blit.
// Keys that were never set stay zero.
//
// Parameters:
//   - u: the uniform bundle captured by the command buffer
//
// Returns:
//   - GPUSunShaftParams: the packed block
func NewGPUSunShaftParams(u command.Uniforms) GPUSunShaftParams {
	return GPUSunShaftParams{
		SunPosition:    u.SunPosition(),
		BlurRadius4:    u.BlurRadius4(),
		SunColor:       u.SunColor(),
		SunThreshold:   u.SunThreshold(),
		Opacity:        u.Opacity(),
		DepthThreshold: u.DepthThreshold(),
	}
}

// WithSkybox returns a copy of the block carrying the sky gradient and the inverse
// view-projection used by the skybox clear.
//
// Parameters:
//   - sky: the sky gradient
//   - invViewProj: the inverse view-projection of the eye being cleared
//
// Returns:
//   - GPUSunShaftParams: the updated block
func (g GPUSunShaftParams) WithSkybox(sky camera.Skybox, invViewProj mgl32.Mat4) GPUSunShaftParams {
	g.SkyZenith = sky.Zenith
	g.SkyHorizon = sky.Horizon
	g.SkyGround = sky.Ground
	g.InvViewProj = invViewProj
	return g
}

// Size returns the size of the GPUSunShaftParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSunShaftParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the block into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer ready for GPU upload.
func (g *GPUSunShaftParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := 0
	put := func(vs ...float32) {
		for _, v := range vs {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	put(g.SunPosition[:]...)
	put(g.BlurRadius4[:]...)
	put(g.SunColor[:]...)
	put(g.SunThreshold[:]...)
	put(g.SkyZenith[:]...)
	put(g.SkyHorizon[:]...)
	put(g.SkyGround[:]...)
	put(g.InvViewProj[:]...)
	put(g.Opacity, g.DepthThreshold)
	return buf
}
