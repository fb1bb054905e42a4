package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformKey names one of the shader inputs a pass may read.
type UniformKey int

const (
	UniformOpacity UniformKey = iota
	UniformBlurRadius4
	UniformSunColor
	UniformSunPosition
	UniformSunThreshold
	UniformSkybox
	UniformColorBuffer
	UniformMainTex
	UniformDepthThreshold

	uniformKeyCount
)

var uniformNames = [uniformKeyCount]string{
	UniformOpacity:        "_Opacity",
	UniformBlurRadius4:    "_BlurRadius4",
	UniformSunColor:       "_SunColor",
	UniformSunPosition:    "_SunPosition",
	UniformSunThreshold:   "_SunThreshold",
	UniformSkybox:         "_Skybox",
	UniformColorBuffer:    "_ColorBuffer",
	UniformMainTex:        "_MainTex",
	UniformDepthThreshold: "_DepthThreshold",
}

// String returns the shader-side name of the key.
func (k UniformKey) String() string {
	if k < 0 || k >= uniformKeyCount {
		return fmt.Sprintf("uniform(%d)", int(k))
	}
	return uniformNames[k]
}

// UniformKeys lists every recognized key in declaration order.
func UniformKeys() []UniformKey {
	keys := make([]UniformKey, uniformKeyCount)
	for i := range keys {
		keys[i] = UniformKey(i)
	}
	return keys
}

// Uniforms is the parameter bundle attached to a single recorded pass.
// It is a plain value: every With method returns a modified copy, so a bundle
// recorded into a command can never be changed by later calls.
type Uniforms struct {
	set uint16

	opacity        float32
	blurRadius4    mgl32.Vec4
	sunColor       common.Color
	sunPosition    mgl32.Vec4
	sunThreshold   common.Color
	depthThreshold float32
	skybox         render_target.Target
	colorBuffer    render_target.Target
	mainTex        render_target.Target
}

// Has reports whether k has been assigned in the bundle.
func (u Uniforms) Has(k UniformKey) bool {
	return u.set&(1<<uint(k)) != 0
}

// Keys returns the assigned keys in declaration order.
func (u Uniforms) Keys() []UniformKey {
	var keys []UniformKey
	for k := UniformKey(0); k < uniformKeyCount; k++ {
		if u.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (u Uniforms) mark(k UniformKey) Uniforms {
	u.set |= 1 << uint(k)
	return u
}

func (u Uniforms) WithOpacity(v float32) Uniforms {
	u.opacity = v
	return u.mark(UniformOpacity)
}

func (u Uniforms) WithBlurRadius4(v mgl32.Vec4) Uniforms {
	u.blurRadius4 = v
	return u.mark(UniformBlurRadius4)
}

func (u Uniforms) WithSunColor(c common.Color) Uniforms {
	u.sunColor = c
	return u.mark(UniformSunColor)
}

func (u Uniforms) WithSunPosition(v mgl32.Vec4) Uniforms {
	u.sunPosition = v
	return u.mark(UniformSunPosition)
}

func (u Uniforms) WithSunThreshold(c common.Color) Uniforms {
	u.sunThreshold = c
	return u.mark(UniformSunThreshold)
}

func (u Uniforms) WithDepthThreshold(v float32) Uniforms {
	u.depthThreshold = v
	return u.mark(UniformDepthThreshold)
}

func (u Uniforms) WithSkybox(t render_target.Target) Uniforms {
	u.skybox = t
	return u.mark(UniformSkybox)
}

func (u Uniforms) WithColorBuffer(t render_target.Target) Uniforms {
	u.colorBuffer = t
	return u.mark(UniformColorBuffer)
}

func (u Uniforms) WithMainTex(t render_target.Target) Uniforms {
	u.mainTex = t
	return u.mark(UniformMainTex)
}

func (u Uniforms) Opacity() float32                  { return u.opacity }
func (u Uniforms) BlurRadius4() mgl32.Vec4           { return u.blurRadius4 }
func (u Uniforms) SunColor() common.Color            { return u.sunColor }
func (u Uniforms) SunPosition() mgl32.Vec4           { return u.sunPosition }
func (u Uniforms) SunThreshold() common.Color        { return u.sunThreshold }
func (u Uniforms) DepthThreshold() float32           { return u.depthThreshold }
func (u Uniforms) Skybox() render_target.Target      { return u.skybox }
func (u Uniforms) ColorBuffer() render_target.Target { return u.colorBuffer }
func (u Uniforms) MainTex() render_target.Target     { return u.mainTex }
