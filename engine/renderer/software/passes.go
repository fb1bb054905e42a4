package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// pixelFunc shades one pixel at viewport coordinates u, v (origin bottom left).
type pixelFunc func(u, v float32) common.Color

// radialBlurSamples is the tap count of one radial blur pass.
const radialBlurSamples = 6

// luminanceWeights converts linear RGB to perceived brightness for the background key.
var luminanceWeights = mgl32.Vec3{0.22, 0.707, 0.071}

// backgroundKeyTolerance is how close a pixel must be to the sky, in luminance, to count as background.
const backgroundKeyTolerance = 0.2

// thresholdColor reduces a color to the brightness above the sun threshold, saturated to [0, 1].
func thresholdColor(c, threshold common.Color) float32 {
	var sum float32
	for i := range 3 {
		sum += max(c[i]-threshold[i], 0)
	}
	return common.Saturate(sum)
}

// sunFalloff is 1 at the sun and fades to 0 at the sun radius stored in sunPos.w.
func sunFalloff(sunPos mgl32.Vec4, u, v float32) float32 {
	d := mgl32.Vec2{sunPos.X() - u, sunPos.Y() - v}.Len()
	return common.Saturate(sunPos.W() - d)
}

func splat(f float32) common.Color {
	return common.Color{f, f, f, f}
}

func radialBlur(main *source, u command.Uniforms) pixelFunc {
	sun := u.SunPosition()
	radius := u.BlurRadius4()
	return func(x, y float32) common.Color {
		stepX := (sun.X() - x) * radius.X()
		stepY := (sun.Y() - y) * radius.Y()
		var acc common.Color
		for range radialBlurSamples {
			c := main.sample(x, y)
			for i := range acc {
				acc[i] += c[i]
			}
			x += stepX
			y += stepY
		}
		return acc.Scale(1.0 / radialBlurSamples)
	}
}

func depthExtract(main, depth *source, u command.Uniforms) pixelFunc {
	sun := u.SunPosition()
	threshold := u.SunThreshold()
	far := u.DepthThreshold()
	return func(x, y float32) common.Color {
		if depth.sample(x, y)[0] <= far {
			return common.Clear
		}
		return splat(thresholdColor(main.sample(x, y), threshold) * sunFalloff(sun, x, y))
	}
}

func backgroundExtract(main, sky *source, u command.Uniforms) pixelFunc {
	sun := u.SunPosition()
	threshold := u.SunThreshold()
	return func(x, y float32) common.Color {
		s := sky.sample(x, y)
		c := main.sample(x, y)
		diff := mgl32.Vec3{
			float32(math.Abs(float64(s[0] - c[0]))),
			float32(math.Abs(float64(s[1] - c[1]))),
			float32(math.Abs(float64(s[2] - c[2]))),
		}
		if diff.Dot(luminanceWeights) >= backgroundKeyTolerance {
			return common.Clear
		}
		return splat(thresholdColor(s, threshold) * sunFalloff(sun, x, y))
	}
}

func composite(pass command.Pass, main, shafts *source, u command.Uniforms) pixelFunc {
	tint := u.SunColor()
	opacity := u.Opacity()
	return func(x, y float32) common.Color {
		a := main.sample(x, y)
		b := shafts.sample(x, y).Mul(tint)
		var out common.Color
		for i := range out {
			mask := common.Saturate(b[i])
			if pass == command.PassScreen {
				out[i] = 1 - (1-a[i])*(1-mask)
			} else {
				out[i] = a[i] + mask
			}
			out[i] = a[i] + (out[i]-a[i])*opacity
		}
		return out
	}
}

func skyboxColor(sky camera.Skybox, invViewProj mgl32.Mat4, u, v float32) common.Color {
	return sky.Sample(camera.DirectionFromViewport(invViewProj, u, v))
}
