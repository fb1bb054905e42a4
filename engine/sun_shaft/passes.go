package sun_shaft

import (
	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/go-gl/mathgl/mgl32"
)

// blurOffsetScale converts BlurRadius into viewport units.
const blurOffsetScale = 768

// BaseUniforms returns the uniforms shared by every pass of a frame.
//
// Parameters:
//   - s: the frame settings
//   - sun: the projected sun
//
// Returns:
//   - command.Uniforms: opacity, blur radius, sun position, threshold and, for depth extraction, the depth threshold
func BaseUniforms(s Settings, sun ProjectedSun) command.Uniforms {
	u := command.Uniforms{}.
		WithOpacity(s.Opacity).
		WithBlurRadius4(mgl32.Vec4{s.BlurRadius, s.BlurRadius, 0, 0}).
		WithSunPosition(sun.Vec4(s.MaxRadius)).
		WithSunThreshold(s.ColorThreshold)
	if d, ok := s.Extraction.(DepthThreshold); ok {
		u = u.WithDepthThreshold(d.Threshold)
	}
	return u
}

// BlurOffset returns the sample offset of blur sub-pass n, counting from zero.
// Sub-pass 0 uses baseOffset/768 and sub-pass n > 0 uses baseOffset*6n/768.
func BlurOffset(baseOffset float32, n int) float32 {
	if n == 0 {
		return baseOffset / blurOffsetScale
	}
	return baseOffset * float32(n*6) / blurOffsetScale
}

// RadialBlur records the iterative radial blur starting from the current working buffer.
//
// Every iteration records two radial-blur passes, each reading the current buffer and
// writing the other before the roles swap, so a round ends in the buffer it started from.
// The sample offset grows after every pass. The iteration count
// is used as given: zero records nothing and leaves the extracted mask as the result.
//
// Parameters:
//   - cmd: the buffer to record into
//   - b: the working buffers, holding the mask in the current buffer
//   - iterations: the number of blur rounds
//   - baseOffset: the configured blur radius
//   - sun: the projected sun, the center of the blur
//   - maxRadius: the mask radius forwarded in _SunPosition.w
//   - base: uniforms copied into every pass
//
// Returns:
//   - render_target.Target: the buffer holding the blurred result
func RadialBlur(cmd *command.Buffer, b *WorkingBuffers, iterations int, baseOffset float32, sun ProjectedSun, maxRadius float32, base command.Uniforms) render_target.Target {
	base = base.WithSunPosition(sun.Vec4(maxRadius))
	ofs := baseOffset / blurOffsetScale

	for i := 0; i < iterations; i++ {
		cmd.Blit(b.Current(), b.Other(), command.PassRadialBlur, base.WithBlurRadius4(mgl32.Vec4{ofs, ofs, 0, 0}))
		b.Swap()
		ofs = baseOffset * float32((i*2+1)*6) / blurOffsetScale

		cmd.Blit(b.Current(), b.Other(), command.PassRadialBlur, base.WithBlurRadius4(mgl32.Vec4{ofs, ofs, 0, 0}))
		b.Swap()
		ofs = baseOffset * float32((i*2+2)*6) / blurOffsetScale
	}
	return b.Current()
}

// SunColorUniform returns the composite tint: SunColor*SunIntensity, alpha included,
// for a sun in front of the camera and zero for a sun behind it.
func SunColorUniform(s Settings, sun ProjectedSun) common.Color {
	if !sun.InFront() {
		return common.Clear
	}
	return s.SunColor.Scale(s.SunIntensity)
}

// Composite records the blend of result onto the camera color target, in place.
// The blend mode selects exactly one of the screen and add passes.
//
// Parameters:
//   - cmd: the buffer to record into
//   - cameraColor: the camera color target, both read and written
//   - result: the blurred shaft buffer, bound as _ColorBuffer
//   - s: the frame settings
//   - sun: the projected sun
func Composite(cmd *command.Buffer, cameraColor, result render_target.Target, s Settings, sun ProjectedSun) {
	u := BaseUniforms(s, sun).
		WithSunColor(SunColorUniform(s, sun)).
		WithColorBuffer(result)
	cmd.Blit(cameraColor, cameraColor, s.BlendMode.Pass(), u)
}
