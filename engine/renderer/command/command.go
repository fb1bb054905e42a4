// Package command records render work for later execution by a backend.
//
// Effects never touch pixels directly. They append commands to a Buffer:
// full-screen passes between targets, clears, global texture bindings and
// profiler markers. A backend implementing Executor replays the buffer in order.
package command

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/go-gl/mathgl/mgl32"
)

// Pass selects the full-screen shader program of a Blit.
// The first five values match the pass indices of the sun shaft shader.
type Pass int

const (
	PassScreen            Pass = 0
	PassRadialBlur        Pass = 1
	PassDepthExtract      Pass = 2
	PassBackgroundExtract Pass = 3
	PassAdd               Pass = 4
	PassCopy              Pass = 5

	passCount = 6
)

var passNames = [passCount]string{
	PassScreen:            "screen",
	PassRadialBlur:        "radial_blur",
	PassDepthExtract:      "depth_extract",
	PassBackgroundExtract: "background_extract",
	PassAdd:               "add",
	PassCopy:              "copy",
}

func (p Pass) String() string {
	if p < 0 || p >= passCount {
		return fmt.Sprintf("pass(%d)", int(p))
	}
	return passNames[p]
}

// Passes lists every pass in index order.
func Passes() []Pass {
	out := make([]Pass, passCount)
	for i := range out {
		out[i] = Pass(i)
	}
	return out
}

// CameraDepthTexture is the global texture name the camera depth buffer is bound to.
const CameraDepthTexture = "_CameraDepthTexture"

// Command is one recorded operation.
type Command interface {
	isCommand()
}

// Blit runs Pass reading Source and writing every pixel of Dest.
type Blit struct {
	Source   render_target.Target
	Dest     render_target.Target
	Pass     Pass
	Uniforms Uniforms
}

// ClearColor fills Dest with a solid color.
type ClearColor struct {
	Dest  render_target.Target
	Color common.Color
}

// ClearSkybox fills Dest with the sky as seen through the camera eye described by InverseViewProjection.
type ClearSkybox struct {
	Dest                  render_target.Target
	Skybox                camera.Skybox
	InverseViewProjection mgl32.Mat4
}

// SetGlobalTexture binds Target under Name for every following pass.
type SetGlobalTexture struct {
	Name   string
	Target render_target.Target
}

// BeginSample opens a named profiler region.
type BeginSample struct {
	Name string
}

// EndSample closes the profiler region opened by the matching BeginSample.
type EndSample struct {
	Name string
}

func (Blit) isCommand()             {}
func (ClearColor) isCommand()       {}
func (ClearSkybox) isCommand()      {}
func (SetGlobalTexture) isCommand() {}
func (BeginSample) isCommand()      {}
func (EndSample) isCommand()        {}

// Executor replays recorded command buffers.
type Executor interface {
	// Execute runs every command of b in order.
	//
	// Parameters:
	//   - ctx: cancels execution between commands
	//   - b: the buffer to execute
	//
	// Returns:
	//   - error: the first failure, wrapped with the index of the failing command
	Execute(ctx context.Context, b *Buffer) error
}

// Buffer is an ordered list of recorded commands.
// A Buffer is not safe for concurrent recording.
type Buffer struct {
	name     string
	commands []Command
}

// NewBuffer creates an empty command buffer.
//
// Parameters:
//   - name: a debug name for the buffer
//
// Returns:
//   - *Buffer: the new buffer
func NewBuffer(name string) *Buffer {
	return &Buffer{name: name}
}

func (b *Buffer) Name() string {
	return b.name
}

// Blit records a full-screen pass. The source is bound as the main texture of the pass.
//
// Parameters:
//   - src: the target read by the pass
//   - dst: the target written by the pass
//   - pass: the shader program to run
//   - u: the uniform bundle; it is copied into the command
func (b *Buffer) Blit(src, dst render_target.Target, pass Pass, u Uniforms) {
	b.commands = append(b.commands, Blit{
		Source:   src,
		Dest:     dst,
		Pass:     pass,
		Uniforms: u.WithMainTex(src),
	})
}

// ClearColor records a solid color clear of dst.
func (b *Buffer) ClearColor(dst render_target.Target, c common.Color) {
	b.commands = append(b.commands, ClearColor{Dest: dst, Color: c})
}

// ClearSkybox records a skybox clear of dst.
//
// Parameters:
//   - dst: the target to clear
//   - sky: the sky gradient
//   - invViewProj: the inverse view-projection matrix of the viewing eye
func (b *Buffer) ClearSkybox(dst render_target.Target, sky camera.Skybox, invViewProj mgl32.Mat4) {
	b.commands = append(b.commands, ClearSkybox{Dest: dst, Skybox: sky, InverseViewProjection: invViewProj})
}

// SetGlobalTexture records a global texture binding.
func (b *Buffer) SetGlobalTexture(name string, t render_target.Target) {
	b.commands = append(b.commands, SetGlobalTexture{Name: name, Target: t})
}

// BeginSample records the start of a profiler region.
func (b *Buffer) BeginSample(name string) {
	b.commands = append(b.commands, BeginSample{Name: name})
}

// EndSample records the end of a profiler region.
func (b *Buffer) EndSample(name string) {
	b.commands = append(b.commands, EndSample{Name: name})
}

// Commands returns a copy of the recorded commands.
func (b *Buffer) Commands() []Command {
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return out
}

// Blits returns only the recorded Blit commands, in order.
func (b *Buffer) Blits() []Blit {
	var out []Blit
	for _, c := range b.commands {
		if blit, ok := c.(Blit); ok {
			out = append(out, blit)
		}
	}
	return out
}

func (b *Buffer) Len() int {
	return len(b.commands)
}

// Clear drops every recorded command, keeping the allocated capacity.
func (b *Buffer) Clear() {
	clear(b.commands)
	b.commands = b.commands[:0]
}
