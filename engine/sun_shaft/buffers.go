package sun_shaft

import "github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"

// WorkingBuffers is the ping-pong pair of one frame.
// Exactly one of the two targets is current at any time; Swap flips the roles.
type WorkingBuffers struct {
	targets  [2]render_target.Target
	index    int
	released bool
}

// A returns the first buffer, the destination of mask extraction.
func (b *WorkingBuffers) A() render_target.Target { return b.targets[0] }

// B returns the second buffer.
func (b *WorkingBuffers) B() render_target.Target { return b.targets[1] }

// Index returns 0 when A is current and 1 when B is current.
func (b *WorkingBuffers) Index() int { return b.index }

// Current returns the buffer currently holding the result.
func (b *WorkingBuffers) Current() render_target.Target { return b.targets[b.index] }

// Other returns the buffer that the next pass writes into.
func (b *WorkingBuffers) Other() render_target.Target { return b.targets[1-b.index] }

// Swap exchanges the roles of the two buffers.
func (b *WorkingBuffers) Swap() { b.index = 1 - b.index }

// Size returns the working resolution.
func (b *WorkingBuffers) Size() (width, height int) {
	d := b.targets[0].Descriptor
	return d.Width, d.Height
}
