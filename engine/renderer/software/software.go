// Package software executes recorded command buffers on the CPU.
//
// Every render target is backed by a float32 RGBA image. Passes are evaluated
// per pixel with the same math as the sun shaft shader and are spread over a
// worker pool in horizontal bands. The renderer is slow compared to the GPU
// backend but deterministic, which makes it the reference for tests and for
// offline rendering of still images.
package software

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/mrjoshuak/go-openexr/exr"
	"go.uber.org/zap"
)

var (
	ErrUnknownTarget  = errors.New("software: target has no storage")
	ErrSizeMismatch   = errors.New("software: image size does not match target descriptor")
	ErrUnsupported    = errors.New("software: unsupported command")
	ErrDepthNotBound  = errors.New("software: depth pass without " + command.CameraDepthTexture)
	ErrMissingTexture = errors.New("software: pass input texture not set")
)

// Renderer is a CPU command.Executor with explicit image upload and readback.
type Renderer interface {
	command.Executor

	// Upload copies img into the storage of t.
	//
	// Parameters:
	//   - t: the destination target
	//   - img: the source pixels, which must match the target size
	//
	// Returns:
	//   - error: ErrSizeMismatch if the sizes differ
	Upload(t render_target.Target, img *exr.RGBAImage) error

	// Image returns a copy of the current contents of t.
	//
	// Parameters:
	//   - t: the target to read back
	//
	// Returns:
	//   - *exr.RGBAImage: the pixels, origin at the top left
	//   - error: ErrUnknownTarget if t was never written
	Image(t render_target.Target) (*exr.RGBAImage, error)

	// Forget drops the storage of t. Later reads see a cleared target.
	//
	// Parameters:
	//   - t: the target whose storage is dropped
	Forget(t render_target.Target)

	// Global returns the target bound under name by SetGlobalTexture.
	Global(name string) (render_target.Target, bool)

	// Bytes returns the total size of all allocated storage.
	Bytes() int
}

// rendererImpl is the implementation of Renderer.
type rendererImpl struct {
	mu     *sync.Mutex
	logger *zap.Logger

	workers    int
	bandHeight int
	pool       worker.DynamicWorkerPool
	profiler   *profiler.Profiler

	images  map[render_target.Handle]*exr.RGBAImage
	globals map[string]render_target.Target
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a software renderer.
// The worker count defaults to one less than the CPU count.
//
// Parameters:
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &rendererImpl{
		mu:         &sync.Mutex{},
		logger:     zap.NewNop(),
		workers:    max(runtime.NumCPU()-1, 1),
		bandHeight: 16,
		images:     make(map[render_target.Handle]*exr.RGBAImage),
		globals:    make(map[string]render_target.Target),
	}
	for _, option := range options {
		option(r)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r
}

func (r *rendererImpl) Execute(ctx context.Context, b *command.Buffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range b.Commands() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		if err := r.execute(c); err != nil {
			return fmt.Errorf("command %d (%T): %w", i, c, err)
		}
	}
	return nil
}

func (r *rendererImpl) execute(c command.Command) error {
	switch c := c.(type) {
	case command.Blit:
		return r.blit(c)
	case command.ClearColor:
		dst := r.storage(c.Dest)
		r.shade(c.Dest, dst, func(_, _ float32) common.Color { return c.Color })
		return nil
	case command.ClearSkybox:
		dst := r.storage(c.Dest)
		r.shade(c.Dest, dst, func(u, v float32) common.Color {
			return skyboxColor(c.Skybox, c.InverseViewProjection, u, v)
		})
		return nil
	case command.SetGlobalTexture:
		r.globals[c.Name] = c.Target
		return nil
	case command.BeginSample:
		if r.profiler != nil {
			r.profiler.BeginSample(c.Name)
		}
		return nil
	case command.EndSample:
		if r.profiler != nil {
			if d, ok := r.profiler.EndSample(c.Name); ok {
				r.logger.Debug("sample", zap.String("name", c.Name), zap.Duration("took", d))
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, c)
	}
}

func (r *rendererImpl) blit(c command.Blit) error {
	u := c.Uniforms
	main := r.input(u.MainTex())
	if main == nil {
		return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformMainTex)
	}
	// A pass writing its own input reads from a snapshot so every pixel sees the original.
	if c.Dest.Handle == u.MainTex().Handle {
		main = newSource(cloneImage(main.img), main.filter)
	}

	var fn pixelFunc
	switch c.Pass {
	case command.PassCopy:
		fn = func(x, y float32) common.Color { return main.sample(x, y) }
	case command.PassRadialBlur:
		fn = radialBlur(main, u)
	case command.PassDepthExtract:
		depthTarget, ok := r.globals[command.CameraDepthTexture]
		if !ok {
			return ErrDepthNotBound
		}
		depth := r.input(depthTarget)
		if depth == nil {
			return ErrDepthNotBound
		}
		fn = depthExtract(main, depth, u)
	case command.PassBackgroundExtract:
		sky := r.input(u.Skybox())
		if sky == nil {
			return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformSkybox)
		}
		fn = backgroundExtract(main, sky, u)
	case command.PassScreen, command.PassAdd:
		shafts := r.input(u.ColorBuffer())
		if shafts == nil {
			return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformColorBuffer)
		}
		fn = composite(c.Pass, main, shafts, u)
	default:
		return fmt.Errorf("%w: pass %s", ErrUnsupported, c.Pass)
	}

	r.shade(c.Dest, r.storage(c.Dest), fn)
	return nil
}

// input wraps the storage of t for sampling, or returns nil for an unset target.
func (r *rendererImpl) input(t render_target.Target) *source {
	if !t.IsValid() {
		return nil
	}
	return newSource(r.storage(t), t.Descriptor.Filter)
}

// storage returns the image backing t, allocating a cleared one on first use.
func (r *rendererImpl) storage(t render_target.Target) *exr.RGBAImage {
	img, ok := r.images[t.Handle]
	if ok && img.Rect.Dx() == t.Descriptor.Width && img.Rect.Dy() == t.Descriptor.Height {
		return img
	}
	img = newImage(t.Descriptor.Width, t.Descriptor.Height)
	r.images[t.Handle] = img
	r.logger.Debug("allocated storage", zap.Stringer("target", t))
	return img
}

// shade evaluates fn for every pixel of dst, in bands on the worker pool.
func (r *rendererImpl) shade(t render_target.Target, dst *exr.RGBAImage, fn pixelFunc) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	format := t.Descriptor.Format

	var wg sync.WaitGroup
	id := 0
	for y0 := 0; y0 < h; y0 += r.bandHeight {
		y1 := min(y0+r.bandHeight, h)
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for y := y0; y < y1; y++ {
					v := 1 - (float32(y)+0.5)/float32(h)
					for x := range w {
						u := (float32(x) + 0.5) / float32(w)
						c := quantize(format, fn(u, v))
						off := dst.PixOffset(x, y)
						copy(dst.Pix[off:off+4], c[:])
					}
				}
				return nil, nil
			},
		})
		id++
	}
	wg.Wait()
}

func (r *rendererImpl) Upload(t render_target.Target, img *exr.RGBAImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if img.Rect.Dx() != t.Descriptor.Width || img.Rect.Dy() != t.Descriptor.Height {
		return fmt.Errorf("%w: %dx%d into %s", ErrSizeMismatch, img.Rect.Dx(), img.Rect.Dy(), t)
	}
	dst := r.storage(t)
	for y := range t.Descriptor.Height {
		for x := range t.Descriptor.Width {
			cr, cg, cb, ca := img.RGBA(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			c := quantize(t.Descriptor.Format, common.Color{cr, cg, cb, ca})
			off := dst.PixOffset(x, y)
			copy(dst.Pix[off:off+4], c[:])
		}
	}
	return nil
}

func (r *rendererImpl) Image(t render_target.Target) (*exr.RGBAImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.images[t.Handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, t)
	}
	return cloneImage(img), nil
}

func (r *rendererImpl) Forget(t render_target.Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, t.Handle)
}

func (r *rendererImpl) Global(name string) (render_target.Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.globals[name]
	return t, ok
}

func (r *rendererImpl) Bytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, img := range r.images {
		n += len(img.Pix) * 4
	}
	return n
}
