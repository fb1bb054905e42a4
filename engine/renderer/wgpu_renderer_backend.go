package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mrjoshuak/go-openexr/exr"
	"go.uber.org/zap"
)

// passEntryPoints maps each blit pass to its fragment entry point in shader.SunShaftsSource.
var passEntryPoints = map[command.Pass]string{
	command.PassScreen:            "fs_screen",
	command.PassRadialBlur:        "fs_radial_blur",
	command.PassDepthExtract:      "fs_depth_extract",
	command.PassBackgroundExtract: "fs_background_extract",
	command.PassAdd:               "fs_add",
	command.PassCopy:              "fs_copy",
}

const skyboxEntryPoint = "fs_skybox"

// gpuTexture is the GPU storage of one render target.
type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	format  wgpu.TextureFormat
	width   int
	height  int
}

func (g *gpuTexture) release() {
	g.view.Release()
	g.texture.Release()
}

// passInputs are the targets bound to the texture slots of one draw.
type passInputs struct {
	main        render_target.Target
	colorBuffer render_target.Target
	skybox      render_target.Target
	depth       render_target.Target
}

type wgpuBackendConfig struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          PresentMode
	logger               *zap.Logger
	profiler             *profiler.Profiler
}

type wgpuRendererBackendImpl struct {
	mu       *sync.Mutex
	logger   *zap.Logger
	profiler *profiler.Profiler

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	shader          shader.Shader
	module          *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	pipelines       map[string]pipeline.Pipeline
	samplers        map[render_target.Filter]*wgpu.Sampler
	uniforms        *wgpu.Buffer
	dummy           *gpuTexture

	textures map[render_target.Handle]*gpuTexture
	scratch  *gpuTexture
	globals  map[string]render_target.Target
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(cfg wgpuBackendConfig) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      cfg.logger,
		profiler:    cfg.profiler,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		pipelines:   make(map[string]pipeline.Pipeline),
		samplers:    make(map[render_target.Filter]*wgpu.Sampler, 2),
		textures:    make(map[render_target.Handle]*gpuTexture),
		globals:     make(map[string]render_target.Target),
	}
	if cfg.presentMode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	if cfg.surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(cfg.surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Sun Shafts Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.initResources(); err != nil {
		b.Release()
		return nil, err
	}
	b.logger.Info("wgpu backend ready", zap.Bool("surface", b.surface != nil), zap.Bool("fallback_adapter", cfg.forceFallbackAdapter))
	return b, nil
}

// initResources creates everything shared by all draws: the shader module, layouts, samplers,
// the uniform buffer and the placeholder texture bound to unused slots.
func (b *wgpuRendererBackendImpl) initResources() error {
	s, err := shader.NewShader("sun_shafts", shader.SunShaftsSource)
	if err != nil {
		return err
	}
	if _, err := s.Compile(); err != nil {
		b.logger.Warn("naga could not translate shader, relying on device validation", zap.Error(err))
	}
	b.shader = s

	if b.module, err = b.device.CreateShaderModule(s.Module()); err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	desc := s.BindGroupLayoutDescriptor(0)
	desc.Label = "Sun Shafts Bind Group Layout"
	if b.bindGroupLayout, err = b.device.CreateBindGroupLayout(&desc); err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Sun Shafts Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	for filter, mode := range map[render_target.Filter]wgpu.FilterMode{
		render_target.FilterBilinear: wgpu.FilterModeLinear,
		render_target.FilterPoint:    wgpu.FilterModeNearest,
	} {
		samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         "Sun Shafts Sampler",
			AddressModeU:  wgpu.AddressModeClampToEdge,
			AddressModeV:  wgpu.AddressModeClampToEdge,
			AddressModeW:  wgpu.AddressModeClampToEdge,
			MagFilter:     mode,
			MinFilter:     mode,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMaxClamp:   32.0,
			MaxAnisotropy: 1,
		})
		if err != nil {
			return fmt.Errorf("create sampler: %w", err)
		}
		b.samplers[filter] = samp
	}

	params := shader.GPUSunShaftParams{}
	b.uniforms, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sun Shaft Params",
		Size:  uint64(params.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	b.dummy, err = b.createTexture("placeholder", 1, 1, wgpu.TextureFormatRGBA8Unorm)
	return err
}

func (b *wgpuRendererBackendImpl) createTexture(label string, width, height int, format wgpu.TextureFormat) (*gpuTexture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage: wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create view %s: %w", label, err)
	}
	return &gpuTexture{texture: tex, view: view, format: format, width: width, height: height}, nil
}

// storage returns the texture backing t, creating a cleared one on first use or after a resize.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) storage(t render_target.Target) (*gpuTexture, error) {
	format := textureFormat(t.Descriptor.Format)
	if g, ok := b.textures[t.Handle]; ok {
		if g.width == t.Descriptor.Width && g.height == t.Descriptor.Height && g.format == format {
			return g, nil
		}
		g.release()
		delete(b.textures, t.Handle)
	}
	g, err := b.createTexture(t.String(), t.Descriptor.Width, t.Descriptor.Height, format)
	if err != nil {
		return nil, err
	}
	b.textures[t.Handle] = g
	b.logger.Debug("allocated texture", zap.Stringer("target", t))
	return g, nil
}

// pipelineFor returns the cached pipeline of a fragment entry point for a target format.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) pipelineFor(entryPoint string, format wgpu.TextureFormat) (pipeline.Pipeline, error) {
	key := pipeline.Key(entryPoint, format)
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}
	p := pipeline.NewPipeline(b.shader, entryPoint, format)
	rp, err := b.device.CreateRenderPipeline(p.Descriptor(b.pipelineLayout, b.module))
	if err != nil {
		return nil, fmt.Errorf("create pipeline %s: %w", key, err)
	}
	p.SetRenderPipeline(rp)
	b.pipelines[key] = p
	return p, nil
}

func (b *wgpuRendererBackendImpl) Execute(ctx context.Context, buf *command.Buffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range buf.Commands() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		if err := b.execute(c); err != nil {
			return fmt.Errorf("command %d (%T): %w", i, c, err)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) execute(c command.Command) error {
	switch c := c.(type) {
	case command.Blit:
		return b.blit(c)
	case command.ClearColor:
		dst, err := b.storage(c.Dest)
		if err != nil {
			return err
		}
		return b.clear(dst.view, c.Color)
	case command.ClearSkybox:
		dst, err := b.storage(c.Dest)
		if err != nil {
			return err
		}
		params := shader.GPUSunShaftParams{}.WithSkybox(c.Skybox, c.InverseViewProjection)
		return b.draw(dst.view, dst.format, c.Dest.Handle, skyboxEntryPoint, params, passInputs{})
	case command.SetGlobalTexture:
		b.globals[c.Name] = c.Target
		return nil
	case command.BeginSample:
		if b.profiler != nil {
			b.profiler.BeginSample(c.Name)
		}
		return nil
	case command.EndSample:
		if b.profiler != nil {
			if d, ok := b.profiler.EndSample(c.Name); ok {
				b.logger.Debug("sample", zap.String("name", c.Name), zap.Duration("took", d))
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, c)
	}
}

func (b *wgpuRendererBackendImpl) blit(c command.Blit) error {
	u := c.Uniforms
	in := passInputs{main: u.MainTex()}
	if !in.main.IsValid() {
		return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformMainTex)
	}

	switch c.Pass {
	case command.PassCopy, command.PassRadialBlur:
	case command.PassDepthExtract:
		depth, ok := b.globals[command.CameraDepthTexture]
		if !ok || !depth.IsValid() {
			return ErrDepthNotBound
		}
		in.depth = depth
	case command.PassBackgroundExtract:
		if in.skybox = u.Skybox(); !in.skybox.IsValid() {
			return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformSkybox)
		}
	case command.PassScreen, command.PassAdd:
		if in.colorBuffer = u.ColorBuffer(); !in.colorBuffer.IsValid() {
			return fmt.Errorf("%w: %s", ErrMissingTexture, command.UniformColorBuffer)
		}
	default:
		return fmt.Errorf("%w: pass %s", ErrUnsupported, c.Pass)
	}

	dst, err := b.storage(c.Dest)
	if err != nil {
		return err
	}
	return b.draw(dst.view, dst.format, c.Dest.Handle, passEntryPoints[c.Pass], shader.NewGPUSunShaftParams(u), in)
}

// draw renders one full-screen triangle into view. Inputs that alias the destination are
// read from a scratch copy taken before the pass starts.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) draw(view *wgpu.TextureView, format wgpu.TextureFormat, dest render_target.Handle, entryPoint string, params shader.GPUSunShaftParams, in passInputs) error {
	p, err := b.pipelineFor(entryPoint, format)
	if err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	bind := func(t render_target.Target) (*wgpu.TextureView, error) {
		if !t.IsValid() {
			return b.dummy.view, nil
		}
		src, err := b.storage(t)
		if err != nil {
			return nil, err
		}
		if t.Handle != dest {
			return src.view, nil
		}
		scratch, err := b.scratchFor(src)
		if err != nil {
			return nil, err
		}
		encoder.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: scratch.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.Extent3D{Width: uint32(src.width), Height: uint32(src.height), DepthOrArrayLayers: 1},
		)
		return scratch.view, nil
	}

	views := make([]*wgpu.TextureView, 4)
	for i, t := range []render_target.Target{in.main, in.colorBuffer, in.skybox, in.depth} {
		if views[i], err = bind(t); err != nil {
			return err
		}
	}

	b.queue.WriteBuffer(b.uniforms, 0, params.Marshal())

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  entryPoint,
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.uniforms, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: views[0]},
			{Binding: 2, Sampler: b.samplers[in.main.Descriptor.Filter]},
			{Binding: 3, TextureView: views[1]},
			{Binding: 4, TextureView: views[2]},
			{Binding: 5, TextureView: views[3]},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer bindGroup.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: entryPoint,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(p.RenderPipeline())
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	return b.submit(encoder)
}

func (b *wgpuRendererBackendImpl) clear(view *wgpu.TextureView, c [4]float32) error {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		}},
	})
	pass.End()
	return b.submit(encoder)
}

func (b *wgpuRendererBackendImpl) submit(encoder *wgpu.CommandEncoder) error {
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(cmd)
	cmd.Release()
	return nil
}

// scratchFor returns a scratch texture matching src, reallocating it when the size or format changes.
func (b *wgpuRendererBackendImpl) scratchFor(src *gpuTexture) (*gpuTexture, error) {
	if s := b.scratch; s != nil && s.width == src.width && s.height == src.height && s.format == src.format {
		return s, nil
	}
	if b.scratch != nil {
		b.scratch.release()
	}
	s, err := b.createTexture("scratch", src.width, src.height, src.format)
	if err != nil {
		return nil, err
	}
	b.scratch = s
	return s, nil
}

func (b *wgpuRendererBackendImpl) Upload(t render_target.Target, img *exr.RGBAImage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, h := t.Descriptor.Width, t.Descriptor.Height
	if img.Rect.Dx() != w || img.Rect.Dy() != h {
		return fmt.Errorf("%w: %dx%d into %s", ErrSizeMismatch, img.Rect.Dx(), img.Rect.Dy(), t)
	}
	dst, err := b.storage(t)
	if err != nil {
		return err
	}
	bpp := bytesPerPixel(dst.format)
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: dst.texture, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		encodePixels(dst.format, img, w*bpp),
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: uint32(w * bpp), RowsPerImage: uint32(h)},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) Image(t render_target.Target) (*exr.RGBAImage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.textures[t.Handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, t)
	}

	stride := alignedRowPitch(src.width * bytesPerPixel(src.format))
	size := uint64(stride * src.height)
	readback, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer readback.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(src.height)},
		},
		&wgpu.Extent3D{Width: uint32(src.width), Height: uint32(src.height), DepthOrArrayLayers: 1},
	)
	if err := b.submit(encoder); err != nil {
		return nil, err
	}

	var status wgpu.BufferMapAsyncStatus
	mapped := false
	readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		mapped = s == wgpu.BufferMapAsyncStatusSuccess
	})
	b.device.Poll(true, nil)
	if !mapped {
		return nil, fmt.Errorf("%w: map status %v", ErrReadback, status)
	}
	defer readback.Unmap()

	return decodePixels(src.format, readback.GetMappedRange(0, uint(size)), src.width, src.height, stride), nil
}

func (b *wgpuRendererBackendImpl) Forget(t render_target.Target) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.textures[t.Handle]; ok {
		g.release()
		delete(b.textures, t.Handle)
	}
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: surface %dx%d", ErrSizeMismatch, width, height)
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

func (b *wgpuRendererBackendImpl) Present(t render_target.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return ErrNoSurface
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	if err := b.draw(view, b.surfaceFormat, 0, passEntryPoints[command.PassCopy], shader.GPUSunShaftParams{}, passInputs{main: t}); err != nil {
		return err
	}
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h, g := range b.textures {
		g.release()
		delete(b.textures, h)
	}
	for key, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, key)
	}
	for f, s := range b.samplers {
		s.Release()
		delete(b.samplers, f)
	}
	for _, g := range []*gpuTexture{b.scratch, b.dummy} {
		if g != nil {
			g.release()
		}
	}
	b.scratch, b.dummy = nil, nil
	if b.uniforms != nil {
		b.uniforms.Release()
		b.uniforms = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
		b.bindGroupLayout = nil
	}
	if b.module != nil {
		b.module.Release()
		b.module = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
