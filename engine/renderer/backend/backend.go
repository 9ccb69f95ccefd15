// Package backend implements renderer.Backend on WebGPU through cogentcore/webgpu.
package backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultUniformArenaSize is the per-frame uniform arena size in bytes.
const DefaultUniformArenaSize = 4 << 20

// requiredColorBytesPerSample covers the five G-buffer attachments, which exceed the WebGPU default of 32.
const requiredColorBytesPerSample = 64

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	width, height int

	forceFallbackAdapter bool
	arenaSize            uint64
	uniformAlign         uint64

	linearSampler *wgpu.Sampler
	shadowSampler *wgpu.Sampler

	arena        *wgpu.Buffer
	arenaStaging []byte
	arenaCursor  uint64

	bindGroups map[bindGroupKey]*wgpu.BindGroup
	nextID     uint64

	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	openPasses   int
}

// WGPUBackend is the WebGPU implementation of renderer.Backend.
type WGPUBackend interface {
	renderer.Backend

	// SetPresentMode changes how frames are delivered to the display. It takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode renderer.PresentMode)

	// SurfaceFormat returns the texture format the presentation surface was configured with.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat
}

var _ WGPUBackend = &wgpuBackend{}

// NewWGPUBackend creates the instance, adapter, device, and surface, and configures the surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, typically from window.Window.SurfaceDescriptor
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: functional options applied before the device is requested
//
// Returns:
//   - WGPUBackend: the configured backend
//   - error: an error if no adapter or device could be acquired
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (WGPUBackend, error) {
	if surfaceDescriptor == nil {
		panic("backend: surface descriptor is required")
	}
	runtime.LockOSThread()

	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
		arenaSize:   DefaultUniformArenaSize,
		bindGroups:  make(map[bindGroupKey]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("backend: request adapter: %w", err)
	}
	b.adapter = a

	supported := a.GetLimits().Limits
	limits := wgpu.DefaultLimits()
	if supported.MaxColorAttachmentBytesPerSample > limits.MaxColorAttachmentBytesPerSample {
		limits.MaxColorAttachmentBytesPerSample = min(requiredColorBytesPerSample, supported.MaxColorAttachmentBytesPerSample)
	}
	b.uniformAlign = uint64(common.Coalesce(supported.MinUniformBufferOffsetAlignment, limits.MinUniformBufferOffsetAlignment, 256))

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("backend: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.createShared(); err != nil {
		b.Release()
		return nil, err
	}
	b.Resize(width, height)
	return b, nil
}

// createShared creates the samplers and the uniform arena used by every program.
func (b *wgpuBackend) createShared() error {
	var err error
	b.linearSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Clamp Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("backend: linear sampler: %w", err)
	}

	b.shadowSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("backend: comparison sampler: %w", err)
	}

	b.arena, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Arena",
		Size:  b.arenaSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("backend: uniform arena: %w", err)
	}
	b.arenaStaging = make([]byte, b.arenaSize)
	return nil
}

func (b *wgpuBackend) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case renderer.PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuBackend) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]
	b.width, b.height = width, height

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
}

func (b *wgpuBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuBackend) CreateTexture(desc renderer.TextureDescriptor) (renderer.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("backend: texture %q has empty size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	format := b.textureFormat(desc.Format)
	if format == wgpu.TextureFormatUndefined {
		return nil, fmt.Errorf("backend: texture %q has undefined format", desc.Label)
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("backend: create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("backend: create view %q: %w", desc.Label, err)
	}

	b.nextID++
	return &texture{
		id:      b.nextID,
		backend: b,
		desc:    desc,
		tex:     tex,
		view:    view,
	}, nil
}

func (b *wgpuBackend) WriteTexture(t renderer.Texture, data common.TextureStagingData) error {
	tex, ok := t.(*texture)
	if !ok || tex.tex == nil {
		return errors.New("backend: texture was not created by this backend")
	}
	if data.Width != uint32(tex.desc.Width) || data.Height != uint32(tex.desc.Height) {
		return fmt.Errorf("backend: %dx%d upload into %dx%d texture %q", data.Width, data.Height, tex.desc.Width, tex.desc.Height, tex.desc.Label)
	}
	if uint32(len(data.Pixels)) < data.RowPitch()*data.Height {
		return fmt.Errorf("backend: short upload of %d bytes into %q", len(data.Pixels), tex.desc.Label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.RowPitch(),
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuBackend) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Contents))
	}
	if size == 0 {
		return nil, fmt.Errorf("backend: buffer %q has zero size", desc.Label)
	}
	// COPY_DST writes must be 4-byte aligned
	size = alignUp(size, 4)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("backend: create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Contents) > 0 {
		b.queue.WriteBuffer(buf, 0, padTo4(desc.Contents))
	}

	b.nextID++
	return &buffer{
		id:      b.nextID,
		backend: b,
		label:   desc.Label,
		size:    size,
		buf:     buf,
	}, nil
}

func (b *wgpuBackend) WriteBuffer(buf renderer.Buffer, offset uint64, data []byte) {
	wb, ok := buf.(*buffer)
	if !ok || wb.buf == nil || len(data) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(wb.buf, offset, padTo4(data))
}

func (b *wgpuBackend) CreateProgram(desc renderer.ProgramDescriptor) (renderer.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	refl := shader.Reflect(desc.Source())
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("backend: compile %s: %w", desc.Key(), err)
	}

	p := &program{
		key:     desc.Key(),
		backend: b,
		refl:    refl,
		module:  module,
	}
	if err := b.buildProgram(p, desc); err != nil {
		p.Release()
		return nil, err
	}
	b.nextID++
	p.id = b.nextID
	return p, nil
}

// buildProgram creates the bind group layouts, pipeline layout, and render pipeline of p.
func (b *wgpuBackend) buildProgram(p *program, desc renderer.ProgramDescriptor) error {
	groups := refl2groups(p.refl)
	p.layouts = make([]*wgpu.BindGroupLayout, len(groups))
	for g, entries := range groups {
		layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d", desc.Key(), g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("backend: %s group %d layout: %w", desc.Key(), g, err)
		}
		p.layouts[g] = layout
	}
	if u, ok := p.refl.Lookup(0, renderer.BindingUniforms); ok && u.Kind == shader.BindingUniform {
		p.uniformSize = alignUp(u.MinSize, 16)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Key(),
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		return fmt.Errorf("backend: %s pipeline layout: %w", desc.Key(), err)
	}
	p.pipelineLayout = pipelineLayout

	buffers, err := vertexLayouts(p.refl.VertexLayouts)
	if err != nil {
		return err
	}

	var fragment *wgpu.FragmentState
	if desc.FragmentEntry() != "" {
		targets := make([]wgpu.ColorTargetState, 0, len(desc.ColorFormats()))
		for _, f := range desc.ColorFormats() {
			targets = append(targets, wgpu.ColorTargetState{
				Format:    b.textureFormat(f),
				Blend:     blendState(desc.Blend()),
				WriteMask: wgpu.ColorWriteMaskAll,
			})
		}
		fragment = &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: desc.FragmentEntry(),
			Targets:    targets,
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthFormat() != renderer.FormatUndefined {
		depthCompare := wgpu.CompareFunctionLess
		if !desc.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:              b.textureFormat(desc.DepthFormat()),
			DepthWriteEnabled:   desc.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           desc.DepthBias(),
			DepthBiasSlopeScale: desc.DepthBiasSlopeScale(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Key() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: desc.VertexEntry(),
			Buffers:    buffers,
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Topology()),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(desc.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return fmt.Errorf("backend: link %s: %w", desc.Key(), err)
	}
	p.pipeline = created
	return nil
}

// refl2groups converts reflected bindings into layout entries per group index. Groups a program does not
// declare below its highest group get an empty layout.
func refl2groups(r shader.Reflection) [][]wgpu.BindGroupLayoutEntry {
	top := r.MaxGroup()
	if top < 0 {
		return nil
	}
	groups := make([][]wgpu.BindGroupLayoutEntry, top+1)
	for _, binding := range r.Bindings {
		groups[binding.Group] = append(groups[binding.Group], layoutEntry(binding))
	}
	return groups
}

func (b *wgpuBackend) CheckTarget(colors []renderer.Texture, depth renderer.Texture) error {
	if err := renderer.ValidateTarget(colors, depth); err != nil {
		return err
	}
	for _, c := range colors {
		if _, ok := c.(*texture); !ok {
			return fmt.Errorf("%w: %q was not created by this backend", renderer.ErrIncompleteTarget, c.Label())
		}
	}
	if depth != nil {
		if _, ok := depth.(*texture); !ok {
			return fmt.Errorf("%w: %q was not created by this backend", renderer.ErrIncompleteTarget, depth.Label())
		}
	}
	return nil
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("backend: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("backend: acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("backend: surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("backend: command encoder: %w", err)
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.arenaCursor = 0
	return nil
}

func (b *wgpuBackend) BeginPass(desc renderer.PassDescriptor) (renderer.Pass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil, renderer.ErrNoFrame
	}

	var targets []renderer.Texture
	colors := make([]wgpu.RenderPassColorAttachment, 0, len(desc.Colors))
	for _, c := range desc.Colors {
		view := b.frameView
		if c.Target != nil {
			tex, ok := c.Target.(*texture)
			if !ok {
				return nil, fmt.Errorf("%w: %q was not created by this backend", renderer.ErrIncompleteTarget, c.Target.Label())
			}
			targets = append(targets, c.Target)
			view = tex.view
		}
		colors = append(colors, wgpu.RenderPassColorAttachment{
			View:    view,
			LoadOp:  loadOp(c.Load),
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: c.Clear[0], G: c.Clear[1], B: c.Clear[2], A: c.Clear[3],
			},
		})
	}
	if len(targets) > 0 || desc.Depth != nil {
		if err := renderer.ValidateTarget(targets, desc.Depth); err != nil {
			return nil, err
		}
	}

	rpd := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if desc.Depth != nil {
		dt, ok := desc.Depth.(*texture)
		if !ok {
			return nil, fmt.Errorf("%w: %q was not created by this backend", renderer.ErrIncompleteTarget, desc.Depth.Label())
		}
		rpd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            dt.view,
			DepthLoadOp:     loadOp(desc.DepthLoad),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: common.Coalesce(desc.ClearDepth, 1.0),
		}
	}

	b.openPasses++
	return &pass{
		backend:  b,
		label:    desc.Label,
		encoder:  b.frameEncoder.BeginRenderPass(rpd),
		textures: make(map[renderer.TextureUnit]*texture),
	}, nil
}

func (b *wgpuBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return renderer.ErrNoFrame
	}
	defer b.releaseFrame()

	if b.openPasses != 0 {
		return fmt.Errorf("backend: %d pass(es) not ended", b.openPasses)
	}
	if b.arenaCursor > 0 {
		b.queue.WriteBuffer(b.arena, 0, b.arenaStaging[:b.arenaCursor])
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("backend: finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()
	return nil
}

// releaseFrame drops the frame's encoder and surface image.
func (b *wgpuBackend) releaseFrame() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.openPasses = 0
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	b.dropBindGroups(0)
	if b.arena != nil {
		b.arena.Release()
		b.arena = nil
	}
	if b.linearSampler != nil {
		b.linearSampler.Release()
		b.linearSampler = nil
	}
	if b.shadowSampler != nil {
		b.shadowSampler.Release()
		b.shadowSampler = nil
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

// stageUniforms copies data into the frame's uniform arena and returns its dynamic offset.
func (b *wgpuBackend) stageUniforms(data []byte, bindingSize uint64) (uint32, error) {
	size := max(uint64(len(data)), bindingSize)
	end := b.arenaCursor + size
	if end > b.arenaSize {
		return 0, fmt.Errorf("backend: uniform arena exhausted at %d bytes", b.arenaCursor)
	}
	offset := b.arenaCursor
	n := copy(b.arenaStaging[offset:end], data)
	clear(b.arenaStaging[offset+uint64(n) : end])
	b.arenaCursor = alignUp(end, b.uniformAlign)
	return uint32(offset), nil
}

// padTo4 extends data to a multiple of four bytes as required by queue writes.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, alignUp(uint64(len(data)), 4))
	copy(out, data)
	return out
}
