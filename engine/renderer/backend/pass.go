package backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pass records into one wgpu render pass. Bind groups are assembled lazily at each draw from the bound
// textures, the storage buffer, and the frame's uniform arena.
type pass struct {
	backend *wgpuBackend
	label   string
	encoder *wgpu.RenderPassEncoder
	err     error
	ended   bool

	program  *program
	textures map[renderer.TextureUnit]*texture
	storage  *buffer
	uniforms []byte
}

var _ renderer.Pass = &pass{}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = fmt.Errorf("backend: pass %q: %w", p.label, err)
	}
}

func (p *pass) SetProgram(prog renderer.Program) {
	wp, ok := prog.(*program)
	if !ok || wp.pipeline == nil {
		p.fail(fmt.Errorf("program %q was not created by this backend", prog.Key()))
		return
	}
	p.program = wp
	p.encoder.SetPipeline(wp.pipeline)
}

func (p *pass) BindTexture(unit renderer.TextureUnit, t renderer.Texture) {
	wt, ok := t.(*texture)
	if !ok || wt.view == nil {
		p.fail(fmt.Errorf("texture %q was not created by this backend", t.Label()))
		return
	}
	if int(unit) >= maxTextureUnits {
		p.fail(fmt.Errorf("texture unit %d out of range", unit))
		return
	}
	p.textures[unit] = wt
}

func (p *pass) SetUniforms(data []byte) {
	p.uniforms = data
}

func (p *pass) BindStorage(b renderer.Buffer) {
	wb, ok := b.(*buffer)
	if !ok || wb.buf == nil {
		p.fail(fmt.Errorf("buffer %q was not created by this backend", b.Label()))
		return
	}
	p.storage = wb
}

func (p *pass) SetVertexBuffer(slot uint32, b renderer.Buffer) {
	wb, ok := b.(*buffer)
	if !ok || wb.buf == nil {
		p.fail(fmt.Errorf("buffer %q was not created by this backend", b.Label()))
		return
	}
	p.encoder.SetVertexBuffer(slot, wb.buf, 0, wgpu.WholeSize)
}

func (p *pass) SetIndexBuffer(b renderer.Buffer) {
	wb, ok := b.(*buffer)
	if !ok || wb.buf == nil {
		p.fail(fmt.Errorf("buffer %q was not created by this backend", b.Label()))
		return
	}
	p.encoder.SetIndexBuffer(wb.buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *pass) Draw(vertexCount, instanceCount uint32) {
	if !p.bind() {
		return
	}
	p.encoder.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *pass) DrawIndexed(indexCount, instanceCount uint32) {
	if !p.bind() {
		return
	}
	p.encoder.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *pass) End() error {
	if p.ended {
		return p.err
	}
	p.ended = true
	p.encoder.End()
	p.encoder.Release()

	p.backend.mu.Lock()
	p.backend.openPasses--
	p.backend.mu.Unlock()
	return p.err
}

// bind stages the uniform block and sets every bind group the current program declares.
func (p *pass) bind() bool {
	if p.err != nil {
		return false
	}
	if p.program == nil {
		p.fail(fmt.Errorf("draw without a program"))
		return false
	}

	b := p.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	prog := p.program
	var offsets []uint32
	if prog.uniformSize > 0 {
		u, _ := prog.refl.Lookup(0, renderer.BindingUniforms)
		if uint64(len(p.uniforms)) < u.MinSize {
			p.fail(fmt.Errorf("%s uniforms are %d bytes, need %d", prog.key, len(p.uniforms), u.MinSize))
			return false
		}
		off, err := b.stageUniforms(p.uniforms, prog.uniformSize)
		if err != nil {
			p.fail(err)
			return false
		}
		offsets = []uint32{off}
	}

	for g, layout := range prog.layouts {
		bg, err := p.bindGroup(uint32(g), layout)
		if err != nil {
			p.fail(err)
			return false
		}
		if g == 0 {
			p.encoder.SetBindGroup(0, bg, offsets)
		} else {
			p.encoder.SetBindGroup(uint32(g), bg, nil)
		}
	}
	return true
}

// bindGroup returns the cached bind group for group g of the current program and bound resources,
// creating it on first use.
func (p *pass) bindGroup(g uint32, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, error) {
	b := p.backend
	prog := p.program
	key := bindGroupKey{program: prog.id, group: g}

	bindings := prog.refl.Group(g)
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	for _, binding := range bindings {
		entry := wgpu.BindGroupEntry{Binding: binding.Binding}
		switch binding.Kind {
		case shader.BindingUniform:
			if g != 0 || binding.Binding != renderer.BindingUniforms {
				return nil, fmt.Errorf("%s declares uniform %s outside @group(0) @binding(0)", prog.key, binding.Name)
			}
			entry.Buffer = b.arena
			entry.Size = prog.uniformSize
		case shader.BindingSampler:
			entry.Sampler = b.linearSampler
		case shader.BindingComparisonSampler:
			entry.Sampler = b.shadowSampler
		case shader.BindingStorage, shader.BindingStorageReadWrite:
			if p.storage == nil {
				return nil, fmt.Errorf("%s draws without its storage buffer %s", prog.key, binding.Name)
			}
			key.storage = p.storage.id
			entry.Buffer = p.storage.buf
			entry.Size = wgpu.WholeSize
		case shader.BindingTexture, shader.BindingDepthTexture:
			if binding.Binding >= maxTextureUnits {
				return nil, fmt.Errorf("%s binds %s past the last texture unit", prog.key, binding.Name)
			}
			t, ok := p.textures[renderer.TextureUnit(binding.Binding)]
			if !ok {
				return nil, fmt.Errorf("%s draws with texture unit %d (%s) unbound", prog.key, binding.Binding, binding.Name)
			}
			key.textures[binding.Binding] = t.id
			entry.TextureView = t.view
		default:
			return nil, fmt.Errorf("%s declares unsupported binding %s", prog.key, binding.Name)
		}
		entries = append(entries, entry)
	}

	if bg, ok := b.bindGroups[key]; ok {
		return bg, nil
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s Group %d", prog.key, g),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("%s group %d: %w", prog.key, g, err)
	}
	b.bindGroups[key] = bg
	return bg, nil
}
