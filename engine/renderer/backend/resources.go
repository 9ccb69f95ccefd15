package backend

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxTextureUnits bounds the texture units a bind group key can record.
const maxTextureUnits = 16

// bindGroupKey identifies a cached bind group by the program layout it was built for and the resources
// bound into it.
type bindGroupKey struct {
	program  uint64
	group    uint32
	textures [maxTextureUnits]uint64
	storage  uint64
}

// references reports whether the key uses the resource with the given id.
func (k bindGroupKey) references(id uint64) bool {
	if k.program == id || k.storage == id {
		return true
	}
	for _, t := range k.textures {
		if t == id {
			return true
		}
	}
	return false
}

// dropBindGroups releases cached bind groups that reference id, or all of them when id is zero.
func (b *wgpuBackend) dropBindGroups(id uint64) {
	for k, bg := range b.bindGroups {
		if id == 0 || k.references(id) {
			bg.Release()
			delete(b.bindGroups, k)
		}
	}
}

type texture struct {
	id      uint64
	backend *wgpuBackend
	desc    renderer.TextureDescriptor
	tex     *wgpu.Texture
	view    *wgpu.TextureView
}

var _ renderer.Texture = &texture{}

func (t *texture) Label() string {
	return t.desc.Label
}

func (t *texture) Size() (int, int) {
	return t.desc.Width, t.desc.Height
}

func (t *texture) Format() renderer.TextureFormat {
	return t.desc.Format
}

func (t *texture) Release() {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	t.backend.dropBindGroups(t.id)
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type buffer struct {
	id      uint64
	backend *wgpuBackend
	label   string
	size    uint64
	buf     *wgpu.Buffer
}

var _ renderer.Buffer = &buffer{}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Size() uint64 {
	return b.size
}

func (b *buffer) Release() {
	b.backend.mu.Lock()
	defer b.backend.mu.Unlock()

	b.backend.dropBindGroups(b.id)
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type program struct {
	id      uint64
	key     string
	backend *wgpuBackend
	refl    shader.Reflection

	module         *wgpu.ShaderModule
	layouts        []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.RenderPipeline

	// uniformSize is the bound size of the group 0 uniform block, zero when the program has none.
	uniformSize uint64
}

var _ renderer.Program = &program{}

func (p *program) Key() string {
	return p.key
}

func (p *program) Release() {
	if p.id != 0 {
		p.backend.mu.Lock()
		p.backend.dropBindGroups(p.id)
		p.backend.mu.Unlock()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
	p.layouts = nil
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
