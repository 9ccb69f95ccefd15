// Package renderertest provides a recording renderer.Backend for tests. It validates programs and
// attachments the way a GPU backend would and keeps every pass and draw for inspection.
package renderertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// Texture is a recorded texture.
type Texture struct {
	Desc     renderer.TextureDescriptor
	Uploads  int
	Released bool
}

func (t *Texture) Label() string                  { return t.Desc.Label }
func (t *Texture) Size() (int, int)               { return t.Desc.Width, t.Desc.Height }
func (t *Texture) Format() renderer.TextureFormat { return t.Desc.Format }
func (t *Texture) Release()                       { t.Released = true }

// Buffer is a recorded buffer holding the last written contents.
type Buffer struct {
	Desc     renderer.BufferDescriptor
	Data     []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string { return b.Desc.Label }
func (b *Buffer) Size() uint64  { return uint64(len(b.Data)) }
func (b *Buffer) Release()      { b.Released = true }

// Program is a recorded program with its reflected interface.
type Program struct {
	Desc       renderer.ProgramDescriptor
	Reflection shader.Reflection
	Released   bool
}

func (p *Program) Key() string { return p.Desc.Key() }
func (p *Program) Release()    { p.Released = true }

// Draw is one recorded draw call with the state bound at the time it was issued.
type Draw struct {
	Program       string
	Textures      map[renderer.TextureUnit]renderer.Texture
	Uniforms      []byte
	Storage       renderer.Buffer
	VertexBuffers map[uint32]renderer.Buffer
	IndexBuffer   renderer.Buffer
	Count         uint32
	Instances     uint32
	Indexed       bool
}

// Pass is one recorded render pass.
type Pass struct {
	Desc  renderer.PassDescriptor
	Frame int
	Draws []Draw
	Ended bool
	Err   error

	rec      *Recorder
	program  *Program
	textures map[renderer.TextureUnit]renderer.Texture
	uniforms []byte
	storage  renderer.Buffer
	vertex   map[uint32]renderer.Buffer
	index    renderer.Buffer
}

// Recorder implements renderer.Backend without a GPU.
type Recorder struct {
	mu *sync.Mutex

	width, height int
	frame         int
	inFrame       bool

	Textures []*Texture
	Buffers  []*Buffer
	Programs []*Program
	Passes   []*Pass

	// ProgramErrors makes CreateProgram fail for the given keys.
	ProgramErrors map[string]error

	Released bool
}

var _ renderer.Backend = &Recorder{}

// NewRecorder creates a Recorder whose surface is width x height.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		mu:            &sync.Mutex{},
		width:         width,
		height:        height,
		ProgramErrors: make(map[string]error),
	}
}

func (r *Recorder) CreateTexture(desc renderer.TextureDescriptor) (renderer.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("renderertest: texture %q has empty size", desc.Label)
	}
	t := &Texture{Desc: desc}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Recorder) WriteTexture(t renderer.Texture, data common.TextureStagingData) error {
	tex, ok := t.(*Texture)
	if !ok {
		return fmt.Errorf("renderertest: foreign texture")
	}
	if data.Width != uint32(tex.Desc.Width) || data.Height != uint32(tex.Desc.Height) {
		return fmt.Errorf("renderertest: %dx%d upload into %dx%d texture", data.Width, data.Height, tex.Desc.Width, tex.Desc.Height)
	}
	if uint32(len(data.Pixels)) < data.RowPitch()*data.Height {
		return fmt.Errorf("renderertest: short upload of %d bytes", len(data.Pixels))
	}
	tex.Uploads++
	return nil
}

func (r *Recorder) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Contents))
	}
	if size == 0 {
		return nil, fmt.Errorf("renderertest: buffer %q has zero size", desc.Label)
	}
	b := &Buffer{Desc: desc, Data: make([]byte, size)}
	copy(b.Data, desc.Contents)
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *Recorder) WriteBuffer(b renderer.Buffer, offset uint64, data []byte) {
	buf := b.(*Buffer)
	if end := offset + uint64(len(data)); end > uint64(len(buf.Data)) {
		grown := make([]byte, end)
		copy(grown, buf.Data)
		buf.Data = grown
	}
	copy(buf.Data[offset:], data)
	buf.Writes++
}

func (r *Recorder) CreateProgram(desc renderer.ProgramDescriptor) (renderer.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ProgramErrors[desc.Key()]; err != nil {
		return nil, fmt.Errorf("renderertest: compiling %s: %w", desc.Key(), err)
	}
	refl := shader.Reflect(desc.Source())
	if !hasEntry(desc.Source(), desc.VertexEntry()) {
		return nil, fmt.Errorf("renderertest: %s has no vertex entry %q", desc.Key(), desc.VertexEntry())
	}
	if desc.FragmentEntry() != "" && !hasEntry(desc.Source(), desc.FragmentEntry()) {
		return nil, fmt.Errorf("renderertest: %s has no fragment entry %q", desc.Key(), desc.FragmentEntry())
	}
	p := &Program{Desc: desc, Reflection: refl}
	r.Programs = append(r.Programs, p)
	return p, nil
}

func (r *Recorder) CheckTarget(colors []renderer.Texture, depth renderer.Texture) error {
	return renderer.ValidateTarget(colors, depth)
}

func (r *Recorder) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFrame {
		return fmt.Errorf("renderertest: frame already in progress")
	}
	r.inFrame = true
	r.frame++
	return nil
}

func (r *Recorder) BeginPass(desc renderer.PassDescriptor) (renderer.Pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return nil, renderer.ErrNoFrame
	}
	var colors []renderer.Texture
	for _, c := range desc.Colors {
		if c.Target != nil {
			colors = append(colors, c.Target)
		}
	}
	if len(colors) > 0 || desc.Depth != nil {
		if err := renderer.ValidateTarget(colors, desc.Depth); err != nil {
			return nil, err
		}
	}
	p := &Pass{
		Desc:     desc,
		Frame:    r.frame,
		rec:      r,
		textures: make(map[renderer.TextureUnit]renderer.Texture),
		vertex:   make(map[uint32]renderer.Buffer),
	}
	r.Passes = append(r.Passes, p)
	return p, nil
}

func (r *Recorder) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return renderer.ErrNoFrame
	}
	r.inFrame = false
	for _, p := range r.Passes {
		if p.Frame == r.frame && !p.Ended {
			return fmt.Errorf("renderertest: pass %q not ended", p.Desc.Label)
		}
	}
	return nil
}

func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
}

func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *Recorder) Release() {
	r.Released = true
}

// Frames returns the number of frames begun.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// FramePasses returns the passes recorded during frame n, starting at 1.
func (r *Recorder) FramePasses(n int) []*Pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Pass
	for _, p := range r.Passes {
		if p.Frame == n {
			out = append(out, p)
		}
	}
	return out
}

// PassLabels returns the labels of the passes recorded during frame n.
func (r *Recorder) PassLabels(n int) []string {
	var out []string
	for _, p := range r.FramePasses(n) {
		out = append(out, p.Desc.Label)
	}
	return out
}

// ProgramKeys returns the keys of every program created, in creation order.
func (r *Recorder) ProgramKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Programs))
	for _, p := range r.Programs {
		out = append(out, p.Key())
	}
	return out
}

func (p *Pass) SetProgram(prog renderer.Program) {
	rp, ok := prog.(*Program)
	if !ok {
		p.fail(fmt.Errorf("renderertest: foreign program"))
		return
	}
	p.program = rp
}

func (p *Pass) BindTexture(unit renderer.TextureUnit, t renderer.Texture) {
	for _, c := range p.Desc.Colors {
		if c.Target != nil && c.Target == t {
			p.fail(fmt.Errorf("renderertest: %q bound to unit %d while it is an attachment of %q", t.Label(), unit, p.Desc.Label))
			return
		}
	}
	p.textures[unit] = t
}

func (p *Pass) SetUniforms(data []byte) {
	p.uniforms = append([]byte(nil), data...)
}

func (p *Pass) BindStorage(b renderer.Buffer) {
	p.storage = b
}

func (p *Pass) SetVertexBuffer(slot uint32, b renderer.Buffer) {
	p.vertex[slot] = b
}

func (p *Pass) SetIndexBuffer(b renderer.Buffer) {
	p.index = b
}

func (p *Pass) Draw(vertexCount, instanceCount uint32) {
	p.record(vertexCount, instanceCount, false)
}

func (p *Pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.record(indexCount, instanceCount, true)
}

func (p *Pass) End() error {
	p.Ended = true
	return p.Err
}

// DrawsOf returns the draws issued with the program key.
func (p *Pass) DrawsOf(key string) []Draw {
	var out []Draw
	for _, d := range p.Draws {
		if d.Program == key {
			out = append(out, d)
		}
	}
	return out
}

// record validates the bound state against the program's reflection and appends a Draw.
func (p *Pass) record(count, instances uint32, indexed bool) {
	if p.program == nil {
		p.fail(fmt.Errorf("renderertest: draw without program in %q", p.Desc.Label))
		return
	}
	refl := p.program.Reflection
	for _, b := range refl.Group(renderer.TextureGroup) {
		if b.Kind != shader.BindingTexture && b.Kind != shader.BindingDepthTexture {
			continue
		}
		t, ok := p.textures[renderer.TextureUnit(b.Binding)]
		if !ok {
			p.fail(fmt.Errorf("renderertest: %s draws with texture unit %d (%s) unbound", p.program.Key(), b.Binding, b.Name))
			return
		}
		if (b.Kind == shader.BindingDepthTexture) != t.Format().IsDepth() {
			p.fail(fmt.Errorf("renderertest: %s unit %d (%s) bound to %q of format %s", p.program.Key(), b.Binding, b.Name, t.Label(), t.Format()))
			return
		}
	}
	if u, ok := refl.Lookup(0, renderer.BindingUniforms); ok && uint64(len(p.uniforms)) < u.MinSize {
		p.fail(fmt.Errorf("renderertest: %s uniforms are %d bytes, need %d", p.program.Key(), len(p.uniforms), u.MinSize))
		return
	}
	if _, ok := refl.Lookup(0, renderer.BindingStorage); ok && p.storage == nil {
		p.fail(fmt.Errorf("renderertest: %s draws without its storage buffer", p.program.Key()))
		return
	}
	if len(refl.VertexLayouts) > len(p.vertex) {
		p.fail(fmt.Errorf("renderertest: %s needs %d vertex buffers, %d bound", p.program.Key(), len(refl.VertexLayouts), len(p.vertex)))
		return
	}
	if indexed && p.index == nil {
		p.fail(fmt.Errorf("renderertest: %s indexed draw without index buffer", p.program.Key()))
		return
	}

	d := Draw{
		Program:       p.program.Key(),
		Textures:      make(map[renderer.TextureUnit]renderer.Texture, len(p.textures)),
		Uniforms:      p.uniforms,
		Storage:       p.storage,
		VertexBuffers: make(map[uint32]renderer.Buffer, len(p.vertex)),
		IndexBuffer:   p.index,
		Count:         count,
		Instances:     instances,
		Indexed:       indexed,
	}
	for k, v := range p.textures {
		d.Textures[k] = v
	}
	for k, v := range p.vertex {
		d.VertexBuffers[k] = v
	}
	p.Draws = append(p.Draws, d)
}

func (p *Pass) fail(err error) {
	if p.Err == nil {
		p.Err = err
	}
}

// hasEntry reports whether source declares fn name.
func hasEntry(source, name string) bool {
	return name != "" && strings.Contains(source, "fn "+name+"(")
}
