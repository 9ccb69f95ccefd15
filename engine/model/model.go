// Package model holds the mesh, skin, and animation descriptors handed to the engine by an asset loader,
// and the GPU-ready Model built from them.
package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

var (
	// ErrInvalidSkin is returned for a joint hierarchy that is empty, has more than one root, or stores a
	// child before its parent.
	ErrInvalidSkin = errors.New("model: invalid skin")

	// ErrIncompleteClip is returned for a clip that does not animate every joint's rotation, translation, and
	// scale exactly once, or whose samples do not match its time axis.
	ErrIncompleteClip = errors.New("model: incomplete clip")

	// ErrInvalidPrimitive is returned for a primitive without vertices or with vertices of both kinds.
	ErrInvalidPrimitive = errors.New("model: invalid primitive")
)

// Validate checks the hierarchy invariants of the skin.
//
// Returns:
//   - error: ErrInvalidSkin wrapped with the offending joint
func (s *Skin) Validate() error {
	if len(s.Joints) == 0 {
		return fmt.Errorf("%w: no joints", ErrInvalidSkin)
	}
	roots := 0
	for i, j := range s.Joints {
		switch {
		case j.Parent < 0:
			roots++
			if roots > 1 {
				return fmt.Errorf("%w: joint %d (%s) is a second root", ErrInvalidSkin, i, j.Name)
			}
		case j.Parent >= i:
			return fmt.Errorf("%w: joint %d (%s) precedes its parent %d", ErrInvalidSkin, i, j.Name, j.Parent)
		}
	}
	return nil
}

// Validate checks that the clip animates every joint of skin exactly once per property and that each
// channel has one sample per keyframe time.
//
// Parameters:
//   - skin: the skin the clip targets
//
// Returns:
//   - error: ErrIncompleteClip wrapped with the first problem found
func (c *Clip) Validate(skin *Skin) error {
	if len(c.Times) == 0 {
		return fmt.Errorf("%w: %s has no keyframes", ErrIncompleteClip, c.Name)
	}
	for i := 1; i < len(c.Times); i++ {
		if c.Times[i] <= c.Times[i-1] {
			return fmt.Errorf("%w: %s keyframe times are not increasing at %d", ErrIncompleteClip, c.Name, i)
		}
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: %s has duration %v", ErrIncompleteClip, c.Name, c.Duration)
	}

	// one bit per property, cleared as channels claim them
	coverage := make([]uint8, len(skin.Joints))
	for i := range coverage {
		coverage[i] = 0b111
	}
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Joint < 0 || ch.Joint >= len(skin.Joints) {
			return fmt.Errorf("%w: %s channel %d targets missing joint %d", ErrIncompleteClip, c.Name, i, ch.Joint)
		}
		if ch.Property < PropertyRotation || ch.Property > PropertyScale {
			return fmt.Errorf("%w: %s channel %d has unknown property %d", ErrIncompleteClip, c.Name, i, ch.Property)
		}
		if ch.Len() != len(c.Times) {
			return fmt.Errorf("%w: %s channel %d has %d samples for %d keyframes", ErrIncompleteClip, c.Name, i, ch.Len(), len(c.Times))
		}
		bit := uint8(1) << ch.Property
		if coverage[ch.Joint]&bit == 0 {
			return fmt.Errorf("%w: %s animates %s of joint %d twice", ErrIncompleteClip, c.Name, ch.Property, ch.Joint)
		}
		coverage[ch.Joint] &^= bit
	}
	for j, rest := range coverage {
		if rest != 0 {
			return fmt.Errorf("%w: %s leaves joint %d (%s) partially unanimated", ErrIncompleteClip, c.Name, j, skin.Joints[j].Name)
		}
	}
	return nil
}

// Validate checks every primitive, the skin, and every clip.
//
// Returns:
//   - error: the first descriptor error found
func (m *Mesh) Validate() error {
	for i := range m.Primitives {
		p := &m.Primitives[i]
		if (len(p.Vertices) == 0) == (len(p.SkinnedVertices) == 0) {
			return fmt.Errorf("%w: %s primitive %d needs exactly one vertex kind", ErrInvalidPrimitive, m.Name, i)
		}
		if p.Skinned() && m.Skin == nil {
			return fmt.Errorf("%w: %s primitive %d is skinned but the mesh has no skin", ErrInvalidPrimitive, m.Name, i)
		}
	}
	if m.Skin == nil {
		if len(m.Clips) > 0 {
			return fmt.Errorf("%w: %s has clips but no skin", ErrIncompleteClip, m.Name)
		}
		return nil
	}
	if err := m.Skin.Validate(); err != nil {
		return err
	}
	for _, c := range m.Clips {
		if err := c.Validate(m.Skin); err != nil {
			return err
		}
	}
	return nil
}

// GPUPrimitive is a primitive whose buffers live on the GPU.
type GPUPrimitive struct {
	Name         string
	VertexBuffer renderer.Buffer
	IndexBuffer  renderer.Buffer
	VertexCount  uint32
	IndexCount   uint32
	Instances    uint32
	Skinned      bool
	Program      string
	Material     Material
}

// model is the implementation of the Model interface.
type model struct {
	name       string
	skin       *Skin
	clips      []*Clip
	primitives []GPUPrimitive
}

// Model is a validated mesh whose primitives have been uploaded to the GPU.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skinned reports whether the model has a skin.
	//
	// Returns:
	//   - bool: true if the model has a joint hierarchy
	Skinned() bool

	// Skin retrieves the joint hierarchy, or nil for static models.
	//
	// Returns:
	//   - *Skin: the skin or nil
	Skin() *Skin

	// Clips retrieves the animation clips bundled with the model.
	//
	// Returns:
	//   - []*Clip: the clips
	Clips() []*Clip

	// ClipIndex returns the index of the clip called name, or -1 if not found.
	//
	// Parameters:
	//   - name: the clip name to search for
	//
	// Returns:
	//   - int: the clip index, or -1 if not found
	ClipIndex(name string) int

	// Primitives returns the uploaded primitives in descriptor order.
	//
	// Returns:
	//   - []GPUPrimitive: the primitives
	Primitives() []GPUPrimitive

	// Release frees every GPU buffer of the model.
	Release()
}

var _ Model = &model{}

// NewModel validates mesh and uploads its primitives through backend.
//
// Parameters:
//   - backend: the GPU backend that creates the buffers
//   - mesh: the mesh descriptor
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the GPU-ready model
//   - error: a descriptor validation error or a buffer allocation error
func NewModel(backend renderer.Backend, mesh *Mesh, options ...ModelBuilderOption) (Model, error) {
	if backend == nil || mesh == nil {
		panic("model: backend and mesh are required")
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	m := &model{
		name:  mesh.Name,
		skin:  mesh.Skin,
		clips: mesh.Clips,
	}
	for _, opt := range options {
		opt(m)
	}

	for i := range mesh.Primitives {
		gp, err := upload(backend, m.name, i, &mesh.Primitives[i])
		if err != nil {
			m.Release()
			return nil, err
		}
		m.primitives = append(m.primitives, gp)
	}
	return m, nil
}

func upload(backend renderer.Backend, modelName string, index int, p *Primitive) (GPUPrimitive, error) {
	label := fmt.Sprintf("%s/%s", modelName, p.Name)
	if p.Name == "" {
		label = fmt.Sprintf("%s/%d", modelName, index)
	}
	gp := GPUPrimitive{
		Name:      label,
		Instances: max(p.Instances, 1),
		Skinned:   p.Skinned(),
		Program:   p.Program,
		Material:  p.Material,
	}

	var data []byte
	if gp.Skinned {
		data = MarshalSkinnedVertices(p.SkinnedVertices)
		gp.VertexCount = uint32(len(p.SkinnedVertices))
	} else {
		data = MarshalVertices(p.Vertices)
		gp.VertexCount = uint32(len(p.Vertices))
	}
	vb, err := backend.CreateBuffer(renderer.BufferDescriptor{
		Label:    label + " Vertices",
		Usage:    renderer.BufferUsageVertex,
		Contents: data,
	})
	if err != nil {
		return gp, fmt.Errorf("model: %s vertices: %w", label, err)
	}
	gp.VertexBuffer = vb

	if len(p.Indices) > 0 {
		ib, err := backend.CreateBuffer(renderer.BufferDescriptor{
			Label:    label + " Indices",
			Usage:    renderer.BufferUsageIndex,
			Contents: MarshalIndices(p.Indices),
		})
		if err != nil {
			vb.Release()
			return gp, fmt.Errorf("model: %s indices: %w", label, err)
		}
		gp.IndexBuffer = ib
		gp.IndexCount = uint32(len(p.Indices))
	}
	return gp, nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skinned() bool {
	return m.skin != nil
}

func (m *model) Skin() *Skin {
	return m.skin
}

func (m *model) Clips() []*Clip {
	return m.clips
}

func (m *model) ClipIndex(name string) int {
	for i, c := range m.clips {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Primitives() []GPUPrimitive {
	return m.primitives
}

func (m *model) Release() {
	for _, p := range m.primitives {
		if p.VertexBuffer != nil {
			p.VertexBuffer.Release()
		}
		if p.IndexBuffer != nil {
			p.IndexBuffer.Release()
		}
	}
	m.primitives = nil
}
