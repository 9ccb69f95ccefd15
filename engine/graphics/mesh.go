package graphics

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/animator"
)

// MeshComponentType is the component tag of Mesh.
const MeshComponentType game_object.ComponentType = "mesh"

// Mesh draws a model at its object's transform. It registers with the Graphics manager on Init and
// unregisters on Destroy. Skinned primitives read their joint matrices from the Animator on the same
// object.
type Mesh struct {
	game_object.BaseComponent

	graphics Graphics
	model    model.Model

	castShadows bool
	material    *model.Material

	uniforms       []byte
	missingJoints  bool
	failedPrograms map[string]bool
	report         common.Reporter
}

var (
	_ game_object.Component = &Mesh{}
	_ game_object.Initer    = &Mesh{}
	_ game_object.Destroyer = &Mesh{}
	_ renderer.Renderable   = &Mesh{}
)

// NewMesh creates a mesh component and installs it on obj.
//
// Parameters:
//   - obj: the owning object
//   - g: the graphics manager the mesh registers with
//   - m: the uploaded model
//   - options: functional options such as WithShadowCasting
//
// Returns:
//   - *Mesh: the component
func NewMesh(obj game_object.GameObject, g Graphics, m model.Model, options ...MeshBuilderOption) *Mesh {
	if obj == nil || g == nil || m == nil {
		panic("graphics: mesh requires an object, a graphics manager, and a model")
	}
	mesh := &Mesh{
		BaseComponent:  game_object.NewBaseComponent(obj),
		graphics:       g,
		model:          m,
		castShadows:    true,
		failedPrograms: make(map[string]bool),
		report:         g.Reporter(),
	}
	for _, opt := range options {
		opt(mesh)
	}
	obj.AddComponent(mesh)
	return mesh
}

func (m *Mesh) ComponentType() game_object.ComponentType {
	return MeshComponentType
}

// Model returns the drawn model.
func (m *Mesh) Model() model.Model {
	return m.model
}

func (m *Mesh) Init() {
	m.graphics.Add(m)
}

func (m *Mesh) Destroy() {
	m.graphics.Remove(m)
}

// Draw records one draw per primitive. During the shadow stage nothing is drawn unless the mesh casts
// shadows.
func (m *Mesh) Draw(pass renderer.Pass, ctx renderer.DrawContext) {
	t := m.Object().Transform()
	if t == nil {
		return
	}
	if ctx.Stage == renderer.StageShadow && !m.castShadows {
		return
	}
	modelMatrix := t.Matrix()
	viewProj := ctx.ViewProjection()

	var joints renderer.Buffer
	if m.model.Skinned() {
		joints = m.jointBuffer()
	}

	for _, p := range m.model.Primitives() {
		if p.Skinned && joints == nil {
			continue
		}
		prog, err := m.graphics.Program(ctx.Stage, p.Program, p.Skinned)
		if err != nil {
			if !m.failedPrograms[p.Program] {
				m.failedPrograms[p.Program] = true
				m.report.Report("graphics: mesh %s primitive %s: %v", m.model.Name(), p.Name, err)
			}
			continue
		}

		switch ctx.Stage {
		case renderer.StageShadow:
			u := GPUShadowUniform{Model: modelMatrix, LightViewProj: viewProj}
			m.uniforms = u.Marshal(m.uniforms)
		default:
			mat := p.Material
			if m.material != nil {
				mat = *m.material
			}
			u := GPUGeometryUniform{Model: modelMatrix, ViewProj: viewProj, Material: mat}
			m.uniforms = u.Marshal(m.uniforms)
		}

		pass.SetProgram(prog)
		pass.SetUniforms(m.uniforms)
		if p.Skinned {
			pass.BindStorage(joints)
		}
		pass.SetVertexBuffer(0, p.VertexBuffer)
		if p.IndexBuffer != nil {
			pass.SetIndexBuffer(p.IndexBuffer)
			pass.DrawIndexed(p.IndexCount, p.Instances)
		} else {
			pass.Draw(p.VertexCount, p.Instances)
		}
	}
}

// jointBuffer returns the skinning matrices of the object's Animator, reporting once when there is none.
func (m *Mesh) jointBuffer() renderer.Buffer {
	if c, ok := m.Object().Component(animator.AnimatorComponentType); ok {
		if a, ok := c.(*animator.Animator); ok && a.JointBuffer() != nil {
			return a.JointBuffer()
		}
	}
	if !m.missingJoints {
		m.missingJoints = true
		m.report.Report("graphics: skinned mesh %s on object %d has no animator", m.model.Name(), m.Object().ID())
	}
	return nil
}
