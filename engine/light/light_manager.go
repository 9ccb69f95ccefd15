package light

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// minInstanceCapacity is the smallest number of records the instanced point light buffer holds.
const minInstanceCapacity = 16

// lightManager is the implementation of the LightManager interface.
type lightManager struct {
	backend renderer.Backend
	pool    ShadowMapPool
	report  common.Reporter

	shadowMapSize int

	lights  []Light
	casters []ShadowCaster

	instances renderer.Buffer
	records   []GPUPointLight
	staging   []byte
}

// LightManager tracks the registered lights in registration order, lends shadow maps to shadow-casting
// lights, and draws every light into the light accumulation pass.
//
// The LightManager is driven from the frame loop and is not safe for concurrent use.
type LightManager interface {
	// Add registers a light. A ShadowCaster that casts shadows borrows a shadow map from the pool; if
	// none can be created the failure is reported and the light renders unshadowed. Adding a light
	// twice is reported and ignored.
	//
	// Parameters:
	//   - l: the light to register
	Add(l Light)

	// Remove unregisters a light and returns its shadow map to the pool. Removing a light that was never
	// added is reported and ignored.
	//
	// Parameters:
	//   - l: the light to unregister
	Remove(l Light)

	// Lights returns the registered lights in registration order.
	//
	// Returns:
	//   - []Light: the lights
	Lights() []Light

	// ShadowCasters returns the lights currently holding a shadow map, in the order they borrowed it.
	//
	// Returns:
	//   - []ShadowCaster: the lights the shadow pass renders for
	ShadowCasters() []ShadowCaster

	// Pool returns the shadow map pool.
	//
	// Returns:
	//   - ShadowMapPool: the pool
	Pool() ShadowMapPool

	// Draw records every light into the light accumulation pass in registration order. Instanced point
	// lights are skipped in that walk and drawn afterwards in one instanced draw.
	//
	// Parameters:
	//   - pass: the light accumulation pass
	//   - ctx: the camera position and light programs
	//
	// Returns:
	//   - error: an error if the instance buffer could not be grown
	Draw(pass renderer.Pass, ctx RenderContext) error

	// Reset forgets every light and returns every borrowed shadow map to the pool.
	Reset()

	// Release frees the instanced point light buffer.
	Release()
}

var _ LightManager = &lightManager{}

// NewLightManager creates an empty LightManager.
//
// Parameters:
//   - backend: the backend that allocates shadow maps and the instance buffer
//   - options: functional options such as WithShadowMapSize and WithReporter
//
// Returns:
//   - LightManager: the manager
func NewLightManager(backend renderer.Backend, options ...LightManagerBuilderOption) LightManager {
	if backend == nil {
		panic("light: light manager requires a backend")
	}
	m := &lightManager{
		backend:       backend,
		shadowMapSize: DefaultShadowMapSize,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.pool == nil {
		m.pool = NewShadowMapPool(backend, m.shadowMapSize, m.report)
	}
	return m
}

func (m *lightManager) Add(l Light) {
	if slices.Contains(m.lights, l) {
		m.report.Report("light: %s light on object %d added twice", l.Kind(), l.Object().ID())
		return
	}
	m.lights = append(m.lights, l)

	c, ok := l.(ShadowCaster)
	if !ok || !c.CastsShadows() {
		return
	}
	sm, err := m.pool.Get()
	if err != nil {
		m.report.Report("light: %s light on object %d renders unshadowed: %v", l.Kind(), l.Object().ID(), err)
		return
	}
	c.attach(sm)
	m.casters = append(m.casters, c)
}

func (m *lightManager) Remove(l Light) {
	i := slices.Index(m.lights, l)
	if i < 0 {
		m.report.Report("light: removing a %s light on object %d that was never added", l.Kind(), l.Object().ID())
		return
	}
	m.lights = slices.Delete(m.lights, i, i+1)

	c, ok := l.(ShadowCaster)
	if !ok || c.ShadowMap() == nil {
		return
	}
	m.pool.Free(c.ShadowMap())
	c.attach(nil)
	j := slices.Index(m.casters, c)
	if j < 0 {
		m.report.Report("light: %s light on object %d held a shadow map without an association", l.Kind(), l.Object().ID())
		return
	}
	m.casters = slices.Delete(m.casters, j, j+1)
}

func (m *lightManager) Lights() []Light {
	return m.lights
}

func (m *lightManager) ShadowCasters() []ShadowCaster {
	return m.casters
}

func (m *lightManager) Pool() ShadowMapPool {
	return m.pool
}

func (m *lightManager) Draw(pass renderer.Pass, ctx RenderContext) error {
	m.records = m.records[:0]
	for _, l := range m.lights {
		if p, ok := l.(*PointLight); ok && p.Instanced() {
			m.records = append(m.records, p.Record())
			continue
		}
		l.Draw(pass, ctx)
	}
	if len(m.records) == 0 {
		return nil
	}

	m.staging = MarshalPointLights(m.staging, m.records)
	if err := m.reserveInstances(len(m.records)); err != nil {
		return err
	}
	m.backend.WriteBuffer(m.instances, 0, m.staging)

	u := GPUPointLightUniform{Camera: ctx.Camera}
	pass.SetProgram(ctx.Programs.PointInstanced)
	pass.BindStorage(m.instances)
	pass.SetUniforms(u.Marshal())
	pass.Draw(4, uint32(len(m.records)))
	return nil
}

// reserveInstances grows the instance buffer by doubling until it holds n records.
func (m *lightManager) reserveInstances(n int) error {
	need := uint64(n * PointLightRecordSize)
	if m.instances != nil && m.instances.Size() >= need {
		return nil
	}
	capacity := minInstanceCapacity
	for capacity < n {
		capacity *= 2
	}
	buf, err := m.backend.CreateBuffer(renderer.BufferDescriptor{
		Label: "Point Light Instances",
		Usage: renderer.BufferUsageStorage,
		Size:  uint64(capacity * PointLightRecordSize),
	})
	if err != nil {
		return fmt.Errorf("light: growing instance buffer to %d lights: %w", capacity, err)
	}
	if m.instances != nil {
		m.instances.Release()
	}
	m.instances = buf
	return nil
}

func (m *lightManager) Reset() {
	for _, c := range m.casters {
		m.pool.Free(c.ShadowMap())
		c.attach(nil)
	}
	m.casters = nil
	m.lights = nil
}

func (m *lightManager) Release() {
	if m.instances != nil {
		m.instances.Release()
		m.instances = nil
	}
}
