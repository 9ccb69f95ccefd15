package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// DefaultShadowMapSize is the default width and height in texels of every pooled shadow map.
const DefaultShadowMapSize = 1024

// Spot lights render their shadow map through a square perspective frustum whose near plane is fixed and
// whose far plane is the light's radius.
const SpotShadowNear float32 = 0.01

// Directional lights render their shadow map through a fixed orthographic box in the light's space.
const (
	DirectionalShadowHalfExtent float32 = 5
	DirectionalShadowNear       float32 = 0.01
	DirectionalShadowFar        float32 = 30
)

// ShadowMap is a depth-only render target borrowed from a ShadowMapPool.
type ShadowMap interface {
	// ID returns the map's index in its pool.
	ID() int

	// Texture returns the depth texture, rendered by the shadow pass and sampled by shadowed lights.
	Texture() renderer.Texture

	// Size returns the width and height in texels.
	Size() int

	// InUse reports whether a light currently holds the map.
	InUse() bool
}

type shadowMap struct {
	id    int
	tex   renderer.Texture
	size  int
	inUse bool
}

var _ ShadowMap = &shadowMap{}

func (s *shadowMap) ID() int                   { return s.id }
func (s *shadowMap) Texture() renderer.Texture { return s.tex }
func (s *shadowMap) Size() int                 { return s.size }
func (s *shadowMap) InUse() bool               { return s.inUse }

// shadowMapPool is the implementation of the ShadowMapPool interface.
type shadowMapPool struct {
	backend renderer.Backend
	size    int
	maps    []*shadowMap
	free    []*shadowMap
	report  common.Reporter
}

// ShadowMapPool creates shadow maps lazily and recycles them between lights. Maps are never released
// by the pool; their textures live as long as the backend.
type ShadowMapPool interface {
	// Get borrows a free map, creating one when every existing map is in use.
	//
	// Returns:
	//   - ShadowMap: the borrowed map, marked in use
	//   - error: an error if a new depth target could not be created or is incomplete
	Get() (ShadowMap, error)

	// Free returns a map to the pool. Freeing a map that is not in use, or one from another pool, is
	// reported and ignored.
	//
	// Parameters:
	//   - sm: the map to return
	Free(sm ShadowMap)

	// Len returns the number of maps created so far.
	Len() int

	// InUse returns the number of maps currently borrowed.
	InUse() int
}

var _ ShadowMapPool = &shadowMapPool{}

// NewShadowMapPool creates an empty pool whose maps are size x size Depth32Float targets.
//
// Parameters:
//   - backend: the backend that allocates the depth textures
//   - size: the map resolution, DefaultShadowMapSize when zero or negative
//   - report: where misuse is reported, log.Printf when nil
//
// Returns:
//   - ShadowMapPool: the pool
func NewShadowMapPool(backend renderer.Backend, size int, report common.Reporter) ShadowMapPool {
	if backend == nil {
		panic("light: shadow map pool requires a backend")
	}
	if size <= 0 {
		size = DefaultShadowMapSize
	}
	return &shadowMapPool{backend: backend, size: size, report: report}
}

func (p *shadowMapPool) Get() (ShadowMap, error) {
	if len(p.free) == 0 {
		sm, err := p.create()
		if err != nil {
			return nil, err
		}
		p.maps = append(p.maps, sm)
		p.free = append(p.free, sm)
	}
	sm := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	sm.inUse = true
	return sm, nil
}

func (p *shadowMapPool) Free(m ShadowMap) {
	sm, ok := m.(*shadowMap)
	if !ok || sm.id >= len(p.maps) || p.maps[sm.id] != sm {
		p.report.Report("light: freeing a shadow map that does not belong to this pool")
		return
	}
	if !sm.inUse {
		p.report.Report("light: shadow map %d freed while not in use", sm.id)
		return
	}
	sm.inUse = false
	p.free = append(p.free, sm)
}

func (p *shadowMapPool) Len() int {
	return len(p.maps)
}

func (p *shadowMapPool) InUse() int {
	return len(p.maps) - len(p.free)
}

func (p *shadowMapPool) create() (*shadowMap, error) {
	id := len(p.maps)
	tex, err := p.backend.CreateTexture(renderer.TextureDescriptor{
		Label:  fmt.Sprintf("Shadow Map %d", id),
		Width:  p.size,
		Height: p.size,
		Format: renderer.FormatDepth32Float,
		Usage:  renderer.TextureUsageRenderTarget | renderer.TextureUsageSampled,
	})
	if err != nil {
		return nil, fmt.Errorf("light: creating shadow map %d: %w", id, err)
	}
	if err := p.backend.CheckTarget(nil, tex); err != nil {
		tex.Release()
		return nil, fmt.Errorf("light: shadow map %d: %w", id, err)
	}
	return &shadowMap{id: id, tex: tex, size: p.size}, nil
}
