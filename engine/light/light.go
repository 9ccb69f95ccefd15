// Package light implements the light components of the deferred pipeline, the manager that accumulates
// them into the light buffer, and the pool of shadow maps borrowed by shadow-casting lights.
package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Kind identifies the kind of light source.
type Kind int

const (
	// KindPoint emits in all directions from the owning object's position, attenuating to zero at its radius.
	KindPoint Kind = iota

	// KindSpot emits in a cone along the owning object's forward vector.
	KindSpot

	// KindDirectional has no position, only the owning object's forward vector. Used for distant sources
	// like the sun.
	KindDirectional

	// KindAmbient lights every covered pixel uniformly, scaled by ambient occlusion.
	KindAmbient
)

// String returns the readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindSpot:
		return "spot"
	case KindDirectional:
		return "directional"
	case KindAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// Programs holds the compiled light programs. Every program renders a full-screen strip additively into the
// light buffer and reads the G-buffer from its reserved texture units.
type Programs struct {
	Point               renderer.Program
	PointInstanced      renderer.Program
	Spot                renderer.Program
	SpotShadowed        renderer.Program
	Directional         renderer.Program
	DirectionalShadowed renderer.Program
	Ambient             renderer.Program
}

// RenderContext is the per-frame state every light needs to shade.
type RenderContext struct {
	// Camera is the world-space camera position used for specular terms.
	Camera common.Vec3

	Programs *Programs
}

// Light is a light component. Lights register with their LightManager when their object initializes and
// unregister when it is destroyed.
type Light interface {
	game_object.Component

	// Kind returns the kind of light source.
	//
	// Returns:
	//   - Kind: the light kind
	Kind() Kind

	// Color returns the linear RGB color of the light.
	//
	// Returns:
	//   - common.Color: the color
	Color() common.Color

	// Intensity returns the scalar intensity multiplier.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// Draw records the light's contribution into the light accumulation pass.
	//
	// Parameters:
	//   - pass: the light accumulation pass, with the G-buffer already bound
	//   - ctx: the camera position and light programs
	Draw(pass renderer.Pass, ctx RenderContext)
}

// ShadowCaster is a Light that can hold a shadow map. The shadow pass renders every renderable into the
// map through ShadowView and ShadowProjection.
type ShadowCaster interface {
	Light

	// CastsShadows reports whether the light asks for a shadow map when it is added.
	//
	// Returns:
	//   - bool: true if the light wants a shadow map
	CastsShadows() bool

	// ShadowMap returns the borrowed shadow map, or nil.
	//
	// Returns:
	//   - ShadowMap: the map the light renders its shadows into
	ShadowMap() ShadowMap

	// ShadowView returns the inverse of the owning object's transform.
	//
	// Returns:
	//   - common.Mat4: the light's view matrix
	ShadowView() common.Mat4

	// ShadowProjection returns the projection the shadow map is rendered with.
	//
	// Returns:
	//   - common.Mat4: the light's projection matrix
	ShadowProjection() common.Mat4

	attach(sm ShadowMap)
}

// Component type tags of the light components.
const (
	PointLightComponentType       game_object.ComponentType = "point_light"
	SpotLightComponentType        game_object.ComponentType = "spot_light"
	DirectionalLightComponentType game_object.ComponentType = "directional_light"
	AmbientLightComponentType     game_object.ComponentType = "ambient_light"
)

// params holds the values shared by every light constructor.
type params struct {
	color     common.Color
	intensity float32
	radius    float32
	halfAngle float32
	shadows   bool
	instanced bool
}

func defaultParams() params {
	return params{
		color:     common.White,
		intensity: 1,
		radius:    10,
		halfAngle: 0.5235988, // 30 degrees
	}
}

// base is embedded by every light component.
type base struct {
	game_object.BaseComponent
	manager   LightManager
	color     common.Color
	intensity float32
}

func newBase(obj game_object.GameObject, manager LightManager, p params) base {
	if obj == nil || manager == nil {
		panic("light: object and light manager are required")
	}
	return base{
		BaseComponent: game_object.NewBaseComponent(obj),
		manager:       manager,
		color:         p.color,
		intensity:     p.intensity,
	}
}

func (b *base) Color() common.Color {
	return b.color
}

func (b *base) Intensity() float32 {
	return b.intensity
}

// SetColor sets the linear RGB color of the light.
func (b *base) SetColor(c common.Color) {
	b.color = c
}

// SetIntensity sets the scalar intensity multiplier.
func (b *base) SetIntensity(intensity float32) {
	b.intensity = intensity
}

// shadowed holds the borrowed shadow map of spot and directional lights.
type shadowed struct {
	shadows bool
	sm      ShadowMap
}

func (s *shadowed) CastsShadows() bool {
	return s.shadows
}

func (s *shadowed) ShadowMap() ShadowMap {
	return s.sm
}

func (s *shadowed) attach(sm ShadowMap) {
	s.sm = sm
}

// viewOf returns the light's view matrix from its object's position and rotation, or the identity when the
// transform is gone.
func viewOf(obj game_object.GameObject) common.Mat4 {
	t := obj.Transform()
	if t == nil {
		return common.Mat4Identity()
	}
	return t.View()
}

// PointLight is a point light component. Instanced point lights are not drawn one by one; the manager
// gathers them into a single instanced draw each frame.
type PointLight struct {
	base
	radius    float32
	instanced bool
}

var (
	_ Light                 = &PointLight{}
	_ game_object.Initer    = &PointLight{}
	_ game_object.Destroyer = &PointLight{}
)

// NewPointLight creates a point light and installs it on obj.
//
// Parameters:
//   - obj: the owning object, whose position places the light
//   - manager: the manager the light registers with on Init
//   - options: functional options such as WithColor, WithRadius, and WithInstanced
//
// Returns:
//   - *PointLight: the component
func NewPointLight(obj game_object.GameObject, manager LightManager, options ...LightBuilderOption) *PointLight {
	p := defaultParams()
	for _, opt := range options {
		opt(&p)
	}
	l := &PointLight{base: newBase(obj, manager, p), radius: p.radius, instanced: p.instanced}
	obj.AddComponent(l)
	return l
}

func (l *PointLight) ComponentType() game_object.ComponentType { return PointLightComponentType }
func (l *PointLight) Kind() Kind                                { return KindPoint }
func (l *PointLight) Init()                                     { l.manager.Add(l) }
func (l *PointLight) Destroy()                                  { l.manager.Remove(l) }

// Radius returns the distance at which the light stops contributing.
func (l *PointLight) Radius() float32 {
	return l.radius
}

// SetRadius sets the light's radius.
func (l *PointLight) SetRadius(radius float32) {
	l.radius = radius
}

// Instanced reports whether the light is drawn in the manager's instanced batch.
func (l *PointLight) Instanced() bool {
	return l.instanced
}

// Record returns the light as the shaders see it.
func (l *PointLight) Record() GPUPointLight {
	var pos common.Vec3
	if t := l.Object().Transform(); t != nil {
		pos = t.Position
	}
	return GPUPointLight{Position: pos, Radius: l.radius, Color: l.color, Intensity: l.intensity}
}

func (l *PointLight) Draw(pass renderer.Pass, ctx RenderContext) {
	u := GPUPointLightUniform{Light: l.Record(), Camera: ctx.Camera}
	pass.SetProgram(ctx.Programs.Point)
	pass.SetUniforms(u.Marshal())
	pass.Draw(4, 1)
}

// SpotLight is a spot light component shining along its object's forward vector.
type SpotLight struct {
	base
	shadowed
	radius    float32
	halfAngle float32
}

var (
	_ ShadowCaster          = &SpotLight{}
	_ game_object.Initer    = &SpotLight{}
	_ game_object.Destroyer = &SpotLight{}
)

// NewSpotLight creates a spot light and installs it on obj.
//
// Parameters:
//   - obj: the owning object, whose position and forward vector aim the light
//   - manager: the manager the light registers with on Init
//   - options: functional options such as WithRadius, WithHalfAngle, and WithShadows
//
// Returns:
//   - *SpotLight: the component
func NewSpotLight(obj game_object.GameObject, manager LightManager, options ...LightBuilderOption) *SpotLight {
	p := defaultParams()
	for _, opt := range options {
		opt(&p)
	}
	l := &SpotLight{
		base:      newBase(obj, manager, p),
		shadowed:  shadowed{shadows: p.shadows},
		radius:    p.radius,
		halfAngle: p.halfAngle,
	}
	obj.AddComponent(l)
	return l
}

func (l *SpotLight) ComponentType() game_object.ComponentType { return SpotLightComponentType }
func (l *SpotLight) Kind() Kind                                { return KindSpot }
func (l *SpotLight) Init()                                     { l.manager.Add(l) }
func (l *SpotLight) Destroy()                                  { l.manager.Remove(l) }

// Radius returns the distance at which the light stops contributing.
func (l *SpotLight) Radius() float32 {
	return l.radius
}

// HalfAngle returns the cone half angle in radians.
func (l *SpotLight) HalfAngle() float32 {
	return l.halfAngle
}

func (l *SpotLight) ShadowView() common.Mat4 {
	return viewOf(l.Object())
}

func (l *SpotLight) ShadowProjection() common.Mat4 {
	return common.Perspective(l.halfAngle*2, 1, SpotShadowNear, l.radius)
}

func (l *SpotLight) Draw(pass renderer.Pass, ctx RenderContext) {
	t := l.Object().Transform()
	if t == nil {
		return
	}
	u := GPUSpotLightUniform{
		Position:     t.Position,
		Radius:       l.radius,
		Direction:    t.Forward(),
		CosHalfAngle: cos(l.halfAngle),
		Color:        l.color,
		Intensity:    l.intensity,
		Camera:       ctx.Camera,
	}
	prog := ctx.Programs.Spot
	if l.sm != nil {
		u.LightViewProj = l.ShadowProjection().Mul(l.ShadowView())
		prog = ctx.Programs.SpotShadowed
		pass.BindTexture(renderer.UnitFree0, l.sm.Texture())
	}
	pass.SetProgram(prog)
	pass.SetUniforms(u.Marshal())
	pass.Draw(4, 1)
}

// DirectionalLight is a directional light component shining along its object's forward vector.
type DirectionalLight struct {
	base
	shadowed
}

var (
	_ ShadowCaster          = &DirectionalLight{}
	_ game_object.Initer    = &DirectionalLight{}
	_ game_object.Destroyer = &DirectionalLight{}
)

// NewDirectionalLight creates a directional light and installs it on obj.
//
// Parameters:
//   - obj: the owning object, whose forward vector is the light direction
//   - manager: the manager the light registers with on Init
//   - options: functional options such as WithColor, WithIntensity, and WithShadows
//
// Returns:
//   - *DirectionalLight: the component
func NewDirectionalLight(obj game_object.GameObject, manager LightManager, options ...LightBuilderOption) *DirectionalLight {
	p := defaultParams()
	for _, opt := range options {
		opt(&p)
	}
	l := &DirectionalLight{base: newBase(obj, manager, p), shadowed: shadowed{shadows: p.shadows}}
	obj.AddComponent(l)
	return l
}

func (l *DirectionalLight) ComponentType() game_object.ComponentType {
	return DirectionalLightComponentType
}
func (l *DirectionalLight) Kind() Kind { return KindDirectional }
func (l *DirectionalLight) Init()      { l.manager.Add(l) }
func (l *DirectionalLight) Destroy()   { l.manager.Remove(l) }

func (l *DirectionalLight) ShadowView() common.Mat4 {
	return viewOf(l.Object())
}

func (l *DirectionalLight) ShadowProjection() common.Mat4 {
	e := DirectionalShadowHalfExtent
	return common.Ortho(-e, e, -e, e, DirectionalShadowNear, DirectionalShadowFar)
}

func (l *DirectionalLight) Draw(pass renderer.Pass, ctx RenderContext) {
	t := l.Object().Transform()
	if t == nil {
		return
	}
	u := GPUDirectionalLightUniform{
		Direction: t.Forward(),
		Color:     l.color,
		Intensity: l.intensity,
		Camera:    ctx.Camera,
	}
	prog := ctx.Programs.Directional
	if l.sm != nil {
		u.LightViewProj = l.ShadowProjection().Mul(l.ShadowView())
		prog = ctx.Programs.DirectionalShadowed
		pass.BindTexture(renderer.UnitFree0, l.sm.Texture())
	}
	pass.SetProgram(prog)
	pass.SetUniforms(u.Marshal())
	pass.Draw(4, 1)
}

// AmbientLight is an ambient light component. It ignores its object's transform and is attenuated by the
// ambient occlusion buffer.
type AmbientLight struct {
	base
}

var (
	_ Light                 = &AmbientLight{}
	_ game_object.Initer    = &AmbientLight{}
	_ game_object.Destroyer = &AmbientLight{}
)

// NewAmbientLight creates an ambient light and installs it on obj.
//
// Parameters:
//   - obj: the owning object
//   - manager: the manager the light registers with on Init
//   - options: functional options such as WithColor and WithIntensity
//
// Returns:
//   - *AmbientLight: the component
func NewAmbientLight(obj game_object.GameObject, manager LightManager, options ...LightBuilderOption) *AmbientLight {
	p := defaultParams()
	for _, opt := range options {
		opt(&p)
	}
	l := &AmbientLight{base: newBase(obj, manager, p)}
	obj.AddComponent(l)
	return l
}

func (l *AmbientLight) ComponentType() game_object.ComponentType { return AmbientLightComponentType }
func (l *AmbientLight) Kind() Kind                                { return KindAmbient }
func (l *AmbientLight) Init()                                     { l.manager.Add(l) }
func (l *AmbientLight) Destroy()                                  { l.manager.Remove(l) }

func (l *AmbientLight) Draw(pass renderer.Pass, ctx RenderContext) {
	u := GPUAmbientLightUniform{Color: l.color, Intensity: l.intensity}
	pass.SetProgram(ctx.Programs.Ambient)
	pass.SetUniforms(u.Marshal())
	pass.Draw(4, 1)
}
