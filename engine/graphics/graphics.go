// Package graphics implements the deferred rendering pipeline as an engine manager: a geometry pass into
// the G-buffer, shadow maps for every shadow-casting light, screen-space ambient occlusion, additive light
// accumulation, a bloom mip chain and a final composite to the surface.
package graphics

import (
	"context"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// GraphicsType is the registry key of the Graphics manager.
const GraphicsType manager.Type = "graphics"

// Defaults of the pipeline settings.
const (
	DefaultAOSamples   = 64
	DefaultAORadius    = 1
	DefaultAOBias      = 0.025
	DefaultNoiseSize   = 16
	DefaultBloomSteps  = 5
	DefaultExposure    = 1
	defaultKernelSeed  = 1
	fullscreenVertices = 4
)

// ViewMode selects what the composite pass writes to the surface.
type ViewMode int

const (
	ViewFinal ViewMode = iota
	ViewAlbedo
	ViewNormal
	ViewPosition
	ViewAO
	ViewEmission
	ViewMaterial
)

// graphics is the implementation of the Graphics interface.
type graphics struct {
	backend renderer.Backend
	lib     shader.Library
	lights  light.LightManager

	progs   *programs
	targets *targets
	noise   renderer.Texture
	kernel  []common.Vec3

	renderables []renderer.Renderable
	camera      *camera.Camera

	aoSamples     int
	aoRadius      float32
	aoBias        float32
	noiseSize     int
	bloomSteps    int
	shadowMapSize int
	exposure      float32
	viewMode      ViewMode
	seed          uint64
	shaderDir     string

	aoScratch   []byte
	lightOpts   []light.LightManagerBuilderOption
	report      common.Reporter
	initialized bool
}

// Graphics is the deferred rendering pipeline. It renders once per Render event from the camera set with
// SetCamera, drawing every registered Renderable into the G-buffer and into each borrowed shadow map.
type Graphics interface {
	manager.Manager
	manager.SceneSetuper
	manager.Teardowner
	event.Renderer

	// Backend returns the GPU backend the pipeline renders through.
	//
	// Returns:
	//   - renderer.Backend: the backend
	Backend() renderer.Backend

	// Library returns the shader library the programs are compiled from.
	//
	// Returns:
	//   - shader.Library: the library
	Library() shader.Library

	// Lights returns the light manager whose lights are accumulated in the lighting pass.
	//
	// Returns:
	//   - light.LightManager: the light manager
	Lights() light.LightManager

	// Reporter returns the diagnostic sink of the manager. Components created against the manager report
	// through it unless given their own.
	//
	// Returns:
	//   - common.Reporter: the configured reporter
	Reporter() common.Reporter

	// Add registers a renderable. Renderables are drawn in registration order.
	//
	// Parameters:
	//   - r: the renderable
	Add(r renderer.Renderable)

	// Remove unregisters a renderable. Removing one that is not registered is reported.
	//
	// Parameters:
	//   - r: the renderable
	Remove(r renderer.Renderable)

	// Renderables returns the registered renderables in draw order.
	//
	// Returns:
	//   - []renderer.Renderable: a copy of the list
	Renderables() []renderer.Renderable

	// SetCamera selects the camera frames are rendered from and matches its aspect to the surface. A nil
	// camera makes every frame a no-op.
	//
	// Parameters:
	//   - c: the camera component
	SetCamera(c *camera.Camera)

	// Camera returns the active camera, or nil.
	Camera() *camera.Camera

	// Program returns the program a primitive is drawn with during stage, compiling custom geometry sources
	// on first use.
	//
	// Parameters:
	//   - stage: the stage being recorded
	//   - source: the primitive's program source name, "" for the built-in geometry program
	//   - skinned: whether the primitive is skinned
	//
	// Returns:
	//   - renderer.Program: the program
	//   - error: a source or compile error
	Program(stage renderer.Stage, source string, skinned bool) (renderer.Program, error)

	// RenderFrame records and submits one frame. Without a camera it does nothing.
	//
	// Returns:
	//   - error: a frame, pass, or target error
	RenderFrame() error

	// SetViewMode selects what the composite pass shows.
	SetViewMode(mode ViewMode)

	// SetExposure sets the exposure applied before tone mapping.
	SetExposure(exposure float32)

	// WatchShaders reloads changed sources from the shader override directory until ctx ends. Programs are
	// rebuilt on the next frame. It returns nil immediately when no override directory is configured.
	//
	// Parameters:
	//   - ctx: cancels the watch
	//
	// Returns:
	//   - error: a watcher error
	WatchShaders(ctx context.Context) error
}

var _ Graphics = &graphics{}

// NewGraphics builds the shader library, every program and every render target.
//
// Parameters:
//   - backend: the GPU backend
//   - options: functional options such as WithBloomSteps or WithShaderDir
//
// Returns:
//   - Graphics: the pipeline
//   - error: a shader compile error or ErrIncompleteTarget; both are fatal
func NewGraphics(backend renderer.Backend, options ...GraphicsBuilderOption) (Graphics, error) {
	if backend == nil {
		panic("graphics: backend is required")
	}
	g := &graphics{
		backend:       backend,
		aoSamples:     DefaultAOSamples,
		aoRadius:      DefaultAORadius,
		aoBias:        DefaultAOBias,
		noiseSize:     DefaultNoiseSize,
		bloomSteps:    DefaultBloomSteps,
		shadowMapSize: light.DefaultShadowMapSize,
		exposure:      DefaultExposure,
		seed:          defaultKernelSeed,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.lib == nil {
		g.lib = shader.NewLibrary(shader.WithLibraryReporter(g.report))
	}
	if g.shaderDir != "" {
		if _, err := g.lib.LoadDir(g.shaderDir); err != nil {
			return nil, fmt.Errorf("graphics: %w", err)
		}
	}
	if err := g.lib.Resolve(); err != nil {
		return nil, fmt.Errorf("graphics: %w", err)
	}
	if err := g.build(); err != nil {
		g.Teardown()
		return nil, err
	}
	g.lights = light.NewLightManager(backend, append([]light.LightManagerBuilderOption{
		light.WithShadowMapSize(g.shadowMapSize),
		light.WithReporter(g.report),
	}, g.lightOpts...)...)
	return g, nil
}

// GraphicsConstructor returns the manager constructor used by the engine's default set.
//
// Parameters:
//   - backend: the GPU backend
//   - options: functional options passed to NewGraphics
//
// Returns:
//   - manager.Constructor: the constructor
func GraphicsConstructor(backend renderer.Backend, options ...GraphicsBuilderOption) manager.Constructor {
	return manager.Constructor{
		Type: GraphicsType,
		New: func(manager.Registry) (manager.Manager, error) {
			return NewGraphics(backend, options...)
		},
	}
}

// build compiles the programs, creates the targets and uploads the AO kernel and noise. It runs once.
func (g *graphics) build() error {
	if g.initialized {
		return nil
	}
	progs, err := newPrograms(g.backend, g.lib)
	if err != nil {
		return err
	}
	g.progs = progs

	w, h := g.backend.Size()
	t, err := newTargets(g.backend, w, h, g.bloomSteps)
	if err != nil {
		return err
	}
	g.targets = t

	g.kernel = NewAOKernel(min(g.aoSamples, MaxAOSamples), g.seed)
	noise, err := g.backend.CreateTexture(renderer.TextureDescriptor{
		Label:  "AO Noise",
		Width:  g.noiseSize,
		Height: g.noiseSize,
		Format: renderer.FormatRGBA8Unorm,
		Usage:  renderer.TextureUsageSampled | renderer.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("graphics: AO noise: %w", err)
	}
	g.noise = noise
	if err := g.backend.WriteTexture(noise, NewAONoise(g.noiseSize, g.seed)); err != nil {
		return fmt.Errorf("graphics: AO noise: %w", err)
	}
	g.initialized = true
	return nil
}

func (g *graphics) Type() manager.Type {
	return GraphicsType
}

// SetupScene forgets the previous scene's renderables, camera and lights and returns every borrowed
// shadow map to the pool. Programs and targets are kept.
func (g *graphics) SetupScene(context.Context) error {
	g.lights.Reset()
	g.renderables = nil
	g.camera = nil
	return nil
}

func (g *graphics) Teardown() {
	if g.progs != nil {
		g.progs.release()
		g.progs = nil
	}
	if g.targets != nil {
		g.targets.release()
		g.targets = nil
	}
	if g.noise != nil {
		g.noise.Release()
		g.noise = nil
	}
	if g.lights != nil {
		g.lights.Release()
	}
	g.renderables = nil
	g.camera = nil
	g.initialized = false
}

func (g *graphics) Backend() renderer.Backend {
	return g.backend
}

func (g *graphics) Library() shader.Library {
	return g.lib
}

func (g *graphics) Lights() light.LightManager {
	return g.lights
}

func (g *graphics) Reporter() common.Reporter {
	return g.report
}

func (g *graphics) Add(r renderer.Renderable) {
	if slices.Contains(g.renderables, r) {
		g.report.Report("graphics: renderable %T is already registered", r)
		return
	}
	g.renderables = append(g.renderables, r)
}

func (g *graphics) Remove(r renderer.Renderable) {
	i := slices.Index(g.renderables, r)
	if i < 0 {
		g.report.Report("graphics: removing renderable %T that was never registered", r)
		return
	}
	g.renderables = slices.Delete(g.renderables, i, i+1)
}

func (g *graphics) Renderables() []renderer.Renderable {
	return slices.Clone(g.renderables)
}

func (g *graphics) SetCamera(c *camera.Camera) {
	g.camera = c
	if c != nil {
		if w, h := g.backend.Size(); w > 0 && h > 0 {
			c.SetAspect(float32(w) / float32(h))
		}
	}
}

func (g *graphics) Camera() *camera.Camera {
	return g.camera
}

func (g *graphics) Program(stage renderer.Stage, source string, skinned bool) (renderer.Program, error) {
	if g.progs == nil {
		return nil, fmt.Errorf("graphics: programs are not built")
	}
	return g.progs.forStage(g.backend, g.lib, stage, source, skinned)
}

func (g *graphics) SetViewMode(mode ViewMode) {
	g.viewMode = mode
}

func (g *graphics) SetExposure(exposure float32) {
	g.exposure = exposure
}

func (g *graphics) WatchShaders(ctx context.Context) error {
	if g.shaderDir == "" {
		return nil
	}
	return shader.Watch(ctx, g.lib, g.shaderDir, func(name string) {
		g.report.Report("graphics: shader %q changed, rebuilding programs", name)
	})
}

// Render is the Render event hook. Frame errors are reported so one bad frame does not stop the loop.
func (g *graphics) Render() {
	if err := g.RenderFrame(); err != nil {
		g.report.Report("graphics: %v", err)
	}
}

// reload rebuilds the programs when the library changed since they were compiled. A failed rebuild keeps
// the previous programs.
func (g *graphics) reload() {
	rev := g.lib.Revision()
	if rev == g.progs.revision {
		return
	}
	progs, err := newPrograms(g.backend, g.lib)
	if err != nil {
		g.report.Report("graphics: keeping previous programs: %v", err)
		g.progs.revision = rev
		return
	}
	g.progs.release()
	g.progs = progs
}

// resize recreates the targets when the surface size changed.
func (g *graphics) resize() error {
	w, h := g.backend.Size()
	if g.targets.matches(w, h) {
		return nil
	}
	t, err := newTargets(g.backend, w, h, g.bloomSteps)
	if err != nil {
		return err
	}
	g.targets.release()
	g.targets = t
	if g.camera != nil && h > 0 {
		g.camera.SetAspect(float32(w) / float32(h))
	}
	return nil
}
