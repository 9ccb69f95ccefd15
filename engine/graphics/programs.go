package graphics

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// Shadow depth bias applied by the shadow programs on top of front-face culling.
const (
	shadowDepthBias      = 2
	shadowDepthBiasSlope = 1.5
)

// programs is every compiled program of one library revision.
type programs struct {
	revision uint64

	geometry        renderer.Program
	geometrySkinned renderer.Program
	shadow          renderer.Program
	shadowSkinned   renderer.Program
	ao              renderer.Program
	emission        renderer.Program
	bloomThreshold  renderer.Program
	bloomDown       renderer.Program
	bloomUp         renderer.Program
	composite       renderer.Program
	lights          *light.Programs

	// custom caches geometry programs compiled on demand for primitives that name their own source.
	custom map[string]renderer.Program
}

// programSpec describes one built-in program.
type programSpec struct {
	dst     *renderer.Program
	name    string
	defines []string
	opts    []pipeline.PipelineBuilderOption
}

// geometryOptions returns the pipeline settings of a G-buffer program.
func geometryOptions() []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithColorFormats(gbufferFormats[:]...),
		pipeline.WithDepthFormat(DepthFormat),
		pipeline.WithCullMode(renderer.CullBack),
	}
}

// shadowOptions returns the pipeline settings of a shadow depth program: front faces are culled.
func shadowOptions() []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithDepthOnly(),
		pipeline.WithDepthFormat(renderer.FormatDepth32Float),
		pipeline.WithCullMode(renderer.CullFront),
		pipeline.WithDepthBias(shadowDepthBias, shadowDepthBiasSlope),
	}
}

func fullscreen(formats ...renderer.TextureFormat) []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{pipeline.WithFullscreen(), pipeline.WithColorFormats(formats...)}
}

// newPrograms compiles every built-in program from lib.
//
// Parameters:
//   - backend: the backend that compiles the programs
//   - lib: the shader library
//
// Returns:
//   - *programs: the compiled set
//   - error: the first source or compile error; programs compiled before it are released
func newPrograms(backend renderer.Backend, lib shader.Library) (*programs, error) {
	p := &programs{
		revision: lib.Revision(),
		custom:   make(map[string]renderer.Program),
	}
	additiveBloom := append(fullscreen(BloomFormat), pipeline.WithBlend(renderer.BlendAdditive))
	specs := []programSpec{
		{&p.geometry, shader.Geometry, nil, geometryOptions()},
		{&p.geometrySkinned, shader.Geometry, []string{shader.DefineSkinned}, geometryOptions()},
		{&p.shadow, shader.ShadowDepth, nil, shadowOptions()},
		{&p.shadowSkinned, shader.ShadowDepth, []string{shader.DefineSkinned}, shadowOptions()},
		{&p.ao, shader.AO, nil, fullscreen(AOFormat)},
		{&p.emission, shader.Emission, nil, append(fullscreen(light.LightBufferFormat), pipeline.WithBlend(renderer.BlendAdditive))},
		{&p.bloomThreshold, shader.BloomDownsample, []string{shader.DefineThreshold}, fullscreen(BloomFormat)},
		{&p.bloomDown, shader.BloomDownsample, nil, fullscreen(BloomFormat)},
		{&p.bloomUp, shader.BloomUpsample, nil, additiveBloom},
		{&p.composite, shader.Composite, nil, fullscreen(renderer.FormatSurface)},
	}
	for _, s := range specs {
		prog, err := compile(backend, lib, s.name, s.defines, s.opts)
		if err != nil {
			p.release()
			return nil, err
		}
		*s.dst = prog
	}

	lights, err := light.NewPrograms(backend, lib)
	if err != nil {
		p.release()
		return nil, fmt.Errorf("graphics: %w", err)
	}
	p.lights = lights
	return p, nil
}

// compile resolves a variant of name and compiles it under its program key.
func compile(backend renderer.Backend, lib shader.Library, name string, defines []string, opts []pipeline.PipelineBuilderOption) (renderer.Program, error) {
	src, err := lib.Variant(name, defines...)
	if err != nil {
		return nil, fmt.Errorf("graphics: %w", err)
	}
	prog, err := backend.CreateProgram(pipeline.NewPipeline(light.ProgramKey(name, defines...), src, opts...))
	if err != nil {
		return nil, fmt.Errorf("graphics: %w", err)
	}
	return prog, nil
}

// forStage returns the program a primitive is drawn with during stage. Primitives naming their own source
// use it for the geometry stage only; every primitive shares the built-in shadow program.
//
// Parameters:
//   - backend: compiles custom programs on first use
//   - lib: the shader library
//   - stage: the stage being recorded
//   - source: the primitive's program source name, "" for the built-in
//   - skinned: whether the primitive is skinned
//
// Returns:
//   - renderer.Program: the program
//   - error: a source or compile error of a custom program
func (p *programs) forStage(backend renderer.Backend, lib shader.Library, stage renderer.Stage, source string, skinned bool) (renderer.Program, error) {
	if stage == renderer.StageShadow {
		if skinned {
			return p.shadowSkinned, nil
		}
		return p.shadow, nil
	}
	if source == "" || source == shader.Geometry {
		if skinned {
			return p.geometrySkinned, nil
		}
		return p.geometry, nil
	}

	var defines []string
	if skinned {
		defines = []string{shader.DefineSkinned}
	}
	key := light.ProgramKey(source, defines...)
	if prog, ok := p.custom[key]; ok {
		return prog, nil
	}
	prog, err := compile(backend, lib, source, defines, geometryOptions())
	if err != nil {
		return nil, err
	}
	p.custom[key] = prog
	return prog, nil
}

func (p *programs) release() {
	for _, prog := range []*renderer.Program{
		&p.geometry, &p.geometrySkinned, &p.shadow, &p.shadowSkinned, &p.ao, &p.emission,
		&p.bloomThreshold, &p.bloomDown, &p.bloomUp, &p.composite,
	} {
		if *prog != nil {
			(*prog).Release()
			*prog = nil
		}
	}
	for key, prog := range p.custom {
		prog.Release()
		delete(p.custom, key)
	}
	if p.lights != nil {
		p.lights.Release()
		p.lights = nil
	}
}
