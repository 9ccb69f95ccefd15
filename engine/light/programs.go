package light

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// LightBufferFormat is the format of the light accumulation target every light program renders into.
const LightBufferFormat = renderer.FormatRGBA16Float

// ProgramKey returns the key a light program variant is compiled under, for example "spot_light+SHADOWED".
func ProgramKey(name string, defines ...string) string {
	if len(defines) == 0 {
		return name
	}
	return name + "+" + strings.Join(defines, "+")
}

// NewPrograms compiles every light program from lib.
//
// Parameters:
//   - backend: the backend that compiles the programs
//   - lib: the shader library holding the light sources
//
// Returns:
//   - *Programs: the compiled programs
//   - error: the first source or compile error; programs compiled before it are released
func NewPrograms(backend renderer.Backend, lib shader.Library) (*Programs, error) {
	p := &Programs{}
	specs := []struct {
		dst     *renderer.Program
		name    string
		defines []string
		opts    []pipeline.PipelineBuilderOption
	}{
		{&p.Point, shader.PointLight, nil, nil},
		{&p.PointInstanced, shader.PointLight, []string{shader.DefineInstanced}, []pipeline.PipelineBuilderOption{pipeline.WithEntryPoints("vs_main", "fs_main")}},
		{&p.Spot, shader.SpotLight, nil, nil},
		{&p.SpotShadowed, shader.SpotLight, []string{shader.DefineShadowed}, nil},
		{&p.Directional, shader.DirectionalLight, nil, nil},
		{&p.DirectionalShadowed, shader.DirectionalLight, []string{shader.DefineShadowed}, nil},
		{&p.Ambient, shader.AmbientLight, nil, nil},
	}
	for _, s := range specs {
		src, err := lib.Variant(s.name, s.defines...)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("light: %w", err)
		}
		opts := append([]pipeline.PipelineBuilderOption{
			pipeline.WithFullscreen(),
			pipeline.WithColorFormats(LightBufferFormat),
			pipeline.WithBlend(renderer.BlendAdditive),
		}, s.opts...)
		prog, err := backend.CreateProgram(pipeline.NewPipeline(ProgramKey(s.name, s.defines...), src, opts...))
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("light: %w", err)
		}
		*s.dst = prog
	}
	return p, nil
}

// Release frees every compiled program.
func (p *Programs) Release() {
	for _, prog := range []*renderer.Program{&p.Point, &p.PointInstanced, &p.Spot, &p.SpotShadowed, &p.Directional, &p.DirectionalShadowed, &p.Ambient} {
		if *prog != nil {
			(*prog).Release()
			*prog = nil
		}
	}
}
