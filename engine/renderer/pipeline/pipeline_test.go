package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
)

const testSource = `
@vertex fn vs_test() -> @builtin(position) vec4f { return vec4f(0.0); }
@fragment fn fs_test() -> @location(0) vec4f { return vec4f(1.0); }
`

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline("test", testSource)

	assert.Equal(t, "test", p.Key())
	assert.Equal(t, "vs_test", p.VertexEntry())
	assert.Equal(t, "fs_test", p.FragmentEntry())
	assert.Equal(t, []renderer.TextureFormat{renderer.FormatRGBA16Float}, p.ColorFormats())
	assert.Equal(t, renderer.FormatDepth32Float, p.DepthFormat())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, renderer.CullNone, p.CullMode())
	assert.Equal(t, renderer.TopologyTriangleList, p.Topology())
	assert.Equal(t, renderer.BlendNone, p.Blend())
}

func TestNewPipeline_Options(t *testing.T) {
	p := NewPipeline("shadow", testSource,
		WithDepthOnly(),
		WithCullMode(renderer.CullFront),
		WithDepthBias(2, 1.5),
	)
	assert.Empty(t, p.FragmentEntry())
	assert.Empty(t, p.ColorFormats())
	assert.Equal(t, renderer.CullFront, p.CullMode())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(1.5), p.DepthBiasSlopeScale())

	fs := NewPipeline("light", testSource, WithFullscreen(), WithBlend(renderer.BlendAdditive))
	assert.Equal(t, renderer.TopologyTriangleStrip, fs.Topology())
	assert.Equal(t, renderer.FormatUndefined, fs.DepthFormat())
	assert.False(t, fs.DepthTestEnabled())
	assert.Equal(t, renderer.BlendAdditive, fs.Blend())
}

func TestPipeline_ExplicitEntryPointsAndSourceSwap(t *testing.T) {
	p := NewPipeline("x", testSource, WithEntryPoints("vs_other", "fs_other"))
	assert.Equal(t, "vs_other", p.VertexEntry())

	q := p.WithSource("@vertex fn a() -> @builtin(position) vec4f { return vec4f(0.0); }")
	assert.Equal(t, "vs_other", q.VertexEntry())
	assert.Equal(t, testSource, p.Source())
	assert.NotEqual(t, p.Source(), q.Source())
}

func TestNewPipeline_PanicsWithoutSource(t *testing.T) {
	assert.Panics(t, func() { NewPipeline("empty", "") })
	assert.Panics(t, func() { NewPipeline("novertex", "@fragment fn f() {}") })
}
