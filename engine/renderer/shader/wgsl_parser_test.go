package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinVariant(t *testing.T, name string, defines ...string) string {
	t.Helper()
	src, err := NewLibrary().Variant(name, defines...)
	require.NoError(t, err)
	return src
}

func TestReflect_GeometryProgram(t *testing.T) {
	r := Reflect(builtinVariant(t, Geometry))

	assert.Equal(t, "vs_main", r.VertexEntry)
	assert.Equal(t, "fs_main", r.FragmentEntry)

	require.Len(t, r.Bindings, 1)
	assert.Equal(t, Binding{Group: 0, Binding: 0, Name: "u", Kind: BindingUniform, MinSize: 240}, r.Bindings[0])

	require.Len(t, r.VertexLayouts, 1)
	layout := r.VertexLayouts[0]
	assert.Equal(t, "VertexInput", layout.Struct)
	assert.Equal(t, uint64(32), layout.Stride)
	assert.Equal(t, []VertexAttribute{
		{Location: 0, Type: "vec3f", Offset: 0},
		{Location: 1, Type: "vec3f", Offset: 12},
		{Location: 2, Type: "vec2f", Offset: 24},
	}, layout.Attributes)
}

func TestReflect_SkinnedGeometryProgram(t *testing.T) {
	r := Reflect(builtinVariant(t, Geometry, DefineSkinned))

	storage, ok := r.Lookup(0, 4)
	require.True(t, ok)
	assert.Equal(t, BindingStorage, storage.Kind)
	assert.Equal(t, uint64(64), storage.MinSize)

	require.Len(t, r.VertexLayouts, 1)
	assert.Equal(t, uint64(64), r.VertexLayouts[0].Stride)
	assert.Len(t, r.VertexLayouts[0].Attributes, 5)
	assert.Equal(t, "vec4u", r.VertexLayouts[0].Attributes[3].Type)
}

func TestReflect_ShadowDepthIsVertexOnly(t *testing.T) {
	r := Reflect(builtinVariant(t, ShadowDepth))

	assert.Equal(t, "vs_main", r.VertexEntry)
	assert.Empty(t, r.FragmentEntry)
	u, ok := r.Lookup(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(128), u.MinSize)
}

func TestReflect_ShadowedSpotLightBindsShadowMap(t *testing.T) {
	plain := Reflect(builtinVariant(t, SpotLight))
	_, ok := plain.Lookup(1, 12)
	assert.False(t, ok)

	r := Reflect(builtinVariant(t, SpotLight, DefineShadowed))
	assert.Equal(t, "vs_fullscreen", r.VertexEntry)
	assert.Empty(t, r.VertexLayouts)

	sm, ok := r.Lookup(1, 12)
	require.True(t, ok)
	assert.Equal(t, BindingDepthTexture, sm.Kind)
	assert.Equal(t, "2d", sm.Dimension)

	cmp, ok := r.Lookup(0, 2)
	require.True(t, ok)
	assert.Equal(t, BindingComparisonSampler, cmp.Kind)

	for unit := uint32(0); unit <= 4; unit++ {
		b, ok := r.Lookup(1, unit)
		require.True(t, ok, unit)
		assert.Equal(t, BindingTexture, b.Kind)
		assert.Equal(t, "float", b.SampleType)
	}
	assert.Equal(t, 1, r.MaxGroup())
}

func TestReflect_AOUniformSize(t *testing.T) {
	r := Reflect(builtinVariant(t, AO))
	u, ok := r.Lookup(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(64+64+16+64*16), u.MinSize)
}

func TestReflect_InstancedPointLight(t *testing.T) {
	r := Reflect(builtinVariant(t, PointLight, DefineInstanced))

	lights, ok := r.Lookup(0, 4)
	require.True(t, ok)
	assert.Equal(t, BindingStorage, lights.Kind)
	assert.Equal(t, uint64(32), lights.MinSize)

	u, ok := r.Lookup(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(48), u.MinSize)
}

func TestReflect_IgnoresComments(t *testing.T) {
	src := `
// @group(0) @binding(9) var<uniform> commented: f32;
/* @group(0) @binding(8) var hidden: sampler; /* nested */ */
@group(0) @binding(1) var s: sampler;
@vertex fn main_v() -> @builtin(position) vec4f { return vec4f(0.0); }
`
	r := Reflect(src)
	require.Len(t, r.Bindings, 1)
	assert.Equal(t, BindingSampler, r.Bindings[0].Kind)
	assert.Equal(t, "main_v", r.VertexEntry)
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"Light": {32, 16}}
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"vec3f", wgslTypeLayout{12, 16}, true},
		{"array<f32, 4>", wgslTypeLayout{16, 4}, true},
		{"array<vec3f, 2>", wgslTypeLayout{32, 16}, true},
		{"array<Light>", wgslTypeLayout{32, 16}, true},
		{"Unknown", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := resolveTypeLayout(tt.typeName, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
