package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_ResolvesNestedIncludes(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(),
		WithSource("a", "A1\n#include <b>\nA2"),
		WithSource("b", "B1\n  #include <c>\nB2"),
		WithSource("c", "C"),
	)
	require.NoError(t, lib.Resolve())

	src, err := lib.Source("a")
	require.NoError(t, err)
	assert.Equal(t, "A1\nB1\nC\nB2\nA2\n", src)
}

func TestLibrary_IncludesEachNameOnce(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(),
		WithSource("root", "#include <left>\n#include <right>\n"),
		WithSource("left", "#include <common>\nL"),
		WithSource("right", "#include <common>\nR"),
		WithSource("common", "COMMON"),
	)

	src, err := lib.Source("root")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(src, "COMMON"))
	assert.Less(t, strings.Index(src, "COMMON"), strings.Index(src, "L"))
	assert.Contains(t, src, "R")
}

func TestLibrary_UnknownIncludeFails(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(), WithSource("a", "#include <missing>"))

	err := lib.Resolve()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownInclude)
	assert.Contains(t, err.Error(), "missing")
}

func TestLibrary_IncludeCycleFails(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(),
		WithSource("a", "#include <b>"),
		WithSource("b", "#include <a>"),
	)

	_, err := lib.Source("a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncludeCycle)
}

func TestLibrary_UnknownShader(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins())

	_, err := lib.Source("nope")
	assert.ErrorIs(t, err, ErrUnknownShader)
}

func TestLibrary_RegisterReresolves(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(),
		WithSource("a", "#include <b>"),
		WithSource("b", "old"),
	)
	src, err := lib.Source("a")
	require.NoError(t, err)
	assert.Contains(t, src, "old")

	before := lib.Revision()
	lib.Register("b", "new")
	assert.Greater(t, lib.Revision(), before)

	src, err = lib.Source("a")
	require.NoError(t, err)
	assert.Contains(t, src, "new")
	assert.NotContains(t, src, "old")
}

func TestLibrary_Variant(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(), WithSource("v", strings.Join([]string{
		"always",
		"#ifdef SKINNED",
		"skinned",
		"#else",
		"static",
		"#endif",
		"#ifndef SHADOWED",
		"unshadowed",
		"#endif",
	}, "\n")))

	tests := []struct {
		name     string
		defines  []string
		contains []string
		missing  []string
	}{
		{"no defines", nil, []string{"always", "static", "unshadowed"}, []string{"skinned\n"}},
		{"skinned", []string{"SKINNED"}, []string{"skinned"}, []string{"static"}},
		{"shadowed", []string{"SHADOWED"}, []string{"static"}, []string{"unshadowed"}},
		{"valued define emits const", []string{"COUNT=4"}, []string{"const COUNT = 4;"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := lib.Variant("v", tt.defines...)
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, src, c)
			}
			for _, m := range tt.missing {
				assert.NotContains(t, src, m)
			}
			assert.NotContains(t, src, "#if")
			assert.NotContains(t, src, "#endif")
		})
	}
}

func TestLibrary_NestedConditionals(t *testing.T) {
	lib := NewLibrary(WithoutBuiltins(), WithSource("v", "#ifdef A\n#ifdef B\nab\n#else\na\n#endif\n#else\nnone\n#endif"))

	src, err := lib.Variant("v", "A")
	require.NoError(t, err)
	assert.Equal(t, "a\n", src)

	src, err = lib.Variant("v", "B")
	require.NoError(t, err)
	assert.Equal(t, "none\n", src)

	src, err = lib.Variant("v", "A", "B")
	require.NoError(t, err)
	assert.Equal(t, "ab\n", src)
}

func TestLibrary_UnbalancedConditional(t *testing.T) {
	for _, src := range []string{"#ifdef A\nx", "#endif", "#else", "#ifdef A\n#else\n#else\n#endif"} {
		lib := NewLibrary(WithoutBuiltins(), WithSource("v", src))
		_, err := lib.Variant("v")
		assert.ErrorIs(t, err, ErrUnbalancedConditional, src)
	}
}

func TestLibrary_LoadDirOverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "composite.wgsl"), []byte("override"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	var reports []string
	lib := NewLibrary(WithLibraryReporter(func(format string, args ...any) {
		reports = append(reports, format)
	}))
	n, err := lib.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, reports, 1)

	src, err := lib.Source(Composite)
	require.NoError(t, err)
	assert.Equal(t, "override\n", src)
	assert.False(t, lib.Has("notes"))
}

func TestLibrary_BuiltinsResolve(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Resolve())

	for _, name := range []string{Geometry, ShadowDepth, AO, Emission, PointLight, SpotLight, DirectionalLight, AmbientLight, BloomDownsample, BloomUpsample, Composite} {
		assert.True(t, lib.Has(name), name)
		src, err := lib.Source(name)
		require.NoError(t, err, name)
		assert.NotContains(t, src, "#include", name)
	}

	for _, v := range []struct {
		name    string
		defines []string
	}{
		{Geometry, []string{DefineSkinned}},
		{ShadowDepth, []string{DefineSkinned}},
		{SpotLight, []string{DefineShadowed}},
		{DirectionalLight, []string{DefineShadowed}},
		{PointLight, []string{DefineInstanced}},
		{BloomDownsample, []string{DefineThreshold}},
	} {
		_, err := lib.Variant(v.name, v.defines...)
		require.NoError(t, err, v.name)
	}
}
