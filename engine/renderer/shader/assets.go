package shader

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.wgsl
var builtinFS embed.FS

// Names of the built-in program sources.
const (
	Geometry         = "geometry"
	ShadowDepth      = "shadow_depth"
	AO               = "ao"
	Emission         = "emission"
	PointLight       = "point_light"
	SpotLight        = "spot_light"
	DirectionalLight = "directional_light"
	AmbientLight     = "ambient_light"
	BloomDownsample  = "bloom_downsample"
	BloomUpsample    = "bloom_upsample"
	Composite        = "composite"
)

// Defines understood by the built-in sources.
const (
	DefineSkinned   = "SKINNED"
	DefineShadowed  = "SHADOWED"
	DefineInstanced = "INSTANCED"
	DefineThreshold = "THRESHOLD"
)

// builtinSources reads the embedded sources keyed by library name.
func builtinSources() map[string]string {
	out := make(map[string]string)
	entries, err := fs.ReadDir(builtinFS, "assets")
	if err != nil {
		panic("shader: embedded assets missing: " + err.Error())
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile("assets/" + e.Name())
		if err != nil {
			panic("shader: reading embedded " + e.Name() + ": " + err.Error())
		}
		out[sourceName(e.Name())] = string(data)
	}
	return out
}
