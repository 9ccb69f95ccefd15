package graphics

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// GraphicsBuilderOption is a function that configures the Graphics manager during construction.
type GraphicsBuilderOption func(*graphics)

// WithLibrary is an option builder that compiles the programs from an existing shader library instead of
// a new one holding the built-in sources.
//
// Parameters:
//   - lib: the shader library
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the library option
func WithLibrary(lib shader.Library) GraphicsBuilderOption {
	return func(g *graphics) {
		g.lib = lib
	}
}

// WithShaderDir is an option builder that loads *.wgsl overrides from dir at construction. The same
// directory is watched by WatchShaders.
//
// Parameters:
//   - dir: the override directory
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the directory option
func WithShaderDir(dir string) GraphicsBuilderOption {
	return func(g *graphics) {
		g.shaderDir = dir
	}
}

// WithAO is an option builder that sets the ambient occlusion kernel size and sampling radius.
//
// Parameters:
//   - samples: the kernel size, at most MaxAOSamples
//   - radius: the world-space sampling radius
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the AO option
func WithAO(samples int, radius float32) GraphicsBuilderOption {
	return func(g *graphics) {
		if samples > 0 {
			g.aoSamples = min(samples, MaxAOSamples)
		}
		if radius > 0 {
			g.aoRadius = radius
		}
	}
}

// WithNoiseSize is an option builder that sets the width and height of the AO rotation noise tile.
//
// Parameters:
//   - size: the tile size in pixels
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the noise option
func WithNoiseSize(size int) GraphicsBuilderOption {
	return func(g *graphics) {
		if size > 0 {
			g.noiseSize = size
		}
	}
}

// WithBloomSteps is an option builder that sets the length of the bloom mip chain. Zero disables bloom.
//
// Parameters:
//   - steps: the number of mips
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the bloom option
func WithBloomSteps(steps int) GraphicsBuilderOption {
	return func(g *graphics) {
		if steps >= 0 {
			g.bloomSteps = steps
		}
	}
}

// WithShadowMapSize is an option builder that sets the resolution of the shadow maps lights borrow.
//
// Parameters:
//   - size: the width and height in texels
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the shadow map option
func WithShadowMapSize(size int) GraphicsBuilderOption {
	return func(g *graphics) {
		if size > 0 {
			g.shadowMapSize = size
		}
	}
}

// WithLightOptions is an option builder that passes extra options to the light manager.
//
// Parameters:
//   - options: light manager options such as light.WithShadowMapPool
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the light options
func WithLightOptions(options ...light.LightManagerBuilderOption) GraphicsBuilderOption {
	return func(g *graphics) {
		g.lightOpts = append(g.lightOpts, options...)
	}
}

// WithExposure is an option builder that sets the initial exposure.
func WithExposure(exposure float32) GraphicsBuilderOption {
	return func(g *graphics) {
		g.exposure = exposure
	}
}

// WithViewMode is an option builder that sets the initial composite view.
func WithViewMode(mode ViewMode) GraphicsBuilderOption {
	return func(g *graphics) {
		g.viewMode = mode
	}
}

// WithSeed is an option builder that sets the seed of the AO kernel and noise.
func WithSeed(seed uint64) GraphicsBuilderOption {
	return func(g *graphics) {
		g.seed = seed
	}
}

// WithReporter is an option builder that sets where per-frame errors and misuse are reported.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - GraphicsBuilderOption: a function that applies the reporter option
func WithReporter(r common.Reporter) GraphicsBuilderOption {
	return func(g *graphics) {
		g.report = r
	}
}

// MeshBuilderOption is a function that configures a Mesh during construction.
type MeshBuilderOption func(*Mesh)

// WithShadowCasting is an option builder that sets whether the mesh is drawn into shadow maps.
//
// Parameters:
//   - cast: false to skip the shadow stage
//
// Returns:
//   - MeshBuilderOption: a function that applies the shadow option
func WithShadowCasting(cast bool) MeshBuilderOption {
	return func(m *Mesh) {
		m.castShadows = cast
	}
}

// WithMaterial is an option builder that overrides the material of every primitive.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - MeshBuilderOption: a function that applies the material option
func WithMaterial(mat model.Material) MeshBuilderOption {
	return func(m *Mesh) {
		m.material = &mat
	}
}

// WithMeshReporter is an option builder that sets where draw problems of the mesh are reported.
func WithMeshReporter(r common.Reporter) MeshBuilderOption {
	return func(m *Mesh) {
		m.report = r
	}
}
