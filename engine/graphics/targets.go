package graphics

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Formats of the G-buffer attachments in attachment order. The geometry program writes them at
// @location(0..4) and every later pass samples them from the texture unit of the same index.
var gbufferFormats = [gbufferCount]renderer.TextureFormat{
	renderer.FormatRGBA16Float, // position
	renderer.FormatRGBA8Unorm,  // albedo
	renderer.FormatRGBA16Float, // normal
	renderer.FormatRGBA16Float, // emission
	renderer.FormatRGBA8Unorm,  // material
}

var gbufferLabels = [gbufferCount]string{"Position", "Albedo", "Normal", "Emission", "Material"}

var gbufferUnits = [gbufferCount]renderer.TextureUnit{
	renderer.UnitPosition,
	renderer.UnitAlbedo,
	renderer.UnitNormal,
	renderer.UnitEmission,
	renderer.UnitMaterial,
}

const gbufferCount = 5

const (
	// DepthFormat is the format of the G-buffer depth attachment.
	DepthFormat = renderer.FormatDepth32Float

	// AOFormat is the format of the occlusion buffer. Only the red channel is meaningful.
	AOFormat = renderer.FormatRGBA8Unorm

	// BloomFormat is the format of every bloom mip.
	BloomFormat = renderer.FormatRGBA16Float
)

// targets holds every screen-sized render target of the pipeline.
type targets struct {
	width, height int

	gbuffer  [gbufferCount]renderer.Texture
	depth    renderer.Texture
	ao       renderer.Texture
	lighting renderer.Texture
	bloom    []renderer.Texture
}

// newTargets creates and validates every target for a width x height surface.
//
// Parameters:
//   - backend: the backend that owns the textures
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//   - bloomSteps: the number of bloom mips, each half the size of the previous one
//
// Returns:
//   - *targets: the targets
//   - error: ErrIncompleteTarget or an allocation error; textures created before it are released
func newTargets(backend renderer.Backend, width, height, bloomSteps int) (*targets, error) {
	t := &targets{width: width, height: height}
	create := func(label string, w, h int, format renderer.TextureFormat) (renderer.Texture, error) {
		return backend.CreateTexture(renderer.TextureDescriptor{
			Label:  label,
			Width:  w,
			Height: h,
			Format: format,
			Usage:  renderer.TextureUsageRenderTarget | renderer.TextureUsageSampled,
		})
	}
	fail := func(err error) (*targets, error) {
		t.release()
		return nil, fmt.Errorf("graphics: %w", err)
	}

	var err error
	for i := range t.gbuffer {
		if t.gbuffer[i], err = create("G-Buffer "+gbufferLabels[i], width, height, gbufferFormats[i]); err != nil {
			return fail(err)
		}
	}
	if t.depth, err = create("G-Buffer Depth", width, height, DepthFormat); err != nil {
		return fail(err)
	}
	if err := backend.CheckTarget(t.gbuffer[:], t.depth); err != nil {
		return fail(err)
	}

	if t.ao, err = create("AO Buffer", width, height, AOFormat); err != nil {
		return fail(err)
	}
	if err := backend.CheckTarget([]renderer.Texture{t.ao}, nil); err != nil {
		return fail(err)
	}

	if t.lighting, err = create("Light Buffer", width, height, BloomFormat); err != nil {
		return fail(err)
	}
	if err := backend.CheckTarget([]renderer.Texture{t.lighting}, nil); err != nil {
		return fail(err)
	}

	w, h := width, height
	for i := 0; i < bloomSteps; i++ {
		w, h = max(w/2, 1), max(h/2, 1)
		mip, err := create(fmt.Sprintf("Bloom Mip %d", i), w, h, BloomFormat)
		if err != nil {
			return fail(err)
		}
		t.bloom = append(t.bloom, mip)
		if err := backend.CheckTarget([]renderer.Texture{mip}, nil); err != nil {
			return fail(err)
		}
	}
	return t, nil
}

// matches reports whether the targets were created for a width x height surface.
func (t *targets) matches(width, height int) bool {
	return t.width == width && t.height == height
}

// bindGBuffer binds every G-buffer attachment to its texture unit.
func (t *targets) bindGBuffer(pass renderer.Pass) {
	for i, tex := range t.gbuffer {
		pass.BindTexture(gbufferUnits[i], tex)
	}
}

func (t *targets) release() {
	all := append(t.gbuffer[:], t.depth, t.ao, t.lighting)
	all = append(all, t.bloom...)
	for _, tex := range all {
		if tex != nil {
			tex.Release()
		}
	}
	t.gbuffer = [gbufferCount]renderer.Texture{}
	t.depth, t.ao, t.lighting, t.bloom = nil, nil, nil, nil
}
