package graphics

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Pass labels, in frame order.
const (
	PassGeometry  = "Geometry"
	PassShadow    = "Shadow"
	PassAO        = "Ambient Occlusion"
	PassLighting  = "Lighting"
	PassBloomDown = "Bloom Downsample"
	PassBloomUp   = "Bloom Upsample"
	PassComposite = "Composite"
)

func (g *graphics) RenderFrame() (err error) {
	if g.camera != nil && g.camera.Object().Destroyed() {
		g.camera = nil
	}
	if g.camera == nil || !g.initialized {
		return nil
	}
	g.reload()
	if err := g.resize(); err != nil {
		return err
	}

	if err := g.backend.BeginFrame(); err != nil {
		return fmt.Errorf("graphics: begin frame: %w", err)
	}
	defer func() {
		err = errors.Join(err, g.backend.EndFrame())
	}()

	view := g.camera.View()
	proj := g.camera.Projection()

	if err := g.geometryPass(renderer.DrawContext{Stage: renderer.StageGeometry, View: view, Projection: proj}); err != nil {
		return err
	}
	if err := g.shadowPasses(); err != nil {
		return err
	}
	if err := g.aoPass(renderer.DrawContext{View: view, Projection: proj}); err != nil {
		return err
	}
	if err := g.lightingPass(); err != nil {
		return err
	}
	if err := g.bloomPasses(); err != nil {
		return err
	}
	return g.compositePass()
}

// begin starts a pass and wraps its error with the label.
func (g *graphics) begin(desc renderer.PassDescriptor) (renderer.Pass, error) {
	pass, err := g.backend.BeginPass(desc)
	if err != nil {
		return nil, fmt.Errorf("graphics: %s pass: %w", desc.Label, err)
	}
	return pass, nil
}

func end(label string, pass renderer.Pass) error {
	if err := pass.End(); err != nil {
		return fmt.Errorf("graphics: %s pass: %w", label, err)
	}
	return nil
}

// geometryPass clears the G-buffer and draws every renderable into it with depth testing.
func (g *graphics) geometryPass(ctx renderer.DrawContext) error {
	colors := make([]renderer.ColorAttachment, gbufferCount)
	for i, tex := range g.targets.gbuffer {
		colors[i] = renderer.ColorAttachment{Target: tex, Load: renderer.LoadClear}
	}
	pass, err := g.begin(renderer.PassDescriptor{
		Label:      PassGeometry,
		Colors:     colors,
		Depth:      g.targets.depth,
		DepthLoad:  renderer.LoadClear,
		ClearDepth: 1,
	})
	if err != nil {
		return err
	}
	for _, r := range g.renderables {
		r.Draw(pass, ctx)
	}
	return end(PassGeometry, pass)
}

// shadowPasses renders every renderable into the shadow map of each light holding one, from the light's
// point of view.
func (g *graphics) shadowPasses() error {
	for _, caster := range g.lights.ShadowCasters() {
		sm := caster.ShadowMap()
		if sm == nil {
			continue
		}
		label := fmt.Sprintf("%s %d", PassShadow, sm.ID())
		pass, err := g.begin(renderer.PassDescriptor{
			Label:      label,
			Depth:      sm.Texture(),
			DepthLoad:  renderer.LoadClear,
			ClearDepth: 1,
		})
		if err != nil {
			return err
		}
		ctx := renderer.DrawContext{
			Stage:      renderer.StageShadow,
			View:       caster.ShadowView(),
			Projection: caster.ShadowProjection(),
		}
		for _, r := range g.renderables {
			r.Draw(pass, ctx)
		}
		if err := end(label, pass); err != nil {
			return err
		}
	}
	return nil
}

// aoPass writes the occlusion buffer from the G-buffer, the sample kernel and the rotation noise.
func (g *graphics) aoPass(ctx renderer.DrawContext) error {
	pass, err := g.begin(renderer.PassDescriptor{
		Label:  PassAO,
		Colors: []renderer.ColorAttachment{{Target: g.targets.ao, Load: renderer.LoadClear, Clear: [4]float64{1, 1, 1, 1}}},
	})
	if err != nil {
		return err
	}
	u := GPUAOUniform{
		ViewProj:  ctx.ViewProjection(),
		View:      ctx.View,
		Radius:    g.aoRadius,
		NoiseSize: float32(g.noiseSize),
		Bias:      g.aoBias,
		Samples:   g.kernel,
	}
	g.aoScratch = u.Marshal(g.aoScratch)

	pass.SetProgram(g.progs.ao)
	g.targets.bindGBuffer(pass)
	pass.BindTexture(renderer.UnitFree0, g.noise)
	pass.SetUniforms(g.aoScratch)
	pass.Draw(fullscreenVertices, 1)
	return end(PassAO, pass)
}

// lightingPass clears the light buffer, copies the emission attachment into it and lets every light add
// its contribution.
func (g *graphics) lightingPass() error {
	pass, err := g.begin(renderer.PassDescriptor{
		Label:  PassLighting,
		Colors: []renderer.ColorAttachment{{Target: g.targets.lighting, Load: renderer.LoadClear}},
	})
	if err != nil {
		return err
	}
	g.targets.bindGBuffer(pass)
	pass.BindTexture(renderer.UnitAO, g.targets.ao)
	pass.BindTexture(renderer.UnitDepth, g.targets.depth)

	pass.SetProgram(g.progs.emission)
	pass.Draw(fullscreenVertices, 1)

	ctx := light.RenderContext{Camera: g.camera.Position(), Programs: g.progs.lights}
	if err := g.lights.Draw(pass, ctx); err != nil {
		_ = pass.End()
		return fmt.Errorf("graphics: %s pass: %w", PassLighting, err)
	}
	return end(PassLighting, pass)
}

// bloomPasses downsamples the light buffer through the mip chain, thresholding at the first step, then
// upsamples back with additive blending. The last upsample adds the chain into the light buffer scaled by
// the inverse step count.
func (g *graphics) bloomPasses() error {
	mips := g.targets.bloom
	if len(mips) == 0 {
		return nil
	}

	src := g.targets.lighting
	for i, dst := range mips {
		prog := g.progs.bloomDown
		if i == 0 {
			prog = g.progs.bloomThreshold
		}
		if err := g.bloomStep(fmt.Sprintf("%s %d", PassBloomDown, i), prog, src, dst, renderer.LoadClear, 1); err != nil {
			return err
		}
		src = dst
	}

	for i := len(mips) - 1; i > 0; i-- {
		if err := g.bloomStep(fmt.Sprintf("%s %d", PassBloomUp, i), g.progs.bloomUp, mips[i], mips[i-1], renderer.LoadKeep, 1); err != nil {
			return err
		}
	}
	factor := 1 / float32(len(mips))
	return g.bloomStep(fmt.Sprintf("%s %d", PassBloomUp, 0), g.progs.bloomUp, mips[0], g.targets.lighting, renderer.LoadKeep, factor)
}

// bloomStep draws src into dst with prog.
func (g *graphics) bloomStep(label string, prog renderer.Program, src, dst renderer.Texture, load renderer.LoadOp, factor float32) error {
	pass, err := g.begin(renderer.PassDescriptor{
		Label:  label,
		Colors: []renderer.ColorAttachment{{Target: dst, Load: load}},
	})
	if err != nil {
		return err
	}
	w, h := src.Size()
	u := GPUBloomUniform{TexelWidth: 1 / float32(w), TexelHeight: 1 / float32(h), Factor: factor}

	pass.SetProgram(prog)
	pass.BindTexture(renderer.UnitFree0, src)
	pass.SetUniforms(u.Marshal())
	pass.Draw(fullscreenVertices, 1)
	return end(label, pass)
}

// compositePass tone maps the light buffer, or shows a debug view, onto the surface.
func (g *graphics) compositePass() error {
	pass, err := g.begin(renderer.PassDescriptor{
		Label:  PassComposite,
		Colors: []renderer.ColorAttachment{{Load: renderer.LoadClear}},
	})
	if err != nil {
		return err
	}
	u := GPUCompositeUniform{Exposure: g.exposure, Mode: g.viewMode}

	pass.SetProgram(g.progs.composite)
	g.targets.bindGBuffer(pass)
	pass.BindTexture(renderer.UnitAO, g.targets.ao)
	pass.BindTexture(renderer.UnitLighting, g.targets.lighting)
	pass.SetUniforms(u.Marshal())
	pass.Draw(fullscreenVertices, 1)
	return end(PassComposite, pass)
}
