package renderertest

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gbuffer(t *testing.T, r *Recorder, w, h int) []renderer.Texture {
	t.Helper()
	formats := []renderer.TextureFormat{
		renderer.FormatRGBA16Float, renderer.FormatRGBA8Unorm, renderer.FormatRGBA16Float,
		renderer.FormatRGBA16Float, renderer.FormatRGBA8Unorm,
	}
	out := make([]renderer.Texture, len(formats))
	for i, f := range formats {
		tex, err := r.CreateTexture(renderer.TextureDescriptor{Label: "g", Width: w, Height: h, Format: f})
		require.NoError(t, err)
		out[i] = tex
	}
	return out
}

func TestRecorder_PassOutsideFrame(t *testing.T) {
	r := NewRecorder(64, 64)
	_, err := r.BeginPass(renderer.PassDescriptor{Label: "x", Colors: []renderer.ColorAttachment{{}}})
	assert.ErrorIs(t, err, renderer.ErrNoFrame)
}

func TestRecorder_RejectsMismatchedAttachments(t *testing.T) {
	r := NewRecorder(64, 64)
	a, _ := r.CreateTexture(renderer.TextureDescriptor{Label: "a", Width: 64, Height: 64, Format: renderer.FormatRGBA8Unorm})
	b, _ := r.CreateTexture(renderer.TextureDescriptor{Label: "b", Width: 32, Height: 32, Format: renderer.FormatRGBA8Unorm})
	d, _ := r.CreateTexture(renderer.TextureDescriptor{Label: "d", Width: 64, Height: 64, Format: renderer.FormatDepth32Float})

	assert.ErrorIs(t, r.CheckTarget([]renderer.Texture{a, b}, nil), renderer.ErrIncompleteTarget)
	assert.ErrorIs(t, r.CheckTarget([]renderer.Texture{d}, nil), renderer.ErrIncompleteTarget)
	assert.ErrorIs(t, r.CheckTarget([]renderer.Texture{a}, a), renderer.ErrIncompleteTarget)
	assert.ErrorIs(t, r.CheckTarget(nil, nil), renderer.ErrIncompleteTarget)
	assert.NoError(t, r.CheckTarget([]renderer.Texture{a}, d))
}

func TestRecorder_ProgramErrors(t *testing.T) {
	r := NewRecorder(64, 64)
	lib := shader.NewLibrary()
	src, err := lib.Source(shader.Emission)
	require.NoError(t, err)

	r.ProgramErrors["emission"] = errors.New("boom")
	_, err = r.CreateProgram(pipeline.NewPipeline("emission", src, pipeline.WithFullscreen()))
	assert.Error(t, err)

	_, err = r.CreateProgram(pipeline.NewPipeline("bad", src, pipeline.WithEntryPoints("vs_missing", "")))
	assert.Error(t, err)
}

func TestRecorder_UnboundUnitFailsPass(t *testing.T) {
	r := NewRecorder(64, 64)
	lib := shader.NewLibrary()
	src, err := lib.Source(shader.Emission)
	require.NoError(t, err)
	prog, err := r.CreateProgram(pipeline.NewPipeline("emission", src, pipeline.WithFullscreen()))
	require.NoError(t, err)
	g := gbuffer(t, r, 64, 64)
	light, _ := r.CreateTexture(renderer.TextureDescriptor{Label: "light", Width: 64, Height: 64, Format: renderer.FormatRGBA16Float})

	require.NoError(t, r.BeginFrame())
	pass, err := r.BeginPass(renderer.PassDescriptor{Label: "lighting", Colors: []renderer.ColorAttachment{{Target: light}}})
	require.NoError(t, err)
	pass.SetProgram(prog)
	pass.Draw(4, 1)
	assert.Error(t, pass.End())

	pass, err = r.BeginPass(renderer.PassDescriptor{Label: "lighting", Colors: []renderer.ColorAttachment{{Target: light}}})
	require.NoError(t, err)
	for i, tex := range g {
		pass.BindTexture(renderer.TextureUnit(i), tex)
	}
	pass.SetProgram(prog)
	pass.Draw(4, 1)
	require.NoError(t, pass.End())
	require.NoError(t, r.EndFrame())

	passes := r.FramePasses(1)
	require.Len(t, passes, 2)
	draws := passes[1].DrawsOf("emission")
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(4), draws[0].Count)
	assert.Equal(t, g[renderer.UnitEmission], draws[0].Textures[renderer.UnitEmission])
}

func TestRecorder_FeedbackLoopFailsPass(t *testing.T) {
	r := NewRecorder(64, 64)
	light, _ := r.CreateTexture(renderer.TextureDescriptor{Label: "light", Width: 64, Height: 64, Format: renderer.FormatRGBA16Float})
	require.NoError(t, r.BeginFrame())
	pass, err := r.BeginPass(renderer.PassDescriptor{Label: "bloom", Colors: []renderer.ColorAttachment{{Target: light}}})
	require.NoError(t, err)
	pass.BindTexture(renderer.UnitFree0, light)
	assert.Error(t, pass.End())
}

func TestRecorder_EndFrameRequiresEndedPasses(t *testing.T) {
	r := NewRecorder(64, 64)
	require.NoError(t, r.BeginFrame())
	_, err := r.BeginPass(renderer.PassDescriptor{Label: "present", Colors: []renderer.ColorAttachment{{}}})
	require.NoError(t, err)
	assert.Error(t, r.EndFrame())
	assert.Equal(t, []string{"present"}, r.PassLabels(1))
}
