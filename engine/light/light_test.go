package light

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reports []string

func (r *reports) reporter() common.Reporter {
	return func(format string, args ...any) {
		*r = append(*r, fmt.Sprintf(format, args...))
	}
}

type fixture struct {
	rec     *renderertest.Recorder
	pool    transform.Pool
	lights  LightManager
	reports *reports
}

func newFixture() *fixture {
	r := &reports{}
	rec := renderertest.NewRecorder(64, 48)
	return &fixture{
		rec:     rec,
		pool:    transform.NewPool(),
		lights:  NewLightManager(rec, WithShadowMapSize(256), WithReporter(r.reporter())),
		reports: r,
	}
}

func (f *fixture) object(opts ...game_object.GameObjectBuilderOption) game_object.GameObject {
	return game_object.NewGameObject(f.pool, opts...)
}

func TestShadowMapPoolCreatesLazilyAndRecycles(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	pool := NewShadowMapPool(rec, 0, nil)
	assert.Equal(t, 0, pool.Len())
	assert.Empty(t, rec.Textures)

	a, err := pool.Get()
	require.NoError(t, err)
	b, err := pool.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Len())
	assert.Equal(t, 2, pool.InUse())
	assert.True(t, a.InUse())
	assert.NotEqual(t, a.ID(), b.ID())

	tex := rec.Textures[0]
	assert.Equal(t, renderer.FormatDepth32Float, tex.Desc.Format)
	assert.Equal(t, DefaultShadowMapSize, tex.Desc.Width)
	assert.Equal(t, "Shadow Map 0", tex.Desc.Label)

	pool.Free(a)
	assert.False(t, a.InUse())
	c, err := pool.Get()
	require.NoError(t, err)
	assert.Same(t, a, c)
	assert.Equal(t, 2, pool.Len())
	assert.Len(t, rec.Textures, 2)
	for _, tex := range rec.Textures {
		assert.False(t, tex.Released)
	}
}

func TestShadowMapPoolFreeMisuseReported(t *testing.T) {
	var r reports
	rec := renderertest.NewRecorder(8, 8)
	pool := NewShadowMapPool(rec, 16, r.reporter())
	other := NewShadowMapPool(rec, 16, r.reporter())

	sm, err := pool.Get()
	require.NoError(t, err)
	pool.Free(sm)
	pool.Free(sm)
	other.Free(sm)

	assert.Len(t, r, 2)
	assert.Equal(t, 0, pool.InUse())
	assert.Equal(t, 1, pool.Len())
}

func TestLightManagerLendsShadowMaps(t *testing.T) {
	f := newFixture()
	spot := NewSpotLight(f.object(), f.lights, WithShadows(true))
	sun := NewDirectionalLight(f.object(), f.lights)
	lamp := NewPointLight(f.object(), f.lights)

	f.lights.Add(spot)
	f.lights.Add(sun)
	f.lights.Add(lamp)

	assert.Equal(t, []Light{spot, sun, lamp}, f.lights.Lights())
	require.NotNil(t, spot.ShadowMap())
	assert.Nil(t, sun.ShadowMap())
	assert.Equal(t, []ShadowCaster{spot}, f.lights.ShadowCasters())
	assert.Equal(t, 256, spot.ShadowMap().Size())

	sm := spot.ShadowMap()
	f.lights.Remove(spot)
	assert.Nil(t, spot.ShadowMap())
	assert.False(t, sm.InUse())
	assert.Empty(t, f.lights.ShadowCasters())
	assert.Equal(t, []Light{sun, lamp}, f.lights.Lights())

	// a second shadowed light recycles the freed map
	other := NewDirectionalLight(f.object(), f.lights, WithShadows(true))
	f.lights.Add(other)
	assert.Same(t, sm, other.ShadowMap())
	assert.Equal(t, 1, f.lights.Pool().Len())
	assert.Empty(t, *f.reports)
}

func TestLightManagerMisuseReported(t *testing.T) {
	f := newFixture()
	lamp := NewPointLight(f.object(), f.lights)

	f.lights.Remove(lamp)
	f.lights.Add(lamp)
	f.lights.Add(lamp)

	assert.Len(t, *f.reports, 2)
	assert.Contains(t, (*f.reports)[0], "never added")
	assert.Contains(t, (*f.reports)[1], "added twice")
	assert.Len(t, f.lights.Lights(), 1)
}

func TestLightManagerResetFreesShadowMaps(t *testing.T) {
	f := newFixture()
	a := NewSpotLight(f.object(), f.lights, WithShadows(true))
	b := NewDirectionalLight(f.object(), f.lights, WithShadows(true))
	f.lights.Add(a)
	f.lights.Add(b)
	require.Equal(t, 2, f.lights.Pool().InUse())

	f.lights.Reset()

	assert.Empty(t, f.lights.Lights())
	assert.Empty(t, f.lights.ShadowCasters())
	assert.Nil(t, a.ShadowMap())
	assert.Nil(t, b.ShadowMap())
	assert.Equal(t, 0, f.lights.Pool().InUse())
	assert.Equal(t, 2, f.lights.Pool().Len())
}

func TestLightsFollowObjectLifecycle(t *testing.T) {
	f := newFixture()
	instances := game_object.NewInstanceManager(event.NewBus())

	obj := f.object()
	spot := NewSpotLight(obj, f.lights, WithShadows(true))
	instances.Instantiate(obj)
	assert.Empty(t, f.lights.Lights())

	instances.ProcessPending()
	assert.Equal(t, []Light{spot}, f.lights.Lights())
	assert.Equal(t, 1, f.lights.Pool().InUse())

	instances.Destroy(obj)
	assert.Empty(t, f.lights.Lights())
	assert.Equal(t, 0, f.lights.Pool().InUse())
	assert.Empty(t, *f.reports)
}

func TestShadowMatrices(t *testing.T) {
	f := newFixture()
	obj := f.object(game_object.WithPosition(common.Vec3{0, 4, 0}))
	spot := NewSpotLight(obj, f.lights, WithRadius(12), WithHalfAngle(0.4))

	want := common.Perspective(0.8, 1, SpotShadowNear, 12)
	assert.Equal(t, want, spot.ShadowProjection())

	// the view maps the light's own position to the origin
	origin := spot.ShadowView().TransformPoint(common.Vec3{0, 4, 0})
	for _, c := range origin {
		assert.InDelta(t, 0, c, 1e-5)
	}

	sun := NewDirectionalLight(f.object(), f.lights)
	assert.Equal(t, common.Ortho(-5, 5, -5, 5, 0.01, 30), sun.ShadowProjection())
}

func TestShadowViewIgnoresScale(t *testing.T) {
	f := newFixture()
	plain := NewSpotLight(f.object(game_object.WithPosition(common.Vec3{1, 3, 2})), f.lights)
	scaledObj := f.object(game_object.WithPosition(common.Vec3{1, 3, 2}))
	scaledObj.Transform().Scale = common.Vec3{4, 0.5, 2}
	scaled := NewSpotLight(scaledObj, f.lights)

	want := plain.ShadowView()
	got := scaled.ShadowView()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5)
	}

	// a point one unit in front of the light stays one unit deep
	p := got.TransformPoint(common.Vec3{1, 3, 1})
	assert.InDelta(t, -1, p[2], 1e-5)
}

func TestUniformLayouts(t *testing.T) {
	spot := (&GPUSpotLightUniform{
		LightViewProj: common.Mat4Identity(),
		Position:      common.Vec3{1, 2, 3},
		Radius:        9,
		Direction:     common.Vec3{0, -1, 0},
		CosHalfAngle:  0.5,
		Color:         common.Color{0.1, 0.2, 0.3},
		Intensity:     4,
		Camera:        common.Vec3{7, 8, 9},
	}).Marshal()
	require.Len(t, spot, SpotLightUniformSize)
	assert.Equal(t, float32(1), common.Float32At(spot, 0))
	assert.Equal(t, float32(1), common.Float32At(spot, 64))
	assert.Equal(t, float32(9), common.Float32At(spot, 76))
	assert.Equal(t, float32(0.5), common.Float32At(spot, 92))
	assert.Equal(t, float32(4), common.Float32At(spot, 108))
	assert.Equal(t, float32(9), common.Float32At(spot, 120))

	point := (&GPUPointLightUniform{
		Light:  GPUPointLight{Position: common.Vec3{1, 2, 3}, Radius: 5, Color: common.White, Intensity: 2},
		Camera: common.Vec3{4, 5, 6},
	}).Marshal()
	require.Len(t, point, PointLightUniformSize)
	assert.Equal(t, float32(5), common.Float32At(point, 12))
	assert.Equal(t, float32(2), common.Float32At(point, 28))
	assert.Equal(t, float32(4), common.Float32At(point, 32))

	assert.Len(t, (&GPUDirectionalLightUniform{}).Marshal(), DirectionalLightUniformSize)
	assert.Len(t, (&GPUAmbientLightUniform{}).Marshal(), AmbientLightUniformSize)
	assert.Len(t, MarshalPointLights(nil, make([]GPUPointLight, 3)), 3*PointLightRecordSize)
}

// lightPass begins a light accumulation pass with the G-buffer and AO inputs bound.
func lightPass(t *testing.T, rec *renderertest.Recorder) (renderer.Pass, *renderertest.Pass) {
	t.Helper()
	tex := func(label string, format renderer.TextureFormat) renderer.Texture {
		out, err := rec.CreateTexture(renderer.TextureDescriptor{Label: label, Width: 64, Height: 48, Format: format})
		require.NoError(t, err)
		return out
	}
	target := tex("Light Buffer", LightBufferFormat)

	require.NoError(t, rec.BeginFrame())
	pass, err := rec.BeginPass(renderer.PassDescriptor{
		Label:  "Lighting",
		Colors: []renderer.ColorAttachment{{Target: target}},
	})
	require.NoError(t, err)
	for _, unit := range []renderer.TextureUnit{renderer.UnitPosition, renderer.UnitAlbedo, renderer.UnitNormal, renderer.UnitEmission, renderer.UnitMaterial} {
		pass.BindTexture(unit, tex(fmt.Sprintf("G-Buffer %d", unit), renderer.FormatRGBA16Float))
	}
	pass.BindTexture(renderer.UnitAO, tex("AO", renderer.FormatRGBA8Unorm))
	return pass, rec.Passes[len(rec.Passes)-1]
}

func TestLightManagerDrawsInRegistrationOrderAndBatchesInstances(t *testing.T) {
	f := newFixture()
	programs, err := NewPrograms(f.rec, shader.NewLibrary())
	require.NoError(t, err)

	ambient := NewAmbientLight(f.object(), f.lights, WithIntensity(0.2))
	spot := NewSpotLight(f.object(game_object.WithPosition(common.Vec3{0, 5, 0})), f.lights, WithShadows(true))
	a := NewPointLight(f.object(game_object.WithPosition(common.Vec3{1, 0, 0})), f.lights, WithInstanced(true), WithRadius(3))
	lamp := NewPointLight(f.object(), f.lights)
	b := NewPointLight(f.object(game_object.WithPosition(common.Vec3{2, 0, 0})), f.lights, WithInstanced(true))
	for _, l := range []Light{ambient, spot, a, lamp, b} {
		f.lights.Add(l)
	}

	pass, recorded := lightPass(t, f.rec)
	require.NoError(t, f.lights.Draw(pass, RenderContext{Camera: common.Vec3{0, 1, 5}, Programs: programs}))
	require.NoError(t, pass.End())
	require.NoError(t, f.rec.EndFrame())

	var keys []string
	for _, d := range recorded.Draws {
		keys = append(keys, d.Program)
	}
	assert.Equal(t, []string{
		ProgramKey(shader.AmbientLight),
		ProgramKey(shader.SpotLight, shader.DefineShadowed),
		ProgramKey(shader.PointLight),
		ProgramKey(shader.PointLight, shader.DefineInstanced),
	}, keys)

	spotDraw := recorded.Draws[1]
	assert.Same(t, spot.ShadowMap().Texture(), spotDraw.Textures[renderer.UnitFree0])

	batch := recorded.Draws[3]
	assert.Equal(t, uint32(4), batch.Count)
	assert.Equal(t, uint32(2), batch.Instances)
	require.NotNil(t, batch.Storage)
	storage := batch.Storage.(*renderertest.Buffer)
	assert.Equal(t, uint64(minInstanceCapacity*PointLightRecordSize), storage.Size())
	assert.Equal(t, float32(1), common.Float32At(storage.Data, 0))
	assert.Equal(t, float32(3), common.Float32At(storage.Data, 12))
	assert.Equal(t, float32(2), common.Float32At(storage.Data, PointLightRecordSize))

	f.lights.Release()
	assert.True(t, storage.Released)
}

func TestNewProgramsReleasesOnFailure(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	rec.ProgramErrors[ProgramKey(shader.DirectionalLight)] = fmt.Errorf("boom")

	_, err := NewPrograms(rec, shader.NewLibrary())
	require.Error(t, err)
	for _, p := range rec.Programs {
		assert.True(t, p.Released, p.Key())
	}
	assert.Len(t, rec.Programs, 4)
}
