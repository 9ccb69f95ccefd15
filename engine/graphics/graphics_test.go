package graphics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
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
	g       Graphics
	reports *reports
}

func newFixture(t *testing.T, options ...GraphicsBuilderOption) *fixture {
	t.Helper()
	r := &reports{}
	rec := renderertest.NewRecorder(64, 48)
	g, err := NewGraphics(rec, append([]GraphicsBuilderOption{WithShadowMapSize(32), WithReporter(r.reporter())}, options...)...)
	require.NoError(t, err)
	return &fixture{rec: rec, pool: transform.NewPool(), g: g, reports: r}
}

func (f *fixture) object(opts ...game_object.GameObjectBuilderOption) game_object.GameObject {
	return game_object.NewGameObject(f.pool, opts...)
}

// camera installs an active camera at (0, 2, 6) looking at the origin.
func (f *fixture) camera() *camera.Camera {
	obj := f.object()
	obj.Transform().LookAt(common.Vec3{0, 2, 6}, common.Vec3{}, common.Vec3{0, 1, 0})
	cam := camera.NewCamera(obj)
	f.g.SetCamera(cam)
	return cam
}

// cube uploads a single indexed triangle standing in for a static model.
func (f *fixture) cube(t *testing.T, program string) model.Model {
	t.Helper()
	m, err := model.NewModel(f.rec, &model.Mesh{
		Name: "cube",
		Primitives: []model.Primitive{{
			Name:     "body",
			Vertices: make([]model.Vertex, 3),
			Indices:  []uint32{0, 1, 2},
			Material: model.DefaultMaterial,
			Program:  program,
		}},
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) mesh(t *testing.T, options ...MeshBuilderOption) *Mesh {
	t.Helper()
	mesh := NewMesh(f.object(), f.g, f.cube(t, ""), options...)
	mesh.Init()
	return mesh
}

func rig() *model.Skin {
	return &model.Skin{Joints: []model.Joint{
		{Name: "root", Parent: -1, Rotation: common.QuatIdentity(), Scale: common.Vec3{1, 1, 1}, InverseBind: common.Mat4Identity()},
		{Name: "tip", Parent: 0, Translation: common.Vec3{0, 1, 0}, Rotation: common.QuatIdentity(), Scale: common.Vec3{1, 1, 1}, InverseBind: common.Mat4Identity()},
	}}
}

func assertPassesClean(t *testing.T, passes []*renderertest.Pass) {
	t.Helper()
	for _, p := range passes {
		assert.NoError(t, p.Err, p.Desc.Label)
		assert.True(t, p.Ended, p.Desc.Label)
	}
}

func TestNewGraphicsCompilesProgramsAndCreatesTargets(t *testing.T) {
	f := newFixture(t)

	keys := f.rec.ProgramKeys()
	for _, key := range []string{
		"geometry",
		"geometry+SKINNED",
		"shadow_depth",
		"shadow_depth+SKINNED",
		"ao",
		"emission",
		"bloom_downsample+THRESHOLD",
		"bloom_downsample",
		"bloom_upsample",
		"composite",
		light.ProgramKey(shader.SpotLight, shader.DefineShadowed),
		light.ProgramKey(shader.AmbientLight),
	} {
		assert.Contains(t, keys, key)
	}

	labels := make(map[string]*renderertest.Texture)
	for _, tex := range f.rec.Textures {
		labels[tex.Desc.Label] = tex
	}
	for _, label := range []string{
		"G-Buffer Position", "G-Buffer Albedo", "G-Buffer Normal", "G-Buffer Emission", "G-Buffer Material",
		"G-Buffer Depth", "AO Buffer", "Light Buffer", "AO Noise",
	} {
		require.Contains(t, labels, label)
		assert.False(t, labels[label].Released, label)
	}
	assert.Equal(t, DepthFormat, labels["G-Buffer Depth"].Desc.Format)
	assert.Equal(t, 1, labels["AO Noise"].Uploads)
	assert.Equal(t, DefaultNoiseSize, labels["AO Noise"].Desc.Width)

	// bloom mips halve down to a minimum of one texel
	for i, want := range [][2]int{{32, 24}, {16, 12}, {8, 6}, {4, 3}, {2, 1}} {
		mip := labels[fmt.Sprintf("Bloom Mip %d", i)]
		require.NotNil(t, mip, i)
		assert.Equal(t, want[0], mip.Desc.Width)
		assert.Equal(t, want[1], mip.Desc.Height)
	}
	assert.Equal(t, GraphicsType, f.g.Type())
}

func TestNewGraphicsCompileErrorIsFatal(t *testing.T) {
	rec := renderertest.NewRecorder(64, 48)
	boom := errors.New("boom")
	rec.ProgramErrors["ao"] = boom

	g, err := NewGraphics(rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, g)
	require.NotEmpty(t, rec.Programs)
	for _, p := range rec.Programs {
		assert.True(t, p.Released, p.Key())
	}
	assert.Empty(t, rec.Textures)
}

// incompleteBackend rejects every render target.
type incompleteBackend struct {
	*renderertest.Recorder
}

func (b incompleteBackend) CheckTarget([]renderer.Texture, renderer.Texture) error {
	return fmt.Errorf("%w: attachment missing", renderer.ErrIncompleteTarget)
}

func TestNewGraphicsIncompleteTargetIsFatal(t *testing.T) {
	rec := renderertest.NewRecorder(64, 48)

	_, err := NewGraphics(incompleteBackend{rec})
	assert.ErrorIs(t, err, renderer.ErrIncompleteTarget)
	for _, tex := range rec.Textures {
		assert.True(t, tex.Released, tex.Desc.Label)
	}
	for _, p := range rec.Programs {
		assert.True(t, p.Released, p.Key())
	}
}

func TestRenderWithoutCameraDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.mesh(t)

	require.NoError(t, f.g.RenderFrame())
	assert.Equal(t, 0, f.rec.Frames())
	assert.Empty(t, f.rec.Passes)
}

func TestFramePassOrder(t *testing.T) {
	f := newFixture(t)
	f.camera()
	mesh := f.mesh(t)

	ambient := light.NewAmbientLight(f.object(), f.g.Lights(), light.WithIntensity(0.1))
	spotObj := f.object(game_object.WithPosition(common.Vec3{0, 5, 0}))
	spotObj.Transform().LookAt(common.Vec3{0, 5, 0}, common.Vec3{}, common.Vec3{0, 0, -1})
	spot := light.NewSpotLight(spotObj, f.g.Lights(), light.WithShadows(true))
	lamp := light.NewPointLight(f.object(game_object.WithPosition(common.Vec3{2, 1, 0})), f.g.Lights())
	for _, l := range []game_object.Initer{ambient, spot, lamp} {
		l.Init()
	}
	require.NotNil(t, spot.ShadowMap())

	require.NoError(t, f.g.RenderFrame())
	require.Equal(t, 1, f.rec.Frames())
	assert.Equal(t, []string{
		PassGeometry,
		fmt.Sprintf("%s %d", PassShadow, spot.ShadowMap().ID()),
		PassAO,
		PassLighting,
		"Bloom Downsample 0", "Bloom Downsample 1", "Bloom Downsample 2", "Bloom Downsample 3", "Bloom Downsample 4",
		"Bloom Upsample 4", "Bloom Upsample 3", "Bloom Upsample 2", "Bloom Upsample 1", "Bloom Upsample 0",
		PassComposite,
	}, f.rec.PassLabels(1))

	passes := f.rec.FramePasses(1)
	assertPassesClean(t, passes)

	geometry := passes[0]
	require.Len(t, geometry.Draws, 1)
	draw := geometry.Draws[0]
	assert.Equal(t, "geometry", draw.Program)
	assert.True(t, draw.Indexed)
	assert.Equal(t, uint32(3), draw.Count)
	assert.Len(t, draw.Uniforms, GeometryUniformSize)
	assert.Same(t, mesh.Model().Primitives()[0].VertexBuffer, draw.VertexBuffers[0])

	shadow := passes[1]
	assert.Same(t, spot.ShadowMap().Texture(), shadow.Desc.Depth)
	require.Len(t, shadow.Draws, 1)
	assert.Equal(t, "shadow_depth", shadow.Draws[0].Program)
	assert.Len(t, shadow.Draws[0].Uniforms, ShadowUniformSize)

	ao := passes[2]
	require.Len(t, ao.Draws, 1)
	assert.Equal(t, uint32(fullscreenVertices), ao.Draws[0].Count)
	assert.Equal(t, float32(DefaultAOSamples), common.Float32At(ao.Draws[0].Uniforms, 132))

	lighting := passes[3]
	var programs []string
	for _, d := range lighting.Draws {
		programs = append(programs, d.Program)
	}
	assert.Equal(t, []string{
		"emission",
		light.ProgramKey(shader.AmbientLight),
		light.ProgramKey(shader.SpotLight, shader.DefineShadowed),
		light.ProgramKey(shader.PointLight),
	}, programs)

	up := passes[len(passes)-2]
	require.Len(t, up.Draws, 1)
	assert.Equal(t, "bloom_upsample", up.Draws[0].Program)
	assert.InDelta(t, 1.0/DefaultBloomSteps, common.Float32At(up.Draws[0].Uniforms, 12), 1e-6)

	composite := passes[len(passes)-1]
	require.Len(t, composite.Draws, 1)
	assert.Nil(t, composite.Desc.Colors[0].Target)
	assert.Equal(t, float32(DefaultExposure), common.Float32At(composite.Draws[0].Uniforms, 0))
	assert.Empty(t, *f.reports)
}

func TestBloomDisabledSkipsMipChain(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0), WithViewMode(ViewNormal))
	f.camera()

	require.NoError(t, f.g.RenderFrame())
	assert.Equal(t, []string{PassGeometry, PassAO, PassLighting, PassComposite}, f.rec.PassLabels(1))
	assertPassesClean(t, f.rec.FramePasses(1))

	composite := f.rec.FramePasses(1)[3]
	assert.Equal(t, float32(ViewNormal), common.Float32At(composite.Draws[0].Uniforms, 4))

	f.g.SetViewMode(ViewAO)
	f.g.SetExposure(2)
	require.NoError(t, f.g.RenderFrame())
	composite = f.rec.FramePasses(2)[3]
	assert.Equal(t, float32(2), common.Float32At(composite.Draws[0].Uniforms, 0))
	assert.Equal(t, float32(ViewAO), common.Float32At(composite.Draws[0].Uniforms, 4))
}

func TestMeshWithoutShadowCastingSkipsShadowPass(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0))
	f.camera()
	mat := model.Material{Albedo: common.Color{1, 0, 0}, Roughness: 0.25, Metallic: 1}
	f.mesh(t, WithShadowCasting(false), WithMaterial(mat))
	spot := light.NewSpotLight(f.object(), f.g.Lights(), light.WithShadows(true))
	spot.Init()

	require.NoError(t, f.g.RenderFrame())
	passes := f.rec.FramePasses(1)
	assertPassesClean(t, passes)
	assert.Empty(t, passes[1].Draws)

	u := passes[0].Draws[0].Uniforms
	assert.Equal(t, float32(1), common.Float32At(u, 192))
	assert.Equal(t, float32(0), common.Float32At(u, 196))
	assert.Equal(t, float32(0.25), common.Float32At(u, 224))
	assert.Equal(t, float32(1), common.Float32At(u, 228))
}

func TestSkinnedMeshBindsAnimatorJoints(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0))
	f.camera()

	skinned, err := model.NewModel(f.rec, &model.Mesh{
		Name:       "rig",
		Skin:       rig(),
		Primitives: []model.Primitive{{Name: "skin", SkinnedVertices: make([]model.SkinnedVertex, 3)}},
	})
	require.NoError(t, err)

	eval, err := animator.NewEvaluator(skinned.Skin(), nil)
	require.NoError(t, err)
	obj := f.object()
	anim, err := animator.NewAnimator(obj, eval, clock.NewClock(), f.rec)
	require.NoError(t, err)
	NewMesh(obj, f.g, skinned).Init()

	orphan := NewMesh(f.object(), f.g, skinned)
	orphan.Init()

	require.NoError(t, f.g.RenderFrame())
	require.NoError(t, f.g.RenderFrame())
	geometry := f.rec.FramePasses(1)[0]
	assert.NoError(t, geometry.Err)
	require.Len(t, geometry.Draws, 1)
	draw := geometry.Draws[0]
	assert.Equal(t, "geometry+SKINNED", draw.Program)
	assert.Same(t, anim.JointBuffer(), draw.Storage)
	assert.False(t, draw.Indexed)
	assert.Equal(t, uint32(3), draw.Count)

	// the mesh without an animator is skipped and reported once
	require.Len(t, *f.reports, 1)
	assert.Contains(t, (*f.reports)[0], "has no animator")
}

func TestCustomProgramCompiledOnce(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0))
	f.camera()
	src, err := f.g.Library().Source(shader.Geometry)
	require.NoError(t, err)
	f.g.Library().Register("toon", src)

	NewMesh(f.object(), f.g, f.cube(t, "toon")).Init()
	NewMesh(f.object(), f.g, f.cube(t, "missing")).Init()

	require.NoError(t, f.g.RenderFrame())
	require.NoError(t, f.g.RenderFrame())

	toon := 0
	for _, key := range f.rec.ProgramKeys() {
		if key == "toon" {
			toon++
		}
	}
	assert.Equal(t, 1, toon)
	assert.Len(t, f.rec.FramePasses(2)[0].DrawsOf("toon"), 1)

	// the unknown source is reported once and its primitive skipped
	require.Len(t, *f.reports, 1)
	assert.Contains(t, (*f.reports)[0], `"missing"`)
	assert.Len(t, f.rec.FramePasses(2)[0].Draws, 1)
}

func TestMeshReporterDefaultsToGraphics(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0))
	f.camera()
	own := &reports{}

	NewMesh(f.object(), f.g, f.cube(t, "missing")).Init()
	NewMesh(f.object(), f.g, f.cube(t, "missing"), WithMeshReporter(own.reporter())).Init()
	require.NoError(t, f.g.RenderFrame())

	assert.Len(t, *f.reports, 1)
	assert.Len(t, *own, 1)
}

func TestRenderablesMisuseReported(t *testing.T) {
	f := newFixture(t)
	mesh := f.mesh(t)
	require.Len(t, f.g.Renderables(), 1)

	f.g.Add(mesh)
	assert.Len(t, f.g.Renderables(), 1)

	mesh.Destroy()
	assert.Empty(t, f.g.Renderables())
	mesh.Destroy()

	require.Len(t, *f.reports, 2)
	assert.Contains(t, (*f.reports)[0], "already registered")
	assert.Contains(t, (*f.reports)[1], "never registered")
}

func TestSetupSceneForgetsSceneState(t *testing.T) {
	f := newFixture(t)
	f.camera()
	f.mesh(t)
	spot := light.NewSpotLight(f.object(), f.g.Lights(), light.WithShadows(true))
	spot.Init()
	require.Equal(t, 1, f.g.Lights().Pool().InUse())
	programs := len(f.rec.Programs)

	require.NoError(t, f.g.SetupScene(t.Context()))
	assert.Nil(t, f.g.Camera())
	assert.Empty(t, f.g.Renderables())
	assert.Empty(t, f.g.Lights().Lights())
	assert.Equal(t, 0, f.g.Lights().Pool().InUse())
	assert.Len(t, f.rec.Programs, programs)
	for _, p := range f.rec.Programs {
		assert.False(t, p.Released, p.Key())
	}
}

func TestDestroyedCameraStopsRendering(t *testing.T) {
	f := newFixture(t)
	im := game_object.NewInstanceManager(event.NewBus())
	obj := f.object()
	cam := camera.NewCamera(obj)
	im.Instantiate(obj)
	im.ProcessPending()
	f.g.SetCamera(cam)

	im.Destroy(obj)
	im.ProcessPending()
	require.NoError(t, f.g.RenderFrame())
	assert.Equal(t, 0, f.rec.Frames())
	assert.Nil(t, f.g.Camera())
}

func TestResizeRecreatesTargets(t *testing.T) {
	f := newFixture(t, WithBloomSteps(2))
	cam := f.camera()
	assert.InDelta(t, 64.0/48.0, cam.Aspect(), 1e-6)
	before := len(f.rec.Textures)

	f.rec.Resize(32, 32)
	require.NoError(t, f.g.RenderFrame())
	assertPassesClean(t, f.rec.FramePasses(1))
	assert.InDelta(t, 1, cam.Aspect(), 1e-6)

	for _, tex := range f.rec.Textures[:before] {
		if tex.Desc.Label == "AO Noise" {
			assert.False(t, tex.Released)
			continue
		}
		assert.True(t, tex.Released, tex.Desc.Label)
	}
	for _, tex := range f.rec.Textures[before:] {
		assert.False(t, tex.Released, tex.Desc.Label)
		if tex.Desc.Label == "Light Buffer" {
			assert.Equal(t, 32, tex.Desc.Width)
		}
	}

	// an unchanged size keeps the targets
	textures := len(f.rec.Textures)
	require.NoError(t, f.g.RenderFrame())
	assert.Len(t, f.rec.Textures, textures)
}

func TestLibraryChangeRebuildsPrograms(t *testing.T) {
	f := newFixture(t, WithBloomSteps(0))
	f.camera()
	lib := f.g.Library()
	src, err := lib.Source(shader.Emission)
	require.NoError(t, err)
	old := f.rec.Programs

	lib.Register(shader.Emission, src)
	require.NoError(t, f.g.RenderFrame())
	for _, p := range old {
		assert.True(t, p.Released, p.Key())
	}
	assertPassesClean(t, f.rec.FramePasses(1))
	rebuilt := len(f.rec.Programs)
	assert.Equal(t, 2*len(old), rebuilt)

	// a failed rebuild keeps the previous programs and is reported once
	f.rec.ProgramErrors["composite"] = errors.New("syntax error")
	lib.Register(shader.Emission, src)
	require.NoError(t, f.g.RenderFrame())
	require.NoError(t, f.g.RenderFrame())
	for _, p := range f.rec.Programs[len(old):rebuilt] {
		assert.False(t, p.Released, p.Key())
	}
	assertPassesClean(t, f.rec.FramePasses(3))
	require.Len(t, *f.reports, 1)
	assert.Contains(t, (*f.reports)[0], "keeping previous programs")
}

func TestTeardownReleasesEverything(t *testing.T) {
	f := newFixture(t)
	f.g.Teardown()
	for _, p := range f.rec.Programs {
		assert.True(t, p.Released, p.Key())
	}
	for _, tex := range f.rec.Textures {
		assert.True(t, tex.Released, tex.Desc.Label)
	}
	f.camera()
	require.NoError(t, f.g.RenderFrame())
	assert.Equal(t, 0, f.rec.Frames())
}

func TestAOKernel(t *testing.T) {
	kernel := NewAOKernel(MaxAOSamples, 7)
	require.Len(t, kernel, MaxAOSamples)
	for i, s := range kernel {
		assert.GreaterOrEqual(t, s[2], float32(0), i)
		assert.LessOrEqual(t, s.Length(), float32(1)+1e-6, i)
	}
	assert.Equal(t, kernel, NewAOKernel(MaxAOSamples, 7))
	assert.NotEqual(t, kernel, NewAOKernel(MaxAOSamples, 8))

	noise := NewAONoise(4, 7)
	assert.Equal(t, uint32(4), noise.Width)
	assert.Len(t, noise.Pixels, 4*4*4)
	assert.Equal(t, byte(255), noise.Pixels[3])
	assert.Equal(t, noise, NewAONoise(4, 7))
}

func TestUniformLayouts(t *testing.T) {
	m := common.Mat4Identity()
	m[12] = 3
	geometry := (&GPUGeometryUniform{
		Model:    m,
		ViewProj: common.Mat4Identity(),
		Material: model.Material{Albedo: common.Color{0, 0.5, 0}, Emission: common.Color{2, 0, 0}, Roughness: 0.75},
	}).Marshal(nil)
	require.Len(t, geometry, GeometryUniformSize)
	assert.Equal(t, float32(3), common.Float32At(geometry, 48))
	// a translation leaves the normal matrix at identity
	assert.Equal(t, float32(1), common.Float32At(geometry, 128))
	assert.Equal(t, float32(0), common.Float32At(geometry, 128+48))
	assert.Equal(t, float32(0.5), common.Float32At(geometry, 196))
	assert.Equal(t, float32(2), common.Float32At(geometry, 208))
	assert.Equal(t, float32(0.75), common.Float32At(geometry, 224))

	ao := (&GPUAOUniform{Radius: 0.5, NoiseSize: 4, Bias: 0.1, Samples: make([]common.Vec3, MaxAOSamples+3)}).Marshal(nil)
	require.Len(t, ao, AOUniformSize)
	assert.Equal(t, float32(0.5), common.Float32At(ao, 128))
	assert.Equal(t, float32(MaxAOSamples), common.Float32At(ao, 132))
	assert.Equal(t, float32(4), common.Float32At(ao, 136))

	assert.Len(t, (&GPUShadowUniform{}).Marshal(nil), ShadowUniformSize)
	bloom := (&GPUBloomUniform{TexelWidth: 0.5, Factor: 0.2}).Marshal()
	assert.Equal(t, float32(0.5), common.Float32At(bloom, 0))
	assert.Equal(t, float32(0.2), common.Float32At(bloom, 12))
}
