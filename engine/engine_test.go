package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/graphics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
	"github.com/Carmen-Shannon/oxy-deferred/engine/physics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// journal records scene entries, exits and object lifecycle events.
type journal struct {
	entered  []string
	data     []any
	exited   []string
	inits    int
	destroys int
	reports  []string
}

func (j *journal) reporter() common.Reporter {
	return func(format string, args ...any) {
		j.reports = append(j.reports, fmt.Sprintf(format, args...))
	}
}

// define registers a scene that logs its entry and exit and spawns objects tracked by the journal.
func (j *journal) define(objects int, setup scene.SetupFunc, managers ...manager.Constructor) scene.Definition {
	return scene.Definition{
		Managers: managers,
		New: func(name string) scene.Scene {
			return scene.NewScene(name, func(ctx context.Context, env *scene.Env) error {
				j.entered = append(j.entered, env.Name())
				j.data = append(j.data, env.Data())
				for range objects {
					obj := env.NewObject()
					obj.On(event.Init, func(any) { j.inits++ })
					obj.On(event.Destroy, func(any) { j.destroys++ })
					env.Spawn(obj)
				}
				if setup != nil {
					return setup(ctx, env)
				}
				return nil
			}, scene.WithExit(func() { j.exited = append(j.exited, name) }))
		},
	}
}

func startEngine(t *testing.T, j *journal, scenes scene.Registry, initial string, options ...EngineBuilderOption) Engine {
	t.Helper()
	options = append([]EngineBuilderOption{WithReporter(j.reporter())}, options...)
	e := NewEngine(options...)
	require.NoError(t, e.Start(context.Background(), scenes, initial, nil))
	return e
}

// sceneManager is a scene-declared manager that counts its hooks.
type sceneManager struct {
	t       manager.Type
	setups  int
	updates int
	torn    int
}

func (m *sceneManager) Type() manager.Type { return m.t }
func (m *sceneManager) SetupScene(context.Context) error { m.setups++; return nil }
func (m *sceneManager) Update() { m.updates++ }
func (m *sceneManager) Teardown() { m.torn++ }

func sceneManagerCtor(m *sceneManager) manager.Constructor {
	return manager.Constructor{
		Type: m.t,
		New:  func(manager.Registry) (manager.Manager, error) { return m, nil },
	}
}

func TestStartConstructsExactlyTheDefaultManagers(t *testing.T) {
	j := &journal{}
	e := startEngine(t, j, scene.Registry{"main": j.define(0, nil)}, "main")

	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, "main", e.Scene())
	assert.Equal(t, []string{"main"}, j.entered)

	var types []manager.Type
	for _, m := range e.Managers().All() {
		types = append(types, m.Type())
	}
	assert.Equal(t, []manager.Type{
		game_object.InstanceManagerType,
		input.InputType,
		clock.ClockType,
		physics.PhysicsType,
	}, types)
	assert.NotNil(t, e.Instances())
	assert.NotNil(t, e.Clock())
	assert.NotNil(t, e.Input())
	assert.NotNil(t, e.Physics())
	assert.Nil(t, e.Graphics())
}

func TestStartWithBackendAddsGraphics(t *testing.T) {
	j := &journal{}
	rec := renderertest.NewRecorder(64, 48)
	e := startEngine(t, j, scene.Registry{"main": j.define(0, nil)}, "main",
		WithBackend(rec),
		WithGraphicsOptions(graphics.WithShadowMapSize(32)),
	)

	all := e.Managers().All()
	require.Len(t, all, 5)
	assert.Equal(t, graphics.GraphicsType, all[1].Type())
	require.NotNil(t, e.Graphics())

	require.NoError(t, e.Tick(16*time.Millisecond))
	assert.Empty(t, rec.Passes, "no camera, no frame")

	e.Stop()
	for _, p := range rec.Programs {
		assert.True(t, p.Released, p.Key())
	}
	assert.False(t, rec.Released, "the backend belongs to the caller")
}

func TestTickRunsFrameStepsInOrder(t *testing.T) {
	j := &journal{}
	var log []string
	setup := func(_ context.Context, env *scene.Env) error {
		in := env.Input()
		env.Bus().AddListener(event.Update, func(any) {
			log = append(log, "update")
			in.KeyDown(common.KeyW)
		}, "test")
		env.Bus().AddListener(event.Render, func(any) {
			log = append(log, fmt.Sprintf("render pressed=%v held=%v", in.WasPressed(common.KeyW), in.IsHeld(common.KeyW)))
		}, "test")
		return nil
	}
	e := startEngine(t, j, scene.Registry{"main": j.define(1, setup)}, "main")

	assert.Zero(t, j.inits, "objects initialize on the first frame")
	require.NoError(t, e.Tick(500*time.Millisecond))
	assert.Equal(t, 1, j.inits)
	assert.Equal(t, []string{"update", "render pressed=false held=true"}, log)
	assert.InDelta(t, 0.5, e.Clock().DeltaTime(), 1e-6)

	require.NoError(t, e.Tick(3*time.Second))
	assert.InDelta(t, clock.MaxDeltaTime, e.Clock().DeltaTime(), 1e-6)
	assert.InDelta(t, 1.5, e.Clock().Time(), 1e-6)
	assert.Equal(t, uint64(2), e.Clock().Frames())
}

func TestChangeSceneLastRequestWins(t *testing.T) {
	j := &journal{}
	scenes := scene.Registry{
		"a": j.define(0, nil),
		"b": j.define(0, nil),
		"c": j.define(0, nil),
	}
	e := startEngine(t, j, scenes, "a")

	require.NoError(t, e.ChangeScene("b", 1))
	require.NoError(t, e.ChangeScene("c", 2))
	assert.Equal(t, "a", e.Scene(), "changes never happen mid-frame")

	require.NoError(t, e.Tick(0))
	assert.Equal(t, "c", e.Scene())
	assert.Equal(t, []string{"a", "c"}, j.entered)
	assert.Equal(t, []any{nil, 2}, j.data)
	assert.Equal(t, []string{"a"}, j.exited)

	require.NoError(t, e.Tick(time.Millisecond))
	assert.Equal(t, []string{"a", "c"}, j.entered)
}

func TestChangeSceneUnknownName(t *testing.T) {
	j := &journal{}
	e := startEngine(t, j, scene.Registry{"a": j.define(0, nil)}, "a")

	err := e.ChangeScene("nowhere", nil)
	assert.ErrorIs(t, err, ErrUnknownScene)
	require.NoError(t, e.Tick(0))
	assert.Equal(t, "a", e.Scene())
}

func TestLeavingSceneDestroysEveryObject(t *testing.T) {
	j := &journal{}
	scenes := scene.Registry{
		"level": j.define(3, nil),
		"menu":  j.define(0, nil),
	}
	e := startEngine(t, j, scenes, "level")
	require.NoError(t, e.Tick(0))
	require.Equal(t, 3, j.inits)
	assert.Equal(t, 3, e.Transforms().Live())

	require.NoError(t, e.ChangeScene("menu", nil))
	require.NoError(t, e.Tick(time.Millisecond))

	assert.Equal(t, j.inits, j.destroys)
	assert.Zero(t, e.Transforms().Live())
	assert.Empty(t, e.Instances().Objects())
	assert.Equal(t, []string{"level"}, j.exited)
}

func TestSceneChangeAppliesAfterPendingPass(t *testing.T) {
	j := &journal{}
	e := startEngine(t, j, scene.Registry{"level": j.define(2, nil), "menu": j.define(0, nil)}, "level")

	require.NoError(t, e.ChangeScene("menu", nil))
	require.NoError(t, e.Tick(0))

	// the change is applied after this frame's pending pass
	assert.Equal(t, 2, j.inits)
	assert.Equal(t, 2, j.destroys)
}

func TestSceneManagersBoundOnlyInTheirScenes(t *testing.T) {
	j := &journal{}
	audio := &sceneManager{t: "audio"}
	scenes := scene.Registry{
		"quiet": j.define(0, nil),
		"loud":  j.define(0, nil, sceneManagerCtor(audio)),
	}
	e := startEngine(t, j, scenes, "quiet")

	_, ok := e.Managers().Get("audio")
	require.True(t, ok, "every scene's managers are constructed at start")
	require.NoError(t, e.Tick(0))
	assert.Zero(t, audio.setups)
	assert.Zero(t, audio.updates)

	require.NoError(t, e.ChangeScene("loud", nil))
	require.NoError(t, e.Tick(time.Millisecond))
	assert.Equal(t, 1, audio.setups)
	require.NoError(t, e.Tick(2*time.Millisecond))
	assert.Equal(t, 1, audio.updates)

	e.Stop()
	assert.Equal(t, 1, audio.torn)
}

func TestStopIsTerminalAndIdempotent(t *testing.T) {
	j := &journal{}
	e := startEngine(t, j, scene.Registry{"a": j.define(2, nil), "b": j.define(0, nil)}, "a")
	require.NoError(t, e.Tick(0))

	e.Stop()
	e.Stop()

	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, []string{"a"}, j.exited)
	assert.Equal(t, 2, j.destroys)
	assert.Empty(t, e.Managers().All())
	assert.Nil(t, e.Instances())
	assert.Zero(t, e.Bus().ListenerCount(event.Update))

	assert.ErrorIs(t, e.Tick(time.Second), ErrNotRunning)
	assert.ErrorIs(t, e.ChangeScene("b", nil), ErrNotRunning)
	assert.ErrorIs(t, e.Start(context.Background(), scene.Registry{"b": j.define(0, nil)}, "b", nil), ErrNotRunning)
}

func TestStopInsideFrameTakesEffectAtFrameEnd(t *testing.T) {
	j := &journal{}
	var e Engine
	var renders int
	setup := func(_ context.Context, env *scene.Env) error {
		env.Bus().AddListener(event.Update, func(any) { e.Stop() }, "stopper")
		env.Bus().AddListener(event.Render, func(any) { renders++ }, "stopper")
		return nil
	}
	e = startEngine(t, j, scene.Registry{"a": j.define(0, setup)}, "a")

	require.NoError(t, e.Tick(0))
	assert.Equal(t, 1, renders, "the frame completes")
	assert.Equal(t, StateStopped, e.State())
	assert.ErrorIs(t, e.Tick(time.Millisecond), ErrNotRunning)
}

func TestStartErrors(t *testing.T) {
	j := &journal{}
	scenes := scene.Registry{"a": j.define(0, nil)}

	e := NewEngine(WithReporter(j.reporter()))
	assert.ErrorIs(t, e.Start(context.Background(), scenes, "missing", nil), ErrUnknownScene)
	assert.Equal(t, StateUninitialized, e.State())

	require.NoError(t, e.Start(context.Background(), scenes, "a", nil))
	assert.ErrorIs(t, e.Start(context.Background(), scenes, "a", nil), ErrAlreadyStarted)
}

func TestStaticInitFailureAbortsStart(t *testing.T) {
	j := &journal{}
	boom := errors.New("assets unavailable")
	constructed := false
	bad := manager.Constructor{
		Type: "assets",
		Init: func(context.Context) error { return boom },
		New: func(manager.Registry) (manager.Manager, error) {
			constructed = true
			return &sceneManager{t: "assets"}, nil
		},
	}
	e := NewEngine(WithReporter(j.reporter()))

	err := e.Start(context.Background(), scene.Registry{"a": j.define(0, nil, bad)}, "a", nil)
	require.ErrorIs(t, err, boom)
	assert.False(t, constructed)
	assert.Empty(t, e.Managers().All())
	assert.Nil(t, e.Instances())
	assert.Empty(t, j.entered)
	assert.Equal(t, StateUninitialized, e.State())
}

func TestConstructionFailureTearsDownBuiltManagers(t *testing.T) {
	j := &journal{}
	first := &sceneManager{t: "first"}
	boom := errors.New("no device")
	failing := manager.Constructor{
		Type: "second",
		New:  func(manager.Registry) (manager.Manager, error) { return nil, boom },
	}
	e := NewEngine(WithReporter(j.reporter()))

	err := e.Start(context.Background(), scene.Registry{"a": j.define(0, nil, sceneManagerCtor(first), failing)}, "a", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.torn)
	assert.Empty(t, e.Managers().All())
}

func TestFailedSceneChangeStopsEngine(t *testing.T) {
	j := &journal{}
	boom := errors.New("missing mesh")
	scenes := scene.Registry{
		"a":      j.define(0, nil),
		"broken": j.define(1, func(context.Context, *scene.Env) error { return boom }),
	}
	e := startEngine(t, j, scenes, "a")

	require.NoError(t, e.ChangeScene("broken", nil))
	err := e.Tick(0)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, []string{"a", "broken"}, j.exited)
	assert.Zero(t, e.Transforms().Live())
}

func TestFailedInitialSceneStopsEngine(t *testing.T) {
	j := &journal{}
	boom := errors.New("missing mesh")
	e := NewEngine(WithReporter(j.reporter()))

	err := e.Start(context.Background(), scene.Registry{
		"a": j.define(0, func(context.Context, *scene.Env) error { return boom }),
	}, "a", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateStopped, e.State())
	assert.Empty(t, e.Managers().All())
}

func TestDebugTriggersEvent(t *testing.T) {
	j := &journal{}
	var got []common.Vec3
	setup := func(_ context.Context, env *scene.Env) error {
		env.Bus().AddListener(event.Debug, func(data any) {
			got = append(got, data.(event.DebugData).Position)
		}, "test")
		return nil
	}
	e := startEngine(t, j, scene.Registry{"a": j.define(0, setup)}, "a")

	require.NoError(t, e.Debug(common.Vec3{1, 2, 3}))
	assert.Equal(t, []common.Vec3{{1, 2, 3}}, got)

	e.Stop()
	assert.ErrorIs(t, e.Debug(common.Vec3{}), ErrNotRunning)
}

func TestProfilerSamplesPopulation(t *testing.T) {
	j := &journal{}
	now := time.Unix(0, 0)
	var lines []string
	p := profiler.NewProfiler(
		profiler.WithClock(func() time.Time { return now }),
		profiler.WithReporter(func(format string, args ...any) {
			lines = append(lines, fmt.Sprintf(format, args...))
		}),
	)
	e := startEngine(t, j, scene.Registry{"a": j.define(2, nil)}, "a", WithProfiling(true), WithProfiler(p))

	now = now.Add(2 * time.Second)
	require.NoError(t, e.Tick(0))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Objects: 2")
	assert.Contains(t, lines[0], "Transforms: 2")
}

func TestRunHeadlessUntilContextEnds(t *testing.T) {
	j := &journal{}
	var updates int
	setup := func(_ context.Context, env *scene.Env) error {
		env.Bus().AddListener(event.Update, func(any) { updates++ }, "test")
		return nil
	}
	e := startEngine(t, j, scene.Registry{"a": j.define(0, setup)}, "a", WithTickRate(1000))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))

	assert.Positive(t, updates)
	assert.Equal(t, StateStopped, e.State())
	assert.ErrorIs(t, e.Run(context.Background()), ErrNotRunning)
}

// fakeWindow is a FrameSource and input.EventSource whose message loop runs a fixed number of iterations.
type fakeWindow struct {
	update  func()
	resize  func(width, height int)
	keyDown func(uint32)
	closed  bool
	loops   int
}

func (w *fakeWindow) SetUpdateCallback(callback func()) { w.update = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.resize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(uint32)) { w.keyDown = callback }
func (w *fakeWindow) SetKeyUpCallback(func(uint32)) {}
func (w *fakeWindow) SetMouseMoveCallback(func(x, y int32)) {}
func (w *fakeWindow) SetMouseButtonCallback(func(int, bool, int32, int32)) {}
func (w *fakeWindow) SetScrollCallback(func(float32)) {}
func (w *fakeWindow) Close() error { w.closed = true; return nil }

func (w *fakeWindow) ProcessMessages() {
	if w.resize != nil {
		w.resize(100, 80)
	}
	for i := 0; i < 100 && !w.closed; i++ {
		w.loops++
		if i == 1 && w.keyDown != nil {
			w.keyDown(uint32(common.KeySpace))
		}
		w.update()
	}
}

func TestRunDrivesFrameSource(t *testing.T) {
	j := &journal{}
	win := &fakeWindow{}
	rec := renderertest.NewRecorder(64, 48)
	var e Engine
	var pressed []common.Key
	setup := func(_ context.Context, env *scene.Env) error {
		env.Bus().AddListener(event.KeyPressed, func(data any) {
			pressed = append(pressed, data.(event.KeyPressedData).Key)
			e.Stop()
		}, "test")
		return nil
	}
	e = startEngine(t, j, scene.Registry{"a": j.define(0, setup)}, "a",
		WithFrameSource(win),
		WithBackend(rec),
		WithGraphicsOptions(graphics.WithShadowMapSize(32)),
	)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []common.Key{common.KeySpace}, pressed)
	assert.True(t, win.closed)
	assert.Equal(t, 2, win.loops, "a stop between frames closes the source on the next update")
	assert.Equal(t, StateStopped, e.State())

	w, h := rec.Size()
	assert.Equal(t, []int{100, 80}, []int{w, h})
}

func TestRunReturnsSceneChangeError(t *testing.T) {
	j := &journal{}
	win := &fakeWindow{}
	boom := errors.New("missing mesh")
	var e Engine
	setup := func(_ context.Context, env *scene.Env) error {
		env.Bus().AddListener(event.Update, func(any) { _ = e.ChangeScene("broken", nil) }, "test")
		return nil
	}
	e = startEngine(t, j, scene.Registry{
		"a":      j.define(0, setup),
		"broken": j.define(0, func(context.Context, *scene.Env) error { return boom }),
	}, "a", WithFrameSource(win))

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, win.closed)
	assert.Equal(t, 1, win.loops)
}
