// Package engine drives an engine run: it constructs the managers, enters and leaves scenes, and ticks
// every frame in a fixed order on a single goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/graphics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
	"github.com/Carmen-Shannon/oxy-deferred/engine/physics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
)

// DefaultTickRate is the headless tick rate in frames per second.
const DefaultTickRate = 60.0

// State is the lifecycle state of an engine.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	// ErrNotRunning is returned by frame and scene operations outside the Running state.
	ErrNotRunning = errors.New("engine: not running")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("engine: already started")

	// ErrUnknownScene is returned when a scene name is not registered.
	ErrUnknownScene = scene.ErrUnknownScene
)

// FrameSource paces frames and reports surface resizes. The window package's Window satisfies it.
type FrameSource interface {
	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))
	ProcessMessages()
	Close() error
}

type sceneRequest struct {
	name string
	data any
}

// engine implements the Engine interface.
type engine struct {
	// mu is held for the whole of a frame, a start, and a shutdown.
	mu           sync.Mutex
	state        atomic.Int32
	quit         chan struct{}
	stopOnce     sync.Once
	shutdownOnce sync.Once

	// pendingMu guards the scene registry and the pending request, which are read from inside a frame.
	pendingMu sync.Mutex
	scenes    scene.Registry
	pending   *sceneRequest

	tickRate          time.Duration
	profiler          *profiler.Profiler
	profilingEnabled  bool
	frames            FrameSource
	events            input.EventSource
	backend           renderer.Backend
	world             physics.World
	graphicsOptions   []graphics.GraphicsBuilderOption
	hotReload         bool
	report            common.Reporter
	initWorkers       int
	transformPoolSize int

	ctx        context.Context
	bus        event.Bus
	managers   manager.Registry
	transforms transform.Pool
	defaults   []manager.Constructor
	current    scene.Scene
	sceneName  string

	instances game_object.InstanceManager
	clock     clock.Clock
	input     input.Input
	physics   physics.Physics
	graphics  graphics.Graphics
}

// Engine is the main entry point for the engine. It owns the event bus, the transform pool and every
// manager, and runs one frame per Tick.
type Engine interface {
	// Start constructs the managers and enters the initial scene. Every manager's static initializer
	// completes before any manager is constructed; the first failure aborts the start with no managers
	// retained.
	//
	// Parameters:
	//   - ctx: context for the static initializers and scene setups
	//   - scenes: every scene the run may enter; fixed from here on
	//   - initial: the scene to enter
	//   - data: entry data passed to the initial scene
	//
	// Returns:
	//   - error: ErrAlreadyStarted, ErrUnknownScene, an init or construction error, or the scene entry error
	Start(ctx context.Context, scenes scene.Registry, initial string, data any) error

	// Tick runs one frame: advance the clock, initialize pending objects, trigger Update, step physics,
	// clear one-frame input, trigger Render, then perform a requested scene change. A failed scene change
	// stops the engine.
	//
	// Parameters:
	//   - now: time since the run began
	//
	// Returns:
	//   - error: ErrNotRunning, or the scene change error
	Tick(now time.Duration) error

	// Run drives Tick from the frame source, or headless from a ticker at the tick rate, until ctx ends,
	// the frame source closes, or Stop is called. The engine is stopped when Run returns.
	//
	// Parameters:
	//   - ctx: ends the run
	//
	// Returns:
	//   - error: ErrNotRunning if not started, or the error that ended the run
	Run(ctx context.Context) error

	// ChangeScene requests a scene change at the end of the current frame. The last request of a frame wins.
	//
	// Parameters:
	//   - name: the scene to enter
	//   - data: entry data for the scene
	//
	// Returns:
	//   - error: ErrUnknownScene immediately if name is not registered, ErrNotRunning if not running
	ChangeScene(name string, data any) error

	// Debug triggers the Debug event with position. Call it from the frame goroutine.
	//
	// Parameters:
	//   - position: the payload position
	//
	// Returns:
	//   - error: ErrNotRunning if not running
	Debug(position common.Vec3) error

	// Stop exits the current scene, tears every manager down and resets the bus. It is terminal and safe
	// to call more than once or from inside a frame, in which case shutdown happens when the frame ends.
	Stop()

	// State returns the lifecycle state.
	State() State

	// Scene returns the name of the current scene, or "".
	Scene() string

	// Bus returns the event bus.
	Bus() event.Bus

	// Transforms returns the transform pool.
	Transforms() transform.Pool

	// Managers returns the manager registry.
	Managers() manager.Registry

	// Instances returns the lifecycle manager, or nil before Start.
	Instances() game_object.InstanceManager

	// Clock returns the time manager, or nil before Start.
	Clock() clock.Clock

	// Input returns the input manager, or nil before Start.
	Input() input.Input

	// Physics returns the physics manager, or nil before Start.
	Physics() physics.Physics

	// Graphics returns the rendering pipeline, or nil when the engine has no GPU backend.
	Graphics() graphics.Graphics
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options. The default manager set is, in order: the
// lifecycle manager, the graphics pipeline when a backend was given, input, time and physics.
//
// Parameters:
//   - options: functional options such as WithBackend or WithConfig
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	cfg := DefaultConfig()
	e := &engine{
		quit:              make(chan struct{}),
		bus:               event.NewBus(),
		tickRate:          tickInterval(cfg.TickRate),
		initWorkers:       cfg.InitWorkers,
		transformPoolSize: cfg.TransformPoolSize,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.events == nil {
		if src, ok := e.frames.(input.EventSource); ok {
			e.events = src
		}
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithReporter(e.report))
	}

	e.managers = manager.NewRegistry(e.bus)
	e.transforms = transform.NewPool(
		transform.WithInitialSize(e.transformPoolSize),
		transform.WithReporter(e.report),
	)
	e.defaults = e.defaultManagers()
	return e
}

// defaultManagers returns the constructors every run builds regardless of the scenes.
func (e *engine) defaultManagers() []manager.Constructor {
	var instanceOpts []game_object.InstanceManagerBuilderOption
	if e.report != nil {
		instanceOpts = append(instanceOpts, game_object.WithInstanceReporter(e.report))
	}
	out := []manager.Constructor{game_object.InstanceManagerConstructor(instanceOpts...)}

	if e.backend != nil {
		opts := e.graphicsOptions
		if e.report != nil {
			opts = append(opts, graphics.WithReporter(e.report))
		}
		out = append(out, graphics.GraphicsConstructor(e.backend, opts...))
	}

	return append(out,
		input.InputConstructor(e.events),
		clock.ClockConstructor(),
		physics.PhysicsConstructor(e.world, e.report),
	)
}

func (e *engine) Start(ctx context.Context, scenes scene.Registry, initial string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.State() {
	case StateUninitialized:
	case StateRunning:
		return ErrAlreadyStarted
	default:
		return ErrNotRunning
	}
	if !scenes.Has(initial) {
		return fmt.Errorf("%w: %q", ErrUnknownScene, initial)
	}

	ctors := manager.Resolve(append([][]manager.Constructor{e.defaults}, scenes.Managers()...)...)
	if err := manager.InitAll(ctx, ctors, e.initWorkers); err != nil {
		return fmt.Errorf("engine: start: %w", err)
	}
	if err := manager.Construct(e.managers, ctors); err != nil {
		e.teardownManagers()
		return fmt.Errorf("engine: start: %w", err)
	}
	e.lookupManagers()

	e.pendingMu.Lock()
	e.scenes = scenes
	e.pendingMu.Unlock()

	// scene setups run to completion once started; Start's values stay visible to them
	e.ctx = context.WithoutCancel(ctx)
	e.state.Store(int32(StateRunning))

	if err := e.enterScene(initial, data); err != nil {
		e.stopOnce.Do(func() { close(e.quit) })
		e.shutdownOnce.Do(e.shutdown)
		return err
	}
	if e.stopping() {
		e.shutdownOnce.Do(e.shutdown)
	}
	return nil
}

func (e *engine) lookupManagers() {
	e.instances, _ = manager.Lookup[game_object.InstanceManager](e.managers, game_object.InstanceManagerType)
	e.clock, _ = manager.Lookup[clock.Clock](e.managers, clock.ClockType)
	e.input, _ = manager.Lookup[input.Input](e.managers, input.InputType)
	e.physics, _ = manager.Lookup[physics.Physics](e.managers, physics.PhysicsType)
	e.graphics, _ = manager.Lookup[graphics.Graphics](e.managers, graphics.GraphicsType)
}

func (e *engine) Tick(now time.Duration) error {
	if e.stopping() {
		e.tryShutdown()
		return ErrNotRunning
	}

	e.mu.Lock()
	var err error
	if e.State() == StateRunning {
		err = e.frame(now)
	} else {
		err = ErrNotRunning
	}
	e.mu.Unlock()

	if e.stopping() {
		e.tryShutdown()
	}
	return err
}

// frame runs one tick. mu is held.
func (e *engine) frame(now time.Duration) error {
	if e.clock != nil {
		e.clock.Advance(now.Seconds())
	}
	if e.instances != nil {
		e.instances.ProcessPending()
	}
	e.bus.Trigger(event.Update, nil)
	if e.physics != nil {
		e.physics.Step()
	}
	if e.input != nil {
		e.input.EndFrame()
	}
	e.bus.Trigger(event.Render, nil)

	if req := e.takePending(); req != nil {
		e.exitScene()
		if err := e.enterScene(req.name, req.data); err != nil {
			e.stopOnce.Do(func() { close(e.quit) })
			return err
		}
	}

	if e.profilingEnabled {
		e.profiler.Tick(e.counts)
	}
	return nil
}

func (e *engine) counts() profiler.Counts {
	c := profiler.Counts{Transforms: e.transforms.Live()}
	if e.instances != nil {
		c.Objects = len(e.instances.Objects())
	}
	return c
}

func (e *engine) takePending() *sceneRequest {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	req := e.pending
	e.pending = nil
	return req
}

// enterScene builds the named scene, binds and sets up the managers it uses, and runs its setup.
func (e *engine) enterScene(name string, data any) error {
	s, err := e.scenes.Build(name)
	if err != nil {
		return fmt.Errorf("engine: entering scene: %w", err)
	}

	var active []manager.Manager
	for _, c := range manager.Resolve(e.defaults, e.scenes.ManagersOf(name)) {
		if m, ok := e.managers.Get(c.Type); ok {
			active = append(active, m)
		}
	}
	for _, m := range active {
		event.Bind(e.bus, m, m)
	}
	for _, m := range active {
		su, ok := m.(manager.SceneSetuper)
		if !ok {
			continue
		}
		if err := su.SetupScene(e.ctx); err != nil {
			return fmt.Errorf("engine: setting up %s for scene %q: %w", m.Type(), name, err)
		}
	}

	if e.instances != nil {
		e.instances.EnterScene()
	}
	if e.clock != nil {
		e.clock.EnterScene()
	}

	// a scene whose setup fails is still exited, so objects it spawned are destroyed
	e.current = s
	e.sceneName = name
	if err := s.Setup(e.ctx, scene.NewEnv(name, data, e.managers, e.transforms)); err != nil {
		return fmt.Errorf("engine: scene %q setup: %w", name, err)
	}
	return nil
}

// exitScene destroys every object of the current scene and unbinds every listener.
func (e *engine) exitScene() {
	e.bus.Trigger(event.Exit, nil)
	if e.instances != nil {
		e.instances.ExitScene()
	}
	e.bus.Reset()
	if x, ok := e.current.(scene.Exiter); ok {
		x.Exit()
	}
	e.current = nil
	e.sceneName = ""
}

func (e *engine) ChangeScene(name string, data any) error {
	if e.State() != StateRunning || e.stopping() {
		return ErrNotRunning
	}
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if !e.scenes.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	e.pending = &sceneRequest{name: name, data: data}
	return nil
}

func (e *engine) Debug(position common.Vec3) error {
	if e.State() != StateRunning {
		return ErrNotRunning
	}
	e.bus.Trigger(event.Debug, event.DebugData{Position: position})
	return nil
}

func (e *engine) Run(ctx context.Context) error {
	if e.State() != StateRunning {
		return ErrNotRunning
	}
	defer e.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if e.hotReload && e.graphics != nil {
		go func() {
			if err := e.graphics.WatchShaders(ctx); err != nil {
				e.report.Report("engine: shader watcher stopped: %v", err)
			}
		}()
	}

	if e.frames == nil {
		return e.runHeadless(ctx)
	}
	return e.runFrames(ctx)
}

// runFrames ticks from the frame source's message loop and closes the source when the run ends.
func (e *engine) runFrames(ctx context.Context) error {
	var (
		start  = time.Now()
		runErr error
		closed bool
	)
	closeSource := func() {
		if closed {
			return
		}
		closed = true
		if err := e.frames.Close(); err != nil {
			e.report.Report("engine: closing frame source: %v", err)
		}
	}

	if e.backend != nil {
		e.frames.SetResizeCallback(e.backend.Resize)
	}
	e.frames.SetUpdateCallback(func() {
		if ctx.Err() != nil || e.stopping() {
			closeSource()
			return
		}
		if err := e.Tick(time.Since(start)); err != nil {
			if !errors.Is(err, ErrNotRunning) {
				runErr = err
			}
			closeSource()
		}
	})
	e.frames.ProcessMessages()
	return runErr
}

func (e *engine) runHeadless(ctx context.Context) error {
	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quit:
			return nil
		case <-ticker.C:
			if err := e.Tick(time.Since(start)); err != nil {
				if errors.Is(err, ErrNotRunning) {
					return nil
				}
				return err
			}
		}
	}
}

func (e *engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
	e.tryShutdown()
}

func (e *engine) stopping() bool {
	select {
	case <-e.quit:
		return true
	default:
		return false
	}
}

// tryShutdown shuts down unless a frame holds mu; that frame shuts down when it ends.
func (e *engine) tryShutdown() {
	if !e.mu.TryLock() {
		return
	}
	defer e.mu.Unlock()
	e.shutdownOnce.Do(e.shutdown)
}

// shutdown is the terminal transition. mu is held.
func (e *engine) shutdown() {
	if e.current != nil {
		e.exitScene()
	}
	e.teardownManagers()
	e.bus.Reset()
	e.instances, e.clock, e.input, e.physics, e.graphics = nil, nil, nil, nil, nil
	e.state.Store(int32(StateStopped))
}

// teardownManagers tears down every constructed manager in reverse construction order and clears the registry.
func (e *engine) teardownManagers() {
	all := e.managers.All()
	for i := len(all) - 1; i >= 0; i-- {
		if td, ok := all[i].(manager.Teardowner); ok {
			td.Teardown()
		}
	}
	e.managers.Clear()
}

func (e *engine) State() State {
	return State(e.state.Load())
}

func (e *engine) Scene() string {
	return e.sceneName
}

func (e *engine) Bus() event.Bus {
	return e.bus
}

func (e *engine) Transforms() transform.Pool {
	return e.transforms
}

func (e *engine) Managers() manager.Registry {
	return e.managers
}

func (e *engine) Instances() game_object.InstanceManager {
	return e.instances
}

func (e *engine) Clock() clock.Clock {
	return e.clock
}

func (e *engine) Input() input.Input {
	return e.input
}

func (e *engine) Physics() physics.Physics {
	return e.physics
}

func (e *engine) Graphics() graphics.Graphics {
	return e.graphics
}

// tickInterval converts a rate in frames per second to a ticker interval.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultTickRate
	}
	return time.Duration(float64(time.Second) / fps)
}
