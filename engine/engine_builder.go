package engine

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/graphics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
	"github.com/Carmen-Shannon/oxy-deferred/engine/physics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies a loaded configuration: tick rate, profiling, init workers, transform pool size,
// the graphics section and shader hot reload. Options after it override its values.
//
// Parameters:
//   - cfg: the configuration, usually from LoadConfig
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg Config) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate = tickInterval(cfg.TickRate)
		e.profilingEnabled = cfg.Profiling
		e.initWorkers = cfg.InitWorkers
		e.transformPoolSize = cfg.TransformPoolSize
		e.graphicsOptions = append(e.graphicsOptions, cfg.GraphicsOptions()...)
		e.hotReload = cfg.Graphics.HotReload
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the headless tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate = tickInterval(fps)
	}
}

// WithFrameSource sets the source that paces frames in Run, usually the window. When the source also
// implements input.EventSource it feeds the input manager unless WithEventSource is given.
//
// Parameters:
//   - src: the frame source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameSource(src FrameSource) EngineBuilderOption {
	return func(e *engine) {
		e.frames = src
	}
}

// WithEventSource sets the source of keyboard and mouse events for the input manager.
func WithEventSource(src input.EventSource) EngineBuilderOption {
	return func(e *engine) {
		e.events = src
	}
}

// WithBackend sets the GPU backend. Without one the engine runs without the graphics pipeline.
//
// Parameters:
//   - b: the backend the pipeline renders through
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b renderer.Backend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithGraphicsOptions appends options passed to the graphics pipeline.
//
// Parameters:
//   - options: pipeline options such as graphics.WithBloomSteps
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGraphicsOptions(options ...graphics.GraphicsBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.graphicsOptions = append(e.graphicsOptions, options...)
	}
}

// WithShaderHotReload sets whether Run watches the shader override directory.
func WithShaderHotReload(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.hotReload = enabled
	}
}

// WithPhysicsWorld replaces the default physics world.
func WithPhysicsWorld(w physics.World) EngineBuilderOption {
	return func(e *engine) {
		e.world = w
	}
}

// WithReporter sets where the engine and its default managers report logical errors.
//
// Parameters:
//   - r: the reporter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithReporter(r common.Reporter) EngineBuilderOption {
	return func(e *engine) {
		e.report = r
	}
}

// WithInitWorkers sets how many workers run manager static initializers at Start.
func WithInitWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		e.initWorkers = n
	}
}

// WithTransformPoolSize sets the initial capacity of the transform pool.
func WithTransformPoolSize(n int) EngineBuilderOption {
	return func(e *engine) {
		e.transformPoolSize = n
	}
}
