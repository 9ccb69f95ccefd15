package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/graphics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
	"github.com/Carmen-Shannon/oxy-deferred/engine/physics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
)

// Env is what a scene sees during Setup: the engine's managers, its transform pool, and the data passed
// to Start or ChangeScene.
type Env struct {
	name       string
	data       any
	managers   manager.Registry
	transforms transform.Pool
}

// NewEnv creates the environment of one scene entry.
//
// Parameters:
//   - name: the scene being entered
//   - data: the entry data
//   - managers: the engine's manager registry
//   - transforms: the pool new objects draw their transforms from
//
// Returns:
//   - *Env: the environment
func NewEnv(name string, data any, managers manager.Registry, transforms transform.Pool) *Env {
	return &Env{name: name, data: data, managers: managers, transforms: transforms}
}

// Name returns the scene being entered.
func (e *Env) Name() string { return e.name }

// Data returns the entry data.
func (e *Env) Data() any { return e.data }

// Managers returns the engine's manager registry, for managers declared by the scene itself.
func (e *Env) Managers() manager.Registry { return e.managers }

// Bus returns the engine's event bus.
func (e *Env) Bus() event.Bus { return e.managers.Bus() }

// Transforms returns the engine's transform pool.
func (e *Env) Transforms() transform.Pool { return e.transforms }

// Instances returns the lifecycle manager.
func (e *Env) Instances() game_object.InstanceManager {
	m, _ := manager.Lookup[game_object.InstanceManager](e.managers, game_object.InstanceManagerType)
	return m
}

// Clock returns the time manager.
func (e *Env) Clock() clock.Clock {
	m, _ := manager.Lookup[clock.Clock](e.managers, clock.ClockType)
	return m
}

// Input returns the input manager.
func (e *Env) Input() input.Input {
	m, _ := manager.Lookup[input.Input](e.managers, input.InputType)
	return m
}

// Physics returns the physics manager.
func (e *Env) Physics() physics.Physics {
	m, _ := manager.Lookup[physics.Physics](e.managers, physics.PhysicsType)
	return m
}

// Graphics returns the rendering pipeline, or nil when the engine runs without a GPU backend.
func (e *Env) Graphics() graphics.Graphics {
	m, _ := manager.Lookup[graphics.Graphics](e.managers, graphics.GraphicsType)
	return m
}

// NewObject creates an object from the engine's transform pool. Components are added before the object
// is passed to Spawn.
//
// Parameters:
//   - options: functional options such as game_object.WithPosition
//
// Returns:
//   - game_object.GameObject: the object, not yet instantiated
func (e *Env) NewObject(options ...game_object.GameObjectBuilderOption) game_object.GameObject {
	return game_object.NewGameObject(e.transforms, options...)
}

// Spawn queues obj for initialization on the next frame.
func (e *Env) Spawn(obj game_object.GameObject) game_object.GameObject {
	e.Instances().Instantiate(obj)
	return obj
}
