package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
)

var nextID atomic.Uint64

type gameObject struct {
	id        uint64
	name      string
	transform *transform.Transform
	pool      transform.Pool

	components     map[ComponentType]Component
	componentOrder []Component
	callbacks      map[event.Name][]event.Listener

	instantiated bool
	initialized  bool
	destroyed    bool

	// owner is the value passed to Instantiate; bus listeners are registered under it
	owner GameObject

	report common.Reporter
}

// GameObject bundles one pooled Transform, at most one Component per ComponentType, and a per-instance
// table of event callbacks. Its lifecycle flags only move from false to true and are set exclusively by
// the InstanceManager.
//
// Application types may embed a GameObject and implement Initer, Destroyer, or the event hook
// interfaces directly; the InstanceManager binds the hooks of the value passed to Instantiate.
type GameObject interface {
	// ID returns the object's process-unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the object's display name.
	//
	// Returns:
	//   - string: the name, empty if unset
	Name() string

	// Transform returns the pool-issued transform. It is nil once the object is destroyed.
	//
	// Returns:
	//   - *transform.Transform: the object's transform
	Transform() *transform.Transform

	// AddComponent installs c under its ComponentType. Adding after instantiation, or adding a second
	// component of the same type, is reported and ignored.
	//
	// Parameters:
	//   - c: the component to install
	//
	// Returns:
	//   - bool: true if the component was installed
	AddComponent(c Component) bool

	// Component looks up the component stored under t.
	//
	// Parameters:
	//   - t: the component type tag
	//
	// Returns:
	//   - Component: the component, or nil
	//   - bool: true if present
	Component(t ComponentType) (Component, bool)

	// Components returns the installed components in insertion order.
	//
	// Returns:
	//   - []Component: the components
	Components() []Component

	// On appends a callback to this object's local callback table.
	//
	// Parameters:
	//   - name: the local event name, typically event.Init or event.Destroy
	//   - cb: the callback
	On(name event.Name, cb event.Listener)

	// Emit invokes this object's local callbacks for name, in order. Emitting on a destroyed object, or on
	// one that is instantiated but not yet initialized, is reported and does nothing.
	//
	// Parameters:
	//   - name: the local event name
	//   - data: the payload
	//
	// Returns:
	//   - bool: true if the callbacks ran
	Emit(name event.Name, data any) bool

	// Instantiated reports whether the object was handed to InstanceManager.Instantiate.
	Instantiated() bool

	// Initialized reports whether the object's init pass has run.
	Initialized() bool

	// Destroyed reports whether the object has been destroyed.
	Destroyed() bool

	base() *gameObject
}

var _ GameObject = &gameObject{}

// NewGameObject creates an object whose transform is acquired from pool and reset to defaults
// before options are applied.
//
// Parameters:
//   - pool: the transform pool issuing the object's transform
//   - options: functional options such as WithName and WithPosition
//
// Returns:
//   - GameObject: the new object
func NewGameObject(pool transform.Pool, options ...GameObjectBuilderOption) GameObject {
	if pool == nil {
		panic("game_object: transform pool is required")
	}
	g := &gameObject{
		id:         nextID.Add(1),
		pool:       pool,
		transform:  pool.Acquire(),
		components: make(map[ComponentType]Component),
		callbacks:  make(map[event.Name][]event.Listener),
		report:     common.LogReporter,
	}
	g.transform.Reset()

	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Transform() *transform.Transform {
	return g.transform
}

func (g *gameObject) AddComponent(c Component) bool {
	if c == nil {
		return false
	}
	if g.instantiated {
		g.report.Report("game_object: cannot add component %q to object %d after instantiation", c.ComponentType(), g.id)
		return false
	}
	if _, ok := g.components[c.ComponentType()]; ok {
		g.report.Report("game_object: object %d already has a %q component", g.id, c.ComponentType())
		return false
	}
	g.components[c.ComponentType()] = c
	g.componentOrder = append(g.componentOrder, c)
	return true
}

func (g *gameObject) Component(t ComponentType) (Component, bool) {
	c, ok := g.components[t]
	return c, ok
}

func (g *gameObject) Components() []Component {
	out := make([]Component, len(g.componentOrder))
	copy(out, g.componentOrder)
	return out
}

func (g *gameObject) On(name event.Name, cb event.Listener) {
	if cb == nil || g.destroyed {
		return
	}
	g.callbacks[name] = append(g.callbacks[name], cb)
}

func (g *gameObject) Emit(name event.Name, data any) bool {
	if g.destroyed {
		g.report.Report("game_object: emit %q on destroyed object %d", name, g.id)
		return false
	}
	if g.instantiated && !g.initialized {
		g.report.Report("game_object: emit %q on object %d before initialization", name, g.id)
		return false
	}
	g.dispatch(name, data)
	return true
}

func (g *gameObject) Instantiated() bool {
	return g.instantiated
}

func (g *gameObject) Initialized() bool {
	return g.initialized
}

func (g *gameObject) Destroyed() bool {
	return g.destroyed
}

func (g *gameObject) base() *gameObject {
	return g
}

func (g *gameObject) dispatch(name event.Name, data any) {
	cbs := g.callbacks[name]
	if len(cbs) == 0 {
		return
	}
	snapshot := make([]event.Listener, len(cbs))
	copy(snapshot, cbs)
	for _, cb := range snapshot {
		cb(data)
	}
}

// initialize marks the object initialized and appends the Init and Destroy hooks of self and each
// component to the callback table. self is the value passed to Instantiate, which may embed g.
func (g *gameObject) initialize(self GameObject) {
	g.initialized = true
	targets := make([]any, 0, len(g.componentOrder)+1)
	targets = append(targets, self)
	for _, c := range g.componentOrder {
		targets = append(targets, c)
	}
	for _, t := range targets {
		if h, ok := t.(Initer); ok {
			g.callbacks[event.Init] = append(g.callbacks[event.Init], func(any) { h.Init() })
		}
		if h, ok := t.(Destroyer); ok {
			g.callbacks[event.Destroy] = append(g.callbacks[event.Destroy], func(any) { h.Destroy() })
		}
	}
}

// teardown marks the object destroyed, clears its tables, and returns its transform to the pool.
func (g *gameObject) teardown() {
	g.destroyed = true
	g.callbacks = make(map[event.Name][]event.Listener)
	g.components = make(map[ComponentType]Component)
	g.componentOrder = nil
	if g.transform != nil {
		g.pool.Free(g.transform)
		g.transform = nil
	}
}
