package game_object

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// InstanceManagerType is the registry key of the InstanceManager.
const InstanceManagerType manager.Type = "instance"

// instanceManager is the implementation of the InstanceManager interface.
type instanceManager struct {
	bus     event.Bus
	pending []GameObject
	batch   []GameObject // the pending pass in progress
	active  []GameObject // instantiated and initialized, in init order
	roots   []GameObject // global object list

	report common.Reporter
}

// InstanceManager is the sole mutator of game object existence. Instantiated objects are initialized on the
// next ProcessPending pass; destroyed objects lose their bus listeners, callbacks, and transform.
type InstanceManager interface {
	manager.Manager

	// Instantiate queues obj for initialization on the next ProcessPending pass. Instantiating an object
	// twice is reported and ignored.
	//
	// Parameters:
	//   - obj: the object, or a value embedding it whose hooks should be bound
	Instantiate(obj GameObject)

	// Destroy tears obj down. A pending object is dropped from the queue without its hooks ever binding;
	// only callbacks registered directly with On observe its Destroy event. An initialized object emits
	// Destroy, leaves the object list, and has its bus listeners removed. Double destroy is reported.
	//
	// Parameters:
	//   - obj: the object to destroy, either the value passed to Instantiate or the GameObject it embeds
	Destroy(obj GameObject)

	// ProcessPending initializes every object queued before the call: hooks of the object and its components
	// are bound to the bus under the object, the object joins the object list, and Init is emitted on it.
	// Objects instantiated during this pass wait for the next one.
	ProcessPending()

	// EnterScene resets pending and active tracking.
	EnterScene()

	// ExitScene destroys every instantiated object, then resets tracking.
	ExitScene()

	// Objects returns the global object list in initialization order.
	//
	// Returns:
	//   - []GameObject: initialized, live objects
	Objects() []GameObject

	// PendingCount returns the number of objects waiting for initialization.
	//
	// Returns:
	//   - int: the pending count
	PendingCount() int
}

var _ InstanceManager = &instanceManager{}

// NewInstanceManager creates an InstanceManager that binds object hooks on bus.
//
// Parameters:
//   - bus: the engine's event bus
//   - options: functional options such as WithInstanceReporter
//
// Returns:
//   - InstanceManager: the new manager
func NewInstanceManager(bus event.Bus, options ...InstanceManagerBuilderOption) InstanceManager {
	if bus == nil {
		panic("game_object: event bus is required")
	}
	m := &instanceManager{
		bus:    bus,
		report: common.LogReporter,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// InstanceManagerConstructor returns the manager constructor used by the engine's default set.
func InstanceManagerConstructor(options ...InstanceManagerBuilderOption) manager.Constructor {
	return manager.Constructor{
		Type: InstanceManagerType,
		New: func(r manager.Registry) (manager.Manager, error) {
			return NewInstanceManager(r.Bus(), options...), nil
		},
	}
}

func (m *instanceManager) Type() manager.Type {
	return InstanceManagerType
}

func (m *instanceManager) Instantiate(obj GameObject) {
	if obj == nil {
		return
	}
	g := obj.base()
	if g.instantiated {
		m.report.Report("instance: object %d is already instantiated", g.id)
		return
	}
	if g.destroyed {
		m.report.Report("instance: cannot instantiate destroyed object %d", g.id)
		return
	}
	g.instantiated = true
	g.owner = obj
	m.pending = append(m.pending, obj)
}

func (m *instanceManager) ProcessPending() {
	if len(m.pending) == 0 {
		return
	}
	m.batch = m.pending
	m.pending = nil
	defer func() { m.batch = nil }()

	for _, obj := range m.batch {
		g := obj.base()
		if g.destroyed {
			continue
		}
		event.Bind(m.bus, obj, obj)
		for _, c := range g.componentOrder {
			event.Bind(m.bus, c, obj)
		}
		g.initialize(obj)
		// object parenting is flat: every object is a root
		m.roots = append(m.roots, obj)
		m.active = append(m.active, obj)
		obj.Emit(event.Init, nil)
	}
}

func (m *instanceManager) Destroy(obj GameObject) {
	if obj == nil {
		return
	}
	g := obj.base()
	if g.destroyed {
		m.report.Report("instance: object %d is already destroyed", g.id)
		return
	}

	if g.instantiated && !g.initialized {
		if !removeObject(&m.pending, g) && !containsObject(m.batch, g) {
			m.report.Report("instance: pending object %d not found in queue", g.id)
		}
		g.dispatch(event.Destroy, nil)
		g.teardown()
		return
	}

	owner := g.owner
	if owner == nil {
		owner = obj
	}
	owner.Emit(event.Destroy, nil)
	removeObject(&m.roots, g)
	g.teardown()
	m.bus.RemoveListenersOf(owner)
	g.owner = nil

	if g.instantiated && !removeObject(&m.active, g) {
		m.report.Report("instance: object %d not found in instantiated set", g.id)
	}
}

func (m *instanceManager) EnterScene() {
	m.pending = nil
	m.active = nil
	m.roots = nil
}

func (m *instanceManager) ExitScene() {
	// Destroy hooks may instantiate more objects; drain until nothing is left.
	for len(m.active)+len(m.pending) > 0 {
		live := make([]GameObject, 0, len(m.active)+len(m.pending))
		live = append(live, m.active...)
		live = append(live, m.pending...)
		for _, obj := range live {
			if !obj.Destroyed() {
				m.Destroy(obj)
			}
		}
	}
	m.EnterScene()
}

func (m *instanceManager) Objects() []GameObject {
	out := make([]GameObject, len(m.roots))
	copy(out, m.roots)
	return out
}

func (m *instanceManager) PendingCount() int {
	return len(m.pending)
}

func containsObject(list []GameObject, g *gameObject) bool {
	for _, o := range list {
		if o.base() == g {
			return true
		}
	}
	return false
}

// removeObject deletes the entry whose base is g, preserving order.
func removeObject(list *[]GameObject, g *gameObject) bool {
	for i, o := range *list {
		if o.base() == g {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
