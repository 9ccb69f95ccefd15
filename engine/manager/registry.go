package manager

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
)

// ErrDuplicateManager is returned when a second manager of an already-registered Type is added.
var ErrDuplicateManager = errors.New("manager: duplicate manager type")

// registry is the implementation of the Registry interface.
type registry struct {
	bus    event.Bus
	order  []Manager
	byType map[Type]Manager
}

// Registry maps manager Types to constructed instances, preserving construction order.
type Registry interface {
	// Bus returns the engine's event bus.
	//
	// Returns:
	//   - event.Bus: the bus managers bind their hooks to
	Bus() event.Bus

	// Get returns the manager registered under t.
	//
	// Parameters:
	//   - t: the manager type
	//
	// Returns:
	//   - Manager: the manager, or nil
	//   - bool: true if registered
	Get(t Type) (Manager, bool)

	// Add registers m under m.Type().
	//
	// Parameters:
	//   - m: the manager to register
	//
	// Returns:
	//   - error: ErrDuplicateManager if the Type is taken
	Add(m Manager) error

	// All returns the managers in construction order.
	//
	// Returns:
	//   - []Manager: the registered managers
	All() []Manager

	// Clear removes every manager.
	Clear()
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry bound to bus.
func NewRegistry(bus event.Bus) Registry {
	return &registry{
		bus:    bus,
		byType: make(map[Type]Manager),
	}
}

func (r *registry) Bus() event.Bus {
	return r.bus
}

func (r *registry) Get(t Type) (Manager, bool) {
	m, ok := r.byType[t]
	return m, ok
}

func (r *registry) Add(m Manager) error {
	if _, ok := r.byType[m.Type()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateManager, m.Type())
	}
	r.byType[m.Type()] = m
	r.order = append(r.order, m)
	return nil
}

func (r *registry) All() []Manager {
	out := make([]Manager, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registry) Clear() {
	r.order = nil
	r.byType = make(map[Type]Manager)
}

// Lookup returns the manager registered under t as a T.
//
// Parameters:
//   - r: the registry to search
//   - t: the manager type
//
// Returns:
//   - T: the typed manager, or the zero value
//   - bool: true if a manager of type t exists and is a T
func Lookup[T Manager](r Registry, t Type) (T, bool) {
	var zero T
	m, ok := r.Get(t)
	if !ok {
		return zero, false
	}
	typed, ok := m.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Construct builds each constructor in order and registers the result.
//
// Parameters:
//   - r: the registry to populate
//   - ctors: the resolved constructors
//
// Returns:
//   - error: the first construction or registration failure
func Construct(r Registry, ctors []Constructor) error {
	for _, c := range ctors {
		if c.New == nil {
			return fmt.Errorf("manager: %s has no constructor", c.Type)
		}
		m, err := c.New(r)
		if err != nil {
			return fmt.Errorf("manager: construct %s: %w", c.Type, err)
		}
		if err := r.Add(m); err != nil {
			return err
		}
	}
	return nil
}
