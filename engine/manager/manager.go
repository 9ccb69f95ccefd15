// Package manager defines the engine's manager contract: process-scoped services constructed once per
// engine run, with optional concurrent static initialization, per-scene setup, and teardown.
package manager

import (
	"context"
)

// Type identifies a manager kind. A registry holds at most one manager per Type.
type Type string

// Manager is a service owned by the engine for the lifetime of a run. A manager may also implement any
// of the event package hook interfaces (event.Updater, event.Exiter, ...) to receive bus events while a
// scene is active, plus SceneSetuper and Teardowner.
type Manager interface {
	// Type returns the registry key of the manager.
	//
	// Returns:
	//   - Type: the manager's type tag
	Type() Type
}

// SceneSetuper is implemented by managers that prepare per-scene state when a scene is entered.
type SceneSetuper interface {
	// SetupScene runs once per scene entry, before the scene's own setup.
	//
	// Parameters:
	//   - ctx: context for the setup
	//
	// Returns:
	//   - error: a fatal setup error
	SetupScene(ctx context.Context) error
}

// Teardowner is implemented by managers that release resources when the engine stops.
type Teardowner interface {
	Teardown()
}

// Constructor describes how to build one manager kind.
type Constructor struct {
	// Type is the identity used to de-duplicate constructors across scenes.
	Type Type

	// Init is an optional static initializer. Every Init of a run completes before any manager is constructed.
	Init func(ctx context.Context) error

	// New builds the manager. Managers earlier in the resolved order are already in r.
	New func(r Registry) (Manager, error)
}

// Resolve unions constructor sets by Type, keeping the first occurrence of each Type in order.
//
// Parameters:
//   - sets: constructor sets, typically the defaults followed by each scene's declared managers
//
// Returns:
//   - []Constructor: the de-duplicated constructors in first-seen order
func Resolve(sets ...[]Constructor) []Constructor {
	seen := make(map[Type]bool)
	var out []Constructor
	for _, set := range sets {
		for _, c := range set {
			if seen[c.Type] {
				continue
			}
			seen[c.Type] = true
			out = append(out, c)
		}
	}
	return out
}

// Types returns the Type of each constructor in order.
func Types(ctors []Constructor) []Type {
	out := make([]Type, len(ctors))
	for i, c := range ctors {
		out[i] = c.Type
	}
	return out
}
