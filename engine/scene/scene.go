// Package scene defines what a level looks like to the engine: a Scene populates itself on entry,
// declares the managers it needs beyond the engine defaults, and may clean up on exit. Scenes are
// registered by name in a Registry handed to the engine at start.
package scene

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// ErrUnknownScene is returned when a scene name is not in the registry.
var ErrUnknownScene = errors.New("scene: unknown scene")

// Scene is one level. The engine builds a fresh Scene from its Definition on every entry, after each
// manager's per-scene setup has run.
type Scene interface {
	// Name returns the scene's identifier.
	//
	// Returns:
	//   - string: the name the scene was entered under
	Name() string

	// Setup populates the scene: instantiate objects, pick the camera, attach lights. It runs once per
	// entry and its error aborts the entry.
	//
	// Parameters:
	//   - ctx: context for the setup
	//   - env: the managers and entry data of this entry
	//
	// Returns:
	//   - error: a fatal setup error
	Setup(ctx context.Context, env *Env) error
}

// Exiter is implemented by scenes that run cleanup when they are left, after every object of the scene
// has been destroyed.
type Exiter interface {
	Exit()
}

// Definition is a registered scene: the managers it needs and how to build it.
type Definition struct {
	// Managers are constructed at engine start in addition to the engine defaults.
	Managers []manager.Constructor

	// New builds the scene for one entry.
	New func(name string) Scene
}

// Registry maps scene names to definitions. It is fixed once the engine starts.
type Registry map[string]Definition

// Build constructs the scene registered under name.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - Scene: the new scene
//   - error: ErrUnknownScene if name is not registered
func (r Registry) Build(name string) (Scene, error) {
	def, ok := r[name]
	if !ok || def.New == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return def.New(name), nil
}

// Has reports whether name is registered.
func (r Registry) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Names returns the registered names, sorted.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// Managers returns the declared manager sets of every scene, in name order so that resolution is
// deterministic.
//
// Returns:
//   - [][]manager.Constructor: one set per scene
func (r Registry) Managers() [][]manager.Constructor {
	out := make([][]manager.Constructor, 0, len(r))
	for _, name := range r.Names() {
		out = append(out, r[name].Managers)
	}
	return out
}

// ManagersOf returns the managers scene name declares.
func (r Registry) ManagersOf(name string) []manager.Constructor {
	return r[name].Managers
}
