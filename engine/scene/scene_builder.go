package scene

import (
	"context"

	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// SetupFunc populates a scene built with NewScene.
type SetupFunc func(ctx context.Context, env *Env) error

// funcScene is a Scene assembled from functions.
type funcScene struct {
	name  string
	setup SetupFunc
	exit  func()
}

var (
	_ Scene  = &funcScene{}
	_ Exiter = &funcScene{}
)

// SceneBuilderOption is a functional option for configuring a scene built with NewScene.
type SceneBuilderOption func(s *funcScene)

// NewScene creates a Scene whose Setup calls setup.
//
// Parameters:
//   - name: the scene's identifier
//   - setup: populates the scene, may be nil
//   - options: functional options such as WithExit
//
// Returns:
//   - Scene: the scene
func NewScene(name string, setup SetupFunc, options ...SceneBuilderOption) Scene {
	s := &funcScene{name: name, setup: setup}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithExit sets the function run when the scene is left.
//
// Parameters:
//   - exit: the exit hook
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithExit(exit func()) SceneBuilderOption {
	return func(s *funcScene) {
		s.exit = exit
	}
}

// Define returns a Definition that builds a NewScene around setup on every entry.
//
// Parameters:
//   - setup: populates the scene
//   - managers: managers the scene needs beyond the engine defaults
//
// Returns:
//   - Definition: the registry entry
func Define(setup SetupFunc, managers ...manager.Constructor) Definition {
	return Definition{
		Managers: managers,
		New: func(name string) Scene {
			return NewScene(name, setup)
		},
	}
}

func (s *funcScene) Name() string {
	return s.name
}

func (s *funcScene) Setup(ctx context.Context, env *Env) error {
	if s.setup == nil {
		return nil
	}
	return s.setup(ctx, env)
}

func (s *funcScene) Exit() {
	if s.exit != nil {
		s.exit()
	}
}
