package game_object

import "github.com/Carmen-Shannon/oxy-deferred/common"

// GameObjectBuilderOption configures a game object during NewGameObject.
type GameObjectBuilderOption func(*gameObject)

// WithName sets the object's display name.
func WithName(name string) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.name = name
	}
}

// WithPosition sets the initial transform position.
//
// Parameters:
//   - p: world position
//
// Returns:
//   - GameObjectBuilderOption: the option
func WithPosition(p common.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.transform.Position = p
	}
}

// WithRotation sets the initial transform rotation. The quaternion is normalized.
//
// Parameters:
//   - q: rotation quaternion (x, y, z, w)
//
// Returns:
//   - GameObjectBuilderOption: the option
func WithRotation(q common.Quat) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.transform.Rotation = q.Normalize()
	}
}

// WithScale sets the initial transform scale.
//
// Parameters:
//   - s: per-axis scale
//
// Returns:
//   - GameObjectBuilderOption: the option
func WithScale(s common.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.transform.Scale = s
	}
}

// WithReporter sets the diagnostic sink for misuse of the object.
func WithReporter(r common.Reporter) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.report = r
	}
}
