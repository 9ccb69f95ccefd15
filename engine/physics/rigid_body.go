package physics

import (
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
)

// RigidBodyComponentType is the component tag of RigidBody.
const RigidBodyComponentType game_object.ComponentType = "rigid_body"

// RigidBody binds a simulated Body to a game object. On Init the body is moved to the object's position and
// added to the world; on Destroy it is removed.
type RigidBody struct {
	game_object.BaseComponent
	physics Physics
	body    Body
}

var (
	_ game_object.Component = &RigidBody{}
	_ game_object.Initer    = &RigidBody{}
	_ game_object.Destroyer = &RigidBody{}
)

// NewRigidBody creates a rigid-body component and installs it on obj.
//
// Parameters:
//   - obj: the owning object
//   - p: the physics manager the body registers with
//   - body: the simulated body
//
// Returns:
//   - *RigidBody: the component
func NewRigidBody(obj game_object.GameObject, p Physics, body Body) *RigidBody {
	if p == nil || body == nil {
		panic("physics: rigid body requires a physics manager and a body")
	}
	rb := &RigidBody{
		BaseComponent: game_object.NewBaseComponent(obj),
		physics:       p,
		body:          body,
	}
	obj.AddComponent(rb)
	return rb
}

func (rb *RigidBody) ComponentType() game_object.ComponentType {
	return RigidBodyComponentType
}

// Body returns the simulated body.
func (rb *RigidBody) Body() Body {
	return rb.body
}

func (rb *RigidBody) Init() {
	if t := rb.Object().Transform(); t != nil {
		rb.body.SetPosition(t.Position)
	}
	rb.physics.Add(rb)
}

func (rb *RigidBody) Destroy() {
	rb.physics.Remove(rb)
}
