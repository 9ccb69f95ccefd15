// Package physics holds the physics collaborator contract, a small default world, the rigid-body
// component, and the manager that copies simulated positions back into transforms.
package physics

import (
	"context"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// PhysicsType is the registry key of the Physics manager.
const PhysicsType manager.Type = "physics"

// Body is a simulated body as seen by the engine.
type Body interface {
	// CurrentPosition returns the body's simulated position after the last step.
	CurrentPosition() common.Vec3

	// SetPosition teleports the body.
	SetPosition(p common.Vec3)
}

// World is the physics collaborator. The engine only adds and removes bodies and steps the simulation.
type World interface {
	// Step advances the simulation by one fixed step.
	Step()

	// AddBody starts simulating b.
	AddBody(b Body)

	// RemoveBody stops simulating b. Removing an unknown body is a no-op.
	RemoveBody(b Body)
}

type physics struct {
	world  World
	bodies []*RigidBody
	report common.Reporter
}

// Physics steps the world once per frame and writes each rigid body's position into its object's transform.
type Physics interface {
	manager.Manager
	manager.SceneSetuper

	// World returns the physics collaborator.
	World() World

	// Add registers rb with the world. RigidBody.Init calls this.
	//
	// Parameters:
	//   - rb: the rigid-body component
	Add(rb *RigidBody)

	// Remove unregisters rb. Removing an unknown component is reported.
	//
	// Parameters:
	//   - rb: the rigid-body component
	Remove(rb *RigidBody)

	// Step advances the world and copies body positions into transforms.
	Step()

	// BodyCount returns the number of registered rigid bodies.
	BodyCount() int
}

var _ Physics = &physics{}

// NewPhysics creates a Physics manager around world. A nil world uses NewSimpleWorld with default gravity.
//
// Parameters:
//   - world: the physics collaborator
//   - report: diagnostic sink, nil for the standard logger
//
// Returns:
//   - Physics: the new manager
func NewPhysics(world World, report common.Reporter) Physics {
	if world == nil {
		world = NewSimpleWorld()
	}
	return &physics{world: world, report: report}
}

// PhysicsConstructor returns the manager constructor used by the engine's default set.
func PhysicsConstructor(world World, report common.Reporter) manager.Constructor {
	return manager.Constructor{
		Type: PhysicsType,
		New: func(manager.Registry) (manager.Manager, error) {
			return NewPhysics(world, report), nil
		},
	}
}

func (p *physics) Type() manager.Type {
	return PhysicsType
}

func (p *physics) SetupScene(context.Context) error {
	for _, rb := range p.bodies {
		p.world.RemoveBody(rb.body)
	}
	p.bodies = nil
	return nil
}

func (p *physics) World() World {
	return p.world
}

func (p *physics) Add(rb *RigidBody) {
	for _, existing := range p.bodies {
		if existing == rb {
			p.report.Report("physics: rigid body on object %d is already registered", rb.Object().ID())
			return
		}
	}
	p.bodies = append(p.bodies, rb)
	p.world.AddBody(rb.body)
}

func (p *physics) Remove(rb *RigidBody) {
	for i, existing := range p.bodies {
		if existing == rb {
			p.bodies = append(p.bodies[:i], p.bodies[i+1:]...)
			p.world.RemoveBody(rb.body)
			return
		}
	}
	p.report.Report("physics: remove of unregistered rigid body")
}

func (p *physics) Step() {
	p.world.Step()
	for _, rb := range p.bodies {
		if t := rb.Object().Transform(); t != nil {
			t.Position = rb.body.CurrentPosition()
		}
	}
}

func (p *physics) BodyCount() int {
	return len(p.bodies)
}
