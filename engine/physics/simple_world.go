package physics

import "github.com/Carmen-Shannon/oxy-deferred/common"

// DefaultGravity is the acceleration applied by a SimpleWorld, in units per second squared.
var DefaultGravity = common.Vec3{0, -10, 0}

// DefaultTimeStep is the fixed step of a SimpleWorld, in seconds.
const DefaultTimeStep = float32(1.0 / 60.0)

// PointBody is a point mass integrated by a SimpleWorld.
type PointBody struct {
	Position common.Vec3
	Velocity common.Vec3
	// Static bodies ignore gravity and velocity.
	Static bool
}

var _ Body = &PointBody{}

func (b *PointBody) CurrentPosition() common.Vec3 {
	return b.Position
}

func (b *PointBody) SetPosition(p common.Vec3) {
	b.Position = p
}

// SimpleWorld integrates PointBodies under constant gravity with semi-implicit Euler. Bodies of other types
// are tracked but not moved.
type SimpleWorld struct {
	Gravity  common.Vec3
	TimeStep float32
	// Floor clamps bodies to a minimum height when set.
	Floor *float32

	bodies []Body
}

var _ World = &SimpleWorld{}

// NewSimpleWorld creates a SimpleWorld with DefaultGravity and DefaultTimeStep.
func NewSimpleWorld() *SimpleWorld {
	return &SimpleWorld{Gravity: DefaultGravity, TimeStep: DefaultTimeStep}
}

func (w *SimpleWorld) Step() {
	for _, b := range w.bodies {
		pb, ok := b.(*PointBody)
		if !ok || pb.Static {
			continue
		}
		pb.Velocity = pb.Velocity.Add(w.Gravity.Scale(w.TimeStep))
		pb.Position = pb.Position.Add(pb.Velocity.Scale(w.TimeStep))
		if w.Floor != nil && pb.Position[1] < *w.Floor {
			pb.Position[1] = *w.Floor
			pb.Velocity[1] = 0
		}
	}
}

func (w *SimpleWorld) AddBody(b Body) {
	w.bodies = append(w.bodies, b)
}

func (w *SimpleWorld) RemoveBody(b Body) {
	for i, existing := range w.bodies {
		if existing == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// Bodies returns the number of bodies in the world.
func (w *SimpleWorld) Bodies() int {
	return len(w.bodies)
}
