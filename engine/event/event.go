// Package event holds the engine's named-event bus and the hook interfaces that objects, components,
// and managers implement to receive bus events.
package event

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Name identifies an event on the bus or in a game object's local callback table.
type Name string

// Bus events.
const (
	Update     Name = "Update"
	Render     Name = "Render"
	Exit       Name = "Exit"
	KeyPressed Name = "KeyPressed"
	Click      Name = "Click"
	Debug      Name = "Debug"
)

// Object-local events, emitted on a single game object rather than broadcast.
const (
	Init    Name = "Init"
	Destroy Name = "Destroy"
)

// Listener receives an event's payload. Payload types are KeyPressedData, ClickData, DebugData, or nil.
type Listener func(data any)

// KeyPressedData is the payload of the KeyPressed event.
type KeyPressedData struct {
	Key common.Key
}

// ClickData is the payload of the Click event. X and Y are window coordinates in pixels.
type ClickData struct {
	Button common.MouseButton
	X, Y   float32
}

// DebugData is the payload of the Debug event.
type DebugData struct {
	Position common.Vec3
}
