// Package clock provides the engine's time manager.
package clock

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// ClockType is the registry key of the Clock manager.
const ClockType manager.Type = "time"

// MaxDeltaTime caps a single frame's delta so a stalled frame does not produce a huge simulation step.
const MaxDeltaTime = 1.0

type clock struct {
	then      float64
	deltaTime float32
	time      float32
	frames    uint64
}

// Clock tracks frame delta time and scene-elapsed time, in seconds.
type Clock interface {
	manager.Manager

	// Advance moves the clock to now. The delta is now minus the previous call's now, capped at MaxDeltaTime.
	//
	// Parameters:
	//   - now: the current time in seconds
	Advance(now float64)

	// DeltaTime returns the last frame's delta in seconds.
	DeltaTime() float32

	// Time returns the seconds elapsed since the scene was entered, as a sum of capped deltas.
	Time() float32

	// Frames returns the number of Advance calls since the scene was entered.
	Frames() uint64

	// EnterScene resets every counter to zero.
	EnterScene()
}

var _ Clock = &clock{}

// NewClock creates a zeroed Clock.
func NewClock() Clock {
	return &clock{}
}

// ClockConstructor returns the manager constructor used by the engine's default set.
func ClockConstructor() manager.Constructor {
	return manager.Constructor{
		Type: ClockType,
		New: func(manager.Registry) (manager.Manager, error) {
			return NewClock(), nil
		},
	}
}

func (c *clock) Type() manager.Type {
	return ClockType
}

func (c *clock) Advance(now float64) {
	delta := now - c.then
	if delta > MaxDeltaTime {
		delta = MaxDeltaTime
	}
	if delta < 0 {
		delta = 0
	}
	c.deltaTime = float32(delta)
	c.time += c.deltaTime
	c.then = now
	c.frames++
}

func (c *clock) DeltaTime() float32 {
	return c.deltaTime
}

func (c *clock) Time() float32 {
	return c.time
}

func (c *clock) Frames() uint64 {
	return c.frames
}

func (c *clock) EnterScene() {
	c.then = 0
	c.deltaTime = 0
	c.time = 0
	c.frames = 0
}
