// Package input provides the engine's input manager: held and pressed-this-frame key state, mouse
// buttons, and per-frame mouse and scroll deltas.
package input

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
)

// InputType is the registry key of the Input manager.
const InputType manager.Type = "input"

// EventSource produces raw input callbacks, typically a window.
type EventSource interface {
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))
	SetMouseMoveCallback(callback func(x, y int32))
	SetMouseButtonCallback(callback func(button int, pressed bool, x, y int32))
	SetScrollCallback(callback func(delta float32))
}

type input struct {
	bus    event.Bus
	source EventSource

	held    map[common.Key]bool
	pressed map[common.Key]bool

	buttonHeld    [common.MouseButtonCount]bool
	buttonPressed [common.MouseButtonCount]bool

	mouseX, mouseY float32
	hasMouse       bool
	deltaX, deltaY float32
	scroll         float32
}

// Input tracks keyboard and mouse state between frames. One-frame state (pressed keys, pressed buttons,
// deltas) is cleared by EndFrame, which the engine calls after the Render event.
type Input interface {
	manager.Manager

	// Attach subscribes to src's callbacks, replacing any previous source.
	//
	// Parameters:
	//   - src: the event source
	Attach(src EventSource)

	// KeyDown records a key press. A press of a key that is already held is ignored; otherwise the key
	// becomes held and pressed and the KeyPressed bus event fires.
	//
	// Parameters:
	//   - key: the key
	KeyDown(key common.Key)

	// KeyUp releases a key.
	//
	// Parameters:
	//   - key: the key
	KeyUp(key common.Key)

	// MouseMove records the cursor position and accumulates the per-frame delta.
	//
	// Parameters:
	//   - x, y: cursor position in window pixels
	MouseMove(x, y float32)

	// MouseButton records a button change. Presses fire the Click bus event.
	//
	// Parameters:
	//   - button: the button
	//   - pressed: true on press, false on release
	//   - x, y: cursor position in window pixels
	MouseButton(button common.MouseButton, pressed bool, x, y float32)

	// Scroll accumulates the per-frame scroll delta.
	Scroll(delta float32)

	// IsHeld reports whether key is currently down.
	IsHeld(key common.Key) bool

	// WasPressed reports whether key went down during the current frame.
	WasPressed(key common.Key) bool

	// ButtonHeld reports whether button is currently down.
	ButtonHeld(button common.MouseButton) bool

	// ButtonPressed reports whether button went down during the current frame.
	ButtonPressed(button common.MouseButton) bool

	// MouseDelta returns the cursor movement accumulated during the current frame.
	MouseDelta() (dx, dy float32)

	// MousePosition returns the last known cursor position.
	MousePosition() (x, y float32)

	// ScrollDelta returns the scroll accumulated during the current frame.
	ScrollDelta() float32

	// EndFrame clears one-frame state.
	EndFrame()

	// Teardown detaches from the event source.
	Teardown()
}

var _ Input = &input{}

// NewInput creates an Input that publishes KeyPressed and Click events on bus.
//
// Parameters:
//   - bus: the engine's event bus
//
// Returns:
//   - Input: the new manager
func NewInput(bus event.Bus) Input {
	return &input{
		bus:     bus,
		held:    make(map[common.Key]bool),
		pressed: make(map[common.Key]bool),
	}
}

// InputConstructor returns the manager constructor used by the engine's default set. A nil source leaves
// the manager fed only by direct calls.
func InputConstructor(src EventSource) manager.Constructor {
	return manager.Constructor{
		Type: InputType,
		New: func(r manager.Registry) (manager.Manager, error) {
			in := NewInput(r.Bus())
			if src != nil {
				in.Attach(src)
			}
			return in, nil
		},
	}
}

func (in *input) Type() manager.Type {
	return InputType
}

func (in *input) Attach(src EventSource) {
	if in.source != nil {
		in.detach()
	}
	in.source = src
	src.SetKeyDownCallback(func(keyCode uint32) { in.KeyDown(common.Key(keyCode)) })
	src.SetKeyUpCallback(func(keyCode uint32) { in.KeyUp(common.Key(keyCode)) })
	src.SetMouseMoveCallback(func(x, y int32) { in.MouseMove(float32(x), float32(y)) })
	src.SetMouseButtonCallback(func(button int, pressed bool, x, y int32) {
		in.MouseButton(common.MouseButton(button), pressed, float32(x), float32(y))
	})
	src.SetScrollCallback(in.Scroll)
}

func (in *input) KeyDown(key common.Key) {
	if in.held[key] {
		return
	}
	in.held[key] = true
	in.pressed[key] = true
	if in.bus != nil {
		in.bus.Trigger(event.KeyPressed, event.KeyPressedData{Key: key})
	}
}

func (in *input) KeyUp(key common.Key) {
	delete(in.held, key)
	delete(in.pressed, key)
}

func (in *input) MouseMove(x, y float32) {
	if in.hasMouse {
		in.deltaX += x - in.mouseX
		in.deltaY += y - in.mouseY
	}
	in.mouseX, in.mouseY = x, y
	in.hasMouse = true
}

func (in *input) MouseButton(button common.MouseButton, pressed bool, x, y float32) {
	if button < 0 || button >= common.MouseButtonCount {
		return
	}
	if !pressed {
		in.buttonHeld[button] = false
		return
	}
	in.buttonHeld[button] = true
	in.buttonPressed[button] = true
	if in.bus != nil {
		in.bus.Trigger(event.Click, event.ClickData{Button: button, X: x, Y: y})
	}
}

func (in *input) Scroll(delta float32) {
	in.scroll += delta
}

func (in *input) IsHeld(key common.Key) bool {
	return in.held[key]
}

func (in *input) WasPressed(key common.Key) bool {
	return in.pressed[key]
}

func (in *input) ButtonHeld(button common.MouseButton) bool {
	if button < 0 || button >= common.MouseButtonCount {
		return false
	}
	return in.buttonHeld[button]
}

func (in *input) ButtonPressed(button common.MouseButton) bool {
	if button < 0 || button >= common.MouseButtonCount {
		return false
	}
	return in.buttonPressed[button]
}

func (in *input) MouseDelta() (dx, dy float32) {
	return in.deltaX, in.deltaY
}

func (in *input) MousePosition() (x, y float32) {
	return in.mouseX, in.mouseY
}

func (in *input) ScrollDelta() float32 {
	return in.scroll
}

func (in *input) EndFrame() {
	clear(in.pressed)
	in.buttonPressed = [common.MouseButtonCount]bool{}
	in.deltaX, in.deltaY = 0, 0
	in.scroll = 0
}

func (in *input) Teardown() {
	if in.source != nil {
		in.detach()
	}
	clear(in.held)
	in.buttonHeld = [common.MouseButtonCount]bool{}
	in.EndFrame()
}

func (in *input) detach() {
	in.source.SetKeyDownCallback(nil)
	in.source.SetKeyUpCallback(nil)
	in.source.SetMouseMoveCallback(nil)
	in.source.SetMouseButtonCallback(nil)
	in.source.SetScrollCallback(nil)
	in.source = nil
}
