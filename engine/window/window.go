// Package window opens the GLFW window the engine presents into. A Window paces the frame loop through its
// message loop, feeds the input manager through its callbacks, and provides the WebGPU surface descriptor.
package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
)

// Window is a desktop window driving the engine. It satisfies engine.FrameSource and input.EventSource.
type Window interface {
	input.EventSource

	// SetUpdateCallback sets the function called once per message loop iteration, after that iteration's
	// input callbacks.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes. A minimized window
	// reports nothing until it is restored.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns the descriptor a WebGPU surface is created from.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil once the window is destroyed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the message loop would keep going.
	//
	// Returns:
	//   - bool: false once Close was called or the user closed the window
	IsRunning() bool

	// Close ends the message loop. Called from inside ProcessMessages, the window is destroyed when the
	// loop returns; otherwise it is destroyed immediately. Further calls do nothing.
	//
	// Returns:
	//   - error: always nil for GLFW windows
	Close() error

	// ProcessMessages polls events and calls the update callback until the window closes, then destroys it.
	ProcessMessages()

	// Size returns the framebuffer size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (width, height int)
}

// Default framebuffer size in pixels.
const (
	DefaultWidth  = 768
	DefaultHeight = 576
)

// callbacks are the functions the engine registers on a window.
type callbacks struct {
	update      func()
	resize      func(width, height int)
	scroll      func(delta float32)
	keyDown     func(keyCode uint32)
	keyUp       func(keyCode uint32)
	mouseButton func(button int, pressed bool, x, y int32)
	mouseMove   func(x, y int32)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// size limits applied while the user resizes; glfwDontCare leaves a bound open
	minWidth, minHeight int
	maxWidth, maxHeight int

	// framebuffer size, which differs from the requested size on high-DPI displays
	width, height int

	escapeCloses bool

	on       callbacks
	platform *glfwWindow

	// looping is set while ProcessMessages runs
	looping bool
	closed  bool
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. It must be called from the main goroutine, which then owns the
// window and runs ProcessMessages.
//
// Parameters:
//   - options: functional options such as WithTitle and WithSize
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:        "oxy-deferred",
		minWidth:     320,
		minHeight:    240,
		maxWidth:     glfwDontCare,
		maxHeight:    glfwDontCare,
		width:        DefaultWidth,
		height:       DefaultHeight,
		escapeCloses: true,
	}
	for _, opt := range options {
		opt(w)
	}
	p, err := openPlatformWindow(w)
	if err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	w.platform = p
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) { w.on.update = callback }

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.on.resize = callback }

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) { w.on.scroll = callback }

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) { w.on.keyDown = callback }

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) { w.on.keyUp = callback }

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool, x, y int32)) {
	w.on.mouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) { w.on.mouseMove = callback }

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return !w.closed && w.platform != nil && !w.platform.shouldClose()
}

func (w *engineWindow) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.looping {
		w.platform.requestClose()
		return nil
	}
	w.destroy()
	return nil
}

func (w *engineWindow) ProcessMessages() {
	w.looping = true
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			break
		}
		if w.on.update != nil {
			w.on.update()
		}
	}
	w.looping = false
	w.closed = true
	w.destroy()
}

func (w *engineWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) destroy() {
	if w.platform == nil {
		return
	}
	w.platform.destroy()
	w.platform = nil
}

// resized records a framebuffer size change. Zero sizes come from minimizing and are dropped.
func (w *engineWindow) resized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}
