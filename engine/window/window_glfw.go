package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwDontCare leaves a size limit unbounded.
const glfwDontCare = glfw.DontCare

// glfwWindow is the GLFW side of an engineWindow.
type glfwWindow struct {
	win *glfw.Window
}

// openPlatformWindow initializes GLFW, creates a window without a client API for WebGPU to present into,
// and routes its input and framebuffer events to w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openPlatformWindow(w *engineWindow) (*glfwWindow, error) {
	// GLFW calls must stay on the thread that initialized it
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch {
		case action == glfw.Repeat:
		case w.escapeCloses && key == glfw.KeyEscape:
			if action == glfw.Press {
				win.SetShouldClose(true)
			}
		case action == glfw.Press && w.on.keyDown != nil:
			w.on.keyDown(uint32(key))
		case action == glfw.Release && w.on.keyUp != nil:
			w.on.keyUp(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.on.scroll != nil {
			w.on.scroll(float32(yoff))
		}
	})

	// GLFW button indices match common.MouseButton
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.on.mouseButton == nil || action == glfw.Repeat {
			return
		}
		x, y := win.GetCursorPos()
		w.on.mouseButton(int(button), action == glfw.Press, int32(x), int32(y))
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.on.mouseMove != nil {
			w.on.mouseMove(int32(x), int32(y))
		}
	})

	// framebuffer size, not window size: the surface is configured in pixels
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()

	return &glfwWindow{win: win}, nil
}

// surfaceDescriptor bridges the GLFW window to a WebGPU surface on every desktop platform.
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.win)
}

func (g *glfwWindow) shouldClose() bool {
	return g.win.ShouldClose()
}

func (g *glfwWindow) requestClose() {
	g.win.SetShouldClose(true)
}

// poll dispatches pending events without blocking.
func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.win.Destroy()
	glfw.Terminate()
}
