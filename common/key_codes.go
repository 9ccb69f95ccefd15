package common

// Key identifies a keyboard key. Values match GLFW key codes, which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32
	KeyA     Key = 65
	KeyB     Key = 66
	KeyC     Key = 67
	KeyD     Key = 68
	KeyE     Key = 69
	KeyF     Key = 70
	KeyG     Key = 71
	KeyL     Key = 76
	KeyM     Key = 77
	KeyQ     Key = 81
	KeyS     Key = 83
	KeyT     Key = 84
	KeyV     Key = 86
	KeyW     Key = 87
	KeyX     Key = 88

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
	Key9 Key = 57

	KeyEsc        Key = 256
	KeyBackspace  Key = 259
	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)

// MouseButton identifies a mouse button. Values match GLFW mouse button indices.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
	MouseButton4
	MouseButton5

	// MouseButtonCount is the number of tracked mouse buttons.
	MouseButtonCount
)
