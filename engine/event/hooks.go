package event

// Updater receives the per-frame Update event.
type Updater interface {
	Update()
}

// Renderer receives the per-frame Render event.
type Renderer interface {
	Render()
}

// Exiter receives the Exit event emitted when the active scene is left.
type Exiter interface {
	Exit()
}

// KeyPressedHandler receives KeyPressed events.
type KeyPressedHandler interface {
	OnKeyPressed(data KeyPressedData)
}

// ClickHandler receives Click events.
type ClickHandler interface {
	OnClick(data ClickData)
}

// DebugHandler receives Debug events.
type DebugHandler interface {
	OnDebug(data DebugData)
}

// Bind registers every bus hook that target implements under the given owner. Capabilities are checked
// once here, so a target gains no hooks by changing behavior after binding.
//
// Parameters:
//   - b: the bus to register on
//   - target: the object, component, or manager whose hooks are bound
//   - owner: the ownership tag, typically the game object or the manager itself
//
// Returns:
//   - int: the number of hooks bound
func Bind(b Bus, target, owner any) int {
	bound := 0
	if h, ok := target.(Updater); ok {
		b.AddListener(Update, func(any) { h.Update() }, owner)
		bound++
	}
	if h, ok := target.(Renderer); ok {
		b.AddListener(Render, func(any) { h.Render() }, owner)
		bound++
	}
	if h, ok := target.(Exiter); ok {
		b.AddListener(Exit, func(any) { h.Exit() }, owner)
		bound++
	}
	if h, ok := target.(KeyPressedHandler); ok {
		b.AddListener(KeyPressed, func(data any) {
			if d, ok := data.(KeyPressedData); ok {
				h.OnKeyPressed(d)
			}
		}, owner)
		bound++
	}
	if h, ok := target.(ClickHandler); ok {
		b.AddListener(Click, func(data any) {
			if d, ok := data.(ClickData); ok {
				h.OnClick(d)
			}
		}, owner)
		bound++
	}
	if h, ok := target.(DebugHandler); ok {
		b.AddListener(Debug, func(data any) {
			if d, ok := data.(DebugData); ok {
				h.OnDebug(d)
			}
		}, owner)
		bound++
	}
	return bound
}
