package game_object

// ComponentType tags a component kind. A game object holds at most one component per type.
type ComponentType string

// Component is a behavior unit attached to a game object. A component may additionally implement
// Initer and Destroyer for object-local lifecycle hooks, and any of the event package hook interfaces
// (event.Updater, event.Renderer, ...) for bus events. Capabilities are checked once, when the owning
// object is initialized.
type Component interface {
	// ComponentType returns the tag under which the component is stored on its object.
	//
	// Returns:
	//   - ComponentType: the component's type tag
	ComponentType() ComponentType

	// Object returns the game object the component is attached to. The reference is non-owning.
	//
	// Returns:
	//   - GameObject: the owning object
	Object() GameObject
}

// Initer is implemented by objects and components that react to their object's Init event.
type Initer interface {
	Init()
}

// Destroyer is implemented by objects and components that react to their object's Destroy event.
type Destroyer interface {
	Destroy()
}

// BaseComponent carries the back-reference to the owning object. Embed it to satisfy Component.Object.
type BaseComponent struct {
	obj GameObject
}

// NewBaseComponent creates a BaseComponent bound to obj.
func NewBaseComponent(obj GameObject) BaseComponent {
	return BaseComponent{obj: obj}
}

func (b BaseComponent) Object() GameObject {
	return b.obj
}
