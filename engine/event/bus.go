package event

type listenerEntry struct {
	callback Listener
	owner    any
}

// bus is the implementation of the Bus interface.
type bus struct {
	listeners map[Name][]listenerEntry
}

// Bus is a named-event registry with per-listener ownership tags. Listeners for a name fire in
// registration order. The bus is not safe for concurrent use; the engine drives it from a single goroutine.
type Bus interface {
	// AddListener appends a callback to the listener list of the named event.
	//
	// Parameters:
	//   - name: the event to listen for
	//   - callback: the function invoked on Trigger
	//   - owner: the ownership tag used by RemoveListenersOf; must be comparable
	AddListener(name Name, callback Listener, owner any)

	// RemoveListenersOf drops every listener tagged with owner, preserving the order of the rest.
	//
	// Parameters:
	//   - owner: the ownership tag to remove
	//
	// Returns:
	//   - int: the number of listeners removed
	RemoveListenersOf(owner any) int

	// Trigger invokes every listener of the named event synchronously, in registration order.
	// The listener list is snapshotted at dispatch start, so listeners added during dispatch run on the next Trigger.
	//
	// Parameters:
	//   - name: the event to dispatch
	//   - data: the payload passed to each listener
	Trigger(name Name, data any)

	// Reset clears every listener.
	Reset()

	// ListenerCount returns the number of listeners currently registered for name.
	//
	// Parameters:
	//   - name: the event to count
	//
	// Returns:
	//   - int: the listener count
	ListenerCount(name Name) int
}

var _ Bus = &bus{}

// NewBus creates an empty, reset Bus.
func NewBus() Bus {
	b := &bus{}
	b.Reset()
	return b
}

func (b *bus) AddListener(name Name, callback Listener, owner any) {
	if callback == nil {
		return
	}
	b.listeners[name] = append(b.listeners[name], listenerEntry{callback: callback, owner: owner})
}

func (b *bus) RemoveListenersOf(owner any) int {
	removed := 0
	for name, entries := range b.listeners {
		kept := entries[:0:0]
		for _, e := range entries {
			if e.owner == owner {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(b.listeners, name)
			continue
		}
		b.listeners[name] = kept
	}
	return removed
}

func (b *bus) Trigger(name Name, data any) {
	entries := b.listeners[name]
	if len(entries) == 0 {
		return
	}
	snapshot := make([]listenerEntry, len(entries))
	copy(snapshot, entries)
	for _, e := range snapshot {
		e.callback(data)
	}
}

func (b *bus) Reset() {
	b.listeners = make(map[Name][]listenerEntry)
}

func (b *bus) ListenerCount(name Name) int {
	return len(b.listeners[name])
}
