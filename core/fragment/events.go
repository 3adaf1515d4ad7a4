package fragment

import "sync"

// EventType names a loader notification.
type EventType string

const (
	// EventComponentLoaded fires when a fragment is mounted into its container.
	EventComponentLoaded EventType = "component.loaded"
	// EventComponentFailed fires when a fragment fails permanently.
	EventComponentFailed EventType = "component.failed"
	// EventInitialized fires after a successful cycle ran the setup sequence.
	EventInitialized EventType = "components.initialized"
	// EventCycleFailed fires when a cycle ends in error.
	EventCycleFailed EventType = "components.failed"
)

// Event is delivered to subscribers.
type Event struct {
	Type        EventType
	ContainerID string
	URL         string
	Attempt     int
	Err         error
}

// Listener receives loader events.
type Listener func(Event)

type observers struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
}

func (o *observers) subscribe(fn Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listeners == nil {
		o.listeners = make(map[int]Listener)
	}
	id := o.next
	o.next++
	o.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers) emit(ev Event) {
	o.mu.RLock()
	fns := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
