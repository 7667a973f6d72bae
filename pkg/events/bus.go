package events

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/voxact-mc/voxact/pkg/taskrt"
)

// Bus is a type-indexed registry of handler chains. Dispatching an event
// snapshots the handler list for that event's type and submits each handler
// as a task on the process-wide task runtime with a shared payload; handlers
// therefore run in parallel with respect to one another and in arbitrary
// order, with no result aggregation.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
	frozen   bool
}

// NewBus returns an empty, unfrozen bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

// On registers handler for events of type E. Registration is only permitted
// before the bus is frozen (server.Builder.Run calls Freeze once, at
// startup); an attempt afterward is logged and dropped rather than racing
// the handler slices other goroutines may be reading.
func On[E any](b *Bus, handler func(*E) error) {
	var zero E
	t := reflect.TypeOf(zero)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		slog.Warn("event handler registered after server start, ignoring", "event", t)
		return
	}
	wrapped := func(payload any) {
		ev := payload.(*E)
		if err := handler(ev); err != nil {
			slog.Error("event handler failed", "event", t, "error", err)
		}
	}
	b.handlers[t] = append(b.handlers[t], wrapped)
}

// Freeze marks the bus as no longer accepting registrations. Called once by
// the server builder before networking starts.
func (b *Bus) Freeze() {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()
}

// Dispatch fans event out to every handler registered for its type, each
// scheduled on the task runtime with the same shared pointer.
func Dispatch[E any](b *Bus, event E) {
	t := reflect.TypeOf(event)

	b.mu.RLock()
	snapshot := append([]func(any){}, b.handlers[t]...)
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}
	payload := &event
	for _, h := range snapshot {
		h := h
		taskrt.SpawnTask(func() error {
			h(payload)
			return nil
		})
	}
}
