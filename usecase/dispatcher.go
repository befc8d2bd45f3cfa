package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/tasknest/backend/domain"
)

// ChangeHandler consumes one inbound realtime change event.
type ChangeHandler func(ctx context.Context, event domain.ChangeEvent) error

// Dispatcher routes inbound change events to the handler registered for
// their table. It is the single consumer side of the realtime channel:
// reconnection managers produce, coordinators handle.
type Dispatcher struct {
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]ChangeHandler),
	}
}

func (d *Dispatcher) Register(table string, handler ChangeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[table] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, event domain.ChangeEvent) error {
	d.mu.RLock()
	handler, ok := d.handlers[event.Table]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no change handler registered for table %s", event.Table)
	}
	return handler(ctx, event)
}
