// Package realtime keeps one change feed subscription alive per watched
// resource, re-establishing it with a fixed delay whenever it drops.
package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// DefaultRetryDelay matches the 2 s resubscribe backstop of the client the
// feed was modeled on.
const DefaultRetryDelay = 2 * time.Second

// State of the managed subscription.
type State string

const (
	StateConnecting State = "CONNECTING"
	StateSubscribed State = "SUBSCRIBED"
	StateClosed     State = "CLOSED"
)

// Handler consumes forwarded change events.
type Handler func(ctx context.Context, event domain.ChangeEvent) error

// Manager maintains a live subscription for one table/filter pair. A
// dropped feed schedules exactly one retry per closure, indefinitely; there
// is no retry cap since a lost realtime feed should self-heal, not give up.
// Close cancels any pending retry and releases the subscription; no handler
// call fires after Close.
type Manager struct {
	feed    repository.ChangeFeed
	sub     repository.Subscription
	handler Handler
	delay   time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	state  State
	stream repository.Stream
	retry  *time.Timer
	closed bool
}

func New(feed repository.ChangeFeed, sub repository.Subscription, handler Handler, delay time.Duration, logger *zap.Logger) *Manager {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		feed:    feed,
		sub:     sub,
		handler: handler,
		delay:   delay,
		state:   StateConnecting,
		logger:  logger.With(zap.String("table", sub.Table), zap.String("filter", sub.Filter)),
	}
}

// Start establishes the initial subscription.
func (m *Manager) Start() {
	m.connect()
}

// State reports the current subscription state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close tears the manager down unconditionally.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.state = StateClosed
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	stream := m.stream
	m.stream = nil
	m.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
}

func (m *Manager) connect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	stream, err := m.feed.Subscribe(context.Background(), m.sub)
	if err != nil {
		m.logger.Warn("subscribe failed, scheduling retry", zap.Error(err))
		m.scheduleRetry()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = stream.Close()
		return
	}
	m.stream = stream
	m.mu.Unlock()

	go m.consume(stream)
}

func (m *Manager) consume(stream repository.Stream) {
	events := stream.Events()
	status := stream.Status()

	for events != nil || status != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.forward(event)

		case st, ok := <-status:
			if !ok {
				status = nil
				continue
			}
			switch st {
			case domain.StatusSubscribed:
				m.onSubscribed()
			case domain.StatusClosed:
				m.onClosed()
			}
		}
	}
}

func (m *Manager) forward(event domain.ChangeEvent) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed || m.handler == nil {
		return
	}
	if err := m.handler(context.Background(), event); err != nil {
		m.logger.Warn("change handler failed", zap.Error(err))
	}
}

func (m *Manager) onSubscribed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.state = StateSubscribed
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) onClosed() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.stream = nil
	m.mu.Unlock()

	m.logger.Info("subscription closed, scheduling reconnect", zap.Duration("delay", m.delay))
	m.scheduleRetry()
}

// scheduleRetry arms a single retry timer; a closure already waiting on its
// timer never schedules a second one.
func (m *Manager) scheduleRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.retry != nil {
		return
	}
	m.retry = time.AfterFunc(m.delay, func() {
		m.mu.Lock()
		m.retry = nil
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return
		}
		m.connect()
	})
}
