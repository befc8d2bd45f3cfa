package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// Subscription identifies one watched resource: a table plus an equality
// filter (project id for tasks, user id for projects). Events narrows the
// delivered change kinds; empty means all.
type Subscription struct {
	Table  string
	Filter string
	Events []domain.ChangeKind
}

// Stream delivers change events for a single subscription. Status reports
// SUBSCRIBED once delivery is live and CLOSED when the feed drops; after
// Close both channels are drained and closed and no further sends happen.
type Stream interface {
	Events() <-chan domain.ChangeEvent
	Status() <-chan domain.SubscriptionStatus
	Close() error
}

// ChangeFeed hands out realtime subscriptions on watched tables.
type ChangeFeed interface {
	Subscribe(ctx context.Context, sub Subscription) (Stream, error)
}

// EventPublisher is the write side of the feed: repositories publish one
// event per committed mutation. Publish failures must not fail the mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent, filter string) error
}
