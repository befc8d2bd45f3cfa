package domain

import (
	"encoding/json"
	"time"
)

// ChangeKind classifies a realtime change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Watched table names shared between the change feed and its consumers.
const (
	TableTasks    = "tasks"
	TableProjects = "projects"
)

// ChangeEvent describes a committed mutation on a watched table, pushed to
// subscribers asynchronously. Record carries the row as plain JSON so the
// feed stays table-agnostic.
type ChangeEvent struct {
	Table      string          `json:"table"`
	Kind       ChangeKind      `json:"kind"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// SubscriptionStatus signals the health of a change feed subscription.
type SubscriptionStatus string

const (
	StatusSubscribed SubscriptionStatus = "SUBSCRIBED"
	StatusClosed     SubscriptionStatus = "CLOSED"
)
