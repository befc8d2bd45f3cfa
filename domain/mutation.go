package domain

import "time"

// MutationState tracks an optimistic mutation through its lifecycle: local
// state is updated while the mutation is PENDING, the remote commit moves it
// to CONFIRMED, and a compensating refetch marks it ROLLED_BACK.
type MutationState string

const (
	MutationPending    MutationState = "PENDING"
	MutationConfirmed  MutationState = "CONFIRMED"
	MutationRolledBack MutationState = "ROLLED_BACK"
)

// Mutation is the journal record for one optimistic operation.
type Mutation struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	TaskIDs   []string      `json:"task_ids,omitempty"`
	State     MutationState `json:"state"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
}

// Settled reports whether the mutation reached a terminal state.
func (m *Mutation) Settled() bool {
	return m != nil && m.State != MutationPending
}
