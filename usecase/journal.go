package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/backend/domain"
)

// Journal tracks optimistic mutations through their explicit lifecycle
// (PENDING, then CONFIRMED or ROLLED_BACK) instead of ad hoc flags. It keeps
// a bounded window of recent entries for inspection.
type Journal struct {
	mu      sync.Mutex
	entries []domain.Mutation
	limit   int
}

func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 64
	}
	return &Journal{limit: limit}
}

// Begin opens a PENDING entry covering the given records.
func (j *Journal) Begin(kind string, taskIDs []string) string {
	entry := domain.Mutation{
		ID:        uuid.NewString(),
		Kind:      kind,
		TaskIDs:   append([]string(nil), taskIDs...),
		State:     domain.MutationPending,
		StartedAt: time.Now().UTC(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	if len(j.entries) > j.limit {
		j.entries = j.entries[len(j.entries)-j.limit:]
	}
	return entry.ID
}

// Confirm marks the entry committed remotely.
func (j *Journal) Confirm(id string) {
	j.settle(id, domain.MutationConfirmed)
}

// Rollback marks the entry compensated by a refetch.
func (j *Journal) Rollback(id string) {
	j.settle(id, domain.MutationRolledBack)
}

func (j *Journal) settle(id string, state domain.MutationState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].ID == id && !j.entries[i].Settled() {
			j.entries[i].State = state
			j.entries[i].EndedAt = time.Now().UTC()
			return
		}
	}
}

// Recent returns a copy of the journal window, oldest first.
func (j *Journal) Recent() []domain.Mutation {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.Mutation(nil), j.entries...)
}

// Find returns the entry with the given id.
func (j *Journal) Find(id string) (domain.Mutation, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, entry := range j.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.Mutation{}, false
}
