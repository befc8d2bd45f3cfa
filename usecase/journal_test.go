package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
)

func TestJournal_BeginOpensPendingEntry(t *testing.T) {
	journal := NewJournal(8)

	id := journal.Begin("toggle", []string{"a", "b"})
	require.NotEmpty(t, id)

	entry, ok := journal.Find(id)
	require.True(t, ok)
	assert.Equal(t, domain.MutationPending, entry.State)
	assert.Equal(t, []string{"a", "b"}, entry.TaskIDs)
	assert.False(t, entry.Settled())
	assert.True(t, entry.EndedAt.IsZero())
}

func TestJournal_ConfirmAndRollbackAreTerminal(t *testing.T) {
	journal := NewJournal(8)

	confirmed := journal.Begin("create", []string{"a"})
	journal.Confirm(confirmed)

	rolledBack := journal.Begin("toggle", []string{"b"})
	journal.Rollback(rolledBack)

	entry, ok := journal.Find(confirmed)
	require.True(t, ok)
	assert.Equal(t, domain.MutationConfirmed, entry.State)
	assert.False(t, entry.EndedAt.IsZero())

	// A settled entry never transitions again.
	journal.Rollback(confirmed)
	entry, _ = journal.Find(confirmed)
	assert.Equal(t, domain.MutationConfirmed, entry.State)

	entry, ok = journal.Find(rolledBack)
	require.True(t, ok)
	assert.Equal(t, domain.MutationRolledBack, entry.State)
}

func TestJournal_WindowIsBounded(t *testing.T) {
	journal := NewJournal(3)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, journal.Begin("toggle", []string{fmt.Sprintf("t%d", i)}))
	}

	entries := journal.Recent()
	require.Len(t, entries, 3)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[4], entries[2].ID)

	_, ok := journal.Find(ids[0])
	assert.False(t, ok)
}

func TestJournal_SettleUnknownIDIsNoOp(t *testing.T) {
	journal := NewJournal(4)
	journal.Confirm("missing")
	assert.Empty(t, journal.Recent())
}
