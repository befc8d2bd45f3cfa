package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeCompletion_IncludesTargetAndDescendantsOnly(t *testing.T) {
	flat := []Task{
		task("root", nil),
		task("x", ptr("root")),
		task("x1", ptr("x")),
		task("x2", ptr("x")),
		task("sibling", ptr("root")),
	}

	updated, err := CascadeCompletion(flat, "x", true)
	require.NoError(t, err)

	ids := make([]string, 0, len(updated))
	for _, record := range updated {
		assert.True(t, record.Completed)
		ids = append(ids, record.ID)
	}
	assert.ElementsMatch(t, []string{"x", "x1", "x2"}, ids)
	assert.NotContains(t, ids, "root")
	assert.NotContains(t, ids, "sibling")
}

func TestCascadeCompletion_LeafReturnsItself(t *testing.T) {
	flat := []Task{
		task("a", nil),
		task("b", ptr("a")),
	}

	updated, err := CascadeCompletion(flat, "b", true)
	require.NoError(t, err)

	require.Len(t, updated, 1)
	assert.Equal(t, "b", updated[0].ID)
	assert.True(t, updated[0].Completed)
}

func TestCascadeCompletion_ChainTogglesAllThree(t *testing.T) {
	flat := []Task{
		task("A", nil),
		task("B", ptr("A")),
		task("C", ptr("B")),
	}

	updated, err := CascadeCompletion(flat, "A", true)
	require.NoError(t, err)

	require.Len(t, updated, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{updated[0].ID, updated[1].ID, updated[2].ID})
	for _, record := range updated {
		assert.True(t, record.Completed)
	}
}

func TestCascadeCompletion_UnknownTargetIsEmpty(t *testing.T) {
	flat := []Task{task("a", nil)}

	updated, err := CascadeCompletion(flat, "nope", true)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestCascadeCompletion_PreOrder(t *testing.T) {
	flat := []Task{
		task("a", nil),
		task("b", ptr("a")),
		task("c", ptr("b")),
		task("d", ptr("a")),
	}

	updated, err := CascadeCompletion(flat, "a", false)
	require.NoError(t, err)

	ids := make([]string, len(updated))
	for i, record := range updated {
		ids[i] = record.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestCascadeCompletion_CyclicParentChainFailsFast(t *testing.T) {
	flat := []Task{
		task("a", ptr("b")),
		task("b", ptr("a")),
	}

	_, err := CascadeCompletion(flat, "a", true)
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeConflict))
}

func TestDeletionSet_TwoChildrenOneGrandchild(t *testing.T) {
	flat := []Task{
		task("root", nil),
		task("c1", ptr("root")),
		task("c2", ptr("root")),
		task("g1", ptr("c1")),
		task("other", nil),
	}

	set, err := DeletionSet(flat, "root")
	require.NoError(t, err)

	assert.Len(t, set, 4)
	for _, id := range []string{"root", "c1", "c2", "g1"} {
		assert.Contains(t, set, id)
	}
	assert.NotContains(t, set, "other")
}

func TestDeletionSet_UnknownTargetIsEmpty(t *testing.T) {
	set, err := DeletionSet([]Task{task("a", nil)}, "ghost")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestDeletionSet_CycleFailsFast(t *testing.T) {
	flat := []Task{
		task("a", ptr("b")),
		task("b", ptr("a")),
	}

	_, err := DeletionSet(flat, "b")
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeConflict))
}
