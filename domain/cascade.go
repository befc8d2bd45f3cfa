package domain

// CascadeCompletion returns the target task plus every transitive descendant
// with Completed overwritten to the given value, in pre-order. Each element
// is a full record ready for a batched upsert; the batch itself is
// order-independent, the pre-order is fixed for determinism.
//
// An unknown target id yields an empty result and no error, mirroring the
// delete-of-already-deleted no-op. A revisited node means the parent chain
// is cyclic and the walk fails fast with ErrCyclicHierarchy instead of
// recursing forever.
func CascadeCompletion(tasks []Task, taskID string, completed bool) ([]Task, error) {
	byID := make(map[string]Task, len(tasks))
	children := make(map[string][]string, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
		if parent := task.Parent(); parent != "" {
			children[parent] = append(children[parent], task.ID)
		}
	}

	if _, ok := byID[taskID]; !ok {
		return nil, nil
	}

	visited := make(map[string]struct{})
	var updated []Task

	var walk func(id string) error
	walk = func(id string) error {
		if _, seen := visited[id]; seen {
			return ErrCyclicHierarchy
		}
		visited[id] = struct{}{}

		record := byID[id]
		record.Completed = completed
		record.Subtasks = nil
		updated = append(updated, record)

		for _, childID := range children[id] {
			if err := walk(childID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(taskID); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletionSet returns the ids of the target task and all of its transitive
// descendants. The remote store is instructed to delete exactly this set;
// locally the same set is dropped from the record store. An unknown target
// yields an empty set. The same cycle guard as CascadeCompletion applies.
func DeletionSet(tasks []Task, taskID string) (map[string]struct{}, error) {
	children := make(map[string][]string, len(tasks))
	known := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		known[task.ID] = struct{}{}
		if parent := task.Parent(); parent != "" {
			children[parent] = append(children[parent], task.ID)
		}
	}

	set := make(map[string]struct{})
	if _, ok := known[taskID]; !ok {
		return set, nil
	}

	var walk func(id string) error
	walk = func(id string) error {
		if _, seen := set[id]; seen {
			return ErrCyclicHierarchy
		}
		set[id] = struct{}{}
		for _, childID := range children[id] {
			if err := walk(childID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(taskID); err != nil {
		return nil, err
	}
	return set, nil
}
