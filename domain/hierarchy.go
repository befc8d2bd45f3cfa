package domain

// BuildHierarchy converts a flat, parent-referencing task list into a forest
// of root tasks with nested Subtasks. Children keep the input order, which
// callers are expected to make the display order (created_at ascending).
//
// A task whose parent id does not resolve within the input is treated as a
// root. This keeps partially loaded sets renderable instead of dropping
// records. The input is not mutated; every node in the result is a copy.
func BuildHierarchy(tasks []Task) []Task {
	index := make(map[string]Task, len(tasks))
	for _, task := range tasks {
		index[task.ID] = task
	}

	children := make(map[string][]string, len(tasks))
	var rootIDs []string
	for _, task := range tasks {
		if parent := task.Parent(); parent != "" {
			if _, ok := index[parent]; ok {
				children[parent] = append(children[parent], task.ID)
				continue
			}
		}
		rootIDs = append(rootIDs, task.ID)
	}

	var expand func(id string) Task
	expand = func(id string) Task {
		node := index[id]
		node.Subtasks = []Task{}
		for _, childID := range children[id] {
			node.Subtasks = append(node.Subtasks, expand(childID))
		}
		return node
	}

	roots := make([]Task, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, expand(id))
	}
	return roots
}

// Flatten is the inverse of BuildHierarchy: it walks the forest pre-order
// and returns the flat record set with Subtasks stripped.
func Flatten(roots []Task) []Task {
	var flat []Task
	var walk func(nodes []Task)
	walk = func(nodes []Task) {
		for _, node := range nodes {
			record := node
			record.Subtasks = nil
			flat = append(flat, record)
			walk(node.Subtasks)
		}
	}
	walk(roots)
	return flat
}
