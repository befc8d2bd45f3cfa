package domain

import "time"

// Task represents a single item in a project's task tree. ParentID is nil
// for root-level tasks. Subtasks is derived by BuildHierarchy and is never
// persisted.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Subtasks    []Task    `json:"subtasks,omitempty"`
}

// IsRoot reports whether the task sits at the top level of its project.
func (t *Task) IsRoot() bool {
	return t != nil && (t.ParentID == nil || *t.ParentID == "")
}

// Parent returns the parent id, or the empty string for root tasks.
func (t *Task) Parent() string {
	if t == nil || t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}
