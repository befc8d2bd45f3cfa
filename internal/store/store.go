// Package store holds the last-known-good task and project records as flat,
// ordered sets. It is a pure state container: no validation, no I/O, only
// mutation primitives plus observer notification. Coordinators own one
// instance each through injection, there are no package-level singletons.
package store

import (
	"sync"

	"github.com/tasknest/backend/domain"
)

// Observer is invoked after every state change. Callbacks run synchronously
// on the mutating goroutine and must not mutate the store re-entrantly.
type Observer func()

// Store is safe for concurrent use. Record order is preserved: SetTasks
// keeps the fetch order (created_at ascending), Add appends, Replace keeps
// the record's existing position.
type Store struct {
	mu sync.RWMutex

	tasks     []domain.Task
	taskIndex map[string]int

	projects     []domain.Project
	projectIndex map[string]int

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

func New() *Store {
	return &Store{
		taskIndex:    make(map[string]int),
		projectIndex: make(map[string]int),
		observers:    make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its cancel function.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify() {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// SetTasks replaces the full task set, used after a fetch.
func (s *Store) SetTasks(tasks []domain.Task) {
	s.mu.Lock()
	s.tasks = append([]domain.Task(nil), tasks...)
	s.taskIndex = make(map[string]int, len(tasks))
	for i, task := range s.tasks {
		s.taskIndex[task.ID] = i
	}
	s.mu.Unlock()
	s.notify()
}

// AddTask appends a record.
func (s *Store) AddTask(task domain.Task) {
	s.mu.Lock()
	if i, ok := s.taskIndex[task.ID]; ok {
		s.tasks[i] = task
	} else {
		s.taskIndex[task.ID] = len(s.tasks)
		s.tasks = append(s.tasks, task)
	}
	s.mu.Unlock()
	s.notify()
}

// ReplaceTask upserts a record by id, keeping its position.
func (s *Store) ReplaceTask(task domain.Task) {
	s.AddTask(task)
}

// RemoveTask drops a single record by id. Unknown ids are a no-op.
func (s *Store) RemoveTask(id string) {
	s.RemoveTasks(map[string]struct{}{id: {}})
}

// RemoveTasks drops every record whose id is in the set.
func (s *Store) RemoveTasks(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if _, drop := ids[task.ID]; !drop {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	s.taskIndex = make(map[string]int, len(kept))
	for i, task := range kept {
		s.taskIndex[task.ID] = i
	}
	s.mu.Unlock()
	s.notify()
}

// Tasks returns a copy of the task set in order.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Task(nil), s.tasks...)
}

// Task looks a record up by id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.taskIndex[id]; ok {
		return s.tasks[i], true
	}
	return domain.Task{}, false
}

// SetProjects replaces the full project set.
func (s *Store) SetProjects(projects []domain.Project) {
	s.mu.Lock()
	s.projects = append([]domain.Project(nil), projects...)
	s.projectIndex = make(map[string]int, len(projects))
	for i, project := range s.projects {
		s.projectIndex[project.ID] = i
	}
	s.mu.Unlock()
	s.notify()
}

// AddProject appends or upserts a project record.
func (s *Store) AddProject(project domain.Project) {
	s.mu.Lock()
	if i, ok := s.projectIndex[project.ID]; ok {
		s.projects[i] = project
	} else {
		s.projectIndex[project.ID] = len(s.projects)
		s.projects = append(s.projects, project)
	}
	s.mu.Unlock()
	s.notify()
}

// ReplaceProject upserts a project record by id.
func (s *Store) ReplaceProject(project domain.Project) {
	s.AddProject(project)
}

// RemoveProject drops a project record. Unknown ids are a no-op.
func (s *Store) RemoveProject(id string) {
	s.mu.Lock()
	if _, ok := s.projectIndex[id]; !ok {
		s.mu.Unlock()
		return
	}
	kept := s.projects[:0]
	for _, project := range s.projects {
		if project.ID != id {
			kept = append(kept, project)
		}
	}
	s.projects = kept
	s.projectIndex = make(map[string]int, len(kept))
	for i, project := range kept {
		s.projectIndex[project.ID] = i
	}
	s.mu.Unlock()
	s.notify()
}

// Projects returns a copy of the project set in order.
func (s *Store) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Project(nil), s.projects...)
}

// Project looks a record up by id.
func (s *Store) Project(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.projectIndex[id]; ok {
		return s.projects[i], true
	}
	return domain.Project{}, false
}
