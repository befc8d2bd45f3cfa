// Package snapshot persists last-known-good record sets in BoltDB so a
// remounted view renders immediately while the authoritative fetch is in
// flight. It is a warm-start cache, not an offline store: nothing is ever
// served from it once a fetch has succeeded.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/tasknest/backend/domain"
)

var (
	bucketTasks    = []byte("task_snapshots")
	bucketProjects = []byte("project_snapshots")
)

// Store wraps BoltDB. Task snapshots are keyed by project id, project
// snapshots by user id.
type Store struct {
	db *bolt.DB
}

type taskEnvelope struct {
	SavedAt time.Time     `json:"saved_at"`
	Tasks   []domain.Task `json:"tasks"`
}

type projectEnvelope struct {
	SavedAt  time.Time        `json:"saved_at"`
	Projects []domain.Project `json:"projects"`
}

// Open initializes the BoltDB file and ensures both buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketTasks); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketProjects)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveTasks replaces the snapshot for one project.
func (s *Store) SaveTasks(_ context.Context, projectID string, tasks []domain.Task) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(taskEnvelope{SavedAt: time.Now().UTC(), Tasks: tasks})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).Put([]byte(projectID), payload)
	})
}

// LoadTasks returns the snapshot for one project; found is false for a
// cold cache.
func (s *Store) LoadTasks(_ context.Context, projectID string) ([]domain.Task, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, bolt.ErrDatabaseNotOpen
	}
	var envelope taskEnvelope
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketTasks).Get([]byte(projectID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return envelope.Tasks, true, nil
}

// SaveProjects replaces the snapshot for one user.
func (s *Store) SaveProjects(_ context.Context, userID string, projects []domain.Project) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(projectEnvelope{SavedAt: time.Now().UTC(), Projects: projects})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProjects).Put([]byte(userID), payload)
	})
}

// LoadProjects returns the snapshot for one user.
func (s *Store) LoadProjects(_ context.Context, userID string) ([]domain.Project, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, bolt.ErrDatabaseNotOpen
	}
	var envelope projectEnvelope
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketProjects).Get([]byte(userID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return envelope.Projects, true, nil
}

// Cleanup removes snapshots saved before the given time.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketTasks, bucketProjects} {
			c := tx.Bucket(bucket).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var stamp struct {
					SavedAt time.Time `json:"saved_at"`
				}
				if err := json.Unmarshal(v, &stamp); err != nil {
					continue
				}
				if stamp.SavedAt.Before(olderThan) {
					if err := c.Delete(); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// Size returns the number of stored snapshots across both buckets.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketTasks).Stats().KeyN + tx.Bucket(bucketProjects).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
