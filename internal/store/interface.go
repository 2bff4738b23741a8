package store

import "context"

// StoreState represents the initialization state of the datastore.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // File exists but no schema
	StateVersionMismatch                   // Schema exists but wrong version
	StateReady                             // Initialized and correct version
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version_mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Store defines the task datastore contract.
// Implementations must be safe for concurrent use.
type Store interface {
	// Init creates the storage directory and schema. It is a no-op when both exist.
	Init(ctx context.Context) error

	// List returns every task, most recently created first.
	List(ctx context.Context) ([]Task, error)

	// Add inserts a task with the given text and returns its id.
	Add(ctx context.Context, text string) (int64, error)

	// Get returns the task with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (Task, error)

	// Toggle flips the completed flag. Unknown ids are ignored.
	Toggle(ctx context.Context, id int64) error

	// Delete removes the task. Unknown ids are ignored.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of tasks.
	Count(ctx context.Context) (int, error)

	// CountCompleted returns the number of completed tasks.
	CountCompleted(ctx context.Context) (int, error)

	// CheckState returns the current state of the datastore
	CheckState(ctx context.Context) (StoreState, error)

	// SchemaVersion returns the current schema version from the database
	SchemaVersion(ctx context.Context) (string, error)
}

// ReadStats computes the aggregate counts from s.
func ReadStats(ctx context.Context, s Store) (Stats, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	completed, err := s.CountCompleted(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     total,
		Completed: completed,
		Active:    total - completed,
	}, nil
}
