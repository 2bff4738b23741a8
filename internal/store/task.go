package store

import "errors"

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")

	// ErrEmptyTask is returned when adding a task with no text.
	ErrEmptyTask = errors.New("task text is empty")
)

// Task is a single to-do item.
// CreatedAt is assigned by the store and kept in its "YYYY-MM-DD HH:MM:SS" form.
type Task struct {
	ID        int64
	Text      string
	Completed bool
	CreatedAt string
}

// Stats holds aggregate task counts. Total == Completed + Active.
type Stats struct {
	Total     int
	Completed int
	Active    int
}
