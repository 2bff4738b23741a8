package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maloquacious/todolist/internal/store"
	_ "modernc.org/sqlite"
)

const selectTodos = `
SELECT id, task, completed, strftime('%Y-%m-%d %H:%M:%S', created_at)
FROM todos`

// SQLiteStore implements the Store interface using modernc.org/sqlite.
// Every operation opens its own handle on the file and closes it before
// returning; nothing is pooled between calls.
type SQLiteStore struct {
	dbPath         string
	expectedSchema string
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLiteStore.
func New(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:         dbPath,
		expectedSchema: SchemaVersion,
	}
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// open opens the SQLite database with safe defaults.
// The caller must close the returned handle.
func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection so the pragmas below apply to every statement
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	return db, nil
}

// withDB runs fn against a freshly opened handle and always closes it.
func (s *SQLiteStore) withDB(ctx context.Context, fn func(db *sql.DB) error) (err error) {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", cerr)
		}
	}()
	return fn(db)
}

// Init creates the parent directory and the schema, then records the schema version.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if err := store.EnsureDir(s.dbPath); err != nil {
		return err
	}

	return s.withDB(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, initialSchema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s', 'now'))`, s.expectedSchema)
		if err != nil {
			return fmt.Errorf("failed to insert schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// List returns all tasks, newest first. Ties on created_at fall back to id.
func (s *SQLiteStore) List(ctx context.Context) ([]store.Task, error) {
	tasks := []store.Task{}
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectTodos+` ORDER BY created_at DESC, id DESC`)
		if err != nil {
			return fmt.Errorf("failed to query tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Add inserts a new, not completed task.
func (s *SQLiteStore) Add(ctx context.Context, text string) (int64, error) {
	if text == "" {
		return 0, store.ErrEmptyTask
	}

	var id int64
	err := s.withDB(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `INSERT INTO todos (task) VALUES (?)`, text)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read task id: %w", err)
		}
		return nil
	})
	return id, err
}

// Get returns the task with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (store.Task, error) {
	var t store.Task
	err := s.withDB(ctx, func(db *sql.DB) error {
		var err error
		t, err = scanTask(db.QueryRowContext(ctx, selectTodos+` WHERE id = ?`, id))
		return err
	})
	return t, err
}

// Toggle flips the completed flag of the task. A missing id changes nothing.
func (s *SQLiteStore) Toggle(ctx context.Context, id int64) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `UPDATE todos SET completed = CASE WHEN completed THEN 0 ELSE 1 END WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to toggle task %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the task. A missing id changes nothing.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete task %d: %w", id, err)
		}
		return nil
	})
}

// Count returns the number of tasks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM todos`)
}

// CountCompleted returns the number of completed tasks.
func (s *SQLiteStore) CountCompleted(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM todos WHERE completed = 1`)
}

func (s *SQLiteStore) count(ctx context.Context, query string) (int, error) {
	var n int
	err := s.withDB(ctx, func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return fmt.Errorf("failed to count tasks: %w", err)
		}
		return nil
	})
	return n, err
}

// CheckState returns the current state of the datastore.
// It never creates the database file.
func (s *SQLiteStore) CheckState(ctx context.Context) (store.StoreState, error) {
	exists, err := store.CheckExists(s.dbPath)
	if err != nil {
		return store.StateMissing, err
	}
	if !exists {
		return store.StateMissing, nil
	}

	state := store.StateUninitialized
	err = s.withDB(ctx, func(db *sql.DB) error {
		// Check if both tables exist
		var count int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('todos', 'schema_migrations')`).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check schema tables: %w", err)
		}
		if count < 2 {
			return nil
		}

		version, err := schemaVersion(ctx, db)
		if err != nil {
			return err
		}
		if version != s.expectedSchema {
			state = store.StateVersionMismatch
			return nil
		}
		state = store.StateReady
		return nil
	})
	if err != nil {
		return store.StateUninitialized, err
	}
	return state, nil
}

// SchemaVersion returns the current schema version from the database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := s.withDB(ctx, func(db *sql.DB) error {
		var err error
		version, err = schemaVersion(ctx, db)
		return err
	})
	return version, err
}

func schemaVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (store.Task, error) {
	var t store.Task
	var completed int
	err := row.Scan(&t.ID, &t.Text, &completed, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Task{}, store.ErrNotFound
	}
	if err != nil {
		return store.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	t.Completed = completed != 0
	return t, nil
}
