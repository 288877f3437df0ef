// Package store owns the sqlite file backing task persistence. Every
// operation is a single transaction; concurrent writers serialize at the
// engine lock (busy_timeout keeps them queued instead of failing fast).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"taskman/internal/logging"
	"taskman/internal/task"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT 0
)`

// SQLiteStore implements task.Store on a single local sqlite file.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (or creates) the backing file and ensures the schema
// exists. Safe to call on every process start.
func Open(path string, logger logging.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &task.StorageError{Op: "open", Err: err}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &task.StorageError{Op: "init", Err: err}
	}

	logger = logging.OrNop(logger)
	logger.Info("task store ready at %s", path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert assigns a new id and persists the row.
func (s *SQLiteStore) Insert(ctx context.Context, title, description string, completed bool) (*task.Task, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (title, description, completed) VALUES (?, ?, ?)",
		title, nullableText(description), completed,
	)
	if err != nil {
		return nil, &task.StorageError{Op: "insert", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, &task.StorageError{Op: "insert", Err: err}
	}

	return &task.Task{ID: id, Title: title, Description: description, Completed: completed}, nil
}

// Get returns the task or task.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, description, completed FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// List returns all tasks in ascending id order.
func (s *SQLiteStore) List(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, completed FROM tasks ORDER BY id ASC")
	if err != nil {
		return nil, &task.StorageError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		var (
			t           task.Task
			description sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &description, &t.Completed); err != nil {
			return nil, &task.StorageError{Op: "list", Err: err}
		}
		t.Description = description.String
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &task.StorageError{Op: "list", Err: err}
	}

	return tasks, nil
}

// Update applies only the non-nil patch fields inside one transaction.
// Reads the current row first so unspecified fields survive; there is no
// version check, so concurrent updates to the same id are last-writer-wins.
func (s *SQLiteStore) Update(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &task.StorageError{Op: "update", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		"SELECT id, title, description, completed FROM tasks WHERE id = ?", id)
	current, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Completed != nil {
		current.Completed = *patch.Completed
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ?",
		current.Title, nullableText(current.Description), current.Completed, id,
	)
	if err != nil {
		return nil, &task.StorageError{Op: "update", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &task.StorageError{Op: "update", Err: err}
	}

	return current, nil
}

// Delete removes the row permanently.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return &task.StorageError{Op: "delete", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &task.StorageError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

func scanTask(row *sql.Row) (*task.Task, error) {
	var (
		t           task.Task
		description sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &description, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, &task.StorageError{Op: "get", Err: err}
	}
	t.Description = description.String
	return &t, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
