package task

import (
	"context"
	"strings"
)

// Store is the persistence port the service drives. The sqlite
// implementation lives in internal/store.
type Store interface {
	Insert(ctx context.Context, title, description string, completed bool) (*Task, error)
	Get(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, id int64, patch Patch) (*Task, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies input validation the store does not and is the sole
// caller of the task store. Every call is a direct synchronous
// pass-through with at most one validation pass.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates the title and persists a new task.
func (s *Service) Create(ctx context.Context, title, description string, completed bool) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return s.store.Insert(ctx, title, description, completed)
}

// GetAll returns every task in ascending id order.
func (s *Service) GetAll(ctx context.Context) ([]Task, error) {
	return s.store.List(ctx)
}

// GetByID returns the task or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*Task, error) {
	return s.store.Get(ctx, id)
}

// Update applies only the supplied fields. A supplied-but-blank title is
// rejected so no persisted task ever loses its title.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return s.store.Update(ctx, id, patch)
}

// Delete removes the task permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
