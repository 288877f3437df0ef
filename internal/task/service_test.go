package task

import (
	"context"
	"errors"
	"testing"
)

// fakeStore records calls so tests can assert validation happens before
// the store is touched.
type fakeStore struct {
	inserts int
	updates int
	tasks   map[int64]*Task
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: make(map[int64]*Task), nextID: 1}
}

func (f *fakeStore) Insert(ctx context.Context, title, description string, completed bool) (*Task, error) {
	f.inserts++
	t := &Task{ID: f.nextID, Title: title, Description: description, Completed: completed}
	f.tasks[t.ID] = t
	f.nextID++
	return t, nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Task, error) {
	out := make([]Task, 0, len(f.tasks))
	for id := int64(1); id < f.nextID; id++ {
		if t, ok := f.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, patch Patch) (*Task, error) {
	f.updates++
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	return t, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		store := newFakeStore()
		svc := NewService(store)

		_, err := svc.Create(context.Background(), title, "", false)

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("title %q: expected ValidationError, got %v", title, err)
		}
		if ve.Field != "title" {
			t.Fatalf("expected field title, got %q", ve.Field)
		}
		if store.inserts != 0 {
			t.Fatalf("title %q: store must not be touched on validation failure", title)
		}
	}
}

func TestCreateDelegatesToStore(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), "Buy milk", "2 liters", false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 1 || created.Title != "Buy milk" || created.Completed {
		t.Fatalf("unexpected task: %+v", created)
	}
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	if _, err := svc.Create(context.Background(), "Buy milk", "", false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	blank := "  "
	_, err := svc.Update(context.Background(), 1, Patch{Title: &blank})

	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.updates != 0 {
		t.Fatal("store must not be touched on validation failure")
	}
}

func TestUpdateWithoutTitleIsAllowed(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	if _, err := svc.Create(context.Background(), "Buy milk", "", false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	done := true
	updated, err := svc.Update(context.Background(), 1, Patch{Completed: &done})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Completed || updated.Title != "Buy milk" {
		t.Fatalf("unexpected task: %+v", updated)
	}
}

func TestNotFoundPropagatesVerbatim(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
	done := true
	if _, err := svc.Update(ctx, 9, Patch{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
}
