package task

// Task is the sole domain entity: a titled, optionally described,
// completable to-do item. IDs are assigned by the store on creation and
// immutable afterwards.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Patch carries the fields of a partial update. Nil fields are left
// unchanged by the store.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}
