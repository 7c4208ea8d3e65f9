package repositories

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an entity is absent or soft-deleted. Callers
// translate it to their own not-found condition; it is never a system error.
var ErrNotFound = errors.New("entity not found")

// Repository defines entity-agnostic CRUD with soft-delete semantics.
// Every mutating operation commits immediately; no transaction spans calls.
type Repository[T any] interface {
	// GetByID returns the entity or ErrNotFound. Soft-deleted rows are invisible.
	GetByID(ctx context.Context, id uint) (*T, error)
	// GetAll returns all non-deleted entities in insertion order.
	GetAll(ctx context.Context) ([]T, error)
	// GetWhere returns non-deleted entities matching the predicate. The
	// predicate runs in-process over the loaded set, not in the database.
	GetWhere(ctx context.Context, predicate func(*T) bool) ([]T, error)
	// Add stamps CreatedAt, persists the entity and returns it with its
	// generated id filled in.
	Add(ctx context.Context, entity *T) (*T, error)
	// Update stamps UpdatedAt and persists the full entity state. Returns
	// ErrNotFound if no row with the entity's id exists.
	Update(ctx context.Context, entity *T) (*T, error)
	// Delete soft-deletes by id. Returns false (and no error) when the
	// entity is absent or already deleted.
	Delete(ctx context.Context, id uint) (bool, error)
	// Exists reports whether a non-deleted entity with the id exists.
	Exists(ctx context.Context, id uint) (bool, error)
}
