package entity

import (
	"context"
	"errors"
	"fmt"

	"shelfhub/pkg/domain"
	"shelfhub/pkg/store"
)

// Service is the protocol-neutral contract every protocol adapter talks to.
// Errors returned by implementations are *Error values.
type Service[T any] interface {
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, id int64) error
}

type (
	LibraryService = Service[domain.Library]
	BookService    = Service[domain.Book]
	UserService    = Service[domain.User]
)

// Store is the table-level persistence contract a Handler wraps.
type Store[T any] interface {
	Get(ctx context.Context, id int64) (T, bool, error)
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, row T) error
	Update(ctx context.Context, row T) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// Keyed is implemented by every domain entity.
type Keyed interface {
	Key() int64
}

// Handler forwards calls to one store table and classifies the outcome.
type Handler[T Keyed] struct {
	name  string
	store Store[T]
}

// NewHandler returns a Handler for the entity called name ("Library", "Book", "User").
func NewHandler[T Keyed](name string, s Store[T]) *Handler[T] {
	return &Handler[T]{name: name, store: s}
}

// NewLibraryHandler wraps the librarys table.
func NewLibraryHandler(s Store[domain.Library]) *Handler[domain.Library] {
	return NewHandler("Library", s)
}

// NewBookHandler wraps the books table.
func NewBookHandler(s Store[domain.Book]) *Handler[domain.Book] {
	return NewHandler("Book", s)
}

// NewUserHandler wraps the users table.
func NewUserHandler(s Store[domain.User]) *Handler[domain.User] {
	return NewHandler("User", s)
}

func (h *Handler[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	v, ok, err := h.store.Get(ctx, id)
	if err != nil {
		return zero, h.backend(err)
	}
	if !ok {
		return zero, NotFound(h.name)
	}
	return v, nil
}

func (h *Handler[T]) List(ctx context.Context) ([]T, error) {
	items, err := h.store.List(ctx)
	if err != nil {
		return nil, h.backend(err)
	}
	return items, nil
}

// Create inserts v and echoes it back. Identifiers are never generated.
func (h *Handler[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if v.Key() == 0 {
		return zero, Invalid(h.name, "id required")
	}
	if err := h.store.Create(ctx, v); err != nil {
		return zero, h.backend(err)
	}
	return v, nil
}

// Update overwrites all fields of an existing row. It never creates one.
func (h *Handler[T]) Update(ctx context.Context, v T) (T, error) {
	var zero T
	if v.Key() == 0 {
		return zero, Invalid(h.name, "id required")
	}
	matched, err := h.store.Update(ctx, v)
	if err != nil {
		return zero, h.backend(err)
	}
	if !matched {
		return zero, NotFound(h.name)
	}
	return v, nil
}

// Delete is unconditional: deleting a missing id succeeds.
func (h *Handler[T]) Delete(ctx context.Context, id int64) error {
	if err := h.store.Delete(ctx, id); err != nil {
		return h.backend(err)
	}
	return nil
}

func (h *Handler[T]) backend(err error) error {
	if errors.Is(err, store.ErrDuplicateKey) {
		err = fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	return Backend(h.name, err)
}
