package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrNotFound is returned when a live entity cannot be located. Backends
// normalize missing and tombstoned rows to this error.
var ErrNotFound = pgx.ErrNoRows

// Repository is the generic persistence contract shared by every entity
// kind. All read paths are filtered to live rows; soft-deleted entities are
// never returned and never resurrected. Mutations are staged against the
// scope's unit of work and only become visible after SaveChanges.
type Repository[T domain.Entity] interface {
	// GetByID returns the live entity or ErrNotFound.
	GetByID(ctx context.Context, id string) (T, error)

	// Find returns all live entities matching the specification.
	Find(ctx context.Context, spec Specification[T]) ([]T, error)

	// Add stamps the creation time and stages an insert.
	Add(ctx context.Context, entity T) error

	// Update stamps the last-update time and stages a replace-by-id.
	Update(ctx context.Context, entity T) error

	// Remove stamps the soft-delete timestamp and stages the tombstone
	// update. The row is never physically deleted.
	Remove(ctx context.Context, entity T) error
}

// Specification is a composable predicate over live rows. Clause renders the
// predicate as a SQL fragment with ? placeholders for the Postgres backend;
// IsSatisfiedBy evaluates it in memory.
type Specification[T domain.Entity] interface {
	IsSatisfiedBy(entity T) bool
	Clause() (string, []any)
}

// And combines two specifications conjunctively.
type And[T domain.Entity] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (s And[T]) IsSatisfiedBy(entity T) bool {
	return s.Left.IsSatisfiedBy(entity) && s.Right.IsSatisfiedBy(entity)
}

func (s And[T]) Clause() (string, []any) {
	lc, la := s.Left.Clause()
	rc, ra := s.Right.Clause()
	return "(" + lc + " AND " + rc + ")", append(la, ra...)
}

// Or combines two specifications disjunctively.
type Or[T domain.Entity] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (s Or[T]) IsSatisfiedBy(entity T) bool {
	return s.Left.IsSatisfiedBy(entity) || s.Right.IsSatisfiedBy(entity)
}

func (s Or[T]) Clause() (string, []any) {
	lc, la := s.Left.Clause()
	rc, ra := s.Right.Clause()
	return "(" + lc + " OR " + rc + ")", append(la, ra...)
}

// Not negates a specification.
type Not[T domain.Entity] struct {
	Spec Specification[T]
}

func (s Not[T]) IsSatisfiedBy(entity T) bool {
	return !s.Spec.IsSatisfiedBy(entity)
}

func (s Not[T]) Clause() (string, []any) {
	c, a := s.Spec.Clause()
	return "NOT (" + c + ")", a
}
