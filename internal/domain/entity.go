package domain

import "time"

// Base carries the identity and lifecycle timestamps shared by every
// persisted entity. DeletedAt is the soft-delete tombstone: a non-nil value
// excludes the row from all default reads.
type Base struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Meta exposes the embedded Base so generic repositories can stamp
// timestamps without knowing the concrete entity type.
func (b *Base) Meta() *Base { return b }

// Deleted reports whether the entity carries a tombstone.
func (b *Base) Deleted() bool { return b.DeletedAt != nil }

// Entity is implemented by every persisted aggregate via an embedded Base.
type Entity interface {
	Meta() *Base
}
