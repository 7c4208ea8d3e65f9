package models

import "time"

// Model holds the fields every persisted entity shares. Entities embed it
// instead of inheriting from a base class; the repository reaches the common
// fields through the Entity interface.
//
// Soft delete is an explicit flag rather than gorm's DeletedAt so that rows
// stay visible to ad-hoc SQL and the flag can be flipped back if needed.
// Timestamps are stamped by the repository in UTC; gorm's convention-based
// tracking of these field names is disabled so UpdatedAt stays nil until the
// first mutation.
type Model struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
	IsDeleted bool       `json:"-" gorm:"default:false;index"`
}

// Entity is the capability set the generic repository needs from an entity:
// identity, audit timestamps and the soft-delete flag.
type Entity interface {
	EntityID() uint
	Stamp(now time.Time)
	Touch(now time.Time)
	MarkDeleted(now time.Time)
	Deleted() bool
}

// EntityID returns the generated primary key.
func (m *Model) EntityID() uint { return m.ID }

// Stamp records the creation time. Called once, by the repository, on Add.
func (m *Model) Stamp(now time.Time) { m.CreatedAt = now }

// Touch records a mutation time. Called by the repository on every update.
func (m *Model) Touch(now time.Time) { m.UpdatedAt = &now }

// MarkDeleted flips the soft-delete flag; the row is never physically removed.
func (m *Model) MarkDeleted(now time.Time) {
	m.IsDeleted = true
	m.UpdatedAt = &now
}

// Deleted reports whether the entity has been soft-deleted.
func (m *Model) Deleted() bool { return m.IsDeleted }
