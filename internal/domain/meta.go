// Package domain provides defenitions of all entities.
package domain

import "time"

// Meta holds identity and timestamps shared by every entity.
type Meta struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMeta returns Meta for a freshly created entity.
func NewMeta(id int64, now time.Time) Meta {
	return Meta{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes the UpdatedAt timestamp.
func (m *Meta) Touch(now time.Time) {
	m.UpdatedAt = now
}
