package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/domain"
)

// Entry is one append-only audit record. Entries are written in the same
// transaction as the state change they describe and are never updated or
// deleted afterwards.
type Entry struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID         int64             `bun:"id,pk,autoincrement" json:"id"`
	EntityType domain.EntityType `bun:"entity_type,notnull" json:"entity_type"`
	EntityID   uuid.UUID         `bun:"entity_id,notnull,type:uuid" json:"entity_id"`
	Action     domain.Action     `bun:"action,notnull" json:"action"`
	Actor      string            `bun:"actor,notnull" json:"actor"`
	Snapshot   map[string]any    `bun:"snapshot,type:jsonb" json:"snapshot,omitempty"`
	CreatedAt  time.Time         `bun:"created_at,notnull" json:"created_at"`
}

// Filter narrows audit log listings. Zero values match everything.
type Filter struct {
	EntityType domain.EntityType
	EntityID   uuid.UUID
	Action     domain.Action
	Actor      string
	Limit      int
	Offset     int
}

func (f Filter) matches(entry *Entry) bool {
	if entry == nil {
		return false
	}
	if f.EntityType != "" && entry.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != uuid.Nil && entry.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	if f.Actor != "" && entry.Actor != f.Actor {
		return false
	}
	return true
}
