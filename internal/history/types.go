package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/diff"
	"github.com/goliatone/go-publish/internal/domain"
)

// Entry captures one published snapshot of a page or global block. Entries
// are append-only: restore creates a new draft from an old entry, it never
// rewrites history.
type Entry struct {
	bun.BaseModel `bun:"table:version_history,alias:vh"`

	ID         uuid.UUID                 `bun:",pk,type:uuid" json:"id"`
	EntityType domain.EntityType         `bun:"entity_type,notnull" json:"entity_type"`
	EntityID   uuid.UUID                 `bun:"entity_id,notnull,type:uuid" json:"entity_id"`
	Version    int                       `bun:"version,notnull" json:"version"`
	Data       content.Snapshot          `bun:"data,type:jsonb,notnull" json:"data"`
	Meta       map[string]map[string]any `bun:"meta,type:jsonb" json:"meta,omitempty"`
	Comment    string                    `bun:"comment" json:"comment,omitempty"`
	// Diff against the previous published version, computed once at publish
	// time and frozen for audit and history replay.
	Diff        []diff.Entry `bun:"diff,type:jsonb" json:"diff,omitempty"`
	PublishedAt time.Time    `bun:"published_at,notnull" json:"published_at"`
	PublishedBy string       `bun:"published_by,notnull" json:"published_by"`
}

// Snapshot combines the entry's block tree and localized metadata into the
// single structure the diff engine and preview resolver operate on.
func (e *Entry) Snapshot() content.Snapshot {
	if e == nil {
		return content.Snapshot{}
	}
	snapshot := content.CloneSnapshot(e.Data)
	if len(e.Meta) > 0 {
		snapshot.Meta = content.CloneLocaleMap(e.Meta)
	}
	return snapshot
}
