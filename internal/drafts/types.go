package drafts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/domain"
)

// Draft is the single mutable working copy of a page or global block. There
// is exactly one row per entity; Version mirrors the owner's draft_version
// and doubles as the optimistic concurrency token for saves.
type Draft struct {
	bun.BaseModel `bun:"table:drafts,alias:d"`

	ID           uuid.UUID                 `bun:",pk,type:uuid" json:"id"`
	EntityType   domain.EntityType         `bun:"entity_type,notnull" json:"entity_type"`
	EntityID     uuid.UUID                 `bun:"entity_id,notnull,type:uuid" json:"entity_id"`
	Version      int                       `bun:"version,notnull,default:0" json:"version"`
	Data         content.Snapshot          `bun:"data,type:jsonb,notnull" json:"data"`
	Meta         map[string]map[string]any `bun:"meta,type:jsonb" json:"meta,omitempty"`
	Comment      string                    `bun:"comment" json:"comment,omitempty"`
	ReviewStatus domain.ReviewStatus       `bun:"review_status,notnull,default:'none'" json:"review_status"`
	UpdatedAt    time.Time                 `bun:"updated_at,notnull" json:"updated_at"`
	UpdatedBy    string                    `bun:"updated_by" json:"updated_by,omitempty"`
}

// Snapshot combines the draft's block tree and localized metadata into the
// structure consumed by the diff engine and preview resolver.
func (d *Draft) Snapshot() content.Snapshot {
	if d == nil {
		return content.Snapshot{}
	}
	snapshot := content.CloneSnapshot(d.Data)
	if len(d.Meta) > 0 {
		snapshot.Meta = content.CloneLocaleMap(d.Meta)
	}
	return snapshot
}

func cloneDraft(src *Draft) *Draft {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Data = content.CloneSnapshot(src.Data)
	cloned.Meta = content.CloneLocaleMap(src.Meta)
	return &cloned
}
