package blocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/domain"
)

// GlobalBlock is a shared content unit referenced from page drafts by key and
// section. Its content lives in the draft store and version history; the row
// tracks identity, publish gating and the two version counters. UsageCount is
// a denormalized mirror of the usage index.
type GlobalBlock struct {
	bun.BaseModel `bun:"table:global_blocks,alias:gb"`

	ID      uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Key     string    `bun:"key,notnull" json:"key"`
	Title   string    `bun:"title,notnull" json:"title"`
	Section string    `bun:"section,notnull" json:"section"`
	// Locale is nil for locale-agnostic blocks whose payload carries its own
	// per-locale overrides.
	Locale            *string             `bun:"locale" json:"locale,omitempty"`
	Status            domain.Status       `bun:"status,notnull,default:'draft'" json:"status"`
	ReviewStatus      domain.ReviewStatus `bun:"review_status,notnull,default:'none'" json:"review_status"`
	RequiresPublisher bool                `bun:"requires_publisher,notnull,default:false" json:"requires_publisher"`
	PublishedVersion  *int                `bun:"published_version" json:"published_version,omitempty"`
	DraftVersion      int                 `bun:"draft_version,notnull,default:0" json:"draft_version"`
	UsageCount        int                 `bun:"usage_count,notnull,default:0" json:"usage_count"`
	PublishedAt       *time.Time          `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt         time.Time           `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         time.Time           `bun:"updated_at,notnull" json:"updated_at"`
}

// HasPendingDraft reports whether the block's draft is ahead of its published
// version.
func (b *GlobalBlock) HasPendingDraft() bool {
	if b == nil {
		return false
	}
	if b.PublishedVersion == nil {
		return b.DraftVersion > 0
	}
	return b.DraftVersion > *b.PublishedVersion
}

// ListOptions narrows and orders block listings. Zero values match everything.
type ListOptions struct {
	// Query matches against key and title, case-insensitive substring.
	Query   string
	Section string
	Status  domain.Status
	Locale  string
	// HasDraft filters on pending-draft state when set.
	HasDraft *bool
	// Sort accepts key, title, updated_at (default) with optional "-" prefix
	// for descending order.
	Sort   string
	Limit  int
	Offset int
}

// CreateBlockRequest captures the payload required to create a global block.
// Creation also provisions the block's empty draft at version zero in the same
// transaction.
type CreateBlockRequest struct {
	Key               string
	Title             string
	Section           string
	Locale            *string
	RequiresPublisher bool
	Actor             string
}

// ArchiveBlockRequest retires a block. Archival substitutes deletion so
// history and audit stay intact.
type ArchiveBlockRequest struct {
	ID    uuid.UUID
	Actor string
}
