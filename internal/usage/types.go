package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/content"
)

// Row records that a page references a global block through its draft or
// published content. Rows are derived state: the index must always be
// reconstructible from the pages' snapshots, and Rebuild is the repair path
// when it diverges.
type Row struct {
	bun.BaseModel `bun:"table:usage_index,alias:ui"`

	BlockID         uuid.UUID  `bun:"block_id,pk,type:uuid" json:"block_id"`
	PageID          uuid.UUID  `bun:"page_id,pk,type:uuid" json:"page_id"`
	Slug            string     `bun:"slug,notnull" json:"slug"`
	Title           string     `bun:"title" json:"title"`
	Section         string     `bun:"section" json:"section"`
	Locale          string     `bun:"locale" json:"locale"`
	HasDraft        bool       `bun:"has_draft,notnull,default:false" json:"has_draft"`
	LastPublishedAt *time.Time `bun:"last_published_at,nullzero" json:"last_published_at,omitempty"`
}

// PageUsage is everything the index needs to know about one page to derive
// its usage rows: identity, display fields and both content snapshots.
type PageUsage struct {
	PageID          uuid.UUID
	Slug            string
	Title           string
	Locale          string
	HasDraft        bool
	LastPublishedAt *time.Time
	Draft           content.Snapshot
	Published       content.Snapshot
}

// WarningCodeDraftConflict flags a dependent page whose own pending draft
// diverges from the block's published content. Such pages are warned about,
// never force-published.
const WarningCodeDraftConflict = "draft_conflict"

// Warning surfaces a cascade risk for a block publish.
type Warning struct {
	Code    string    `json:"code"`
	PageID  uuid.UUID `json:"page_id"`
	Slug    string    `json:"slug"`
	Message string    `json:"message"`
}

func cloneRow(src *Row) *Row {
	if src == nil {
		return nil
	}
	cloned := *src
	if src.LastPublishedAt != nil {
		at := *src.LastPublishedAt
		cloned.LastPublishedAt = &at
	}
	return &cloned
}

func rowEqual(a, b *Row) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.BlockID != b.BlockID || a.PageID != b.PageID {
		return false
	}
	if a.Slug != b.Slug || a.Title != b.Title || a.Section != b.Section || a.Locale != b.Locale || a.HasDraft != b.HasDraft {
		return false
	}
	if a.LastPublishedAt == nil || b.LastPublishedAt == nil {
		return a.LastPublishedAt == b.LastPublishedAt
	}
	return a.LastPublishedAt.Equal(*b.LastPublishedAt)
}
