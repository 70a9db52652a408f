package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/domain"
)

// Page is a routable entity in the site tree. Its content lives in the draft
// store and version history; the row itself tracks identity, routing and the
// two version counters.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID               uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	Slug             string          `bun:"slug,notnull,unique" json:"slug"`
	Title            string          `bun:"title,notnull" json:"title"`
	Type             domain.PageType `bun:"type,notnull" json:"type"`
	Status           domain.Status   `bun:"status,notnull,default:'draft'" json:"status"`
	Locale           string          `bun:"locale,notnull" json:"locale"`
	DefaultLocale    string          `bun:"default_locale,notnull" json:"default_locale"`
	AvailableLocales []string        `bun:"available_locales,array" json:"available_locales,omitempty"`
	Owner            string          `bun:"owner" json:"owner,omitempty"`
	PublishedVersion *int            `bun:"published_version" json:"published_version,omitempty"`
	DraftVersion     int             `bun:"draft_version,notnull,default:0" json:"draft_version"`
	PublishedAt      *time.Time      `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt        time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

// HasPendingDraft reports whether the page's draft is ahead of its published
// version.
func (p *Page) HasPendingDraft() bool {
	if p == nil {
		return false
	}
	if p.PublishedVersion == nil {
		return p.DraftVersion > 0
	}
	return p.DraftVersion > *p.PublishedVersion
}

// ListOptions narrows and orders page listings. Zero values match everything.
type ListOptions struct {
	// Query matches against slug and title, case-insensitive substring.
	Query  string
	Type   domain.PageType
	Status domain.Status
	Locale string
	// HasDraft filters on pending-draft state when set.
	HasDraft *bool
	// Sort accepts slug, title, updated_at (default) with optional "-" prefix
	// for descending order.
	Sort   string
	Limit  int
	Offset int
}

// BindingScope distinguishes page-owned blocks from shared global blocks.
type BindingScope string

const (
	BindingScopePage   BindingScope = "page"
	BindingScopeShared BindingScope = "shared"
)

// Binding is the resolved display state of one block reference inside a
// page's draft. It is a read-model projection for editors, not durable state.
type Binding struct {
	BlockID          string        `json:"block_id"`
	Scope            BindingScope  `json:"scope"`
	Type             string        `json:"type,omitempty"`
	Key              string        `json:"key,omitempty"`
	Section          string        `json:"section,omitempty"`
	Status           domain.Status `json:"status,omitempty"`
	Locale           string        `json:"locale,omitempty"`
	PublishedVersion *int          `json:"published_version,omitempty"`
	DraftVersion     int           `json:"draft_version,omitempty"`
	HasDraftBinding  bool          `json:"has_draft_binding"`
	LastPublishedAt  *time.Time    `json:"last_published_at,omitempty"`
}

// CreatePageRequest captures the payload required to create a page. Creation
// also provisions the page's empty draft at version zero in the same
// transaction.
type CreatePageRequest struct {
	Slug             string
	Title            string
	Type             domain.PageType
	Locale           string
	DefaultLocale    string
	AvailableLocales []string
	Owner            string
	Actor            string
}

// ArchivePageRequest retires a page. Archival substitutes deletion so history
// and audit stay intact.
type ArchivePageRequest struct {
	ID    uuid.UUID
	Actor string
}
