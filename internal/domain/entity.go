package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the common read-model over pages and global blocks that the
// draft store, publish coordinator and preview resolver operate on. It
// carries the versioning fields both entity kinds share plus the display
// fields needed for usage rows and locale resolution.
type Entity struct {
	Type             EntityType
	ID               uuid.UUID
	Slug             string
	Title            string
	Section          string
	Status           Status
	Locale           string
	DefaultLocale    string
	AvailableLocales []string
	// RequiresPublisher gates global block publishing behind elevated
	// authority. Always false for pages.
	RequiresPublisher bool
	PublishedVersion  *int
	DraftVersion      int
	LastPublishedAt   *time.Time
}

// HasPendingDraft reports whether the entity's draft is ahead of its last
// published version.
func (e *Entity) HasPendingDraft() bool {
	if e == nil {
		return false
	}
	if e.PublishedVersion == nil {
		return e.DraftVersion > 0
	}
	return e.DraftVersion > *e.PublishedVersion
}
