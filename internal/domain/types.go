package domain

// Status represents lifecycle states for versioned entities.
type Status string

const (
	// StatusDraft indicates an entity that has never been published.
	StatusDraft Status = "draft"
	// StatusPublished identifies an entity with at least one published version.
	StatusPublished Status = "published"
	// StatusArchived marks an entity retained for history but no longer editable.
	// Archival is the deletion substitute; rows are never hard-deleted.
	StatusArchived Status = "archived"
)

// EntityType discriminates the two versioned entity kinds.
type EntityType string

const (
	EntityTypePage  EntityType = "page"
	EntityTypeBlock EntityType = "global_block"
)

// PageType categorises pages for listing and validation purposes.
type PageType string

const (
	PageTypeLanding    PageType = "landing"
	PageTypeCollection PageType = "collection"
	PageTypeArticle    PageType = "article"
	PageTypeSystem     PageType = "system"
)

// ReviewStatus tracks the editorial review state of a draft.
type ReviewStatus string

const (
	ReviewStatusNone     ReviewStatus = "none"
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Action names every mutating operation recorded in the audit log.
type Action string

const (
	ActionPageCreated     Action = "page_created"
	ActionBlockCreated    Action = "block_created"
	ActionDraftSaved      Action = "draft_saved"
	ActionPublished       Action = "published"
	ActionRestored        Action = "restored"
	ActionArchived        Action = "archived"
	ActionPageRepublished Action = "page_republished"
)

// ValidEntityType reports whether the supplied value is a known entity type.
func ValidEntityType(value EntityType) bool {
	switch value {
	case EntityTypePage, EntityTypeBlock:
		return true
	default:
		return false
	}
}

// ValidStatus reports whether the supplied value is a known lifecycle status.
func ValidStatus(value Status) bool {
	switch value {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// ValidPageType reports whether the supplied value is a known page type.
func ValidPageType(value PageType) bool {
	switch value {
	case PageTypeLanding, PageTypeCollection, PageTypeArticle, PageTypeSystem:
		return true
	default:
		return false
	}
}

// ValidReviewStatus reports whether the supplied value is a known review status.
func ValidReviewStatus(value ReviewStatus) bool {
	switch value {
	case ReviewStatusNone, ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	default:
		return false
	}
}
