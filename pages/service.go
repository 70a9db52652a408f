package pages

import (
	"context"

	"github.com/google/uuid"
)

// Service describes page entity management. Content edits flow through the
// draft store; publishing through the publish coordinator.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context, opts ListOptions) ([]*Page, int, error)
	Archive(ctx context.Context, req ArchivePageRequest) (*Page, error)
	// Bindings projects the page's current draft block references into their
	// resolved display state for editor consumption.
	Bindings(ctx context.Context, id uuid.UUID) ([]Binding, error)
}
