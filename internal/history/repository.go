package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/domain"
)

// ListOptions pages through an entity's version list. Zero values return the
// full list in ascending version order.
type ListOptions struct {
	Limit  int
	Offset int
}

// Repository stores published version snapshots. Implementations must enforce
// the append-only contract: Append fails with VersionExistsError when the
// version number is already recorded for the entity, and no update or delete
// operation exists.
type Repository interface {
	Append(ctx context.Context, entry *Entry) (*Entry, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, opts ListOptions) ([]*Entry, error)
	GetVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) (*Entry, error)
	Latest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Entry, error)
}
