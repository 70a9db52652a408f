package drafts

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/domain"
)

// Repository stores the single mutable draft per entity.
type Repository interface {
	Create(ctx context.Context, draft *Draft) (*Draft, error)
	Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Draft, error)
	// Save persists the draft only when the stored version still equals
	// expectedVersion, bumping the version by one. Concurrent conflicting
	// writers must have exactly one succeed; the loser receives a
	// VersionConflictError, never a silent overwrite.
	Save(ctx context.Context, draft *Draft, expectedVersion int) (*Draft, error)
}
