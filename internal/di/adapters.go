package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/blocks"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/pages"
)

// entityStore dispatches entity lookups and state writebacks to the page or
// block catalog based on the entity type. It backs every consumer-declared
// entity view in the module: draft saves, publishes, previews and the
// republish worker.
type entityStore struct {
	pages  pages.StoreService
	blocks blocks.StoreService
}

func (s *entityStore) GetEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Entity, error) {
	switch entityType {
	case domain.EntityTypePage:
		return s.pages.Entity(ctx, entityID)
	case domain.EntityTypeBlock:
		return s.blocks.Entity(ctx, entityID)
	default:
		return nil, fmt.Errorf("di: unknown entity type %q", entityType)
	}
}

func (s *entityStore) SetDraftVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) error {
	switch entityType {
	case domain.EntityTypePage:
		return s.pages.SetDraftVersion(ctx, entityID, version)
	case domain.EntityTypeBlock:
		return s.blocks.SetDraftVersion(ctx, entityID, version)
	default:
		return fmt.Errorf("di: unknown entity type %q", entityType)
	}
}

func (s *entityStore) SetPublished(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int, at time.Time) error {
	switch entityType {
	case domain.EntityTypePage:
		return s.pages.SetPublished(ctx, entityID, version, at)
	case domain.EntityTypeBlock:
		return s.blocks.SetPublished(ctx, entityID, version, at)
	default:
		return fmt.Errorf("di: unknown entity type %q", entityType)
	}
}

// historyReader exposes the latest published snapshot so the usage index can
// account for references held by the published copy, not only the draft.
type historyReader struct {
	repo history.Repository
}

func (r historyReader) LatestSnapshot(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (content.Snapshot, bool, error) {
	entry, err := r.repo.Latest(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, history.ErrVersionNotFound) {
			return content.Snapshot{}, false, nil
		}
		return content.Snapshot{}, false, err
	}
	return entry.Snapshot(), true, nil
}
