package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/storage"
)

// BunRepository persists drafts through bun. Save is a guarded UPDATE keyed
// on the stored version, which is the compare-and-swap backing the optimistic
// concurrency contract.
type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	return storage.IDBFromContext(ctx, r.db)
}

func (r *BunRepository) Create(ctx context.Context, draft *Draft) (*Draft, error) {
	if r.db == nil {
		return nil, fmt.Errorf("draft repository: database not configured")
	}
	if draft == nil {
		return nil, fmt.Errorf("draft repository: draft required")
	}

	toInsert := cloneDraft(draft)
	if toInsert.ID == uuid.Nil {
		toInsert.ID = uuid.New()
	}
	if toInsert.ReviewStatus == "" {
		toInsert.ReviewStatus = domain.ReviewStatusNone
	}
	if toInsert.UpdatedAt.IsZero() {
		toInsert.UpdatedAt = time.Now().UTC()
	}

	if _, err := r.idb(ctx).NewInsert().Model(toInsert).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert draft: %w", err)
	}
	return cloneDraft(toInsert), nil
}

func (r *BunRepository) Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Draft, error) {
	if r.db == nil {
		return nil, fmt.Errorf("draft repository: database not configured")
	}

	draft := new(Draft)
	err := r.idb(ctx).NewSelect().Model(draft).
		Where("?TableAlias.entity_type = ?", entityType).
		Where("?TableAlias.entity_id = ?", entityID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Resource: "draft", Key: entityID.String()}
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

func (r *BunRepository) Save(ctx context.Context, draft *Draft, expectedVersion int) (*Draft, error) {
	if r.db == nil {
		return nil, fmt.Errorf("draft repository: database not configured")
	}
	if draft == nil {
		return nil, fmt.Errorf("draft repository: draft required")
	}

	toSave := cloneDraft(draft)
	toSave.Version = expectedVersion + 1
	if toSave.UpdatedAt.IsZero() {
		toSave.UpdatedAt = time.Now().UTC()
	}

	result, err := r.idb(ctx).NewUpdate().Model(toSave).
		Column("version", "data", "meta", "comment", "review_status", "updated_at", "updated_by").
		Where("?TableAlias.entity_type = ?", toSave.EntityType).
		Where("?TableAlias.entity_id = ?", toSave.EntityID).
		Where("?TableAlias.version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("save draft rows affected: %w", err)
	}
	if affected == 0 {
		stored, getErr := r.Get(ctx, toSave.EntityType, toSave.EntityID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &VersionConflictError{
			EntityID: toSave.EntityID,
			Expected: expectedVersion,
			Actual:   stored.Version,
		}
	}

	return r.Get(ctx, toSave.EntityType, toSave.EntityID)
}
