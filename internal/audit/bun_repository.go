package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/storage"
)

// BunRecorder persists audit entries through bun. The autoincrement primary
// key keeps append order stable across both postgres and sqlite.
type BunRecorder struct {
	db bun.IDB
}

func NewBunRecorder(db bun.IDB) *BunRecorder {
	return &BunRecorder{db: db}
}

func (r *BunRecorder) idb(ctx context.Context) bun.IDB {
	return storage.IDBFromContext(ctx, r.db)
}

func (r *BunRecorder) Record(ctx context.Context, entry *Entry) (*Entry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("audit recorder: database not configured")
	}
	if entry == nil {
		return nil, fmt.Errorf("audit recorder: entry required")
	}

	toInsert := cloneEntry(entry)
	toInsert.ID = 0
	if toInsert.CreatedAt.IsZero() {
		toInsert.CreatedAt = time.Now().UTC()
	}

	if _, err := r.idb(ctx).NewInsert().Model(toInsert).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	return cloneEntry(toInsert), nil
}

func (r *BunRecorder) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("audit recorder: database not configured")
	}

	entries := make([]*Entry, 0)
	query := r.idb(ctx).NewSelect().Model(&entries).OrderExpr("?TableAlias.id DESC")
	if filter.EntityType != "" {
		query = query.Where("?TableAlias.entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != uuid.Nil {
		query = query.Where("?TableAlias.entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		query = query.Where("?TableAlias.action = ?", filter.Action)
	}
	if filter.Actor != "" {
		query = query.Where("?TableAlias.actor = ?", filter.Actor)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
