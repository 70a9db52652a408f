package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/storage"
)

// BunRepository persists usage rows through bun. ReplaceForPage diffs the
// stored rows against the incoming set inside one transaction so unchanged
// rows produce no writes.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	return storage.IDBFromContext(ctx, r.db)
}

func (r *BunRepository) ReplaceForPage(ctx context.Context, pageID uuid.UUID, rows []*Row) ([]uuid.UUID, error) {
	if r.db == nil {
		return nil, fmt.Errorf("usage repository: database not configured")
	}

	next := make(map[uuid.UUID]*Row, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		cloned := cloneRow(row)
		cloned.PageID = pageID
		next[cloned.BlockID] = cloned
	}

	affected := map[uuid.UUID]struct{}{}
	replace := func(ctx context.Context, tx bun.IDB) error {
		existing := make([]*Row, 0)
		if err := tx.NewSelect().Model(&existing).
			Where("?TableAlias.page_id = ?", pageID).
			Scan(ctx); err != nil {
			return fmt.Errorf("load usage rows: %w", err)
		}

		current := make(map[uuid.UUID]*Row, len(existing))
		for _, row := range existing {
			current[row.BlockID] = row
		}

		toDelete := make([]uuid.UUID, 0)
		for blockID := range current {
			if _, ok := next[blockID]; !ok {
				toDelete = append(toDelete, blockID)
				affected[blockID] = struct{}{}
			}
		}
		if len(toDelete) > 0 {
			if _, err := tx.NewDelete().Model((*Row)(nil)).
				Where("?TableAlias.page_id = ?", pageID).
				Where("?TableAlias.block_id IN (?)", bun.In(toDelete)).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete usage rows: %w", err)
			}
		}

		toInsert := make([]*Row, 0)
		for blockID, row := range next {
			stored, ok := current[blockID]
			if ok && rowEqual(stored, row) {
				continue
			}
			affected[blockID] = struct{}{}
			if ok {
				if _, err := tx.NewUpdate().Model(row).
					WherePK().
					Exec(ctx); err != nil {
					return fmt.Errorf("update usage row: %w", err)
				}
				continue
			}
			toInsert = append(toInsert, row)
		}
		if len(toInsert) > 0 {
			if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
				return fmt.Errorf("insert usage rows: %w", err)
			}
		}
		return nil
	}

	// Join the caller's transaction when one is in flight, otherwise the
	// replace runs in its own.
	var err error
	if idb := storage.IDBFromContext(ctx, nil); idb != nil {
		err = replace(ctx, idb)
	} else {
		err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return replace(ctx, tx)
		})
	}
	if err != nil {
		return nil, err
	}

	return sortedIDs(affected), nil
}

func (r *BunRepository) ListForBlock(ctx context.Context, blockID uuid.UUID) ([]*Row, error) {
	if r.db == nil {
		return nil, fmt.Errorf("usage repository: database not configured")
	}

	out := make([]*Row, 0)
	if err := r.idb(ctx).NewSelect().Model(&out).
		Where("?TableAlias.block_id = ?", blockID).
		OrderExpr("?TableAlias.slug ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list usage rows by block: %w", err)
	}
	return out, nil
}

func (r *BunRepository) ListForPage(ctx context.Context, pageID uuid.UUID) ([]*Row, error) {
	if r.db == nil {
		return nil, fmt.Errorf("usage repository: database not configured")
	}

	out := make([]*Row, 0)
	if err := r.idb(ctx).NewSelect().Model(&out).
		Where("?TableAlias.page_id = ?", pageID).
		OrderExpr("?TableAlias.block_id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list usage rows by page: %w", err)
	}
	return out, nil
}

func (r *BunRepository) CountForBlock(ctx context.Context, blockID uuid.UUID) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("usage repository: database not configured")
	}

	count, err := r.idb(ctx).NewSelect().Model((*Row)(nil)).
		Where("?TableAlias.block_id = ?", blockID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count usage rows: %w", err)
	}
	return count, nil
}

func (r *BunRepository) Clear(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("usage repository: database not configured")
	}

	if _, err := r.idb(ctx).NewDelete().Model((*Row)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("clear usage index: %w", err)
	}
	return nil
}
