package history

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/storage"
)

func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(e *Entry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Entry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(e *Entry) string {
			return e.ID.String()
		},
	})
}

// BunRepository persists version history through bun. Append relies on the
// (entity_type, entity_id, version) unique index to uphold append-only
// semantics under concurrent publishers.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Entry]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a history repository backed by bun with optional caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewEntryRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunRepository{db: db, repo: base}
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	return storage.IDBFromContext(ctx, r.db)
}

func (r *BunRepository) Append(ctx context.Context, entry *Entry) (*Entry, error) {
	if entry == nil {
		return nil, fmt.Errorf("history repository: entry required")
	}

	if existing, err := r.GetVersion(ctx, entry.EntityType, entry.EntityID, entry.Version); err == nil && existing != nil {
		return nil, &VersionExistsError{EntityID: entry.EntityID, Version: entry.Version}
	} else if err != nil && !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		var notFound *VersionNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	created, err := r.repo.CreateTx(ctx, r.idb(ctx), entry)
	if err != nil {
		// The unique (entity_type, entity_id, version) index is the backstop
		// for concurrent publishers racing past the existence check.
		return nil, fmt.Errorf("append history entry: %w", err)
	}
	return created, nil
}

func (r *BunRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, opts ListOptions) ([]*Entry, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_type = ?", entityType).
				Where("?TableAlias.entity_id = ?", entityID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.version ASC")
		}),
	}
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = 50
		}
		criteria = append(criteria, repository.SelectPaginate(limit, opts.Offset))
	}

	records, _, err := r.repo.ListTx(ctx, r.idb(ctx), criteria...)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	return records, nil
}

func (r *BunRepository) GetVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) (*Entry, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_type = ?", entityType).
				Where("?TableAlias.entity_id = ?", entityID).
				Where("?TableAlias.version = ?", version)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("get history version: %w", err)
	}
	if len(records) == 0 {
		return nil, &VersionNotFoundError{EntityID: entityID, Version: version}
	}
	return records[0], nil
}

func (r *BunRepository) Latest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Entry, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_type = ?", entityType).
				Where("?TableAlias.entity_id = ?", entityID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.version DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("get latest history entry: %w", err)
	}
	if len(records) == 0 {
		return nil, &VersionNotFoundError{EntityID: entityID}
	}
	return records[0], nil
}
