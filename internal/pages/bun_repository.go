package pages

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/storage"
)

// BunRepository persists pages through bun.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Page]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a page repository backed by bun with optional caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewPageRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunRepository{db: db, repo: base}
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	return storage.IDBFromContext(ctx, r.db)
}

func (r *BunRepository) Create(ctx context.Context, page *Page) (*Page, error) {
	created, err := r.repo.CreateTx(ctx, r.idb(ctx), page)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return created, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	record, err := r.repo.GetByIDTx(ctx, r.idb(ctx), id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	if len(records) == 0 {
		return nil, &PageNotFoundError{Key: slug}
	}
	return records[0], nil
}

func (r *BunRepository) List(ctx context.Context, opts ListOptions) ([]*Page, int, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyListFilters(q, opts)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyListSort(q, opts.Sort)
		}),
	}
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = 50
		}
		criteria = append(criteria, repository.SelectPaginate(limit, opts.Offset))
	}

	records, total, err := r.repo.ListTx(ctx, r.idb(ctx), criteria...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	return records, total, nil
}

func (r *BunRepository) ListAll(ctx context.Context) ([]*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("list all pages: %w", err)
	}
	return records, nil
}

func (r *BunRepository) Update(ctx context.Context, page *Page) (*Page, error) {
	updated, err := r.repo.UpdateTx(ctx, r.idb(ctx), page,
		repository.UpdateByID(page.ID.String()),
		repository.UpdateColumns(
			"slug",
			"title",
			"type",
			"status",
			"locale",
			"default_locale",
			"available_locales",
			"owner",
			"published_version",
			"draft_version",
			"published_at",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, page.ID.String())
	}
	return updated, nil
}

func applyListFilters(q *bun.SelectQuery, opts ListOptions) *bun.SelectQuery {
	if opts.Type != "" {
		q = q.Where("?TableAlias.type = ?", opts.Type)
	}
	if opts.Status != "" {
		q = q.Where("?TableAlias.status = ?", opts.Status)
	}
	if opts.Locale != "" {
		q = q.Where("(?TableAlias.locale = ? OR ? = ANY(?TableAlias.available_locales))", opts.Locale, opts.Locale)
	}
	if opts.HasDraft != nil {
		if *opts.HasDraft {
			q = q.Where("(?TableAlias.published_version IS NULL AND ?TableAlias.draft_version > 0) OR ?TableAlias.draft_version > ?TableAlias.published_version")
		} else {
			q = q.Where("(?TableAlias.published_version IS NULL AND ?TableAlias.draft_version = 0) OR ?TableAlias.draft_version = ?TableAlias.published_version")
		}
	}
	if query := strings.TrimSpace(opts.Query); query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(?TableAlias.slug) LIKE ? OR LOWER(?TableAlias.title) LIKE ?)", pattern, pattern)
	}
	return q
}

func applyListSort(q *bun.SelectQuery, sortKey string) *bun.SelectQuery {
	key := strings.TrimSpace(sortKey)
	direction := "ASC"
	if strings.HasPrefix(key, "-") {
		direction = "DESC"
		key = strings.TrimPrefix(key, "-")
	}
	switch key {
	case "slug":
		return q.OrderExpr("?TableAlias.slug " + direction)
	case "title":
		return q.OrderExpr("?TableAlias.title " + direction)
	case "updated_at":
		return q.OrderExpr("?TableAlias.updated_at " + direction)
	default:
		return q.OrderExpr("?TableAlias.updated_at DESC")
	}
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &PageNotFoundError{Key: key}
	}
	return fmt.Errorf("page repository error: %w", err)
}
