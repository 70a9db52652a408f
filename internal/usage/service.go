package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

var ErrPageSourceRequired = errors.New("usage: page source not configured")

// BlockDirectory is the service's view of the global block catalog: it
// resolves key+section references to block IDs and receives the denormalized
// usage counts the index maintains.
type BlockDirectory interface {
	ResolveRef(ctx context.Context, key, section string) (uuid.UUID, error)
	SetUsageCount(ctx context.Context, blockID uuid.UUID, count int) error
}

// PageSource feeds Rebuild with every page's current draft and published
// snapshots so the index can be recomputed from scratch.
type PageSource interface {
	ListUsage(ctx context.Context) ([]PageUsage, error)
}

// Service maintains the derived usage index. Replace runs inside the caller's
// transaction boundary (draft save, publish) so the index never drifts from
// the content that produced it.
type Service interface {
	Replace(ctx context.Context, page PageUsage) error
	ListForBlock(ctx context.Context, blockID uuid.UUID) ([]*Row, error)
	Warnings(ctx context.Context, blockID uuid.UUID) ([]Warning, error)
	Rebuild(ctx context.Context) error
}

type service struct {
	repo      Repository
	directory BlockDirectory
	pages     PageSource
	logger    interfaces.Logger
}

// Option configures the usage service.
type Option func(*service)

// WithLogger sets the logger used by the usage service.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPageSource wires the page scanner used by Rebuild.
func WithPageSource(source PageSource) Option {
	return func(s *service) {
		s.pages = source
	}
}

// NewService constructs the usage index service.
func NewService(repo Repository, directory BlockDirectory, opts ...Option) Service {
	svc := &service{
		repo:      repo,
		directory: directory,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Replace(ctx context.Context, page PageUsage) error {
	rows, err := s.deriveRows(ctx, page)
	if err != nil {
		return err
	}

	affected, err := s.repo.ReplaceForPage(ctx, page.PageID, rows)
	if err != nil {
		return fmt.Errorf("replace usage rows: %w", err)
	}

	for _, blockID := range affected {
		count, err := s.repo.CountForBlock(ctx, blockID)
		if err != nil {
			return fmt.Errorf("refresh usage count: %w", err)
		}
		if err := s.directory.SetUsageCount(ctx, blockID, count); err != nil {
			return fmt.Errorf("store usage count: %w", err)
		}
	}
	return nil
}

func (s *service) ListForBlock(ctx context.Context, blockID uuid.UUID) ([]*Row, error) {
	return s.repo.ListForBlock(ctx, blockID)
}

func (s *service) Warnings(ctx context.Context, blockID uuid.UUID) ([]Warning, error) {
	rows, err := s.repo.ListForBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}

	warnings := make([]Warning, 0)
	for _, row := range rows {
		if !row.HasDraft {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarningCodeDraftConflict,
			PageID:  row.PageID,
			Slug:    row.Slug,
			Message: fmt.Sprintf("page %q has an unpublished draft that will not be overwritten", row.Slug),
		})
	}
	return warnings, nil
}

// Rebuild recomputes the whole index from the pages' current snapshots. It is
// the repair path when the derived rows diverge from actual content.
func (s *service) Rebuild(ctx context.Context) error {
	if s.pages == nil {
		return ErrPageSourceRequired
	}

	pages, err := s.pages.ListUsage(ctx)
	if err != nil {
		return fmt.Errorf("scan pages for rebuild: %w", err)
	}

	if err := s.repo.Clear(ctx); err != nil {
		return err
	}

	for _, page := range pages {
		if err := s.Replace(ctx, page); err != nil {
			return fmt.Errorf("rebuild page %s: %w", page.PageID, err)
		}
	}

	s.logger.Info("usage index rebuilt", "pages", len(pages))
	return nil
}

// deriveRows resolves the union of draft and published references into rows.
// References to unknown blocks are skipped with a warning rather than failing
// the save that carries them.
func (s *service) deriveRows(ctx context.Context, page PageUsage) ([]*Row, error) {
	refs := unionRefs(page.Draft, page.Published)

	rows := make([]*Row, 0, len(refs))
	seen := map[uuid.UUID]struct{}{}
	for _, ref := range refs {
		blockID, err := s.directory.ResolveRef(ctx, ref.Key, ref.Section)
		if err != nil {
			s.logger.Warn("unresolved block reference skipped",
				"page_id", page.PageID.String(),
				"key", ref.Key,
				"section", ref.Section,
			)
			continue
		}
		if _, ok := seen[blockID]; ok {
			continue
		}
		seen[blockID] = struct{}{}
		rows = append(rows, &Row{
			BlockID:         blockID,
			PageID:          page.PageID,
			Slug:            page.Slug,
			Title:           page.Title,
			Section:         ref.Section,
			Locale:          page.Locale,
			HasDraft:        page.HasDraft,
			LastPublishedAt: page.LastPublishedAt,
		})
	}
	return rows, nil
}

func unionRefs(draft, published content.Snapshot) []content.Ref {
	refs := draft.Refs()
	seen := make(map[content.Ref]struct{}, len(refs))
	for _, ref := range refs {
		seen[ref] = struct{}{}
	}
	for _, ref := range published.Refs() {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
