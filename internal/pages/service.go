package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	slug "github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/identity"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// StoreService extends the public page contract with the entity-store view
// the draft store and publish coordinator depend on.
type StoreService interface {
	Service
	Entity(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	SetDraftVersion(ctx context.Context, id uuid.UUID, version int) error
	SetPublished(ctx context.Context, id uuid.UUID, version int, at time.Time) error
	// ListUsage feeds the usage index rebuild with every page's current
	// draft and published snapshots.
	ListUsage(ctx context.Context) ([]usage.PageUsage, error)
}

// BlockCatalog resolves global block references into their current display
// state for the bindings projection.
type BlockCatalog interface {
	EntityByRef(ctx context.Context, key, section string) (*domain.Entity, error)
}

// PublishedReader exposes the latest published snapshot of an entity.
type PublishedReader interface {
	LatestSnapshot(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (content.Snapshot, bool, error)
}

type IDGenerator func() uuid.UUID

// ServiceOption configures the page service.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger sets the logger used by the page service.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBlockCatalog wires global block resolution for the bindings projection.
func WithBlockCatalog(catalog BlockCatalog) ServiceOption {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithPublishedReader wires the published snapshot lookup used by ListUsage.
func WithPublishedReader(reader PublishedReader) ServiceOption {
	return func(s *service) {
		s.published = reader
	}
}

// WithTxRunner sets the transaction boundary wrapping create and archive.
func WithTxRunner(runner interfaces.TxRunner) ServiceOption {
	return func(s *service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

// WithAuthProvider wires actor resolution for requests that do not carry one.
func WithAuthProvider(auth interfaces.AuthProvider) ServiceOption {
	return func(s *service) {
		s.auth = auth
	}
}

type service struct {
	repo      Repository
	drafts    drafts.Repository
	auditor   audit.Recorder
	catalog   BlockCatalog
	published PublishedReader
	auth      interfaces.AuthProvider
	tx        interfaces.TxRunner
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService constructs the page entity service. Creating a page provisions
// its empty draft at version zero in the same transaction.
func NewService(repo Repository, draftRepo drafts.Repository, auditor audit.Recorder, opts ...ServiceOption) StoreService {
	s := &service{
		repo:    repo,
		drafts:  draftRepo,
		auditor: auditor,
		tx:      interfaces.NoTxRunner{},
		now:     time.Now,
		id:      uuid.New,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	normalizedSlug, err := normalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !domain.ValidPageType(req.Type) {
		return nil, fmt.Errorf("%w: %q", ErrTypeInvalid, req.Type)
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		return nil, ErrLocaleRequired
	}

	defaultLocale := strings.TrimSpace(req.DefaultLocale)
	if defaultLocale == "" {
		defaultLocale = locale
	}
	available := normalizeLocales(req.AvailableLocales, locale, defaultLocale)
	if len(req.AvailableLocales) > 0 && !containsLocale(trimLocales(req.AvailableLocales), defaultLocale) {
		return nil, ErrDefaultLocaleAbsent
	}

	if _, err := s.repo.GetBySlug(ctx, normalizedSlug); err == nil {
		return nil, ErrSlugExists
	} else if !errors.Is(err, ErrPageNotFound) {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	page := &Page{
		ID:               identity.PageUUID(normalizedSlug),
		Slug:             normalizedSlug,
		Title:            title,
		Type:             req.Type,
		Status:           domain.StatusDraft,
		Locale:           locale,
		DefaultLocale:    defaultLocale,
		AvailableLocales: available,
		Owner:            strings.TrimSpace(req.Owner),
		DraftVersion:     0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var created *Page
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err = s.repo.Create(ctx, page)
		if err != nil {
			return err
		}

		if _, err := s.drafts.Create(ctx, &drafts.Draft{
			ID:           identity.DraftUUID(string(domain.EntityTypePage), created.ID.String()),
			EntityType:   domain.EntityTypePage,
			EntityID:     created.ID,
			Version:      0,
			ReviewStatus: domain.ReviewStatusNone,
			UpdatedAt:    now,
			UpdatedBy:    actor,
		}); err != nil {
			return fmt.Errorf("create empty draft: %w", err)
		}

		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: domain.EntityTypePage,
			EntityID:   created.ID,
			Action:     domain.ActionPageCreated,
			Actor:      actor,
			Snapshot: map[string]any{
				"slug":  created.Slug,
				"title": created.Title,
				"type":  string(created.Type),
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page created", "page_id", created.ID.String(), "slug", created.Slug)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	if id == uuid.Nil {
		return nil, ErrPageRequired
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, pageSlug string) (*Page, error) {
	pageSlug = strings.TrimSpace(pageSlug)
	if pageSlug == "" {
		return nil, ErrSlugRequired
	}
	return s.repo.GetBySlug(ctx, pageSlug)
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Page, int, error) {
	return s.repo.List(ctx, opts)
}

func (s *service) Archive(ctx context.Context, req ArchivePageRequest) (*Page, error) {
	if req.ID == uuid.Nil {
		return nil, ErrPageRequired
	}

	page, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if page.Status == domain.StatusArchived {
		return nil, ErrAlreadyArchived
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	page.Status = domain.StatusArchived
	page.UpdatedAt = now

	var archived *Page
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		archived, err = s.repo.Update(ctx, page)
		if err != nil {
			return err
		}
		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: domain.EntityTypePage,
			EntityID:   page.ID,
			Action:     domain.ActionArchived,
			Actor:      actor,
			Snapshot:   map[string]any{"slug": page.Slug},
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page archived", "page_id", page.ID.String(), "slug", page.Slug)
	return archived, nil
}

func (s *service) Bindings(ctx context.Context, id uuid.UUID) ([]Binding, error) {
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafts.Get(ctx, domain.EntityTypePage, page.ID)
	if err != nil {
		return nil, err
	}

	bindings := make([]Binding, 0, len(draft.Data.Blocks))
	for _, block := range draft.Data.Blocks {
		if !block.IsGlobalRef() {
			bindings = append(bindings, Binding{
				BlockID:         block.ID,
				Scope:           BindingScopePage,
				Type:            block.Type,
				Status:          page.Status,
				Locale:          page.Locale,
				DraftVersion:    page.DraftVersion,
				HasDraftBinding: page.HasPendingDraft(),
			})
			continue
		}

		binding := Binding{
			BlockID: block.ID,
			Scope:   BindingScopeShared,
			Key:     block.Key,
			Section: block.Section,
		}
		if s.catalog != nil {
			entity, err := s.catalog.EntityByRef(ctx, block.Key, block.Section)
			if err == nil && entity != nil {
				binding.Status = entity.Status
				binding.Locale = entity.Locale
				binding.PublishedVersion = cloneIntPointer(entity.PublishedVersion)
				binding.DraftVersion = entity.DraftVersion
				binding.HasDraftBinding = entity.HasPendingDraft()
				binding.LastPublishedAt = cloneTimePointer(entity.LastPublishedAt)
			} else if err != nil {
				s.logger.Warn("unresolved block reference in bindings",
					"page_id", page.ID.String(),
					"key", block.Key,
					"section", block.Section,
				)
			}
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func (s *service) Entity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return pageEntity(page), nil
}

func (s *service) SetDraftVersion(ctx context.Context, id uuid.UUID, version int) error {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	page.DraftVersion = version
	page.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, page)
	return err
}

func (s *service) SetPublished(ctx context.Context, id uuid.UUID, version int, at time.Time) error {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	page.PublishedVersion = &version
	page.PublishedAt = &at
	if page.Status == domain.StatusDraft {
		page.Status = domain.StatusPublished
	}
	page.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, page)
	return err
}

func (s *service) ListUsage(ctx context.Context) ([]usage.PageUsage, error) {
	pages, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]usage.PageUsage, 0, len(pages))
	for _, page := range pages {
		entry := usage.PageUsage{
			PageID:          page.ID,
			Slug:            page.Slug,
			Title:           page.Title,
			Locale:          page.Locale,
			HasDraft:        page.HasPendingDraft(),
			LastPublishedAt: cloneTimePointer(page.PublishedAt),
		}

		if draft, err := s.drafts.Get(ctx, domain.EntityTypePage, page.ID); err == nil {
			entry.Draft = draft.Snapshot()
		}
		if page.PublishedVersion != nil && s.published != nil {
			if snapshot, ok, err := s.published.LatestSnapshot(ctx, domain.EntityTypePage, page.ID); err == nil && ok {
				entry.Published = snapshot
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *service) resolveActor(ctx context.Context, actor string) (string, error) {
	actor = strings.TrimSpace(actor)
	if actor != "" {
		return actor, nil
	}
	if s.auth == nil {
		return "system", nil
	}
	resolved, err := s.auth.CurrentUserID(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve actor: %w", err)
	}
	if strings.TrimSpace(resolved) == "" {
		return "system", nil
	}
	return resolved, nil
}

func pageEntity(page *Page) *domain.Entity {
	return &domain.Entity{
		Type:             domain.EntityTypePage,
		ID:               page.ID,
		Slug:             page.Slug,
		Title:            page.Title,
		Status:           page.Status,
		Locale:           page.Locale,
		DefaultLocale:    page.DefaultLocale,
		AvailableLocales: append([]string{}, page.AvailableLocales...),
		PublishedVersion: cloneIntPointer(page.PublishedVersion),
		DraftVersion:     page.DraftVersion,
		LastPublishedAt:  cloneTimePointer(page.PublishedAt),
	}
}

func normalizeSlug(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrSlugRequired
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, value)
	}
	return normalized, nil
}

func trimLocales(locales []string) []string {
	out := make([]string, 0, len(locales))
	for _, candidate := range locales {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeLocales(locales []string, locale, defaultLocale string) []string {
	out := make([]string, 0, len(locales)+2)
	seen := map[string]struct{}{}
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	add(locale)
	add(defaultLocale)
	for _, candidate := range locales {
		add(candidate)
	}
	return out
}
