package blocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	slug "github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/identity"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// StoreService extends the public block contract with the catalog views the
// draft store, usage index and publish coordinator depend on.
type StoreService interface {
	Service
	Entity(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	// EntityByRef resolves a key+section reference for binding projections.
	EntityByRef(ctx context.Context, key, section string) (*domain.Entity, error)
	// ResolveRef resolves a key+section reference to the block's ID for the
	// usage index.
	ResolveRef(ctx context.Context, key, section string) (uuid.UUID, error)
	SetUsageCount(ctx context.Context, blockID uuid.UUID, count int) error
	SetDraftVersion(ctx context.Context, id uuid.UUID, version int) error
	SetPublished(ctx context.Context, id uuid.UUID, version int, at time.Time) error
}

type IDGenerator func() uuid.UUID

// ServiceOption configures the block service.
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

// WithLogger sets the logger used by the block service.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
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
	repo    Repository
	drafts  drafts.Repository
	auditor audit.Recorder
	auth    interfaces.AuthProvider
	tx      interfaces.TxRunner
	now     func() time.Time
	id      IDGenerator
	logger  interfaces.Logger
}

// NewService constructs the global block catalog service. Creating a block
// provisions its empty draft at version zero in the same transaction.
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

func (s *service) Create(ctx context.Context, req CreateBlockRequest) (*GlobalBlock, error) {
	key, err := normalizeKey(req.Key)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	section := strings.ToLower(strings.TrimSpace(req.Section))
	if section == "" {
		return nil, ErrSectionRequired
	}

	if _, err := s.repo.GetByKey(ctx, key, section); err == nil {
		return nil, ErrKeyExists
	} else if !errors.Is(err, ErrBlockNotFound) {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	block := &GlobalBlock{
		ID:                identity.GlobalBlockUUID(key, section),
		Key:               key,
		Title:             title,
		Section:           section,
		Locale:            trimLocale(req.Locale),
		Status:            domain.StatusDraft,
		ReviewStatus:      domain.ReviewStatusNone,
		RequiresPublisher: req.RequiresPublisher,
		DraftVersion:      0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var created *GlobalBlock
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err = s.repo.Create(ctx, block)
		if err != nil {
			return err
		}

		if _, err := s.drafts.Create(ctx, &drafts.Draft{
			ID:           identity.DraftUUID(string(domain.EntityTypeBlock), created.ID.String()),
			EntityType:   domain.EntityTypeBlock,
			EntityID:     created.ID,
			Version:      0,
			ReviewStatus: domain.ReviewStatusNone,
			UpdatedAt:    now,
			UpdatedBy:    actor,
		}); err != nil {
			return fmt.Errorf("create empty draft: %w", err)
		}

		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: domain.EntityTypeBlock,
			EntityID:   created.ID,
			Action:     domain.ActionBlockCreated,
			Actor:      actor,
			Snapshot: map[string]any{
				"key":                created.Key,
				"title":              created.Title,
				"section":            created.Section,
				"requires_publisher": created.RequiresPublisher,
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

	s.logger.Info("block created", "block_id", created.ID.String(), "key", created.Key, "section", created.Section)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*GlobalBlock, error) {
	if id == uuid.Nil {
		return nil, ErrBlockRequired
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByKey(ctx context.Context, key, section string) (*GlobalBlock, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}
	section = strings.ToLower(strings.TrimSpace(section))
	if section == "" {
		return nil, ErrSectionRequired
	}
	return s.repo.GetByKey(ctx, key, section)
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*GlobalBlock, int, error) {
	return s.repo.List(ctx, opts)
}

func (s *service) Archive(ctx context.Context, req ArchiveBlockRequest) (*GlobalBlock, error) {
	if req.ID == uuid.Nil {
		return nil, ErrBlockRequired
	}

	block, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if block.Status == domain.StatusArchived {
		return nil, ErrAlreadyArchived
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	block.Status = domain.StatusArchived
	block.UpdatedAt = now

	var archived *GlobalBlock
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		archived, err = s.repo.Update(ctx, block)
		if err != nil {
			return err
		}
		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: domain.EntityTypeBlock,
			EntityID:   block.ID,
			Action:     domain.ActionArchived,
			Actor:      actor,
			Snapshot:   map[string]any{"key": block.Key, "section": block.Section},
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("block archived", "block_id", block.ID.String(), "key", block.Key)
	return archived, nil
}

func (s *service) Entity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return blockEntity(block), nil
}

func (s *service) EntityByRef(ctx context.Context, key, section string) (*domain.Entity, error) {
	block, err := s.GetByKey(ctx, key, section)
	if err != nil {
		return nil, err
	}
	return blockEntity(block), nil
}

func (s *service) ResolveRef(ctx context.Context, key, section string) (uuid.UUID, error) {
	block, err := s.GetByKey(ctx, key, section)
	if err != nil {
		return uuid.Nil, err
	}
	return block.ID, nil
}

func (s *service) SetUsageCount(ctx context.Context, blockID uuid.UUID, count int) error {
	block, err := s.repo.GetByID(ctx, blockID)
	if err != nil {
		return err
	}
	if block.UsageCount == count {
		return nil
	}
	block.UsageCount = count
	block.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, block)
	return err
}

func (s *service) SetDraftVersion(ctx context.Context, id uuid.UUID, version int) error {
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	block.DraftVersion = version
	block.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, block)
	return err
}

func (s *service) SetPublished(ctx context.Context, id uuid.UUID, version int, at time.Time) error {
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	block.PublishedVersion = &version
	block.PublishedAt = &at
	if block.Status == domain.StatusDraft {
		block.Status = domain.StatusPublished
	}
	block.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, block)
	return err
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

func blockEntity(block *GlobalBlock) *domain.Entity {
	locale := ""
	if block.Locale != nil {
		locale = *block.Locale
	}
	return &domain.Entity{
		Type:              domain.EntityTypeBlock,
		ID:                block.ID,
		Slug:              block.Key,
		Title:             block.Title,
		Section:           block.Section,
		Status:            block.Status,
		Locale:            locale,
		DefaultLocale:     locale,
		RequiresPublisher: block.RequiresPublisher,
		PublishedVersion:  cloneIntPointer(block.PublishedVersion),
		DraftVersion:      block.DraftVersion,
		LastPublishedAt:   cloneTimePointer(block.PublishedAt),
	}
}

func normalizeKey(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrKeyRequired
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrKeyInvalid, value)
	}
	return normalized, nil
}

func trimLocale(locale *string) *string {
	if locale == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*locale)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
