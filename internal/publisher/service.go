package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/diff"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/identity"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/scheduler"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// Service is the publish coordinator: it freezes drafts into history entries,
// advances the published version pointers and fans the global block cascade
// out to dependent pages.
type Service interface {
	PublishPage(ctx context.Context, req PublishPageRequest) (*PublishResult, error)
	PublishGlobalBlock(ctx context.Context, req PublishBlockRequest) (*BlockPublishResult, error)
	// RestoreVersion copies a historical version into the entity's draft as a
	// new draft version. History itself is never rewritten.
	RestoreVersion(ctx context.Context, req RestoreRequest) (*drafts.Draft, error)
	// DiffDraft computes the changes the next publish would freeze, against
	// the latest published version or the empty baseline.
	DiffDraft(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]diff.Entry, error)
}

// EntityStore is the coordinator's view of the page and block catalogs.
type EntityStore interface {
	GetEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Entity, error)
	SetDraftVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) error
	SetPublished(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int, at time.Time) error
}

// PublishPageRequest publishes a page's current draft. ExpectedDiff, when
// non-nil, must match the draft's current diff or the publish is rejected as
// stale; a non-nil empty slice asserts the reviewer saw no changes.
type PublishPageRequest struct {
	PageID       uuid.UUID
	ExpectedDiff []diff.Entry
	Comment      string
	Actor        string
}

// PublishBlockRequest publishes a global block's current draft and triggers
// the dependent-page cascade.
type PublishBlockRequest struct {
	BlockID      uuid.UUID
	ExpectedDiff []diff.Entry
	Comment      string
	Actor        string
}

// RestoreRequest copies version Version of the entity into a new draft.
type RestoreRequest struct {
	EntityType domain.EntityType
	EntityID   uuid.UUID
	Version    int
	Comment    string
	Actor      string
}

// PublishResult reports the outcome of a page publish.
type PublishResult struct {
	Version     int          `json:"version"`
	Diff        []diff.Entry `json:"diff,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
	AuditID     int64        `json:"audit_id"`
}

// BlockPublishResult reports the outcome of a global block publish including
// the cascade fan-out. Warnings flag dependent pages whose own pending drafts
// the cascade will not overwrite.
type BlockPublishResult struct {
	Version       int             `json:"version"`
	Diff          []diff.Entry    `json:"diff,omitempty"`
	PublishedAt   time.Time       `json:"published_at"`
	AuditID       int64           `json:"audit_id"`
	AffectedPages []uuid.UUID     `json:"affected_pages,omitempty"`
	Jobs          []string        `json:"jobs,omitempty"`
	Warnings      []usage.Warning `json:"warnings,omitempty"`
}

// ServiceOption configures the publish coordinator.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithIDGenerator(generator func() uuid.UUID) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger sets the logger used by the publish coordinator.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScheduler wires the cascade job queue. Without one the block publish
// still succeeds but no republish jobs are enqueued.
func WithScheduler(sched interfaces.Scheduler) ServiceOption {
	return func(s *service) {
		if sched != nil {
			s.scheduler = sched
		}
	}
}

// WithAuthProvider wires the authority check gating RequiresPublisher blocks
// and actor resolution for requests that do not carry one.
func WithAuthProvider(auth interfaces.AuthProvider) ServiceOption {
	return func(s *service) {
		s.auth = auth
	}
}

// WithTxRunner sets the transaction boundary wrapping each publish.
func WithTxRunner(runner interfaces.TxRunner) ServiceOption {
	return func(s *service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

// WithCascadeMaxAttempts caps retries for republish jobs.
func WithCascadeMaxAttempts(limit int) ServiceOption {
	return func(s *service) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

type service struct {
	store       EntityStore
	drafts      drafts.Repository
	history     history.Repository
	usage       usage.Service
	auditor     audit.Recorder
	scheduler   interfaces.Scheduler
	auth        interfaces.AuthProvider
	tx          interfaces.TxRunner
	now         func() time.Time
	id          func() uuid.UUID
	maxAttempts int
	logger      interfaces.Logger
}

// NewService constructs the publish coordinator.
func NewService(store EntityStore, draftRepo drafts.Repository, historyRepo history.Repository, usageSvc usage.Service, auditor audit.Recorder, opts ...ServiceOption) Service {
	s := &service{
		store:       store,
		drafts:      draftRepo,
		history:     historyRepo,
		usage:       usageSvc,
		auditor:     auditor,
		scheduler:   scheduler.NewNoOp(),
		tx:          interfaces.NoTxRunner{},
		now:         time.Now,
		id:          uuid.New,
		maxAttempts: 3,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) PublishPage(ctx context.Context, req PublishPageRequest) (*PublishResult, error) {
	entity, draft, changes, err := s.prepare(ctx, domain.EntityTypePage, req.PageID, req.ExpectedDiff)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var auditID int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.freeze(ctx, entity, draft, changes, req.Comment, actor, now); err != nil {
			return err
		}

		snapshot := draft.Snapshot()
		if err := s.usage.Replace(ctx, usage.PageUsage{
			PageID:          entity.ID,
			Slug:            entity.Slug,
			Title:           entity.Title,
			Locale:          entity.Locale,
			HasDraft:        false,
			LastPublishedAt: &now,
			Draft:           snapshot,
			Published:       snapshot,
		}); err != nil {
			return fmt.Errorf("update usage index: %w", err)
		}

		auditID, err = s.recordPublish(ctx, entity, draft.Version, req.Comment, actor, now, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page published",
		"page_id", entity.ID.String(),
		"slug", entity.Slug,
		"version", draft.Version,
	)
	return &PublishResult{
		Version:     draft.Version,
		Diff:        changes,
		PublishedAt: now,
		AuditID:     auditID,
	}, nil
}

func (s *service) PublishGlobalBlock(ctx context.Context, req PublishBlockRequest) (*BlockPublishResult, error) {
	entity, draft, changes, err := s.prepare(ctx, domain.EntityTypeBlock, req.BlockID, req.ExpectedDiff)
	if err != nil {
		return nil, err
	}

	if entity.RequiresPublisher {
		if err := s.checkAuthority(ctx); err != nil {
			return nil, err
		}
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var auditID int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.freeze(ctx, entity, draft, changes, req.Comment, actor, now); err != nil {
			return err
		}
		auditID, err = s.recordPublish(ctx, entity, draft.Version, req.Comment, actor, now, map[string]any{
			"key":     entity.Slug,
			"section": entity.Section,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &BlockPublishResult{
		Version:     draft.Version,
		Diff:        changes,
		PublishedAt: now,
		AuditID:     auditID,
	}

	// Cascade fan-out runs after the commit: a scheduling failure must not
	// roll back the published block.
	rows, err := s.usage.ListForBlock(ctx, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("list dependent pages: %w", err)
	}
	warnings, err := s.usage.Warnings(ctx, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("collect cascade warnings: %w", err)
	}
	result.Warnings = warnings

	for _, row := range rows {
		result.AffectedPages = append(result.AffectedPages, row.PageID)

		key := scheduler.BlockRepublishJobKey(entity.ID, row.PageID)
		job, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
			Key:   key,
			Type:  scheduler.JobTypeBlockRepublish,
			RunAt: now,
			Payload: map[string]any{
				"page_id":       row.PageID.String(),
				"block_id":      entity.ID.String(),
				"block_version": draft.Version,
				"cascade_id":    identity.JobUUID(key).String(),
				"actor":         actor,
			},
			MaxAttempts: s.maxAttempts,
		})
		if err != nil {
			s.logger.Error("failed to enqueue republish job",
				"block_id", entity.ID.String(),
				"page_id", row.PageID.String(),
				"error", err,
			)
			continue
		}
		result.Jobs = append(result.Jobs, job.ID)
	}

	s.logger.Info("global block published",
		"block_id", entity.ID.String(),
		"key", entity.Slug,
		"version", draft.Version,
		"affected_pages", len(result.AffectedPages),
	)
	return result, nil
}

func (s *service) RestoreVersion(ctx context.Context, req RestoreRequest) (*drafts.Draft, error) {
	entry, err := s.history.GetVersion(ctx, req.EntityType, req.EntityID, req.Version)
	if err != nil {
		return nil, err
	}

	entity, err := s.store.GetEntity(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.Status == domain.StatusArchived {
		return nil, fmt.Errorf("%w: entity %q", ErrEntityArchived, req.EntityID)
	}

	current, err := s.drafts.Get(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		comment = fmt.Sprintf("restored from version %d", entry.Version)
	}

	now := s.now().UTC()
	var restored *drafts.Draft
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		restored, err = s.drafts.Save(ctx, &drafts.Draft{
			EntityType:   req.EntityType,
			EntityID:     req.EntityID,
			Data:         entry.Data,
			Meta:         entry.Meta,
			Comment:      comment,
			ReviewStatus: domain.ReviewStatusNone,
			UpdatedAt:    now,
			UpdatedBy:    actor,
		}, current.Version)
		if err != nil {
			return err
		}

		if err := s.store.SetDraftVersion(ctx, req.EntityType, req.EntityID, restored.Version); err != nil {
			return fmt.Errorf("update draft version: %w", err)
		}

		if req.EntityType == domain.EntityTypePage {
			if err := s.usage.Replace(ctx, usage.PageUsage{
				PageID:          entity.ID,
				Slug:            entity.Slug,
				Title:           entity.Title,
				Locale:          entity.Locale,
				HasDraft:        true,
				LastPublishedAt: entity.LastPublishedAt,
				Draft:           restored.Snapshot(),
			}); err != nil {
				return fmt.Errorf("update usage index: %w", err)
			}
		}

		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Action:     domain.ActionRestored,
			Actor:      actor,
			Snapshot: map[string]any{
				"restored_from": entry.Version,
				"draft_version": restored.Version,
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

	s.logger.Info("version restored into draft",
		"entity_type", req.EntityType,
		"entity_id", req.EntityID.String(),
		"restored_from", entry.Version,
		"draft_version", restored.Version,
	)
	return restored, nil
}

func (s *service) DiffDraft(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]diff.Entry, error) {
	draft, err := s.drafts.Get(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	baseline, err := s.baseline(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return diff.Diff(baseline, draft.Snapshot()), nil
}

// prepare loads the entity and its draft, rejects archived or unchanged
// entities and enforces the reviewed-diff staleness check.
func (s *service) prepare(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, expected []diff.Entry) (*domain.Entity, *drafts.Draft, []diff.Entry, error) {
	entity, err := s.store.GetEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, nil, nil, err
	}
	if entity.Status == domain.StatusArchived {
		return nil, nil, nil, fmt.Errorf("%w: entity %q", ErrEntityArchived, entityID)
	}

	draft, err := s.drafts.Get(ctx, entityType, entityID)
	if err != nil {
		return nil, nil, nil, err
	}
	if entity.PublishedVersion == nil {
		if draft.Version == 0 {
			return nil, nil, nil, fmt.Errorf("%w: entity %q", ErrNothingToPublish, entityID)
		}
	} else if draft.Version <= *entity.PublishedVersion {
		return nil, nil, nil, fmt.Errorf("%w: entity %q", ErrNothingToPublish, entityID)
	}

	baseline, err := s.baseline(ctx, entityType, entityID)
	if err != nil {
		return nil, nil, nil, err
	}
	changes := diff.Diff(baseline, draft.Snapshot())

	if expected != nil && !diff.Equal(expected, changes) {
		return nil, nil, nil, &DiffMismatchError{Expected: expected, Actual: changes}
	}
	return entity, draft, changes, nil
}

// freeze appends the history entry and advances the published pointer. Runs
// inside the publish transaction.
func (s *service) freeze(ctx context.Context, entity *domain.Entity, draft *drafts.Draft, changes []diff.Entry, comment, actor string, now time.Time) error {
	if _, err := s.history.Append(ctx, &history.Entry{
		ID:          s.id(),
		EntityType:  entity.Type,
		EntityID:    entity.ID,
		Version:     draft.Version,
		Data:        draft.Data,
		Meta:        draft.Meta,
		Comment:     strings.TrimSpace(comment),
		Diff:        changes,
		PublishedAt: now,
		PublishedBy: actor,
	}); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}

	if err := s.store.SetPublished(ctx, entity.Type, entity.ID, draft.Version, now); err != nil {
		return fmt.Errorf("advance published version: %w", err)
	}
	return nil
}

func (s *service) recordPublish(ctx context.Context, entity *domain.Entity, version int, comment, actor string, now time.Time, extra map[string]any) (int64, error) {
	snapshot := map[string]any{
		"version": version,
		"comment": strings.TrimSpace(comment),
	}
	for key, value := range extra {
		snapshot[key] = value
	}
	recorded, err := s.auditor.Record(ctx, &audit.Entry{
		EntityType: entity.Type,
		EntityID:   entity.ID,
		Action:     domain.ActionPublished,
		Actor:      actor,
		Snapshot:   snapshot,
		CreatedAt:  now,
	})
	if err != nil {
		return 0, fmt.Errorf("record audit entry: %w", err)
	}
	return recorded.ID, nil
}

func (s *service) baseline(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (content.Snapshot, error) {
	latest, err := s.history.Latest(ctx, entityType, entityID)
	if err != nil {
		var notFound *history.VersionNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, history.ErrVersionNotFound) {
			return content.Snapshot{}, nil
		}
		return content.Snapshot{}, err
	}
	return latest.Snapshot(), nil
}

func (s *service) checkAuthority(ctx context.Context) error {
	if s.auth == nil {
		return ErrAuthorityRequired
	}
	allowed, err := s.auth.HasPermission(ctx, interfaces.PermissionPublishGlobalBlock)
	if err != nil {
		return fmt.Errorf("check publish authority: %w", err)
	}
	if !allowed {
		return ErrAuthorityRequired
	}
	return nil
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
