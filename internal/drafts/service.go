package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/internal/validation"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// Service is the draft store: CRUD over the single mutable draft per entity
// with optimistic concurrency and schema validation.
type Service interface {
	Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Draft, error)
	Save(ctx context.Context, req SaveRequest) (*Draft, error)
	// Validate checks a candidate payload without mutating state. It powers
	// live editor feedback and echoes the normalized data/meta on success.
	Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error)
}

// EntityStore is the service's view of the page and block catalogs: lookup
// for display/state fields plus the draft version writeback after a save.
type EntityStore interface {
	GetEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Entity, error)
	SetDraftVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) error
}

// SchemaProvider returns the JSON schema registered for a block type, or nil
// when the type carries no schema.
type SchemaProvider interface {
	SchemaForBlockType(ctx context.Context, blockType string) (map[string]any, error)
}

// PublishedReader exposes the latest published snapshot of an entity so the
// usage index can account for references held by the published copy, not only
// the draft being saved.
type PublishedReader interface {
	LatestSnapshot(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (content.Snapshot, bool, error)
}

// SaveRequest carries one draft save. ExpectedVersion must equal the stored
// draft version or the save fails with a VersionConflictError.
type SaveRequest struct {
	EntityType      domain.EntityType
	EntityID        uuid.UUID
	ExpectedVersion int
	Data            content.Snapshot
	Meta            map[string]map[string]any
	Comment         string
	ReviewStatus    domain.ReviewStatus
	Actor           string
}

// ValidateRequest carries a candidate payload for side-effect-free checking.
type ValidateRequest struct {
	EntityType domain.EntityType
	EntityID   uuid.UUID
	Data       content.Snapshot
	Meta       map[string]map[string]any
}

// ValidationResult echoes the normalized payload when valid, or the complete
// field error list when not.
type ValidationResult struct {
	Valid  bool                      `json:"valid"`
	Errors []FieldError              `json:"errors,omitempty"`
	Data   content.Snapshot          `json:"data,omitempty"`
	Meta   map[string]map[string]any `json:"meta,omitempty"`
}

// ServiceOption configures the draft service.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the logger used by the draft service.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchemaProvider wires per-block-type schema validation.
func WithSchemaProvider(provider SchemaProvider) ServiceOption {
	return func(s *service) {
		s.schemas = provider
	}
}

// WithAuthProvider wires actor resolution for requests that do not carry one.
func WithAuthProvider(auth interfaces.AuthProvider) ServiceOption {
	return func(s *service) {
		s.auth = auth
	}
}

// WithTxRunner sets the transaction boundary wrapping each save.
func WithTxRunner(runner interfaces.TxRunner) ServiceOption {
	return func(s *service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

// WithPublishedReader wires the published snapshot lookup used when deriving
// usage rows.
func WithPublishedReader(reader PublishedReader) ServiceOption {
	return func(s *service) {
		s.published = reader
	}
}

type service struct {
	repo      Repository
	store     EntityStore
	usage     usage.Service
	auditor   audit.Recorder
	schemas   SchemaProvider
	published PublishedReader
	auth      interfaces.AuthProvider
	tx        interfaces.TxRunner
	now       func() time.Time
	logger    interfaces.Logger
}

// NewService constructs the draft store service.
func NewService(repo Repository, store EntityStore, usageSvc usage.Service, auditor audit.Recorder, opts ...ServiceOption) Service {
	s := &service{
		repo:    repo,
		store:   store,
		usage:   usageSvc,
		auditor: auditor,
		tx:      interfaces.NoTxRunner{},
		now:     time.Now,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Draft, error) {
	return s.repo.Get(ctx, entityType, entityID)
}

func (s *service) Save(ctx context.Context, req SaveRequest) (*Draft, error) {
	entity, err := s.store.GetEntity(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.Status == domain.StatusArchived {
		return nil, fmt.Errorf("%w: entity %q", ErrEntityArchived, req.EntityID)
	}

	if req.ReviewStatus != "" && !domain.ValidReviewStatus(req.ReviewStatus) {
		return nil, &ValidationFailedError{Errors: []FieldError{{
			Path:    "review_status",
			Message: fmt.Sprintf("unknown review status %q", req.ReviewStatus),
		}}}
	}

	normalizedData, normalizedMeta, fieldErrs := s.normalizeAndValidate(ctx, req.Data, req.Meta)
	if len(fieldErrs) > 0 {
		return nil, &ValidationFailedError{Errors: fieldErrs}
	}

	actor, err := s.resolveActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	var saved *Draft
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		saved, err = s.repo.Save(ctx, &Draft{
			EntityType:   req.EntityType,
			EntityID:     req.EntityID,
			Data:         normalizedData,
			Meta:         normalizedMeta,
			Comment:      strings.TrimSpace(req.Comment),
			ReviewStatus: req.ReviewStatus,
			UpdatedAt:    s.now().UTC(),
			UpdatedBy:    actor,
		}, req.ExpectedVersion)
		if err != nil {
			return err
		}

		if err := s.store.SetDraftVersion(ctx, req.EntityType, req.EntityID, saved.Version); err != nil {
			return fmt.Errorf("update draft version: %w", err)
		}

		if req.EntityType == domain.EntityTypePage {
			if err := s.replaceUsage(ctx, entity, saved); err != nil {
				return err
			}
		}

		if _, err := s.auditor.Record(ctx, &audit.Entry{
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Action:     domain.ActionDraftSaved,
			Actor:      actor,
			Snapshot: map[string]any{
				"version":       saved.Version,
				"comment":       saved.Comment,
				"review_status": string(saved.ReviewStatus),
			},
			CreatedAt: s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("draft saved",
		"entity_type", req.EntityType,
		"entity_id", req.EntityID.String(),
		"version", saved.Version,
	)
	return saved, nil
}

func (s *service) Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error) {
	normalizedData, normalizedMeta, fieldErrs := s.normalizeAndValidate(ctx, req.Data, req.Meta)
	if len(fieldErrs) > 0 {
		return &ValidationResult{Valid: false, Errors: fieldErrs}, nil
	}
	return &ValidationResult{
		Valid: true,
		Data:  normalizedData,
		Meta:  normalizedMeta,
	}, nil
}

// replaceUsage refreshes the page's usage rows inside the save transaction so
// the index never lags the content that produced it.
func (s *service) replaceUsage(ctx context.Context, entity *domain.Entity, saved *Draft) error {
	pageUsage := usage.PageUsage{
		PageID:          entity.ID,
		Slug:            entity.Slug,
		Title:           entity.Title,
		Locale:          entity.Locale,
		HasDraft:        true,
		LastPublishedAt: entity.LastPublishedAt,
		Draft:           saved.Snapshot(),
	}
	if entity.PublishedVersion != nil && s.published != nil {
		snapshot, ok, err := s.published.LatestSnapshot(ctx, entity.Type, entity.ID)
		if err != nil {
			return fmt.Errorf("load published snapshot: %w", err)
		}
		if ok {
			pageUsage.Published = snapshot
		}
	}
	if err := s.usage.Replace(ctx, pageUsage); err != nil {
		return fmt.Errorf("update usage index: %w", err)
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

// normalizeAndValidate trims reference fields, clones payloads and collects
// every validation failure. A non-empty error list rejects the whole draft.
func (s *service) normalizeAndValidate(ctx context.Context, data content.Snapshot, meta map[string]map[string]any) (content.Snapshot, map[string]map[string]any, []FieldError) {
	normalized := content.CloneSnapshot(data)
	normalized.Meta = nil
	fieldErrs := []FieldError{}

	seenIDs := map[string]int{}
	for i := range normalized.Blocks {
		block := &normalized.Blocks[i]
		block.ID = strings.TrimSpace(block.ID)
		block.Type = strings.TrimSpace(block.Type)
		block.Key = strings.TrimSpace(block.Key)
		block.Section = strings.TrimSpace(block.Section)

		path := fmt.Sprintf("data.blocks[%d]", i)
		if block.ID == "" {
			fieldErrs = append(fieldErrs, FieldError{Path: path + ".id", Message: "block id required"})
		} else if prev, ok := seenIDs[block.ID]; ok {
			fieldErrs = append(fieldErrs, FieldError{
				Path:    path + ".id",
				Message: fmt.Sprintf("duplicate block id %q (first used at index %d)", block.ID, prev),
			})
		} else {
			seenIDs[block.ID] = i
		}

		if block.IsGlobalRef() {
			if block.Section == "" {
				fieldErrs = append(fieldErrs, FieldError{Path: path + ".section", Message: "section required for global block reference"})
			}
			continue
		}

		if block.Type == "" {
			fieldErrs = append(fieldErrs, FieldError{Path: path + ".type", Message: "block type required"})
			continue
		}

		fieldErrs = append(fieldErrs, s.validatePayload(ctx, path, block.Type, block.Payload)...)
		for locale, override := range block.Locales {
			fieldErrs = append(fieldErrs, s.validatePartialPayload(ctx, fmt.Sprintf("%s.locales.%s", path, locale), block.Type, override)...)
		}
		for layout, override := range block.Layouts {
			fieldErrs = append(fieldErrs, s.validatePartialPayload(ctx, fmt.Sprintf("%s.layouts.%s", path, layout), block.Type, override)...)
		}
	}

	normalizedMeta := content.CloneLocaleMap(meta)
	for locale := range normalizedMeta {
		if strings.TrimSpace(locale) == "" {
			fieldErrs = append(fieldErrs, FieldError{Path: "meta", Message: "locale code required"})
		}
	}

	if len(fieldErrs) > 0 {
		return content.Snapshot{}, nil, fieldErrs
	}
	return normalized, normalizedMeta, nil
}

func (s *service) validatePayload(ctx context.Context, path, blockType string, payload map[string]any) []FieldError {
	return s.runSchemaValidation(ctx, path, blockType, payload, validation.ValidatePayload)
}

func (s *service) validatePartialPayload(ctx context.Context, path, blockType string, payload map[string]any) []FieldError {
	return s.runSchemaValidation(ctx, path, blockType, payload, validation.ValidatePartialPayload)
}

func (s *service) runSchemaValidation(ctx context.Context, path, blockType string, payload map[string]any, validate func(map[string]any, map[string]any) error) []FieldError {
	if s.schemas == nil {
		return nil
	}
	schema, err := s.schemas.SchemaForBlockType(ctx, blockType)
	if err != nil {
		return []FieldError{{Path: path + ".type", Message: fmt.Sprintf("unknown block type %q", blockType)}}
	}
	if len(schema) == 0 {
		return nil
	}

	err = validate(schema, payload)
	if err == nil {
		return nil
	}

	var payloadErr *validation.PayloadValidationError
	if errors.As(err, &payloadErr) {
		out := make([]FieldError, 0, len(payloadErr.Issues))
		for _, issue := range payloadErr.Issues {
			out = append(out, FieldError{
				Path:      path + ".payload" + issueLocationToPath(issue.Location),
				Message:   issue.Message,
				Validator: issue.Validator,
			})
		}
		return out
	}
	return []FieldError{{Path: path + ".payload", Message: err.Error()}}
}

func issueLocationToPath(location string) string {
	location = strings.TrimPrefix(strings.TrimSpace(location), "#")
	if location == "" || location == "/" {
		return ""
	}
	return "." + strings.ReplaceAll(strings.Trim(location, "/"), "/", ".")
}
