package preview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

var (
	ErrLocaleNotAvailable   = errors.New("preview: locale not available for entity")
	ErrNoPublishedVersion   = errors.New("preview: entity has never been published")
	ErrUnknownVersionSelect = errors.New("preview: unknown version selector")
)

const (
	VersionDraft     = "draft"
	VersionPublished = "published"
)

var defaultLayouts = []string{"desktop", "mobile"}

// EntityReader looks up the entity whose content is being previewed.
type EntityReader interface {
	GetEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Entity, error)
}

// Request selects the snapshot to preview. Version is "draft", "published" or
// a specific version number; an empty Version previews the draft. Layouts
// defaults to the resolver's configured set when empty.
type Request struct {
	EntityType domain.EntityType
	EntityID   uuid.UUID
	Version    string
	Locale     string
	Layouts    []string
}

// Variant is the resolved payload for one layout.
type Variant struct {
	Layout      string           `json:"layout"`
	GeneratedAt time.Time        `json:"generated_at"`
	Data        content.Snapshot `json:"data"`
	Meta        map[string]any   `json:"meta,omitempty"`
}

// Response carries the resolved preview. RequestedLocale and Locale differ
// when the resolver fell back to the entity's default or first available
// locale.
type Response struct {
	EntityID        uuid.UUID `json:"entity_id"`
	Version         int       `json:"version"`
	Source          string    `json:"source"`
	RequestedLocale string    `json:"requested_locale,omitempty"`
	Locale          string    `json:"locale"`
	Variants        []Variant `json:"variants"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// Service resolves locale fallback and per-layout variants from a draft or
// published snapshot.
type Service interface {
	Resolve(ctx context.Context, req Request) (*Response, error)
}

// Option configures the preview resolver.
type Option func(*service)

func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLayouts replaces the known layout set.
func WithLayouts(layouts []string) Option {
	return func(s *service) {
		if len(layouts) > 0 {
			s.layouts = append([]string{}, layouts...)
		}
	}
}

// WithLogger sets the logger used by the resolver.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	store   EntityReader
	drafts  drafts.Repository
	history history.Repository
	layouts []string
	now     func() time.Time
	logger  interfaces.Logger
}

// NewService constructs the preview resolver.
func NewService(store EntityReader, draftRepo drafts.Repository, historyRepo history.Repository, opts ...Option) Service {
	s := &service{
		store:   store,
		drafts:  draftRepo,
		history: historyRepo,
		layouts: append([]string{}, defaultLayouts...),
		now:     time.Now,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Resolve(ctx context.Context, req Request) (*Response, error) {
	entity, err := s.store.GetEntity(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}

	locale, err := resolveLocale(entity, req.Locale)
	if err != nil {
		return nil, err
	}

	snapshot, version, source, err := s.loadSnapshot(ctx, entity, req.Version)
	if err != nil {
		return nil, err
	}

	response := &Response{
		EntityID:        entity.ID,
		Version:         version,
		Source:          source,
		RequestedLocale: strings.TrimSpace(req.Locale),
		Locale:          locale,
	}

	layouts := req.Layouts
	if len(layouts) == 0 {
		layouts = s.layouts
	}

	now := s.now().UTC()
	for _, layout := range layouts {
		layout = strings.TrimSpace(layout)
		if !s.knownLayout(layout) {
			warning := fmt.Sprintf("unknown layout %q skipped", layout)
			response.Warnings = append(response.Warnings, warning)
			s.logger.Warn("unknown preview layout skipped",
				"entity_id", entity.ID.String(),
				"layout", layout,
			)
			continue
		}
		response.Variants = append(response.Variants, Variant{
			Layout:      layout,
			GeneratedAt: now,
			Data:        resolveVariant(snapshot, locale, layout),
			Meta:        localeMeta(snapshot, locale),
		})
	}
	return response, nil
}

// loadSnapshot picks the snapshot the selector names: the mutable draft, the
// latest published entry or a specific history version.
func (s *service) loadSnapshot(ctx context.Context, entity *domain.Entity, selector string) (content.Snapshot, int, string, error) {
	selector = strings.TrimSpace(strings.ToLower(selector))
	switch selector {
	case "", VersionDraft:
		draft, err := s.drafts.Get(ctx, entity.Type, entity.ID)
		if err != nil {
			return content.Snapshot{}, 0, "", err
		}
		return draft.Snapshot(), draft.Version, VersionDraft, nil
	case VersionPublished:
		if entity.PublishedVersion == nil {
			return content.Snapshot{}, 0, "", fmt.Errorf("%w: entity %q", ErrNoPublishedVersion, entity.ID)
		}
		entry, err := s.history.Latest(ctx, entity.Type, entity.ID)
		if err != nil {
			if errors.Is(err, history.ErrVersionNotFound) {
				return content.Snapshot{}, 0, "", fmt.Errorf("%w: entity %q", ErrNoPublishedVersion, entity.ID)
			}
			return content.Snapshot{}, 0, "", err
		}
		return entry.Snapshot(), entry.Version, VersionPublished, nil
	default:
		version, err := strconv.Atoi(selector)
		if err != nil || version <= 0 {
			return content.Snapshot{}, 0, "", fmt.Errorf("%w: %q", ErrUnknownVersionSelect, selector)
		}
		entry, err := s.history.GetVersion(ctx, entity.Type, entity.ID, version)
		if err != nil {
			return content.Snapshot{}, 0, "", err
		}
		return entry.Snapshot(), entry.Version, VersionPublished, nil
	}
}

func (s *service) knownLayout(layout string) bool {
	for _, candidate := range s.layouts {
		if candidate == layout {
			return true
		}
	}
	return false
}

// resolveLocale applies the fallback chain: exact match, entity default, first
// available. An entity with no locales at all cannot be previewed.
func resolveLocale(entity *domain.Entity, requested string) (string, error) {
	available := entity.AvailableLocales
	if len(available) == 0 && entity.Locale != "" {
		available = []string{entity.Locale}
	}
	if len(available) == 0 {
		return "", fmt.Errorf("%w: entity %q has no locales", ErrLocaleNotAvailable, entity.ID)
	}

	requested = strings.TrimSpace(requested)
	if requested != "" && containsLocale(available, requested) {
		return requested, nil
	}
	if entity.DefaultLocale != "" && containsLocale(available, entity.DefaultLocale) {
		return entity.DefaultLocale, nil
	}
	return available[0], nil
}

// resolveVariant merges each block's per-locale and per-layout overrides into
// its payload. Override precedence: base payload, then locale, then layout.
func resolveVariant(snapshot content.Snapshot, locale, layout string) content.Snapshot {
	resolved := content.CloneSnapshot(snapshot)
	resolved.Meta = nil
	for i := range resolved.Blocks {
		block := &resolved.Blocks[i]
		if block.IsGlobalRef() {
			continue
		}
		payload := block.Payload
		if override, ok := block.Locales[locale]; ok {
			payload = content.MergePayload(payload, override)
		}
		if override, ok := block.Layouts[layout]; ok {
			payload = content.MergePayload(payload, override)
		}
		block.Payload = payload
		block.Locales = nil
		block.Layouts = nil
	}
	return resolved
}

func localeMeta(snapshot content.Snapshot, locale string) map[string]any {
	if snapshot.Meta == nil {
		return nil
	}
	return content.CloneMap(snapshot.Meta[locale])
}

func containsLocale(locales []string, locale string) bool {
	for _, candidate := range locales {
		if candidate == locale {
			return true
		}
	}
	return false
}
