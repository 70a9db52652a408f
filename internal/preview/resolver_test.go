package preview_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/preview"
)

type stubReader struct {
	mu       sync.Mutex
	entities map[uuid.UUID]*domain.Entity
}

func newStubReader() *stubReader {
	return &stubReader{entities: make(map[uuid.UUID]*domain.Entity)}
}

func (r *stubReader) put(entity *domain.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[entity.ID] = entity
}

func (r *stubReader) GetEntity(_ context.Context, _ domain.EntityType, entityID uuid.UUID) (*domain.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, ok := r.entities[entityID]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", entityID)
	}
	clone := *entity
	return &clone, nil
}

type fixture struct {
	service preview.Service
	reader  *stubReader
	drafts  drafts.Repository
	history history.Repository
	now     time.Time
}

func newFixture(t *testing.T, opts ...preview.Option) *fixture {
	t.Helper()

	now := time.Date(2026, 6, 6, 15, 0, 0, 0, time.UTC)
	reader := newStubReader()
	draftRepo := drafts.NewMemoryRepository()
	historyRepo := history.NewMemoryRepository()
	base := []preview.Option{preview.WithClock(func() time.Time { return now })}
	base = append(base, opts...)
	return &fixture{
		service: preview.NewService(reader, draftRepo, historyRepo, base...),
		reader:  reader,
		drafts:  draftRepo,
		history: historyRepo,
		now:     now,
	}
}

func layeredSnapshot() content.Snapshot {
	return content.Snapshot{
		Blocks: []content.Block{
			{
				ID:      "hero",
				Type:    "hero",
				Payload: map[string]any{"title": "Welcome", "cta": "Sign up"},
				Locales: map[string]map[string]any{
					"es": {"title": "Bienvenido"},
				},
				Layouts: map[string]map[string]any{
					"mobile": {"cta": "Join"},
				},
			},
			{ID: "hdr", Key: "header", Section: "layout"},
		},
		Meta: map[string]map[string]any{
			"en": {"description": "landing"},
			"es": {"description": "aterrizaje"},
		},
	}
}

func (f *fixture) seedPage(t *testing.T, locales ...string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	entity := &domain.Entity{
		Type:             domain.EntityTypePage,
		ID:               id,
		Slug:             "home",
		Status:           domain.StatusDraft,
		Locale:           locales[0],
		DefaultLocale:    locales[0],
		AvailableLocales: locales,
		DraftVersion:     1,
	}
	f.reader.put(entity)

	if _, err := f.drafts.Create(context.Background(), &drafts.Draft{
		EntityType: domain.EntityTypePage,
		EntityID:   id,
		Version:    0,
	}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	snapshot := layeredSnapshot()
	meta := snapshot.Meta
	snapshot.Meta = nil
	if _, err := f.drafts.Save(context.Background(), &drafts.Draft{
		EntityType: domain.EntityTypePage,
		EntityID:   id,
		Data:       snapshot,
		Meta:       meta,
	}, 0); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	return id
}

func (f *fixture) publish(t *testing.T, id uuid.UUID, version int, snapshot content.Snapshot) {
	t.Helper()

	meta := snapshot.Meta
	snapshot.Meta = nil
	if _, err := f.history.Append(context.Background(), &history.Entry{
		ID:          uuid.New(),
		EntityType:  domain.EntityTypePage,
		EntityID:    id,
		Version:     version,
		Data:        snapshot,
		Meta:        meta,
		PublishedAt: f.now,
		PublishedBy: "alice",
	}); err != nil {
		t.Fatalf("append history: %v", err)
	}
	entity, err := f.reader.GetEntity(context.Background(), domain.EntityTypePage, id)
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	entity.PublishedVersion = &version
	f.reader.put(entity)
}

func TestResolveDraftMergesOverrides(t *testing.T) {
	f := newFixture(t)
	pageID := f.seedPage(t, "en", "es")

	resp, err := f.service.Resolve(context.Background(), preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Version:    "draft",
		Locale:     "es",
		Layouts:    []string{"desktop", "mobile"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resp.Locale != "es" || resp.Source != preview.VersionDraft || resp.Version != 1 {
		t.Fatalf("unexpected response header %+v", resp)
	}
	if len(resp.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(resp.Variants))
	}

	desktop := resp.Variants[0]
	if desktop.Layout != "desktop" {
		t.Fatalf("unexpected variant order %+v", resp.Variants)
	}
	hero := desktop.Data.Blocks[0].Payload
	if hero["title"] != "Bienvenido" || hero["cta"] != "Sign up" {
		t.Fatalf("expected locale override only on desktop, got %v", hero)
	}
	if desktop.Meta["description"] != "aterrizaje" {
		t.Fatalf("expected localized meta, got %v", desktop.Meta)
	}
	if !desktop.GeneratedAt.Equal(f.now) {
		t.Fatalf("expected generation timestamp %v, got %v", f.now, desktop.GeneratedAt)
	}

	mobile := resp.Variants[1]
	hero = mobile.Data.Blocks[0].Payload
	if hero["title"] != "Bienvenido" || hero["cta"] != "Join" {
		t.Fatalf("expected locale and layout overrides on mobile, got %v", hero)
	}

	// Global refs pass through untouched for the caller to expand.
	if !desktop.Data.Blocks[1].IsGlobalRef() {
		t.Fatalf("expected global ref preserved, got %+v", desktop.Data.Blocks[1])
	}
}

func TestResolveLocaleFallback(t *testing.T) {
	f := newFixture(t)
	pageID := f.seedPage(t, "en", "es")
	ctx := context.Background()

	resp, err := f.service.Resolve(ctx, preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Locale:     "fr",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resp.Locale != "en" || resp.RequestedLocale != "fr" {
		t.Fatalf("expected fallback to default locale, got %+v", resp)
	}

	// Entity without any locale cannot resolve.
	bare := uuid.New()
	f.reader.put(&domain.Entity{Type: domain.EntityTypePage, ID: bare, DraftVersion: 1})
	if _, err := f.drafts.Create(ctx, &drafts.Draft{EntityType: domain.EntityTypePage, EntityID: bare}); err != nil {
		t.Fatalf("seed bare draft: %v", err)
	}
	if _, err := f.service.Resolve(ctx, preview.Request{EntityType: domain.EntityTypePage, EntityID: bare}); !errors.Is(err, preview.ErrLocaleNotAvailable) {
		t.Fatalf("expected ErrLocaleNotAvailable, got %v", err)
	}
}

func TestResolvePublishedRequiresPublish(t *testing.T) {
	f := newFixture(t)
	pageID := f.seedPage(t, "en")
	ctx := context.Background()

	_, err := f.service.Resolve(ctx, preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Version:    "published",
	})
	if !errors.Is(err, preview.ErrNoPublishedVersion) {
		t.Fatalf("expected ErrNoPublishedVersion, got %v", err)
	}

	f.publish(t, pageID, 1, layeredSnapshot())
	resp, err := f.service.Resolve(ctx, preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Version:    "published",
	})
	if err != nil {
		t.Fatalf("resolve published: %v", err)
	}
	if resp.Source != preview.VersionPublished || resp.Version != 1 {
		t.Fatalf("expected published v1, got %+v", resp)
	}
}

func TestResolveSpecificVersion(t *testing.T) {
	f := newFixture(t)
	pageID := f.seedPage(t, "en")
	ctx := context.Background()

	first := layeredSnapshot()
	first.Blocks[0].Payload["title"] = "First"
	f.publish(t, pageID, 1, first)

	second := layeredSnapshot()
	second.Blocks[0].Payload["title"] = "Second"
	f.publish(t, pageID, 2, second)

	resp, err := f.service.Resolve(ctx, preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Version:    "1",
		Layouts:    []string{"desktop"},
	})
	if err != nil {
		t.Fatalf("resolve version 1: %v", err)
	}
	if resp.Version != 1 || resp.Variants[0].Data.Blocks[0].Payload["title"] != "First" {
		t.Fatalf("expected version 1 content, got %+v", resp)
	}

	if _, err := f.service.Resolve(ctx, preview.Request{EntityType: domain.EntityTypePage, EntityID: pageID, Version: "9"}); !errors.Is(err, history.ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
	if _, err := f.service.Resolve(ctx, preview.Request{EntityType: domain.EntityTypePage, EntityID: pageID, Version: "latest"}); !errors.Is(err, preview.ErrUnknownVersionSelect) {
		t.Fatalf("expected ErrUnknownVersionSelect, got %v", err)
	}
}

func TestResolveSkipsUnknownLayouts(t *testing.T) {
	f := newFixture(t)
	pageID := f.seedPage(t, "en")

	resp, err := f.service.Resolve(context.Background(), preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Layouts:    []string{"desktop", "watch"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resp.Variants) != 1 || resp.Variants[0].Layout != "desktop" {
		t.Fatalf("expected unknown layout skipped, got %+v", resp.Variants)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "watch") {
		t.Fatalf("expected warning naming the layout, got %v", resp.Warnings)
	}
}

func TestResolveCustomLayoutSet(t *testing.T) {
	f := newFixture(t, preview.WithLayouts([]string{"amp"}))
	pageID := f.seedPage(t, "en")

	resp, err := f.service.Resolve(context.Background(), preview.Request{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resp.Variants) != 1 || resp.Variants[0].Layout != "amp" {
		t.Fatalf("expected configured layout set used by default, got %+v", resp.Variants)
	}
}
