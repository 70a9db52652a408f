package pages_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/pages"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newService(t *testing.T, opts ...pages.ServiceOption) (pages.StoreService, drafts.Repository, audit.Recorder) {
	t.Helper()

	draftRepo := drafts.NewMemoryRepository()
	recorder := audit.NewMemoryRecorder()
	base := []pages.ServiceOption{pages.WithClock(fixedClock())}
	base = append(base, opts...)
	svc := pages.NewService(pages.NewMemoryRepository(), draftRepo, recorder, base...)
	return svc, draftRepo, recorder
}

func TestCreateProvisionsEmptyDraft(t *testing.T) {
	svc, draftRepo, recorder := newService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, pages.CreatePageRequest{
		Slug:   "Landing Page",
		Title:  "Landing",
		Type:   domain.PageTypeLanding,
		Locale: "en",
		Actor:  "alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if page.Slug != "landing-page" {
		t.Fatalf("expected normalized slug, got %q", page.Slug)
	}
	if page.Status != domain.StatusDraft || page.DraftVersion != 0 {
		t.Fatalf("expected fresh draft state, got status=%s version=%d", page.Status, page.DraftVersion)
	}
	if page.DefaultLocale != "en" || len(page.AvailableLocales) != 1 {
		t.Fatalf("expected locale defaults applied, got %+v", page)
	}

	draft, err := draftRepo.Get(ctx, domain.EntityTypePage, page.ID)
	if err != nil {
		t.Fatalf("expected empty draft provisioned: %v", err)
	}
	if draft.Version != 0 {
		t.Fatalf("expected draft version 0, got %d", draft.Version)
	}

	entries, err := recorder.List(ctx, audit.Filter{EntityID: page.ID, Action: domain.ActionPageCreated})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected page_created audit entry, got %d", len(entries))
	}
}

func TestCreateDeterministicID(t *testing.T) {
	svc1, _, _ := newService(t)
	svc2, _, _ := newService(t)
	ctx := context.Background()

	req := pages.CreatePageRequest{Slug: "about", Title: "About", Type: domain.PageTypeArticle, Locale: "en"}
	first, err := svc1.Create(ctx, req)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc2.Create(ctx, req)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected deterministic page id for slug, got %s vs %s", first.ID, second.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  pages.CreatePageRequest
		want error
	}{
		{"missing slug", pages.CreatePageRequest{Title: "T", Type: domain.PageTypeLanding, Locale: "en"}, pages.ErrSlugRequired},
		{"missing title", pages.CreatePageRequest{Slug: "a", Type: domain.PageTypeLanding, Locale: "en"}, pages.ErrTitleRequired},
		{"bad type", pages.CreatePageRequest{Slug: "a", Title: "T", Type: "widget", Locale: "en"}, pages.ErrTypeInvalid},
		{"missing locale", pages.CreatePageRequest{Slug: "a", Title: "T", Type: domain.PageTypeLanding}, pages.ErrLocaleRequired},
		{
			"default locale excluded",
			pages.CreatePageRequest{Slug: "a", Title: "T", Type: domain.PageTypeLanding, Locale: "en", DefaultLocale: "fr", AvailableLocales: []string{"en", "es"}},
			pages.ErrDefaultLocaleAbsent,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := pages.CreatePageRequest{Slug: "home", Title: "Home", Type: domain.PageTypeLanding, Locale: "en"}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, req); !errors.Is(err, pages.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	seed := []pages.CreatePageRequest{
		{Slug: "home", Title: "Home", Type: domain.PageTypeLanding, Locale: "en"},
		{Slug: "blog", Title: "Blog", Type: domain.PageTypeCollection, Locale: "en"},
		{Slug: "inicio", Title: "Inicio", Type: domain.PageTypeLanding, Locale: "es"},
	}
	for _, req := range seed {
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("seed %s: %v", req.Slug, err)
		}
	}

	landing, total, err := svc.List(ctx, pages.ListOptions{Type: domain.PageTypeLanding, Sort: "slug"})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if total != 2 || len(landing) != 2 {
		t.Fatalf("expected 2 landing pages, got total=%d len=%d", total, len(landing))
	}
	if landing[0].Slug != "home" || landing[1].Slug != "inicio" {
		t.Fatalf("expected slug sort, got %s,%s", landing[0].Slug, landing[1].Slug)
	}

	spanish, _, err := svc.List(ctx, pages.ListOptions{Locale: "es"})
	if err != nil {
		t.Fatalf("list by locale: %v", err)
	}
	if len(spanish) != 1 || spanish[0].Slug != "inicio" {
		t.Fatalf("expected inicio for es, got %+v", spanish)
	}

	byQuery, _, err := svc.List(ctx, pages.ListOptions{Query: "blo"})
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].Slug != "blog" {
		t.Fatalf("expected blog match, got %+v", byQuery)
	}

	noDraft := false
	clean, _, err := svc.List(ctx, pages.ListOptions{HasDraft: &noDraft})
	if err != nil {
		t.Fatalf("list by has_draft: %v", err)
	}
	if len(clean) != 3 {
		t.Fatalf("expected all pages without pending drafts, got %d", len(clean))
	}

	window, total, err := svc.List(ctx, pages.ListOptions{Sort: "slug", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if total != 3 || len(window) != 2 || window[0].Slug != "home" {
		t.Fatalf("expected paginated window, got total=%d %+v", total, window)
	}
}

func TestArchiveIsTerminalStatusChange(t *testing.T) {
	svc, _, recorder := newService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, pages.CreatePageRequest{Slug: "old", Title: "Old", Type: domain.PageTypeArticle, Locale: "en"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	archived, err := svc.Archive(ctx, pages.ArchivePageRequest{ID: page.ID, Actor: "alice"})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != domain.StatusArchived {
		t.Fatalf("expected archived status, got %s", archived.Status)
	}

	if _, err := svc.Archive(ctx, pages.ArchivePageRequest{ID: page.ID, Actor: "alice"}); !errors.Is(err, pages.ErrAlreadyArchived) {
		t.Fatalf("expected ErrAlreadyArchived, got %v", err)
	}

	entries, err := recorder.List(ctx, audit.Filter{EntityID: page.ID, Action: domain.ActionArchived})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected archived audit entry, got %d", len(entries))
	}
}

type stubCatalog struct {
	entities map[string]*domain.Entity
}

func (s *stubCatalog) EntityByRef(_ context.Context, key, section string) (*domain.Entity, error) {
	entity, ok := s.entities[section+":"+key]
	if !ok {
		return nil, errors.New("not found")
	}
	return entity, nil
}

func TestBindingsProjection(t *testing.T) {
	published := 2
	headerID := uuid.New()
	catalog := &stubCatalog{entities: map[string]*domain.Entity{
		"layout:header": {
			Type:             domain.EntityTypeBlock,
			ID:               headerID,
			Status:           domain.StatusPublished,
			Locale:           "en",
			PublishedVersion: &published,
			DraftVersion:     3,
		},
	}}

	svc, draftRepo, _ := newService(t, pages.WithBlockCatalog(catalog))
	ctx := context.Background()

	page, err := svc.Create(ctx, pages.CreatePageRequest{Slug: "home", Title: "Home", Type: domain.PageTypeLanding, Locale: "en"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := draftRepo.Save(ctx, &drafts.Draft{
		EntityType: domain.EntityTypePage,
		EntityID:   page.ID,
		Data: content.Snapshot{
			Blocks: []content.Block{
				{ID: "hero", Type: "hero", Payload: map[string]any{"title": "Hi"}},
				{ID: "hdr", Key: "header", Section: "layout"},
			},
		},
		UpdatedBy: "alice",
	}, 0); err != nil {
		t.Fatalf("seed draft content: %v", err)
	}

	bindings, err := svc.Bindings(ctx, page.ID)
	if err != nil {
		t.Fatalf("bindings: %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}

	inline := bindings[0]
	if inline.Scope != pages.BindingScopePage || inline.Type != "hero" {
		t.Fatalf("unexpected inline binding %+v", inline)
	}

	shared := bindings[1]
	if shared.Scope != pages.BindingScopeShared || shared.Key != "header" {
		t.Fatalf("unexpected shared binding %+v", shared)
	}
	if shared.PublishedVersion == nil || *shared.PublishedVersion != 2 || !shared.HasDraftBinding {
		t.Fatalf("expected resolved block state, got %+v", shared)
	}
}

func TestListUsageProjectsSnapshots(t *testing.T) {
	svc, draftRepo, _ := newService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, pages.CreatePageRequest{Slug: "home", Title: "Home", Type: domain.PageTypeLanding, Locale: "en"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := draftRepo.Save(ctx, &drafts.Draft{
		EntityType: domain.EntityTypePage,
		EntityID:   page.ID,
		Data: content.Snapshot{
			Blocks: []content.Block{{ID: "b1", Key: "header", Section: "layout"}},
		},
	}, 0); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	if err := svc.SetDraftVersion(ctx, page.ID, 1); err != nil {
		t.Fatalf("set draft version: %v", err)
	}

	rows, err := svc.ListUsage(ctx)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 page, got %d", len(rows))
	}
	if !rows[0].HasDraft {
		t.Fatal("expected pending draft flagged")
	}
	if len(rows[0].Draft.Refs()) != 1 {
		t.Fatalf("expected draft refs projected, got %+v", rows[0].Draft)
	}
}
