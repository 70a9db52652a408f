package pages

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewMemoryRepository constructs an "in memory" page repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Page),
		bySlug: make(map[string]uuid.UUID),
	}
}

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Page
	bySlug map[string]uuid.UUID
}

func (m *memoryRepository) Create(_ context.Context, page *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySlug[page.Slug]; exists {
		return nil, ErrSlugExists
	}

	cloned := clonePage(page)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	m.byID[cloned.ID] = cloned
	m.bySlug[cloned.Slug] = cloned.ID
	return clonePage(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page, ok := m.byID[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return clonePage(page), nil
}

func (m *memoryRepository) GetBySlug(_ context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return nil, &PageNotFoundError{Key: slug}
	}
	return clonePage(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context, opts ListOptions) ([]*Page, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*Page, 0, len(m.byID))
	for _, page := range m.byID {
		if matchesListOptions(page, opts) {
			matched = append(matched, clonePage(page))
		}
	}

	sortPages(matched, opts.Sort)
	total := len(matched)

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*Page{}, total, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (m *memoryRepository) ListAll(_ context.Context) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Page, 0, len(m.byID))
	for _, page := range m.byID {
		out = append(out, clonePage(page))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memoryRepository) Update(_ context.Context, page *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[page.ID]
	if !ok {
		return nil, &PageNotFoundError{Key: page.ID.String()}
	}

	cloned := clonePage(page)
	if current.Slug != cloned.Slug {
		if _, exists := m.bySlug[cloned.Slug]; exists {
			return nil, ErrSlugExists
		}
		delete(m.bySlug, current.Slug)
		m.bySlug[cloned.Slug] = cloned.ID
	}
	m.byID[cloned.ID] = cloned
	return clonePage(cloned), nil
}

func matchesListOptions(page *Page, opts ListOptions) bool {
	if opts.Type != "" && page.Type != opts.Type {
		return false
	}
	if opts.Status != "" && page.Status != opts.Status {
		return false
	}
	if opts.Locale != "" && page.Locale != opts.Locale && !containsLocale(page.AvailableLocales, opts.Locale) {
		return false
	}
	if opts.HasDraft != nil && page.HasPendingDraft() != *opts.HasDraft {
		return false
	}
	if query := strings.ToLower(strings.TrimSpace(opts.Query)); query != "" {
		if !strings.Contains(strings.ToLower(page.Slug), query) &&
			!strings.Contains(strings.ToLower(page.Title), query) {
			return false
		}
	}
	return true
}

func containsLocale(locales []string, locale string) bool {
	for _, candidate := range locales {
		if candidate == locale {
			return true
		}
	}
	return false
}

func sortPages(pages []*Page, sortKey string) {
	key := strings.TrimSpace(sortKey)
	descending := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	var less func(a, b *Page) bool
	switch key {
	case "slug":
		less = func(a, b *Page) bool { return a.Slug < b.Slug }
	case "title":
		less = func(a, b *Page) bool { return a.Title < b.Title }
	default:
		// updated_at, newest first unless explicitly ascending.
		if key == "" {
			descending = !descending
		}
		less = func(a, b *Page) bool {
			if a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.Slug < b.Slug
			}
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	}

	sort.SliceStable(pages, func(i, j int) bool {
		if descending {
			return less(pages[j], pages[i])
		}
		return less(pages[i], pages[j])
	})
}

func clonePage(src *Page) *Page {
	if src == nil {
		return nil
	}
	cloned := *src
	if src.AvailableLocales != nil {
		cloned.AvailableLocales = append([]string{}, src.AvailableLocales...)
	}
	cloned.PublishedVersion = cloneIntPointer(src.PublishedVersion)
	cloned.PublishedAt = cloneTimePointer(src.PublishedAt)
	return &cloned
}

func cloneIntPointer(src *int) *int {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func cloneTimePointer(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
