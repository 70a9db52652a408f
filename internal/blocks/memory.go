package blocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewMemoryRepository constructs an "in memory" block repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:  make(map[uuid.UUID]*GlobalBlock),
		byRef: make(map[string]uuid.UUID),
	}
}

type memoryRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*GlobalBlock
	byRef map[string]uuid.UUID
}

func refKey(key, section string) string {
	return section + ":" + key
}

func (m *memoryRepository) Create(_ context.Context, block *GlobalBlock) (*GlobalBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := refKey(block.Key, block.Section)
	if _, exists := m.byRef[ref]; exists {
		return nil, ErrKeyExists
	}

	cloned := cloneBlock(block)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	m.byID[cloned.ID] = cloned
	m.byRef[ref] = cloned.ID
	return cloneBlock(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*GlobalBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, ok := m.byID[id]
	if !ok {
		return nil, &BlockNotFoundError{Key: id.String()}
	}
	return cloneBlock(block), nil
}

func (m *memoryRepository) GetByKey(_ context.Context, key, section string) (*GlobalBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byRef[refKey(key, section)]
	if !ok {
		return nil, &BlockNotFoundError{Key: refKey(key, section)}
	}
	return cloneBlock(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context, opts ListOptions) ([]*GlobalBlock, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*GlobalBlock, 0, len(m.byID))
	for _, block := range m.byID {
		if matchesListOptions(block, opts) {
			matched = append(matched, cloneBlock(block))
		}
	}

	sortBlocks(matched, opts.Sort)
	total := len(matched)

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*GlobalBlock{}, total, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (m *memoryRepository) Update(_ context.Context, block *GlobalBlock) (*GlobalBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[block.ID]
	if !ok {
		return nil, &BlockNotFoundError{Key: block.ID.String()}
	}

	cloned := cloneBlock(block)
	oldRef := refKey(current.Key, current.Section)
	newRef := refKey(cloned.Key, cloned.Section)
	if oldRef != newRef {
		if _, exists := m.byRef[newRef]; exists {
			return nil, ErrKeyExists
		}
		delete(m.byRef, oldRef)
		m.byRef[newRef] = cloned.ID
	}
	m.byID[cloned.ID] = cloned
	return cloneBlock(cloned), nil
}

func matchesListOptions(block *GlobalBlock, opts ListOptions) bool {
	if opts.Section != "" && block.Section != opts.Section {
		return false
	}
	if opts.Status != "" && block.Status != opts.Status {
		return false
	}
	if opts.Locale != "" && (block.Locale == nil || *block.Locale != opts.Locale) {
		return false
	}
	if opts.HasDraft != nil && block.HasPendingDraft() != *opts.HasDraft {
		return false
	}
	if query := strings.ToLower(strings.TrimSpace(opts.Query)); query != "" {
		if !strings.Contains(strings.ToLower(block.Key), query) &&
			!strings.Contains(strings.ToLower(block.Title), query) {
			return false
		}
	}
	return true
}

func sortBlocks(blocks []*GlobalBlock, sortKey string) {
	key := strings.TrimSpace(sortKey)
	descending := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	var less func(a, b *GlobalBlock) bool
	switch key {
	case "key":
		less = func(a, b *GlobalBlock) bool {
			if a.Key == b.Key {
				return a.Section < b.Section
			}
			return a.Key < b.Key
		}
	case "title":
		less = func(a, b *GlobalBlock) bool { return a.Title < b.Title }
	default:
		// updated_at, newest first unless explicitly ascending.
		if key == "" {
			descending = !descending
		}
		less = func(a, b *GlobalBlock) bool {
			if a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.Key < b.Key
			}
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if descending {
			return less(blocks[j], blocks[i])
		}
		return less(blocks[i], blocks[j])
	})
}

func cloneBlock(src *GlobalBlock) *GlobalBlock {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Locale = cloneStringPointer(src.Locale)
	cloned.PublishedVersion = cloneIntPointer(src.PublishedVersion)
	cloned.PublishedAt = cloneTimePointer(src.PublishedAt)
	return &cloned
}

func cloneStringPointer(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
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
