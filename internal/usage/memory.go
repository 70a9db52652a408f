package usage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryRepository constructs an "in memory" usage index repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byPage: make(map[uuid.UUID]map[uuid.UUID]*Row),
	}
}

type memoryRepository struct {
	mu     sync.RWMutex
	byPage map[uuid.UUID]map[uuid.UUID]*Row
}

func (m *memoryRepository) ReplaceForPage(_ context.Context, pageID uuid.UUID, rows []*Row) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.byPage[pageID]
	next := make(map[uuid.UUID]*Row, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		cloned := cloneRow(row)
		cloned.PageID = pageID
		next[cloned.BlockID] = cloned
	}

	affected := map[uuid.UUID]struct{}{}
	for blockID, row := range next {
		existing, ok := current[blockID]
		if !ok || !rowEqual(existing, row) {
			affected[blockID] = struct{}{}
		}
	}
	for blockID := range current {
		if _, ok := next[blockID]; !ok {
			affected[blockID] = struct{}{}
		}
	}

	if len(next) == 0 {
		delete(m.byPage, pageID)
	} else {
		m.byPage[pageID] = next
	}

	return sortedIDs(affected), nil
}

func (m *memoryRepository) ListForBlock(_ context.Context, blockID uuid.UUID) ([]*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Row, 0)
	for _, rows := range m.byPage {
		if row, ok := rows[blockID]; ok {
			out = append(out, cloneRow(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memoryRepository) ListForPage(_ context.Context, pageID uuid.UUID) ([]*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.byPage[pageID]
	out := make([]*Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneRow(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockID.String() < out[j].BlockID.String() })
	return out, nil
}

func (m *memoryRepository) CountForBlock(_ context.Context, blockID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rows := range m.byPage {
		if _, ok := rows[blockID]; ok {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byPage = make(map[uuid.UUID]map[uuid.UUID]*Row)
	return nil
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
