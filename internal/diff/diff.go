package diff

import (
	"reflect"
	"sort"

	"github.com/goliatone/go-publish/content"
)

// Kind classifies what part of a snapshot a diff entry describes.
type Kind string

const (
	KindBlock Kind = "block"
	KindData  Kind = "data"
	KindMeta  Kind = "meta"
)

// Change classifies how the item changed between the two snapshots.
type Change string

const (
	ChangeAdded   Change = "added"
	ChangeRemoved Change = "removed"
	ChangeUpdated Change = "updated"
	ChangeMoved   Change = "moved"
)

// Entry is one structural difference between two snapshots. Block entries
// carry BlockID and, for moves, the From/To positions; data and meta entries
// carry the field path instead.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Change  Change `json:"change"`
	BlockID string `json:"block_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Before  any    `json:"before,omitempty"`
	After   any    `json:"after,omitempty"`
	From    *int   `json:"from,omitempty"`
	To      *int   `json:"to,omitempty"`
}

// Diff computes the structural difference between two snapshots. Blocks are
// matched by stable ID across the two ordered lists, never by position. The
// output order is deterministic: block entries ordered by position in after
// (removed blocks by position in before, appended after the rest), then data
// fields, then meta fields, each sorted by path. Diff(a, a) returns nil.
func Diff(before, after content.Snapshot) []Entry {
	entries := diffBlocks(before.Blocks, after.Blocks)
	entries = append(entries, diffFields(KindData, before.Data, after.Data)...)
	entries = append(entries, diffMeta(before.Meta, after.Meta)...)
	if len(entries) == 0 {
		return nil
	}
	return entries
}

// Equal reports whether two diffs are structurally identical, entry order
// included. Both nil and empty compare as equal.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !entryEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func entryEqual(a, b Entry) bool {
	if a.Kind != b.Kind || a.Change != b.Change || a.BlockID != b.BlockID || a.Field != b.Field {
		return false
	}
	if !intPtrEqual(a.From, b.From) || !intPtrEqual(a.To, b.To) {
		return false
	}
	return reflect.DeepEqual(a.Before, b.Before) && reflect.DeepEqual(a.After, b.After)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func diffBlocks(before, after []content.Block) []Entry {
	beforeIndex := make(map[string]int, len(before))
	for i, block := range before {
		beforeIndex[block.ID] = i
	}
	afterIndex := make(map[string]int, len(after))
	for i, block := range after {
		afterIndex[block.ID] = i
	}

	entries := []Entry{}
	for i, block := range after {
		prev, ok := beforeIndex[block.ID]
		if !ok {
			entries = append(entries, Entry{
				Kind:    KindBlock,
				Change:  ChangeAdded,
				BlockID: block.ID,
				After:   content.CloneBlock(block),
			})
			continue
		}
		if !content.BlockEqual(before[prev], block) {
			entries = append(entries, Entry{
				Kind:    KindBlock,
				Change:  ChangeUpdated,
				BlockID: block.ID,
				Before:  content.CloneBlock(before[prev]),
				After:   content.CloneBlock(block),
			})
			continue
		}
		if prev != i {
			from, to := prev, i
			entries = append(entries, Entry{
				Kind:    KindBlock,
				Change:  ChangeMoved,
				BlockID: block.ID,
				From:    &from,
				To:      &to,
			})
		}
	}

	for _, block := range before {
		if _, ok := afterIndex[block.ID]; ok {
			continue
		}
		entries = append(entries, Entry{
			Kind:    KindBlock,
			Change:  ChangeRemoved,
			BlockID: block.ID,
			Before:  content.CloneBlock(block),
		})
	}

	return entries
}

func diffFields(kind Kind, before, after map[string]any) []Entry {
	if len(before) == 0 && len(after) == 0 {
		return nil
	}

	paths := map[string]struct{}{}
	for key := range before {
		paths[key] = struct{}{}
	}
	for key := range after {
		paths[key] = struct{}{}
	}

	sorted := make([]string, 0, len(paths))
	for key := range paths {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	entries := []Entry{}
	for _, key := range sorted {
		prev, hadPrev := before[key]
		next, hasNext := after[key]
		switch {
		case !hadPrev:
			entries = append(entries, Entry{Kind: kind, Change: ChangeAdded, Field: key, After: next})
		case !hasNext:
			entries = append(entries, Entry{Kind: kind, Change: ChangeRemoved, Field: key, Before: prev})
		case !reflect.DeepEqual(prev, next):
			entries = append(entries, Entry{Kind: kind, Change: ChangeUpdated, Field: key, Before: prev, After: next})
		}
	}
	return entries
}

// diffMeta flattens localized metadata into locale-qualified field paths so a
// change to one locale never masks another.
func diffMeta(before, after map[string]map[string]any) []Entry {
	if len(before) == 0 && len(after) == 0 {
		return nil
	}

	locales := map[string]struct{}{}
	for locale := range before {
		locales[locale] = struct{}{}
	}
	for locale := range after {
		locales[locale] = struct{}{}
	}

	sorted := make([]string, 0, len(locales))
	for locale := range locales {
		sorted = append(sorted, locale)
	}
	sort.Strings(sorted)

	entries := []Entry{}
	for _, locale := range sorted {
		localized := diffFields(KindMeta, before[locale], after[locale])
		for i := range localized {
			localized[i].Field = locale + "." + localized[i].Field
		}
		entries = append(entries, localized...)
	}
	return entries
}
