package usage

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores the derived block usage rows keyed (block_id, page_id).
type Repository interface {
	// ReplaceForPage swaps the page's rows for the supplied set, diffing
	// against the stored rows so unchanged entries are not rewritten. It
	// returns the block IDs whose row set changed so callers can refresh
	// denormalized usage counts.
	ReplaceForPage(ctx context.Context, pageID uuid.UUID, rows []*Row) ([]uuid.UUID, error)
	ListForBlock(ctx context.Context, blockID uuid.UUID) ([]*Row, error)
	ListForPage(ctx context.Context, pageID uuid.UUID) ([]*Row, error)
	CountForBlock(ctx context.Context, blockID uuid.UUID) (int, error)
	Clear(ctx context.Context) error
}
