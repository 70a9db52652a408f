package blocks

import (
	"context"

	"github.com/google/uuid"
)

// Service describes global block management. Content edits flow through the
// draft store; publishing through the publish coordinator, which cascades to
// dependent pages.
type Service interface {
	Create(ctx context.Context, req CreateBlockRequest) (*GlobalBlock, error)
	Get(ctx context.Context, id uuid.UUID) (*GlobalBlock, error)
	GetByKey(ctx context.Context, key, section string) (*GlobalBlock, error)
	List(ctx context.Context, opts ListOptions) ([]*GlobalBlock, int, error)
	Archive(ctx context.Context, req ArchiveBlockRequest) (*GlobalBlock, error)
}
