package blocks

import (
	"errors"
	"fmt"
)

var (
	ErrKeyRequired     = errors.New("blocks: key is required")
	ErrKeyInvalid      = errors.New("blocks: key contains invalid characters")
	ErrKeyExists       = errors.New("blocks: key already exists in section")
	ErrTitleRequired   = errors.New("blocks: title is required")
	ErrSectionRequired = errors.New("blocks: section is required")
	ErrBlockRequired   = errors.New("blocks: block id required")
	ErrAlreadyArchived = errors.New("blocks: block already archived")
	ErrBlockNotFound   = errors.New("blocks: block not found")
)

// BlockNotFoundError reports a missing block by id or key reference.
type BlockNotFoundError struct {
	Key string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("blocks: block %q not found", e.Key)
}

func (e *BlockNotFoundError) Unwrap() error {
	return ErrBlockNotFound
}
