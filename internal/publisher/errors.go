package publisher

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-publish/internal/diff"
)

var (
	ErrDiffMismatch      = errors.New("publisher: draft changed since diff was reviewed")
	ErrNothingToPublish  = errors.New("publisher: draft has no unpublished changes")
	ErrAuthorityRequired = errors.New("publisher: block requires publisher authority")
	ErrEntityArchived    = errors.New("publisher: archived entities cannot be published")
)

// DiffMismatchError reports a stale publish request: the diff the caller
// reviewed no longer matches the draft's current diff. Both sides are carried
// so the caller can re-render the confirmation.
type DiffMismatchError struct {
	Expected []diff.Entry
	Actual   []diff.Entry
}

func (e *DiffMismatchError) Error() string {
	return fmt.Sprintf("publisher: draft diff changed since review (%d reviewed, %d current changes)",
		len(e.Expected), len(e.Actual))
}

func (e *DiffMismatchError) Unwrap() error {
	return ErrDiffMismatch
}
