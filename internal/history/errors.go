package history

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrVersionNotFound = errors.New("history: version not found")
	ErrVersionExists   = errors.New("history: version already recorded")
)

// VersionNotFoundError reports a missing history version for an entity.
type VersionNotFoundError struct {
	EntityID uuid.UUID
	Version  int
}

func (e *VersionNotFoundError) Error() string {
	if e.Version <= 0 {
		return fmt.Sprintf("history: no versions recorded for entity %q", e.EntityID)
	}
	return fmt.Sprintf("history: version %d not found for entity %q", e.Version, e.EntityID)
}

func (e *VersionNotFoundError) Unwrap() error {
	return ErrVersionNotFound
}

// VersionExistsError guards the append-only invariant: a version number can
// be recorded at most once per entity.
type VersionExistsError struct {
	EntityID uuid.UUID
	Version  int
}

func (e *VersionExistsError) Error() string {
	return fmt.Sprintf("history: version %d already recorded for entity %q", e.Version, e.EntityID)
}

func (e *VersionExistsError) Unwrap() error {
	return ErrVersionExists
}
