package drafts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrVersionConflict  = errors.New("drafts: version conflict")
	ErrValidationFailed = errors.New("drafts: validation failed")
	ErrEntityArchived   = errors.New("drafts: entity archived")
	ErrNotFound         = errors.New("drafts: not found")
)

// NotFoundError reports a missing draft or entity.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("drafts: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// VersionConflictError reports a stale save: the caller's expected version no
// longer matches the stored draft. The caller must re-fetch and retry.
type VersionConflictError struct {
	EntityID uuid.UUID
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("drafts: stale write for entity %q: expected version %d, stored version %d",
		e.EntityID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// FieldError pinpoints a single validation failure inside a draft payload.
type FieldError struct {
	Path      string `json:"path"`
	Message   string `json:"message"`
	Validator string `json:"validator,omitempty"`
}

// ValidationFailedError aggregates every validation failure for a save or
// validate request. Partial validity never allows a partial save; the whole
// draft is rejected with the complete error list.
type ValidationFailedError struct {
	Errors []FieldError
}

func (e *ValidationFailedError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		if fieldErr.Path == "" {
			parts = append(parts, fieldErr.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fieldErr.Path, fieldErr.Message))
	}
	return "drafts: validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationFailedError) Unwrap() error {
	return ErrValidationFailed
}
