package pages

import (
	"errors"
	"fmt"
)

var (
	ErrSlugRequired        = errors.New("pages: slug is required")
	ErrSlugInvalid         = errors.New("pages: slug contains invalid characters")
	ErrSlugExists          = errors.New("pages: slug already exists")
	ErrTitleRequired       = errors.New("pages: title is required")
	ErrTypeInvalid         = errors.New("pages: unknown page type")
	ErrLocaleRequired      = errors.New("pages: locale is required")
	ErrPageRequired        = errors.New("pages: page id required")
	ErrAlreadyArchived     = errors.New("pages: page already archived")
	ErrPageNotFound        = errors.New("pages: page not found")
	ErrDefaultLocaleAbsent = errors.New("pages: default locale missing from available locales")
)

// PageNotFoundError reports a missing page by id or slug.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("pages: page %q not found", e.Key)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}
