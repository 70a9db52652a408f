package pages

import pubpages "github.com/goliatone/go-publish/pages"

type (
	Page               = pubpages.Page
	ListOptions        = pubpages.ListOptions
	Binding            = pubpages.Binding
	BindingScope       = pubpages.BindingScope
	CreatePageRequest  = pubpages.CreatePageRequest
	ArchivePageRequest = pubpages.ArchivePageRequest
	PageNotFoundError  = pubpages.PageNotFoundError
	Service            = pubpages.Service
)

const (
	BindingScopePage   = pubpages.BindingScopePage
	BindingScopeShared = pubpages.BindingScopeShared
)

var (
	ErrSlugRequired        = pubpages.ErrSlugRequired
	ErrSlugInvalid         = pubpages.ErrSlugInvalid
	ErrSlugExists          = pubpages.ErrSlugExists
	ErrTitleRequired       = pubpages.ErrTitleRequired
	ErrTypeInvalid         = pubpages.ErrTypeInvalid
	ErrLocaleRequired      = pubpages.ErrLocaleRequired
	ErrPageRequired        = pubpages.ErrPageRequired
	ErrAlreadyArchived     = pubpages.ErrAlreadyArchived
	ErrPageNotFound        = pubpages.ErrPageNotFound
	ErrDefaultLocaleAbsent = pubpages.ErrDefaultLocaleAbsent
)
