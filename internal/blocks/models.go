package blocks

import pubblocks "github.com/goliatone/go-publish/blocks"

type (
	GlobalBlock         = pubblocks.GlobalBlock
	ListOptions         = pubblocks.ListOptions
	CreateBlockRequest  = pubblocks.CreateBlockRequest
	ArchiveBlockRequest = pubblocks.ArchiveBlockRequest
	BlockNotFoundError  = pubblocks.BlockNotFoundError
	Service             = pubblocks.Service
)

var (
	ErrKeyRequired     = pubblocks.ErrKeyRequired
	ErrKeyInvalid      = pubblocks.ErrKeyInvalid
	ErrKeyExists       = pubblocks.ErrKeyExists
	ErrTitleRequired   = pubblocks.ErrTitleRequired
	ErrSectionRequired = pubblocks.ErrSectionRequired
	ErrBlockRequired   = pubblocks.ErrBlockRequired
	ErrAlreadyArchived = pubblocks.ErrAlreadyArchived
	ErrBlockNotFound   = pubblocks.ErrBlockNotFound
)
