package di

import (
	"github.com/goliatone/go-publish/internal/commands"
	draftscmd "github.com/goliatone/go-publish/internal/commands/drafts"
	publishcmd "github.com/goliatone/go-publish/internal/commands/publish"
)

// Commands bundles the message handlers for the module's mutating operations
// so hosts can register them on a dispatcher or invoke them directly.
type Commands struct {
	SaveDraft      *draftscmd.SaveDraftHandler
	ValidateDraft  *draftscmd.ValidateDraftHandler
	PublishPage    *publishcmd.PublishPageHandler
	PublishBlock   *publishcmd.PublishBlockHandler
	RestoreVersion *publishcmd.RestoreVersionHandler
}

// Commands assembles the command handlers over the configured services.
// Returns nil unless the commands feature is enabled.
func (c *Container) Commands() *Commands {
	if !c.Config.Features.Commands {
		return nil
	}

	return &Commands{
		SaveDraft:      draftscmd.NewSaveDraftHandler(c.draftSvc, commands.CommandLogger(c.loggerProvider, "drafts")),
		ValidateDraft:  draftscmd.NewValidateDraftHandler(c.draftSvc, commands.CommandLogger(c.loggerProvider, "drafts")),
		PublishPage:    publishcmd.NewPublishPageHandler(c.publisherSvc, commands.CommandLogger(c.loggerProvider, "pages")),
		PublishBlock:   publishcmd.NewPublishBlockHandler(c.publisherSvc, commands.CommandLogger(c.loggerProvider, "blocks")),
		RestoreVersion: publishcmd.NewRestoreVersionHandler(c.publisherSvc, commands.CommandLogger(c.loggerProvider, "history")),
	}
}
