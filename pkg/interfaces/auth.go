package interfaces

import "context"

// AuthProvider is the engine's view of the host application's authorization
// layer. Privilege enforcement happens upstream; the engine only consults it
// for gates such as publishing a global block flagged requires_publisher.
type AuthProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
	HasPermission(ctx context.Context, permission string) (bool, error)
}

// PermissionPublishGlobalBlock guards publication of global blocks whose
// definition demands elevated authority.
const PermissionPublishGlobalBlock = "publish.global_block"
