package scheduler

import "github.com/google/uuid"

const (
	// JobTypeBlockRepublish refreshes a dependent page's published output
	// after a global block publish.
	JobTypeBlockRepublish = "publish.page.block_republish"
)

// BlockRepublishJobKey keeps the cascade idempotent: republishing the same
// block twice replaces the pending job for each dependent page instead of
// stacking duplicates.
func BlockRepublishJobKey(blockID, pageID uuid.UUID) string {
	return "block:" + blockID.String() + ":page:" + pageID.String() + ":republish"
}
