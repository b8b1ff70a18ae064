// Package notify delivers posting notifications to messaging webhooks.
package notify

import (
	"github.com/ncurl/jobwatch/job"
)

// Notifier delivers a formatted message for a posting. Implementations may
// retry internally but must resolve to a boolean: true means delivered (or
// suppressed in dry-run), false means failed. The caller does not retry
// within a single call; a false return leaves the posting uncommitted so it
// is retried on a later fetch cycle.
type Notifier interface {
	Notify(p *job.Posting, matchedKeywords []string) bool
}
