// Package notify emits workspace change events into an optional realtime
// push channel. The core emits into the feed but never depends on it:
// publish failures are logged by callers and otherwise ignored.
package notify

import "context"

// Event describes one workspace change.
type Event struct {
	// Kind is the change type: "file.uploaded", "output.generated",
	// "campaign.created", "campaign.deleted".
	Kind string `json:"kind"`
	// OwnerID is the user whose workspace changed.
	OwnerID string `json:"owner_id"`
	// CampaignID is the affected campaign, if any.
	CampaignID string `json:"campaign_id,omitempty"`
	// StorageKey is the affected object key, if any.
	StorageKey string `json:"storage_key,omitempty"`
	// URL is the resolved artifact URL, if any.
	URL string `json:"url,omitempty"`
}

// Notifier publishes events to subscribers.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Nop is a Notifier that drops every event. Used when no feed is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }
