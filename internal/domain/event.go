package domain

// Event kinds the remote service emits. Anything else is accepted on the
// wire and treated as a no-op downstream.
const (
	EventJobCreated = "job.created"
	EventJobUpdated = "job.updated"
	EventJobDeleted = "job.deleted"
)

// WebhookEvent is the decoded body of one signed notification.
// Test and Retry are markers the remote service sets; the engine accepts
// them but gives them no special semantics.
type WebhookEvent struct {
	Event     string    `json:"event"`
	Data      JobRecord `json:"data"`
	Timestamp float64   `json:"timestamp,omitempty"`
	SiteID    string    `json:"site_id,omitempty"`
	Test      bool      `json:"test,omitempty"`
	Retry     bool      `json:"retry,omitempty"`
}

// Mutates reports whether the event kind changes the catalog.
func (e WebhookEvent) Mutates() bool {
	switch e.Event {
	case EventJobCreated, EventJobUpdated, EventJobDeleted:
		return true
	}
	return false
}
