package models

type Content struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"price_cents"`
	Published      bool   `json:"published"`
}

// ContentEvent is published by the catalog when content changes.
type ContentEvent struct {
	EventType string `json:"event_type"`
	ContentID string `json:"content_id"`
}

const (
	ContentEventUpdated     = "content.updated"
	ContentEventUnpublished = "content.unpublished"
	ContentEventDeleted     = "content.deleted"
)
