package models

import "time"

// EventKind is the closed set of processor event categories the service reacts to.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventPaymentConfirmed
	EventSessionExpired
	EventPaymentFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentConfirmed:
		return "payment_confirmed"
	case EventSessionExpired:
		return "session_expired"
	case EventPaymentFailed:
		return "payment_failed"
	default:
		return "unrecognized"
	}
}

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

// Settled reports whether funds are confirmed for the session.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusNoPaymentRequired
}

// Metadata keys round-tripped through the payment processor.
const (
	MetadataPurchaseID     = "purchase_id"
	MetadataCustomerID     = "customer_id"
	MetadataContentID      = "content_id"
	MetadataOrganizationID = "organization_id"
)

// PaymentEvent is a verified processor event reduced to what the service needs.
type PaymentEvent struct {
	ID            string
	Type          string
	Kind          EventKind
	SessionRef    string
	PaymentRef    string
	PaymentStatus PaymentStatus
	Metadata      map[string]string
	OccurredAt    time.Time
}

func (e *PaymentEvent) PurchaseID() string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataPurchaseID]
}

// PurchaseCompletedEvent is published once a purchase reaches completed.
type PurchaseCompletedEvent struct {
	EventType      string    `json:"event_type"`
	PurchaseID     string    `json:"purchase_id"`
	CustomerID     string    `json:"customer_id"`
	ContentID      string    `json:"content_id"`
	OrganizationID string    `json:"organization_id"`
	PricePaid      int64     `json:"price_paid"`
	PaymentRef     string    `json:"payment_ref,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

const PurchaseEventCompleted = "purchase.completed"
