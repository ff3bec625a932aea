package models

import "time"

type Purchase struct {
	ID             string         `json:"id"`
	CustomerID     string         `json:"customer_id"`
	ContentID      string         `json:"content_id"`
	OrganizationID string         `json:"organization_id"`
	PricePaid      int64          `json:"price_paid"`
	Status         PurchaseStatus `json:"status"`
	SessionRef     *string        `json:"session_ref,omitempty"`
	PaymentRef     *string        `json:"payment_ref,omitempty"`
	PurchasedAt    *time.Time     `json:"purchased_at,omitempty"`
	RefundedAt     *time.Time     `json:"refunded_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HasAccess reports whether the purchase currently grants the content.
func (p *Purchase) HasAccess() bool {
	return p != nil && p.Status == StatusCompleted && p.RefundedAt == nil
}

type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusCompleted PurchaseStatus = "completed"
	StatusFailed    PurchaseStatus = "failed"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Active statuses are the scope of the (customer, content) uniqueness constraint.
func (s PurchaseStatus) Active() bool {
	return s == StatusPending || s == StatusCompleted
}

// TransitionFields carries the columns written together with a status change.
// Nil fields are left untouched.
type TransitionFields struct {
	PaymentRef  *string
	PurchasedAt *time.Time
}

// CheckoutResult is either a hosted session to redirect to or a free grant.
type CheckoutResult struct {
	PurchaseID  string `json:"purchase_id"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	FreeGrant   bool   `json:"free_grant"`
}
