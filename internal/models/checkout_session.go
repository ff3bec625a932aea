package models

// SessionRequest is what the engine hands the hosted-checkout gateway.
type SessionRequest struct {
	PriceMinorUnits int64
	Currency        string
	Title           string
	Description     string
	// Metadata is round-tripped by the processor and comes back on the webhook.
	Metadata       map[string]string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID          string
	RedirectURL string
}
