package payment

import (
	"context"
	"time"

	"github.com/honeynil/content-checkout/internal/models"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

// CheckoutGateway creates hosted payment sessions.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req models.SessionRequest) (*models.CheckoutSession, error)
}

// EventVerifier authenticates a raw webhook body and reduces it to a PaymentEvent.
// Signature or replay failures wrap pkgerrors.ErrInvalidSignature.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*models.PaymentEvent, error)
}

type Config struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the Stripe API base, used against stripe-mock or in tests.
	APIURL    string
	Tolerance time.Duration
}
