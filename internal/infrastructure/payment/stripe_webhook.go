package payment

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeWebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeWebhookVerifier(cfg Config) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{secret: cfg.WebhookSecret, tolerance: cfg.Tolerance}
}

var signatureErrors = []error{
	webhook.ErrNotSigned,
	webhook.ErrInvalidHeader,
	webhook.ErrNoValidSignature,
	webhook.ErrTooOld,
}

func (v *StripeWebhookVerifier) Verify(payload []byte, signatureHeader string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		for _, target := range signatureErrors {
			if stderrors.Is(err, target) {
				return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidSignature, err)
			}
		}
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrMalformedEvent, err)
	}

	out := &models.PaymentEvent{
		ID:         event.ID,
		Type:       string(event.Type),
		Kind:       classify(event.Type),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if out.Kind == models.EventUnrecognized {
		return out, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: %s event %s has no data object", pkgerrors.ErrMalformedEvent, event.Type, event.ID)
	}

	if event.Type == stripe.EventTypePaymentIntentPaymentFailed {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: payment intent payload: %v", pkgerrors.ErrMalformedEvent, err)
		}
		out.PaymentRef = intent.ID
		out.Metadata = intent.Metadata
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: checkout session payload: %v", pkgerrors.ErrMalformedEvent, err)
	}
	out.SessionRef = session.ID
	out.PaymentStatus = models.PaymentStatus(session.PaymentStatus)
	out.Metadata = session.Metadata
	out.PaymentRef = session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		out.PaymentRef = session.PaymentIntent.ID
	}
	return out, nil
}

func classify(t stripe.EventType) models.EventKind {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return models.EventPaymentConfirmed
	case stripe.EventTypeCheckoutSessionExpired:
		return models.EventSessionExpired
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypePaymentIntentPaymentFailed:
		return models.EventPaymentFailed
	default:
		return models.EventUnrecognized
	}
}
