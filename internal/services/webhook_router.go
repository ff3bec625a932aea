package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/honeynil/content-checkout/internal/infrastructure/observability"
	"github.com/honeynil/content-checkout/internal/infrastructure/payment"
	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Outcome tells the processor whether to redeliver.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "transient_failure"
	}
}

// HTTPStatus is the contract with the processor's retry logic: only 5xx is redelivered.
func (o Outcome) HTTPStatus() int {
	switch o {
	case Accepted:
		return http.StatusOK
	case Rejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type WebhookRouter struct {
	verifier  payment.EventVerifier
	purchases PurchaseService
}

func NewWebhookRouter(verifier payment.EventVerifier, purchases PurchaseService) *WebhookRouter {
	return &WebhookRouter{verifier: verifier, purchases: purchases}
}

func (r *WebhookRouter) Handle(ctx context.Context, payload []byte, signature string) Outcome {
	tracer := otel.Tracer("webhook-router")
	ctx, span := tracer.Start(ctx, "HandleWebhook")
	defer span.End()

	event, err := r.verifier.Verify(payload, signature)
	if err != nil {
		slog.Warn("rejected webhook", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification failed")
		observability.WebhookEvents.WithLabelValues("unverified", Rejected.String()).Inc()
		return Rejected
	}
	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("event_type", event.Type),
		attribute.String("kind", event.Kind.String()),
	)

	outcome := r.dispatch(ctx, event)
	if outcome != Accepted {
		span.SetStatus(codes.Error, outcome.String())
	}
	observability.WebhookEvents.WithLabelValues(event.Kind.String(), outcome.String()).Inc()
	return outcome
}

func (r *WebhookRouter) dispatch(ctx context.Context, event *models.PaymentEvent) Outcome {
	switch event.Kind {
	case models.EventPaymentConfirmed:
		if !event.PaymentStatus.Settled() {
			slog.Info("payment not settled yet, waiting for redelivery",
				"event_id", event.ID,
				"purchase_id", event.PurchaseID(),
				"payment_status", event.PaymentStatus)
			return Accepted
		}
		return outcomeFor(r.purchases.CompleteFromEvent(ctx, event), event)

	case models.EventSessionExpired:
		slog.Info("checkout session expired",
			"event_id", event.ID,
			"session_ref", event.SessionRef,
			"purchase_id", event.PurchaseID())
		return Accepted

	case models.EventPaymentFailed:
		slog.Warn("payment failed at processor",
			"event_id", event.ID,
			"type", event.Type,
			"payment_ref", event.PaymentRef,
			"purchase_id", event.PurchaseID())
		return Accepted

	default:
		slog.Debug("ignoring unrecognized webhook event", "event_id", event.ID, "type", event.Type)
		return Accepted
	}
}

func outcomeFor(err error, event *models.PaymentEvent) Outcome {
	if err == nil {
		return Accepted
	}
	if pkgerrors.IsRetryable(err) {
		slog.Error("webhook processing failed, asking for redelivery", "event_id", event.ID, "purchase_id", event.PurchaseID(), "error", err)
		return TransientFailure
	}
	slog.Error("webhook rejected", "event_id", event.ID, "purchase_id", event.PurchaseID(), "error", err)
	return Rejected
}
