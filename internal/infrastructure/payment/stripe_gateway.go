package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/honeynil/content-checkout/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(cfg Config) *StripeGateway {
	var backends *stripe.Backends
	if cfg.APIURL != "" {
		b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.APIURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
		backends = &stripe.Backends{API: b, Connect: b, Uploads: b}
	}
	return &StripeGateway{sc: client.New(cfg.SecretKey, backends)}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req models.SessionRequest) (*models.CheckoutSession, error) {
	ctx, span := otel.Tracer("stripe-gateway").Start(ctx, "CreateCheckoutSession")
	defer span.End()

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.Title),
	}
	if req.Description != "" {
		product.Description = stripe.String(req.Description)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(req.PriceMinorUnits),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Metadata[models.MetadataPurchaseID]),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	session, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stripe session creation failed")
		slog.Error("failed to create stripe checkout session",
			"purchase_id", req.Metadata[models.MetadataPurchaseID],
			"error", err)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	span.SetAttributes(attribute.String("session_id", session.ID))

	return &models.CheckoutSession{ID: session.ID, RedirectURL: session.URL}, nil
}
