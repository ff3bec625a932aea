package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"github.com/honeynil/content-checkout/internal/infrastructure/kafka"
	"github.com/honeynil/content-checkout/internal/infrastructure/observability"
	"github.com/honeynil/content-checkout/internal/infrastructure/payment"
	"github.com/honeynil/content-checkout/internal/models"
	"github.com/honeynil/content-checkout/internal/repository"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=purchase_service.go -destination=mocks/mock_purchase_service.go -package=mocks

type PurchaseService interface {
	CreateCheckout(ctx context.Context, customerID, contentID, organizationID string) (*models.CheckoutResult, error)
	CompleteFromEvent(ctx context.Context, event *models.PaymentEvent) error
	HasAccess(ctx context.Context, customerID, contentID string) (bool, error)
	RecordRefund(ctx context.Context, purchaseID string) error
	ExpireStalePending(ctx context.Context, maxAge time.Duration) (int64, error)
}

type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	// GatewayTimeout bounds session creation on top of the caller's deadline. Zero means
	// only the caller's deadline applies.
	GatewayTimeout time.Duration
	// CompensationTimeout bounds writes that must happen even after the caller went away.
	CompensationTimeout time.Duration
	PurchaseEventsTopic string
}

type purchaseService struct {
	purchases repository.PurchaseRepository
	content   ContentResolver
	gateway   payment.CheckoutGateway
	events    kafka.KafkaProducer
	cfg       CheckoutConfig
	now       func() time.Time
}

func NewPurchaseService(
	purchases repository.PurchaseRepository,
	content ContentResolver,
	gateway payment.CheckoutGateway,
	events kafka.KafkaProducer,
	cfg CheckoutConfig,
) *purchaseService {
	if cfg.CompensationTimeout <= 0 {
		cfg.CompensationTimeout = 5 * time.Second
	}
	return &purchaseService{
		purchases: purchases,
		content:   content,
		gateway:   gateway,
		events:    events,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *purchaseService) CreateCheckout(ctx context.Context, customerID, contentID, organizationID string) (*models.CheckoutResult, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "CreateCheckout")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_id", customerID),
		attribute.String("content_id", contentID),
		attribute.String("organization_id", organizationID),
	)

	if customerID == "" || contentID == "" || organizationID == "" {
		span.SetStatus(codes.Error, "missing identifiers")
		return nil, fmt.Errorf("%w: customer, content and organization are required", pkgerrors.ErrInvalidInput)
	}

	content, err := s.content.Resolve(ctx, contentID)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrContentNotFound) {
			slog.Warn("checkout for unknown content", "customer_id", customerID, "content_id", contentID)
			span.SetStatus(codes.Error, "content not found")
			return nil, pkgerrors.ErrContentUnavailable
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "content lookup failed")
		slog.Error("failed to resolve content", "content_id", contentID, "error", err)
		return nil, fmt.Errorf("failed to resolve content: %w", err)
	}
	if !content.Published || content.OrganizationID != organizationID {
		slog.Warn("checkout for unavailable content",
			"customer_id", customerID,
			"content_id", contentID,
			"published", content.Published,
			"organization_id", organizationID)
		span.SetStatus(codes.Error, "content unavailable")
		return nil, pkgerrors.ErrContentUnavailable
	}

	if content.PriceCents == 0 {
		return s.grantFree(ctx, customerID, content)
	}

	existing, err := s.purchases.FindActivePurchase(ctx, customerID, contentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "active purchase lookup failed")
		return nil, fmt.Errorf("failed to check active purchase: %w", err)
	}
	if existing != nil {
		slog.Warn("active purchase already exists",
			"customer_id", customerID,
			"content_id", contentID,
			"purchase_id", existing.ID,
			"status", existing.Status)
		span.SetStatus(codes.Error, "duplicate purchase")
		return nil, pkgerrors.ErrDuplicatePurchase
	}

	// The partial unique index closes the gap between the lookup above and this insert.
	p, err := s.purchases.InsertPending(ctx, customerID, contentID, organizationID, content.PriceCents)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrConflict) {
			slog.Warn("lost race for active purchase", "customer_id", customerID, "content_id", contentID)
			span.SetStatus(codes.Error, "duplicate purchase")
			return nil, pkgerrors.ErrDuplicatePurchase
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "pending insert failed")
		return nil, fmt.Errorf("failed to create pending purchase: %w", err)
	}
	span.SetAttributes(attribute.String("purchase_id", p.ID))

	gatewayCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.GatewayTimeout > 0 {
		gatewayCtx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	}
	session, err := s.gateway.CreateSession(gatewayCtx, s.sessionRequest(p, content))
	cancel()
	if err == nil && (session == nil || session.ID == "" || session.RedirectURL == "") {
		err = fmt.Errorf("gateway returned an incomplete session")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session creation failed")
		slog.Error("checkout session creation failed",
			"purchase_id", p.ID,
			"customer_id", customerID,
			"content_id", contentID,
			"error", err)
		s.compensate(ctx, p.ID)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrSessionCreationFailed, err)
	}

	attachCtx, cancelAttach := s.detached(ctx)
	defer cancelAttach()
	if err := s.purchases.AttachSessionRef(attachCtx, p.ID, session.ID); err != nil {
		// webhook correlation goes through metadata, so the redirect is still good
		span.RecordError(err)
		slog.Warn("failed to attach session ref",
			"purchase_id", p.ID,
			"session_id", session.ID,
			"error", err)
	}

	slog.Info("checkout session created",
		"purchase_id", p.ID,
		"customer_id", customerID,
		"content_id", contentID,
		"price", content.PriceCents,
		"session_id", session.ID)

	return &models.CheckoutResult{
		PurchaseID:  p.ID,
		CheckoutURL: session.RedirectURL,
		SessionID:   session.ID,
	}, nil
}

func (s *purchaseService) grantFree(ctx context.Context, customerID string, content *models.Content) (*models.CheckoutResult, error) {
	p, inserted, err := s.purchases.InsertCompleted(ctx, customerID, content.ID, content.OrganizationID, 0, s.now())
	if err != nil {
		slog.Error("failed to grant free content", "customer_id", customerID, "content_id", content.ID, "error", err)
		return nil, fmt.Errorf("failed to grant free content: %w", err)
	}

	if !inserted {
		switch {
		case p == nil:
			// активная запись ушла из pending между INSERT и повторным чтением
			return nil, fmt.Errorf("free grant for content %s raced with a concurrent purchase", content.ID)
		case p.Status != models.StatusCompleted:
			slog.Info("free grant blocked by pending checkout", "purchase_id", p.ID, "customer_id", customerID, "content_id", content.ID)
			return nil, pkgerrors.ErrDuplicatePurchase
		}
	}

	result := &models.CheckoutResult{PurchaseID: p.ID, FreeGrant: true}
	if inserted {
		observability.PurchaseTransitions.WithLabelValues("none", string(models.StatusCompleted)).Inc()
		slog.Info("free content granted", "purchase_id", p.ID, "customer_id", customerID, "content_id", content.ID)
		s.publishCompleted(ctx, p)
	}
	return result, nil
}

func (s *purchaseService) sessionRequest(p *models.Purchase, content *models.Content) models.SessionRequest {
	return models.SessionRequest{
		PriceMinorUnits: p.PricePaid,
		Currency:        s.cfg.Currency,
		Title:           content.Title,
		Description:     content.Description,
		Metadata: map[string]string{
			models.MetadataPurchaseID:     p.ID,
			models.MetadataCustomerID:     p.CustomerID,
			models.MetadataContentID:      p.ContentID,
			models.MetadataOrganizationID: p.OrganizationID,
		},
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
		IdempotencyKey: "checkout:" + p.ID,
	}
}

// compensate moves a pending purchase to failed after the gateway call failed. It runs
// on a context detached from the caller so a timed-out request still frees the slot.
func (s *purchaseService) compensate(ctx context.Context, purchaseID string) {
	ctx, cancel := s.detached(ctx)
	defer cancel()

	applied, err := s.purchases.TransitionStatus(ctx, purchaseID, models.StatusPending, models.StatusFailed, models.TransitionFields{})
	if err != nil {
		slog.Error("failed to compensate pending purchase, left for sweeper", "purchase_id", purchaseID, "error", err)
		return
	}
	if !applied {
		slog.Warn("compensation not applied, purchase already left pending", "purchase_id", purchaseID)
		return
	}
	observability.PurchaseTransitions.WithLabelValues(string(models.StatusPending), string(models.StatusFailed)).Inc()
	slog.Info("pending purchase compensated to failed", "purchase_id", purchaseID)
}

func (s *purchaseService) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompensationTimeout)
}

func (s *purchaseService) CompleteFromEvent(ctx context.Context, event *models.PaymentEvent) error {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "CompleteFromEvent")
	defer span.End()

	purchaseID := event.PurchaseID()
	if _, err := uuid.Parse(purchaseID); err != nil {
		slog.Error("payment event without usable purchase id",
			"event_id", eventID(event),
			"purchase_id", purchaseID)
		span.SetStatus(codes.Error, "malformed event")
		return fmt.Errorf("%w: purchase_id %q", pkgerrors.ErrMalformedEvent, purchaseID)
	}
	span.SetAttributes(attribute.String("purchase_id", purchaseID), attribute.String("event_id", event.ID))

	p, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
			slog.Error("payment event references unknown purchase", "event_id", event.ID, "purchase_id", purchaseID)
			span.SetStatus(codes.Error, "unknown purchase")
			return fmt.Errorf("%w: %s", pkgerrors.ErrUnknownPurchase, purchaseID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "purchase lookup failed")
		return fmt.Errorf("failed to load purchase: %w", err)
	}

	if p.Status == models.StatusCompleted {
		slog.Info("purchase already completed, event ignored", "purchase_id", p.ID, "event_id", event.ID)
		return nil
	}
	if err := validateTransition(p.Status, models.StatusCompleted); err != nil {
		slog.Error("payment confirmed for purchase that cannot complete",
			"purchase_id", p.ID,
			"status", p.Status,
			"event_id", event.ID,
			"payment_ref", event.PaymentRef)
		span.SetStatus(codes.Error, "invalid transition")
		return err
	}

	now := s.now()
	fields := models.TransitionFields{PurchasedAt: &now}
	if event.PaymentRef != "" {
		ref := event.PaymentRef
		fields.PaymentRef = &ref
	}

	applied, err := s.purchases.TransitionStatus(ctx, p.ID, models.StatusPending, models.StatusCompleted, fields)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrConflict) {
			return s.resolveRefConflict(ctx, p.ID, event)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return fmt.Errorf("failed to complete purchase: %w", err)
	}

	if !applied {
		current, err := s.purchases.FindByID(ctx, p.ID)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to reload purchase after lost race: %w", err)
		}
		switch current.Status {
		case models.StatusCompleted:
			slog.Info("concurrent delivery completed purchase first", "purchase_id", p.ID, "event_id", event.ID)
			return nil
		case models.StatusFailed:
			slog.Error("purchase failed while payment was confirmed", "purchase_id", p.ID, "event_id", event.ID)
			return fmt.Errorf("%w: %s -> %s", pkgerrors.ErrInvalidTransition, current.Status, models.StatusCompleted)
		default:
			return fmt.Errorf("completion of purchase %s not applied", p.ID)
		}
	}

	observability.PurchaseTransitions.WithLabelValues(string(models.StatusPending), string(models.StatusCompleted)).Inc()
	slog.Info("purchase completed",
		"purchase_id", p.ID,
		"customer_id", p.CustomerID,
		"content_id", p.ContentID,
		"payment_ref", event.PaymentRef)

	p.Status = models.StatusCompleted
	p.PaymentRef = fields.PaymentRef
	p.PurchasedAt = &now
	s.publishCompleted(ctx, p)
	return nil
}

// resolveRefConflict decides whether a payment_ref unique violation is a replay. Only a
// purchase that is already completed makes it one; otherwise the reference is recorded on
// a different purchase.
func (s *purchaseService) resolveRefConflict(ctx context.Context, purchaseID string, event *models.PaymentEvent) error {
	current, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to reload purchase after payment ref conflict: %w", err)
	}
	if current.Status == models.StatusCompleted {
		slog.Info("payment reference already recorded, duplicate delivery", "purchase_id", purchaseID, "payment_ref", event.PaymentRef)
		return nil
	}
	slog.Error("payment reference already recorded on another purchase",
		"purchase_id", purchaseID,
		"status", current.Status,
		"payment_ref", event.PaymentRef,
		"event_id", event.ID)
	return fmt.Errorf("%w: %s on purchase %s", pkgerrors.ErrPaymentRefConflict, event.PaymentRef, purchaseID)
}

func eventID(event *models.PaymentEvent) string {
	if event == nil {
		return ""
	}
	return event.ID
}

// publishCompleted is best-effort: the ledger row is the source of truth.
func (s *purchaseService) publishCompleted(ctx context.Context, p *models.Purchase) {
	if s.events == nil || p == nil {
		return
	}

	event := models.PurchaseCompletedEvent{
		EventType:      models.PurchaseEventCompleted,
		PurchaseID:     p.ID,
		CustomerID:     p.CustomerID,
		ContentID:      p.ContentID,
		OrganizationID: p.OrganizationID,
		PricePaid:      p.PricePaid,
		CompletedAt:    s.now(),
	}
	if p.PaymentRef != nil {
		event.PaymentRef = *p.PaymentRef
	}
	if p.PurchasedAt != nil {
		event.CompletedAt = *p.PurchasedAt
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal purchase event", "purchase_id", p.ID, "error", err)
		return
	}

	ctx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.events.Send(ctx, s.cfg.PurchaseEventsTopic, p.ID, data); err != nil {
		slog.Error("failed to publish purchase completed event", "purchase_id", p.ID, "error", err)
	}
}

func (s *purchaseService) HasAccess(ctx context.Context, customerID, contentID string) (bool, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "HasAccess")
	defer span.End()

	p, err := s.purchases.FindCompletedAccess(ctx, customerID, contentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access lookup failed")
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return p.HasAccess(), nil
}

func (s *purchaseService) RecordRefund(ctx context.Context, purchaseID string) error {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "RecordRefund")
	defer span.End()

	p, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !canRefund(p) {
		span.SetStatus(codes.Error, "not refundable")
		return fmt.Errorf("%w: refund of %s purchase", pkgerrors.ErrInvalidTransition, p.Status)
	}

	ok, err := s.purchases.MarkRefunded(ctx, purchaseID, s.now())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record refund: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: purchase %s already refunded", pkgerrors.ErrInvalidTransition, purchaseID)
	}

	slog.Info("refund recorded", "purchase_id", purchaseID, "customer_id", p.CustomerID, "content_id", p.ContentID)
	return nil
}

func (s *purchaseService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "ExpireStalePending")
	defer span.End()

	if maxAge <= 0 {
		return 0, fmt.Errorf("%w: max age must be positive", pkgerrors.ErrInvalidInput)
	}

	n, err := s.purchases.FailStalePending(ctx, s.now().Add(-maxAge))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return 0, err
	}
	if n > 0 {
		observability.PurchaseTransitions.WithLabelValues(string(models.StatusPending), string(models.StatusFailed)).Add(float64(n))
	}
	span.SetAttributes(attribute.Int64("expired", n))
	return n, nil
}
