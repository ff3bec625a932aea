package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycle struct {
	ledger   *memLedger
	gateway  *fakeGateway
	producer *recordingProducer
	svc      *purchaseService
}

func newLifecycle(cfg CheckoutConfig) *lifecycle {
	ledger := newMemLedger()
	gateway := &fakeGateway{}
	producer := &recordingProducer{}
	catalog := staticContent{
		"c1":   {ID: "c1", OrganizationID: "org1", Title: "Go course", PriceCents: 999, Published: true},
		"free": {ID: "free", OrganizationID: "org1", Title: "Sample chapter", PriceCents: 0, Published: true},
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	cfg.PurchaseEventsTopic = "purchases"
	return &lifecycle{
		ledger:   ledger,
		gateway:  gateway,
		producer: producer,
		svc:      NewPurchaseService(ledger, catalog, gateway, producer, cfg),
	}
}

func paidEvent(purchaseID, paymentRef string) *models.PaymentEvent {
	return &models.PaymentEvent{
		ID:            "evt_" + paymentRef,
		Type:          "checkout.session.completed",
		Kind:          models.EventPaymentConfirmed,
		SessionRef:    "cs_1",
		PaymentRef:    paymentRef,
		PaymentStatus: models.PaymentStatusPaid,
		Metadata:      map[string]string{models.MetadataPurchaseID: purchaseID},
	}
}

func TestLifecycle_CheckoutAndCompletionScenario(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	result, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay/cs_1", result.CheckoutURL)
	assert.Equal(t, "cs_1", result.SessionID)
	assert.False(t, result.FreeGrant)

	p, err := lc.ledger.FindByID(ctx, result.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Equal(t, int64(999), p.PricePaid)
	require.NotNil(t, p.SessionRef)
	assert.Equal(t, "cs_1", *p.SessionRef)

	require.Len(t, lc.gateway.requests, 1)
	req := lc.gateway.requests[0]
	assert.Equal(t, int64(999), req.PriceMinorUnits)
	assert.Equal(t, result.PurchaseID, req.Metadata[models.MetadataPurchaseID])
	assert.Equal(t, "u1", req.Metadata[models.MetadataCustomerID])
	assert.Equal(t, "c1", req.Metadata[models.MetadataContentID])
	assert.Equal(t, "org1", req.Metadata[models.MetadataOrganizationID])

	_, err = lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicatePurchase)
	assert.Equal(t, 1, lc.gateway.callCount())

	require.NoError(t, lc.svc.CompleteFromEvent(ctx, paidEvent(result.PurchaseID, "pi_1")))
	p, err = lc.ledger.FindByID(ctx, result.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
	require.NotNil(t, p.PaymentRef)
	assert.Equal(t, "pi_1", *p.PaymentRef)
	assert.NotNil(t, p.PurchasedAt)
	assert.Equal(t, int64(999), p.PricePaid)

	require.NoError(t, lc.svc.CompleteFromEvent(ctx, paidEvent(result.PurchaseID, "pi_1")))
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusCompleted))
	assert.Len(t, lc.ledger.all(), 1)
	assert.Equal(t, 1, lc.producer.count(result.PurchaseID))

	ok, err := lc.svc.HasAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLifecycle_ConcurrentCheckoutsYieldOneActivePurchase(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()
	const workers = 25

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
		others     []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, pkgerrors.ErrDuplicatePurchase):
				duplicates++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, 1, lc.gateway.callCount())
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusPending))
}

func TestLifecycle_ConcurrentDuplicateDeliveries(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	result, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)

	const deliveries = 20
	errs := make([]error, deliveries)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = lc.svc.CompleteFromEvent(ctx, paidEvent(result.PurchaseID, "pi_1"))
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusCompleted))
	assert.Equal(t, 1, lc.producer.count(result.PurchaseID))
}

func TestLifecycle_FreeContent(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	result, err := lc.svc.CreateCheckout(ctx, "u1", "free", "org1")
	require.NoError(t, err)
	assert.True(t, result.FreeGrant)
	assert.Empty(t, result.CheckoutURL)
	assert.Equal(t, 0, lc.gateway.callCount())

	p, err := lc.ledger.FindByID(ctx, result.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, int64(0), p.PricePaid)
	assert.NotNil(t, p.PurchasedAt)

	again, err := lc.svc.CreateCheckout(ctx, "u1", "free", "org1")
	require.NoError(t, err)
	assert.True(t, again.FreeGrant)
	assert.Equal(t, result.PurchaseID, again.PurchaseID)
	assert.Len(t, lc.ledger.all(), 1)
	assert.Equal(t, 1, lc.producer.count(result.PurchaseID))
	assert.Equal(t, 0, lc.gateway.callCount())
}

func TestLifecycle_CompensationFreesTheSlot(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()
	lc.gateway.set(errors.New("processor unavailable"), false)

	_, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	assert.ErrorIs(t, err, pkgerrors.ErrSessionCreationFailed)
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusFailed))
	assert.Equal(t, 0, lc.ledger.countStatus("u1", "c1", models.StatusPending))

	lc.gateway.set(nil, false)
	result, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.CheckoutURL)
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusFailed))
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusPending))
}

func TestLifecycle_GatewayTimeoutCompensates(t *testing.T) {
	t.Run("service deadline", func(t *testing.T) {
		lc := newLifecycle(CheckoutConfig{GatewayTimeout: 20 * time.Millisecond})
		lc.gateway.set(nil, true)

		_, err := lc.svc.CreateCheckout(context.Background(), "u1", "c1", "org1")
		assert.ErrorIs(t, err, pkgerrors.ErrSessionCreationFailed)
		assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusFailed))
	})

	t.Run("caller deadline", func(t *testing.T) {
		lc := newLifecycle(CheckoutConfig{})
		lc.gateway.set(nil, true)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
		assert.ErrorIs(t, err, pkgerrors.ErrSessionCreationFailed)
		assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusFailed))
		assert.Equal(t, 0, lc.ledger.countStatus("u1", "c1", models.StatusPending))
	})
}

func TestLifecycle_ConfirmationForFailedPurchase(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()
	lc.gateway.set(errors.New("timeout"), false)

	_, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.ErrorIs(t, err, pkgerrors.ErrSessionCreationFailed)
	purchases := lc.ledger.all()
	require.Len(t, purchases, 1)

	err = lc.svc.CompleteFromEvent(ctx, paidEvent(purchases[0].ID, "pi_late"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)
	assert.False(t, pkgerrors.IsRetryable(err))
	assert.Equal(t, 1, lc.ledger.countStatus("u1", "c1", models.StatusFailed))
}

func TestLifecycle_PaymentRefReusedAcrossPurchases(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	first, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)
	second, err := lc.svc.CreateCheckout(ctx, "u2", "c1", "org1")
	require.NoError(t, err)

	require.NoError(t, lc.svc.CompleteFromEvent(ctx, paidEvent(first.PurchaseID, "pi_1")))

	err = lc.svc.CompleteFromEvent(ctx, paidEvent(second.PurchaseID, "pi_1"))
	assert.ErrorIs(t, err, pkgerrors.ErrPaymentRefConflict)
	assert.False(t, pkgerrors.IsRetryable(err))

	p, err := lc.ledger.FindByID(ctx, second.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Nil(t, p.PaymentRef)
	assert.Equal(t, 0, lc.producer.count(second.PurchaseID))
}

func TestLifecycle_RefundRevokesAccess(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	result, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)

	assert.ErrorIs(t, lc.svc.RecordRefund(ctx, result.PurchaseID), pkgerrors.ErrInvalidTransition)

	require.NoError(t, lc.svc.CompleteFromEvent(ctx, paidEvent(result.PurchaseID, "pi_1")))
	ok, err := lc.svc.HasAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lc.svc.RecordRefund(ctx, result.PurchaseID))
	ok, err = lc.svc.HasAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := lc.ledger.FindByID(ctx, result.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.NotNil(t, p.RefundedAt)

	assert.ErrorIs(t, lc.svc.RecordRefund(ctx, result.PurchaseID), pkgerrors.ErrInvalidTransition)
	assert.ErrorIs(t, lc.svc.RecordRefund(ctx, "00000000-0000-0000-0000-000000000000"), pkgerrors.ErrPurchaseNotFound)
}

func TestLifecycle_AccessPredicate(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	ok, err := lc.svc.HasAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)
	ok, err = lc.svc.HasAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok, "pending grants nothing")

	ok, err = lc.svc.HasAccess(ctx, "u2", "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLifecycle_ExpireStalePending(t *testing.T) {
	lc := newLifecycle(CheckoutConfig{})
	ctx := context.Background()

	stale, err := lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	require.NoError(t, err)
	done, err := lc.svc.CreateCheckout(ctx, "u2", "c1", "org1")
	require.NoError(t, err)
	require.NoError(t, lc.svc.CompleteFromEvent(ctx, paidEvent(done.PurchaseID, "pi_2")))

	lc.svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	n, err := lc.svc.ExpireStalePending(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := lc.ledger.FindByID(ctx, stale.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, p.Status)
	p, err = lc.ledger.FindByID(ctx, done.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)

	lc.svc.now = func() time.Time { return time.Now().UTC() }
	_, err = lc.svc.CreateCheckout(ctx, "u1", "c1", "org1")
	assert.NoError(t, err)

	_, err = lc.svc.ExpireStalePending(ctx, 0)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestLifecycle_ContentUnavailable(t *testing.T) {
	ledger := newMemLedger()
	gateway := &fakeGateway{}
	catalog := staticContent{
		"draft": {ID: "draft", OrganizationID: "org1", PriceCents: 500, Published: false},
		"other": {ID: "other", OrganizationID: "org2", PriceCents: 500, Published: true},
	}
	svc := NewPurchaseService(ledger, catalog, gateway, nil, CheckoutConfig{Currency: "usd"})
	ctx := context.Background()

	for _, contentID := range []string{"missing", "draft", "other"} {
		_, err := svc.CreateCheckout(ctx, "u1", contentID, "org1")
		assert.ErrorIs(t, err, pkgerrors.ErrContentUnavailable, contentID)
	}
	assert.Empty(t, ledger.all())
	assert.Equal(t, 0, gateway.callCount())
}
