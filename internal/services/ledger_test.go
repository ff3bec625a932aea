package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
)

// memLedger is a PurchaseRepository that enforces the same two uniqueness constraints
// as the Postgres schema: one active purchase per (customer, content) and unique
// payment_ref.
type memLedger struct {
	mu        sync.Mutex
	rows      map[string]*models.Purchase
	lookupErr error
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[string]*models.Purchase{}}
}

func clonePurchase(p *models.Purchase) *models.Purchase {
	if p == nil {
		return nil
	}
	c := *p
	if p.SessionRef != nil {
		v := *p.SessionRef
		c.SessionRef = &v
	}
	if p.PaymentRef != nil {
		v := *p.PaymentRef
		c.PaymentRef = &v
	}
	if p.PurchasedAt != nil {
		v := *p.PurchasedAt
		c.PurchasedAt = &v
	}
	if p.RefundedAt != nil {
		v := *p.RefundedAt
		c.RefundedAt = &v
	}
	return &c
}

func (m *memLedger) activeLocked(customerID, contentID string) *models.Purchase {
	for _, p := range m.rows {
		if p.CustomerID == customerID && p.ContentID == contentID && p.Status.Active() {
			return p
		}
	}
	return nil
}

func (m *memLedger) insertLocked(customerID, contentID, organizationID string, price int64, status models.PurchaseStatus) *models.Purchase {
	now := time.Now().UTC()
	p := &models.Purchase{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		ContentID:      contentID,
		OrganizationID: organizationID,
		PricePaid:      price,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.rows[p.ID] = p
	return p
}

func (m *memLedger) InsertPending(ctx context.Context, customerID, contentID, organizationID string, price int64) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLocked(customerID, contentID) != nil {
		return nil, fmt.Errorf("insert pending purchase: %w", pkgerrors.ErrConflict)
	}
	return clonePurchase(m.insertLocked(customerID, contentID, organizationID, price, models.StatusPending)), nil
}

func (m *memLedger) InsertCompleted(ctx context.Context, customerID, contentID, organizationID string, price int64, purchasedAt time.Time) (*models.Purchase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.activeLocked(customerID, contentID); existing != nil {
		return clonePurchase(existing), false, nil
	}
	p := m.insertLocked(customerID, contentID, organizationID, price, models.StatusCompleted)
	p.PurchasedAt = &purchasedAt
	return clonePurchase(p), true, nil
}

func (m *memLedger) AttachSessionRef(ctx context.Context, purchaseID, sessionRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[purchaseID]
	if !ok {
		return pkgerrors.ErrPurchaseNotFound
	}
	p.SessionRef = &sessionRef
	return nil
}

func (m *memLedger) TransitionStatus(ctx context.Context, purchaseID string, from, to models.PurchaseStatus, fields models.TransitionFields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[purchaseID]
	if !ok || p.Status != from {
		return false, nil
	}
	if fields.PaymentRef != nil {
		for id, other := range m.rows {
			if id != purchaseID && other.PaymentRef != nil && *other.PaymentRef == *fields.PaymentRef {
				return false, fmt.Errorf("transition purchase status: %w", pkgerrors.ErrConflict)
			}
		}
		ref := *fields.PaymentRef
		p.PaymentRef = &ref
	}
	if fields.PurchasedAt != nil {
		at := *fields.PurchasedAt
		p.PurchasedAt = &at
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memLedger) FindActivePurchase(ctx context.Context, customerID, contentID string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return clonePurchase(m.activeLocked(customerID, contentID)), nil
}

func (m *memLedger) FindByID(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	p, ok := m.rows[purchaseID]
	if !ok {
		return nil, pkgerrors.ErrPurchaseNotFound
	}
	return clonePurchase(p), nil
}

func (m *memLedger) FindCompletedAccess(ctx context.Context, customerID, contentID string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, p := range m.rows {
		if p.CustomerID == customerID && p.ContentID == contentID && p.Status == models.StatusCompleted && p.RefundedAt == nil {
			return clonePurchase(p), nil
		}
	}
	return nil, nil
}

func (m *memLedger) MarkRefunded(ctx context.Context, purchaseID string, refundedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[purchaseID]
	if !ok || p.Status != models.StatusCompleted || p.RefundedAt != nil {
		return false, nil
	}
	p.RefundedAt = &refundedAt
	return true, nil
}

func (m *memLedger) FailStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.rows {
		if p.Status == models.StatusPending && p.CreatedAt.Before(createdBefore) {
			p.Status = models.StatusFailed
			n++
		}
	}
	return n, nil
}

func (m *memLedger) setLookupErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupErr = err
}

func (m *memLedger) all() []*models.Purchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Purchase, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, clonePurchase(p))
	}
	return out
}

func (m *memLedger) countStatus(customerID, contentID string, status models.PurchaseStatus) int {
	n := 0
	for _, p := range m.all() {
		if p.CustomerID == customerID && p.ContentID == contentID && p.Status == status {
			n++
		}
	}
	return n
}

// fakeGateway numbers sessions cs_1, cs_2, ... in call order.
type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	err      error
	hang     bool
	requests []models.SessionRequest
}

func (g *fakeGateway) CreateSession(ctx context.Context, req models.SessionRequest) (*models.CheckoutSession, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.requests = append(g.requests, req)
	err, hang := g.err, g.hang
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("cs_%d", n)
	return &models.CheckoutSession{ID: id, RedirectURL: "https://pay/" + id}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGateway) set(err error, hang bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err, g.hang = err, hang
}

type staticContent map[string]*models.Content

func (c staticContent) Resolve(ctx context.Context, contentID string) (*models.Content, error) {
	content, ok := c[contentID]
	if !ok {
		return nil, pkgerrors.ErrContentNotFound
	}
	cp := *content
	return &cp, nil
}

func (c staticContent) Invalidate(ctx context.Context, contentID string) error { return nil }

type recordingProducer struct {
	mu   sync.Mutex
	sent map[string][][]byte
}

func (p *recordingProducer) Send(ctx context.Context, topic string, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[string][][]byte{}
	}
	p.sent[key] = append(p.sent[key], value)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent[key])
}
