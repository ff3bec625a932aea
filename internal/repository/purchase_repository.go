package repository

import (
	"context"
	"time"

	"github.com/honeynil/content-checkout/internal/models"
)

//go:generate mockgen -source=purchase_repository.go -destination=mocks/mock_purchase_repository.go -package=mocks

// PurchaseRepository is the ledger store. Implementations enforce two uniqueness
// constraints: one active (pending|completed) purchase per (customer, content), and a
// globally unique payment reference. Violations surface as pkgerrors.ErrConflict.
type PurchaseRepository interface {
	InsertPending(ctx context.Context, customerID, contentID, organizationID string, price int64) (*models.Purchase, error)
	// InsertCompleted inserts a completed purchase unless an active one exists.
	// inserted is false when an existing purchase won.
	InsertCompleted(ctx context.Context, customerID, contentID, organizationID string, price int64, purchasedAt time.Time) (p *models.Purchase, inserted bool, err error)
	AttachSessionRef(ctx context.Context, purchaseID, sessionRef string) error
	// TransitionStatus applies from -> to only if the row is still in from.
	// applied is false when another writer got there first.
	TransitionStatus(ctx context.Context, purchaseID string, from, to models.PurchaseStatus, fields models.TransitionFields) (applied bool, err error)
	FindActivePurchase(ctx context.Context, customerID, contentID string) (*models.Purchase, error)
	FindByID(ctx context.Context, purchaseID string) (*models.Purchase, error)
	FindCompletedAccess(ctx context.Context, customerID, contentID string) (*models.Purchase, error)
	MarkRefunded(ctx context.Context, purchaseID string, refundedAt time.Time) (bool, error)
	FailStalePending(ctx context.Context, createdBefore time.Time) (int64, error)
}
