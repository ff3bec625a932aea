package service

import (
	"fmt"

	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
)

// Status only moves forward: pending -> completed | failed. Both targets are terminal.
var allowedTransitions = map[models.PurchaseStatus][]models.PurchaseStatus{
	models.StatusPending: {models.StatusCompleted, models.StatusFailed},
}

func canTransition(from, to models.PurchaseStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateTransition(from, to models.PurchaseStatus) error {
	if !from.Valid() || !to.Valid() || !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", pkgerrors.ErrInvalidTransition, from, to)
	}
	return nil
}

// canRefund: refundedAt is a side channel on completed purchases and is written once.
func canRefund(p *models.Purchase) bool {
	return p != nil && p.Status == models.StatusCompleted && p.RefundedAt == nil
}
