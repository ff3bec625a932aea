package errors

import (
	"errors"
)

var (
	ErrContentUnavailable    = errors.New("content unavailable")
	ErrContentNotFound       = errors.New("content not found")
	ErrDuplicatePurchase     = errors.New("active purchase already exists")
	ErrSessionCreationFailed = errors.New("checkout session creation failed")
	ErrMalformedEvent        = errors.New("malformed payment event")
	ErrUnknownPurchase       = errors.New("event references unknown purchase")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidTransition     = errors.New("invalid purchase status transition")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrConflict              = errors.New("unique constraint conflict")
	ErrPaymentRefConflict    = errors.New("payment reference belongs to another purchase")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
)

var nonRetryable = []error{
	ErrContentUnavailable,
	ErrContentNotFound,
	ErrDuplicatePurchase,
	ErrMalformedEvent,
	ErrUnknownPurchase,
	ErrInvalidSignature,
	ErrInvalidTransition,
	ErrPaymentRefConflict,
	ErrPurchaseNotFound,
	ErrInvalidInput,
	ErrUnauthorized,
}

// IsRetryable reports whether err is a transient fault worth redelivering.
// Anything outside the known domain taxonomy (driver, network, timeouts) is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range nonRetryable {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}
