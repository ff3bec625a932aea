package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically fails pending purchases that never heard back from the processor,
// freeing the (customer, content) slot for a new checkout.
type Sweeper struct {
	purchases PurchaseService
	maxAge    time.Duration
	interval  time.Duration
}

func NewSweeper(purchases PurchaseService, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{purchases: purchases, maxAge: maxAge, interval: interval}
}

func (s *Sweeper) Enabled() bool {
	return s.maxAge > 0 && s.interval > 0
}

// Run blocks until ctx is done. A disabled sweeper returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.Enabled() {
		slog.Info("stale pending sweeper disabled")
		return
	}
	slog.Info("stale pending sweeper started", "max_age", s.maxAge, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stale pending sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	n, err := s.purchases.ExpireStalePending(ctx, s.maxAge)
	if err != nil {
		slog.Error("stale pending sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("stale pending purchases expired", "count", n, "max_age", s.maxAge)
	}
}
