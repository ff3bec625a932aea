package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/honeynil/content-checkout/internal/infrastructure/observability"
	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

const purchaseColumns = `id, customer_id, content_id, organization_id, price_paid, status, session_ref, payment_ref, purchased_at, refunded_at, created_at, updated_at`

type PostgresPurchaseRepository struct {
	db *sql.DB
}

func NewPostgresPurchaseRepository(db *sql.DB) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

// instrument opens a span and returns a finisher recording metrics and span status.
func instrument(ctx context.Context, method string) (context.Context, trace.Span, func(error)) {
	ctx, span := otel.Tracer("purchase-repository").Start(ctx, method)
	start := time.Now()
	return ctx, span, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues(method, status).Inc()
		observability.RepositoryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		span.End()
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *PostgresPurchaseRepository) InsertPending(ctx context.Context, customerID, contentID, organizationID string, price int64) (*models.Purchase, error) {
	var err error
	ctx, span, finish := instrument(ctx, "InsertPendingPurchase")
	defer func() { finish(err) }()

	if price < 0 {
		err = fmt.Errorf("%w: price must be non-negative", pkgerrors.ErrInvalidInput)
		return nil, err
	}

	p := &models.Purchase{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		ContentID:      contentID,
		OrganizationID: organizationID,
		PricePaid:      price,
		Status:         models.StatusPending,
	}
	span.SetAttributes(
		attribute.String("purchase_id", p.ID),
		attribute.String("customer_id", customerID),
		attribute.String("content_id", contentID),
		attribute.Int64("price", price),
	)

	query := `INSERT INTO purchases (id, customer_id, content_id, organization_id, price_paid, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, p.ID, customerID, contentID, organizationID, price, models.StatusPending).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			slog.Warn("active purchase already exists", "method", "InsertPending", "customer_id", customerID, "content_id", contentID)
			err = fmt.Errorf("insert pending purchase: %w", pkgerrors.ErrConflict)
			return nil, err
		}
		slog.Error("failed to insert pending purchase", "method", "InsertPending", "customer_id", customerID, "content_id", contentID, "error", err)
		err = fmt.Errorf("failed to insert pending purchase: %w", err)
		return nil, err
	}

	slog.Info("pending purchase created", "method", "InsertPending", "purchase_id", p.ID, "customer_id", customerID, "content_id", contentID, "price", price)
	return p, nil
}

func (r *PostgresPurchaseRepository) InsertCompleted(ctx context.Context, customerID, contentID, organizationID string, price int64, purchasedAt time.Time) (*models.Purchase, bool, error) {
	var err error
	ctx, span, finish := instrument(ctx, "InsertCompletedPurchase")
	defer func() { finish(err) }()

	p := &models.Purchase{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		ContentID:      contentID,
		OrganizationID: organizationID,
		PricePaid:      price,
		Status:         models.StatusCompleted,
		PurchasedAt:    &purchasedAt,
	}
	span.SetAttributes(attribute.String("customer_id", customerID), attribute.String("content_id", contentID))

	query := `INSERT INTO purchases (id, customer_id, content_id, organization_id, price_paid, status, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (customer_id, content_id) WHERE status IN ('pending', 'completed') DO NOTHING
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, p.ID, customerID, contentID, organizationID, price, models.StatusCompleted, purchasedAt).Scan(&p.CreatedAt, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = nil
		existing, findErr := r.FindActivePurchase(ctx, customerID, contentID)
		if findErr != nil {
			err = findErr
			return nil, false, err
		}
		slog.Info("active purchase already exists, grant skipped", "method", "InsertCompleted", "customer_id", customerID, "content_id", contentID)
		return existing, false, nil
	}
	if err != nil {
		slog.Error("failed to insert completed purchase", "method", "InsertCompleted", "customer_id", customerID, "content_id", contentID, "error", err)
		err = fmt.Errorf("failed to insert completed purchase: %w", err)
		return nil, false, err
	}

	slog.Info("completed purchase created", "method", "InsertCompleted", "purchase_id", p.ID, "customer_id", customerID, "content_id", contentID)
	return p, true, nil
}

func (r *PostgresPurchaseRepository) AttachSessionRef(ctx context.Context, purchaseID, sessionRef string) error {
	var err error
	ctx, span, finish := instrument(ctx, "AttachSessionRef")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.String("purchase_id", purchaseID), attribute.String("session_ref", sessionRef))

	query := `UPDATE purchases SET session_ref = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, purchaseID, sessionRef)
	if err != nil {
		slog.Error("failed to attach session ref", "method", "AttachSessionRef", "purchase_id", purchaseID, "error", err)
		err = fmt.Errorf("failed to attach session ref: %w", err)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to attach session ref: %w", err)
		return err
	}
	if rows == 0 {
		err = pkgerrors.ErrPurchaseNotFound
		return err
	}
	return nil
}

func (r *PostgresPurchaseRepository) TransitionStatus(ctx context.Context, purchaseID string, from, to models.PurchaseStatus, fields models.TransitionFields) (bool, error) {
	var err error
	ctx, span, finish := instrument(ctx, "TransitionPurchaseStatus")
	defer func() { finish(err) }()
	span.SetAttributes(
		attribute.String("purchase_id", purchaseID),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	var paymentRef sql.NullString
	if fields.PaymentRef != nil {
		paymentRef = sql.NullString{String: *fields.PaymentRef, Valid: true}
	}
	var purchasedAt sql.NullTime
	if fields.PurchasedAt != nil {
		purchasedAt = sql.NullTime{Time: *fields.PurchasedAt, Valid: true}
	}

	query := `UPDATE purchases
		SET status = $3, payment_ref = COALESCE($4, payment_ref), purchased_at = COALESCE($5, purchased_at), updated_at = NOW()
		WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, purchaseID, from, to, paymentRef, purchasedAt)
	if err != nil {
		if isUniqueViolation(err) {
			slog.Warn("payment reference already recorded", "method", "TransitionStatus", "purchase_id", purchaseID, "payment_ref", paymentRef.String)
			err = fmt.Errorf("transition purchase status: %w", pkgerrors.ErrConflict)
			return false, err
		}
		slog.Error("failed to transition purchase status", "method", "TransitionStatus", "purchase_id", purchaseID, "from", from, "to", to, "error", err)
		err = fmt.Errorf("failed to transition purchase status: %w", err)
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to transition purchase status: %w", err)
		return false, err
	}

	applied := rows > 0
	slog.Info("purchase status transition", "method", "TransitionStatus", "purchase_id", purchaseID, "from", from, "to", to, "applied", applied)
	return applied, nil
}

func (r *PostgresPurchaseRepository) FindActivePurchase(ctx context.Context, customerID, contentID string) (*models.Purchase, error) {
	var err error
	ctx, _, finish := instrument(ctx, "FindActivePurchase")
	defer func() { finish(err) }()

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE customer_id = $1 AND content_id = $2 AND status IN ('pending', 'completed') LIMIT 1`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, customerID, contentID))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		slog.Error("failed to find active purchase", "method", "FindActivePurchase", "customer_id", customerID, "content_id", contentID, "error", err)
		err = fmt.Errorf("failed to find active purchase: %w", err)
		return nil, err
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) FindByID(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	var err error
	ctx, span, finish := instrument(ctx, "GetPurchaseByID")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.String("purchase_id", purchaseID))

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, purchaseID))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("purchase not found", "method", "FindByID", "purchase_id", purchaseID)
		err = pkgerrors.ErrPurchaseNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get purchase by id", "method", "FindByID", "purchase_id", purchaseID, "error", err)
		err = fmt.Errorf("failed to get purchase by id: %w", err)
		return nil, err
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) FindCompletedAccess(ctx context.Context, customerID, contentID string) (*models.Purchase, error) {
	var err error
	ctx, _, finish := instrument(ctx, "FindCompletedAccess")
	defer func() { finish(err) }()

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE customer_id = $1 AND content_id = $2 AND status = 'completed' AND refunded_at IS NULL LIMIT 1`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, customerID, contentID))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to find completed purchase: %w", err)
		return nil, err
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) MarkRefunded(ctx context.Context, purchaseID string, refundedAt time.Time) (bool, error) {
	var err error
	ctx, _, finish := instrument(ctx, "MarkPurchaseRefunded")
	defer func() { finish(err) }()

	query := `UPDATE purchases SET refunded_at = $2, updated_at = NOW() WHERE id = $1 AND status = 'completed' AND refunded_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, purchaseID, refundedAt)
	if err != nil {
		err = fmt.Errorf("failed to mark purchase refunded: %w", err)
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to mark purchase refunded: %w", err)
		return false, err
	}
	return rows > 0, nil
}

func (r *PostgresPurchaseRepository) FailStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	var err error
	ctx, _, finish := instrument(ctx, "FailStalePending")
	defer func() { finish(err) }()

	query := `UPDATE purchases SET status = 'failed', updated_at = NOW() WHERE status = 'pending' AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, createdBefore)
	if err != nil {
		err = fmt.Errorf("failed to expire stale pending purchases: %w", err)
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to expire stale pending purchases: %w", err)
		return 0, err
	}
	if rows > 0 {
		slog.Info("stale pending purchases failed", "method", "FailStalePending", "count", rows, "created_before", createdBefore)
	}
	return rows, nil
}

func scanPurchase(row *sql.Row) (*models.Purchase, error) {
	var (
		p           models.Purchase
		sessionRef  sql.NullString
		paymentRef  sql.NullString
		purchasedAt sql.NullTime
		refundedAt  sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&p.CustomerID,
		&p.ContentID,
		&p.OrganizationID,
		&p.PricePaid,
		&p.Status,
		&sessionRef,
		&paymentRef,
		&purchasedAt,
		&refundedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sessionRef.Valid {
		p.SessionRef = &sessionRef.String
	}
	if paymentRef.Valid {
		p.PaymentRef = &paymentRef.String
	}
	if purchasedAt.Valid {
		p.PurchasedAt = &purchasedAt.Time
	}
	if refundedAt.Valid {
		p.RefundedAt = &refundedAt.Time
	}
	return &p, nil
}
