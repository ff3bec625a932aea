package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/honeynil/content-checkout/internal/models"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresContentRepository struct {
	db *sql.DB
}

func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

func (r *PostgresContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	var err error
	ctx, span, finish := instrument(ctx, "GetContentByID")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.String("content_id", id))

	query := `
			SELECT id, organization_id, title, description, price_cents, published
			FROM contents
			WHERE id = $1
`
	var content models.Content
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&content.ID,
		&content.OrganizationID,
		&content.Title,
		&content.Description,
		&content.PriceCents,
		&content.Published,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrContentNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to get content: %w", err)
		return nil, err
	}
	return &content, nil
}
