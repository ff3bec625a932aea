package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/honeynil/content-checkout/internal/repository/postgres"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresContentRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresContentRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`FROM contents`)
	cols := []string{"id", "organization_id", "title", "description", "price_cents", "published"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("c1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "org1", "Go course", "", int64(999), true))

		content, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, int64(999), content.PriceCents)
		assert.True(t, content.Published)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing").WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, pkgerrors.ErrContentNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("c1").WillReturnError(fmt.Errorf("connection reset"))

		_, err := repo.GetByID(ctx, "c1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get content")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
