package repository

import (
	"context"

	"github.com/honeynil/content-checkout/internal/models"
)

//go:generate mockgen -source=content_repository.go -destination=mocks/mock_content_repository.go -package=mocks

type ContentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Content, error)
}
