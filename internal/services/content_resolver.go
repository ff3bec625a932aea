package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/honeynil/content-checkout/internal/infrastructure/redis"
	"github.com/honeynil/content-checkout/internal/models"
	"github.com/honeynil/content-checkout/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=content_resolver.go -destination=mocks/mock_content_resolver.go -package=mocks

type ContentResolver interface {
	Resolve(ctx context.Context, contentID string) (*models.Content, error)
	Invalidate(ctx context.Context, contentID string) error
}

// CachedContentResolver is read-through: Redis first, catalog on miss. The cache is
// advisory, its failures never fail a lookup.
type CachedContentResolver struct {
	repo  repository.ContentRepository
	cache redis.RedisClient
	ttl   time.Duration
}

func NewContentResolver(repo repository.ContentRepository, cache redis.RedisClient, ttl time.Duration) *CachedContentResolver {
	return &CachedContentResolver{repo: repo, cache: cache, ttl: ttl}
}

func (r *CachedContentResolver) Resolve(ctx context.Context, contentID string) (*models.Content, error) {
	tracer := otel.Tracer("content-resolver")
	ctx, span := tracer.Start(ctx, "ResolveContent")
	defer span.End()
	span.SetAttributes(attribute.String("content_id", contentID))

	key := redis.ContentKey(contentID)
	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var content models.Content
		if err := json.Unmarshal([]byte(cached), &content); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return &content, nil
		}
		slog.Warn("dropping corrupt content cache entry", "content_id", contentID)
		if err := r.cache.Del(ctx, key); err != nil {
			slog.Warn("failed to drop content cache entry", "content_id", contentID, "error", err)
		}
	case !stderrors.Is(err, redis.ErrKeyNotFound):
		span.RecordError(err)
		slog.Warn("content cache unavailable", "content_id", contentID, "error", err)
	}

	content, err := r.repo.GetByID(ctx, contentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "content lookup failed")
		return nil, err
	}

	if data, err := json.Marshal(content); err == nil {
		if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
			slog.Warn("failed to cache content", "content_id", contentID, "error", err)
		}
	}
	return content, nil
}

func (r *CachedContentResolver) Invalidate(ctx context.Context, contentID string) error {
	if err := r.cache.Del(ctx, redis.ContentKey(contentID)); err != nil {
		return fmt.Errorf("failed to invalidate content %s: %w", contentID, err)
	}
	return nil
}
