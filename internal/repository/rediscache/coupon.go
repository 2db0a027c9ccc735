// Package rediscache decorates a CouponRepository with a Redis read-through
// cache for single-coupon lookups. Cache failures degrade to the underlying
// store and are logged, never surfaced.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promoforge/coupon-service/internal/domain"
	"github.com/promoforge/coupon-service/internal/repository"
)

const keyPrefix = "coupon:"

// CouponRepository wraps an inner repository.CouponRepository, caching
// GetByID results with a TTL and invalidating on Update/Delete.
type CouponRepository struct {
	inner  repository.CouponRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCouponRepository creates a caching decorator around inner.
func NewCouponRepository(inner repository.CouponRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CouponRepository {
	return &CouponRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Create passes through to the underlying store.
func (r *CouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	return r.inner.Create(ctx, coupon)
}

// GetByID returns the cached coupon if present, otherwise reads through to
// the underlying store and populates the cache.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	key := keyPrefix + id

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var coupon domain.Coupon
		if err := json.Unmarshal(data, &coupon); err == nil {
			return &coupon, nil
		}
		// A corrupt entry falls through to the store and gets rewritten.
		r.logger.WarnContext(ctx, "corrupt coupon cache entry",
			slog.String("coupon_id", id),
		)
	} else if err != redis.Nil {
		r.logger.WarnContext(ctx, "coupon cache read failed",
			slog.String("coupon_id", id),
			slog.String("error", err.Error()),
		)
	}

	coupon, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(coupon); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.WarnContext(ctx, "coupon cache write failed",
				slog.String("coupon_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return coupon, nil
}

// List passes through to the underlying store; list results are not cached.
func (r *CouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	return r.inner.List(ctx, filter)
}

// ListAll passes through to the underlying store. The evaluator always sees
// the live catalog.
func (r *CouponRepository) ListAll(ctx context.Context) ([]domain.Coupon, error) {
	return r.inner.ListAll(ctx)
}

// Update writes through to the underlying store and invalidates the cached
// entry.
func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	if err := r.inner.Update(ctx, coupon); err != nil {
		return err
	}
	return r.invalidate(ctx, coupon.ID)
}

// Delete removes the coupon from the underlying store and invalidates the
// cached entry.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	return r.invalidate(ctx, id)
}

// invalidate drops the cached entry. A failed invalidation is an error: a
// stale coupon serving discounts is worse than a failed write.
func (r *CouponRepository) invalidate(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("invalidate coupon cache: %w", err)
	}
	return nil
}
