package repository

import (
	"context"

	"github.com/promoforge/coupon-service/internal/domain"
)

// CouponFilter defines filter criteria for listing coupons.
type CouponFilter struct {
	Type    *string
	Page    int
	PerPage int
}

// CouponRepository defines the interface for coupon persistence operations.
type CouponRepository interface {
	// Create inserts a new coupon into the store.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByID retrieves a coupon by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)

	// List returns coupons matching the given filter along with the total count.
	List(ctx context.Context, filter CouponFilter) ([]domain.Coupon, int, error)

	// ListAll returns the full coupon catalog in creation order. Used by
	// eligibility evaluation, which scans every coupon.
	ListAll(ctx context.Context) ([]domain.Coupon, error)

	// Update modifies an existing coupon in the store.
	Update(ctx context.Context, coupon *domain.Coupon) error

	// Delete removes a coupon by its ID.
	Delete(ctx context.Context, id string) error
}
