package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promoforge/coupon-service/internal/domain"
	"github.com/promoforge/coupon-service/internal/engine"
	"github.com/promoforge/coupon-service/internal/event"
	"github.com/promoforge/coupon-service/internal/repository"
	apperrors "github.com/promoforge/coupon-service/pkg/errors"
)

// CouponService implements the business logic for coupon catalog management
// and coupon evaluation/application against carts.
type CouponService struct {
	repo     repository.CouponRepository
	engine   *engine.Engine
	producer *event.Producer
	logger   *slog.Logger
}

// NewCouponService creates a new coupon service. The engine carries the
// clock used for expiration checks, so tests inject a pinned-clock engine.
func NewCouponService(repo repository.CouponRepository, eng *engine.Engine, producer *event.Producer, logger *slog.Logger) *CouponService {
	return &CouponService{
		repo:     repo,
		engine:   eng,
		producer: producer,
		logger:   logger,
	}
}

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Type           string
	Details        domain.Details
	ExpirationDate *time.Time
}

// UpdateCouponInput holds the parameters for updating a coupon. Nil fields
// are left unchanged.
type UpdateCouponInput struct {
	Type           *string
	Details        domain.Details
	ExpirationDate *time.Time
}

// CreateCoupon creates a new coupon with the given input. The details
// payload is stored as-is; its keys are interpreted only at evaluation and
// application time.
func (s *CouponService) CreateCoupon(ctx context.Context, input *CreateCouponInput) (*domain.Coupon, error) {
	if !domain.IsValidType(input.Type) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid coupon type %q, must be one of: %s", input.Type, strings.Join(domain.ValidTypes(), ", ")))
	}

	details := input.Details
	if details == nil {
		details = domain.Details{}
	}

	now := time.Now().UTC()
	coupon := &domain.Coupon{
		ID:             uuid.New().String(),
		Type:           input.Type,
		Details:        details,
		ExpirationDate: input.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	if err := s.producer.PublishCouponCreated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.created event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("coupon_type", coupon.Type),
	)

	return coupon, nil
}

// GetCoupon retrieves a coupon by its ID.
func (s *CouponService) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon by id: %w", err)
	}
	return coupon, nil
}

// ListCoupons returns a filtered, paginated list of coupons.
func (s *CouponService) ListCoupons(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	coupons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}

	return coupons, total, nil
}

// UpdateCoupon applies partial updates to an existing coupon.
func (s *CouponService) UpdateCoupon(ctx context.Context, id string, input *UpdateCouponInput) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}

	if input.Type != nil {
		if !domain.IsValidType(*input.Type) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid coupon type %q, must be one of: %s", *input.Type, strings.Join(domain.ValidTypes(), ", ")))
		}
		coupon.Type = *input.Type
	}

	if input.Details != nil {
		coupon.Details = input.Details
	}

	if input.ExpirationDate != nil {
		coupon.ExpirationDate = input.ExpirationDate
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	if err := s.producer.PublishCouponUpdated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.updated event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon updated",
		slog.String("coupon_id", coupon.ID),
	)

	return coupon, nil
}

// DeleteCoupon removes a coupon from the catalog.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	if err := s.producer.PublishCouponDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.deleted event",
			slog.String("coupon_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon deleted",
		slog.String("coupon_id", id),
	)

	return nil
}

// ApplicableCoupons evaluates the full catalog against the cart and returns
// the coupons whose conditions it satisfies, in catalog order.
func (s *CouponService) ApplicableCoupons(ctx context.Context, cart *domain.Cart) ([]domain.Coupon, error) {
	coupons, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons for evaluation: %w", err)
	}

	applicable, err := s.engine.ApplicableCoupons(cart, coupons)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "evaluated applicable coupons",
		slog.Int("catalog_size", len(coupons)),
		slog.Int("applicable", len(applicable)),
	)

	return applicable, nil
}

// ApplyCoupon looks up the coupon and applies its discount to the cart,
// returning the updated cart. An unknown id yields a not-found error before
// the cart is inspected.
func (s *CouponService) ApplyCoupon(ctx context.Context, id string, cart *domain.Cart) (*domain.Cart, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon for apply: %w", err)
	}

	updated, err := s.engine.Apply(coupon, cart)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishCouponApplied(ctx, coupon, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.applied event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon applied",
		slog.String("coupon_id", coupon.ID),
		slog.String("coupon_type", coupon.Type),
		slog.Float64("total_price", updated.TotalPrice),
	)

	return updated, nil
}
