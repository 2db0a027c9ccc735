// Package engine implements the coupon rule engine: eligibility evaluation
// of a coupon catalog against a cart, and application of a single coupon's
// discount to a cart.
//
// The engine is stateless per call and performs no I/O. The cart passed in is
// owned by the caller for the duration of the call and is mutated in place by
// Apply. Coupons whose details are missing the keys their type requires are
// silently skipped, never rejected.
package engine

import (
	"time"

	"github.com/promoforge/coupon-service/internal/domain"
	apperrors "github.com/promoforge/coupon-service/pkg/errors"
)

// Engine evaluates and applies coupons. The clock is injectable so test code
// can pin "now" for expiration checks.
type Engine struct {
	now func() time.Time
}

// New creates an engine on the wall clock.
func New() *Engine {
	return NewWithClock(time.Now)
}

// NewWithClock creates an engine with an explicit clock.
func NewWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// ApplicableCoupons returns the subset of coupons whose conditions the cart
// satisfies, preserving the input order. Expired coupons are skipped against
// the engine's clock before anything else is checked, so an empty coupon list
// (or one that is entirely expired) returns an empty result even for a cart
// with no items; the empty-cart error is raised only when a live coupon is
// actually examined.
func (e *Engine) ApplicableCoupons(cart *domain.Cart, coupons []domain.Coupon) ([]domain.Coupon, error) {
	if cart == nil {
		return nil, apperrors.InvalidInput("cart is required")
	}

	now := e.now()
	applicable := make([]domain.Coupon, 0, len(coupons))
	for _, coupon := range coupons {
		if coupon.Expired(now) {
			continue
		}
		if len(cart.Items) == 0 {
			return nil, apperrors.InvalidInput("cart has no items")
		}
		if matches(&coupon, cart) {
			applicable = append(applicable, coupon)
		}
	}
	return applicable, nil
}

// matches dispatches on the coupon type. Unknown types never match.
func matches(coupon *domain.Coupon, cart *domain.Cart) bool {
	switch coupon.Type {
	case domain.CouponTypeCartWise:
		return matchesCartWise(coupon.Details, cart)
	case domain.CouponTypeProductWise:
		return matchesProductWise(coupon.Details, cart)
	case domain.CouponTypeBxGy:
		return matchesBxGy(coupon.Details, cart)
	default:
		return false
	}
}

func matchesCartWise(details domain.Details, cart *domain.Cart) bool {
	threshold, ok := details.Threshold()
	if !ok {
		return false
	}
	return cart.TotalAmount() >= threshold
}

func matchesProductWise(details domain.Details, cart *domain.Cart) bool {
	productID, ok := details.TargetProductID()
	if !ok {
		return false
	}
	if _, ok := details.Discount(); !ok {
		return false
	}
	return cart.FindItemIndex(productID) >= 0
}

func matchesBxGy(details domain.Details, cart *domain.Cart) bool {
	buys, ok := details.BuyConditions()
	if !ok {
		return false
	}
	if _, ok := details.GetEffects(); !ok {
		return false
	}
	return buyConditionsMet(cart, buys)
}

// buyConditionsMet reports whether every buy condition is satisfied by some
// cart line with at least the required quantity. The first satisfying line
// short-circuits its condition; one unmet condition fails the whole set.
func buyConditionsMet(cart *domain.Cart, buys []domain.BuyCondition) bool {
	for _, buy := range buys {
		met := false
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.Product.ProductID == buy.ProductID && item.Quantity >= buy.Quantity {
				met = true
				break
			}
		}
		if !met {
			return false
		}
	}
	return true
}

// Apply computes the coupon's discount and commits it into the cart, mutating
// and returning the same cart.
//
// Expiration is deliberately NOT re-checked here: callers are expected to
// apply a coupon they selected from ApplicableCoupons. Missing detail keys
// and unmatched products make the application a no-op, not an error.
//
// Line discounts are overwritten per call, not accumulated: applying the same
// product-targeting coupon twice leaves the line's TotalDiscount at a single
// application's value, while TotalPrice keeps decreasing.
func (e *Engine) Apply(coupon *domain.Coupon, cart *domain.Cart) (*domain.Cart, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart has no items")
	}

	switch coupon.Type {
	case domain.CouponTypeCartWise:
		applyCartWise(coupon.Details, cart)
	case domain.CouponTypeProductWise:
		applyProductWise(coupon.Details, cart)
	case domain.CouponTypeBxGy:
		applyBxGy(coupon.Details, cart)
	}
	return cart, nil
}

func applyCartWise(details domain.Details, cart *domain.Cart) {
	discount, ok := details.Discount()
	if !ok {
		return
	}
	totalDiscount := cart.TotalPrice * discount / 100
	cart.TotalPrice -= totalDiscount
}

func applyProductWise(details domain.Details, cart *domain.Cart) {
	productID, ok := details.TargetProductID()
	if !ok {
		return
	}
	discount, ok := details.Discount()
	if !ok {
		return
	}
	discountLine(cart, productID, discount)
}

func applyBxGy(details domain.Details, cart *domain.Cart) {
	buys, ok := details.BuyConditions()
	if !ok {
		return
	}
	gets, ok := details.GetEffects()
	if !ok {
		return
	}
	if !buyConditionsMet(cart, buys) {
		return
	}
	for _, get := range gets {
		discountLine(cart, get.ProductID, get.Discount)
	}
}

// discountLine applies a percentage discount to the first cart line matching
// productID: the line's TotalDiscount is overwritten with the computed amount
// and the cart total is reduced by it. No matching line means no change.
func discountLine(cart *domain.Cart, productID int64, discount float64) {
	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return
	}
	item := &cart.Items[idx]
	itemDiscount := float64(item.Quantity) * discount / 100 * item.Product.Price
	item.TotalDiscount = itemDiscount
	cart.TotalPrice -= itemDiscount
}
