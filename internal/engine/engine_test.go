package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/coupon-service/internal/domain"
	apperrors "github.com/promoforge/coupon-service/pkg/errors"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewWithClock(func() time.Time { return testNow })
}

func testCart() *domain.Cart {
	return &domain.Cart{
		Items: []domain.CartItem{
			{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 6},
			{Product: domain.Product{ProductID: 2, Price: 30}, Quantity: 3},
			{Product: domain.Product{ProductID: 3, Price: 25}, Quantity: 2},
		},
		TotalPrice: 440,
	}
}

func cartWiseCoupon(threshold, discount float64) domain.Coupon {
	return domain.Coupon{
		ID:      "c1",
		Type:    domain.CouponTypeCartWise,
		Details: domain.Details{"threshold": threshold, "discount": discount},
	}
}

// ============================================================================
// ApplicableCoupons - Input Validation
// ============================================================================

func TestApplicableCoupons_NilCart(t *testing.T) {
	e := newTestEngine()
	_, err := e.ApplicableCoupons(nil, []domain.Coupon{cartWiseCoupon(100, 10)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestApplicableCoupons_EmptyCart(t *testing.T) {
	e := newTestEngine()
	_, err := e.ApplicableCoupons(&domain.Cart{}, []domain.Coupon{cartWiseCoupon(100, 10)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestApplicableCoupons_EmptyCartNoCoupons(t *testing.T) {
	e := newTestEngine()
	result, err := e.ApplicableCoupons(&domain.Cart{}, nil)
	require.NoError(t, err, "with no coupons the empty-cart check is never reached")
	assert.Empty(t, result)
}

func TestApplicableCoupons_EmptyCartAllExpired(t *testing.T) {
	past := testNow.Add(-time.Hour)
	c := cartWiseCoupon(100, 10)
	c.ExpirationDate = &past

	e := newTestEngine()
	result, err := e.ApplicableCoupons(&domain.Cart{}, []domain.Coupon{c})
	require.NoError(t, err, "expired coupons are skipped before the cart is inspected")
	assert.Empty(t, result)
}

// ============================================================================
// ApplicableCoupons - Expiration
// ============================================================================

func TestApplicableCoupons_SkipsExpired(t *testing.T) {
	past := testNow.Add(-time.Hour)
	expired := cartWiseCoupon(100, 10)
	expired.ID = "expired"
	expired.ExpirationDate = &past
	live := cartWiseCoupon(100, 10)
	live.ID = "live"

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{expired, live})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "live", result[0].ID)
}

func TestApplicableCoupons_IncludesFutureExpiration(t *testing.T) {
	future := testNow.Add(time.Hour)
	c := cartWiseCoupon(100, 10)
	c.ExpirationDate = &future

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

// ============================================================================
// ApplicableCoupons - CartWise
// ============================================================================

func TestApplicableCoupons_CartWise_BelowThreshold(t *testing.T) {
	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{cartWiseCoupon(500, 10)})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestApplicableCoupons_CartWise_AtThreshold(t *testing.T) {
	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{cartWiseCoupon(440, 10)})
	require.NoError(t, err)
	assert.Len(t, result, 1, "boundary equality counts as applicable")
}

func TestApplicableCoupons_CartWise_AboveThreshold(t *testing.T) {
	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{cartWiseCoupon(100, 10)})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestApplicableCoupons_CartWise_ThresholdAgainstDiscountedTotal(t *testing.T) {
	cart := testCart()
	cart.Items[0].TotalDiscount = 100 // derived total drops to 340

	e := newTestEngine()
	result, err := e.ApplicableCoupons(cart, []domain.Coupon{cartWiseCoupon(400, 10)})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestApplicableCoupons_CartWise_MissingThreshold(t *testing.T) {
	c := domain.Coupon{Type: domain.CouponTypeCartWise, Details: domain.Details{"discount": 10.0}}

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result, "missing threshold excludes the coupon, no error")
}

// ============================================================================
// ApplicableCoupons - ProductWise
// ============================================================================

func TestApplicableCoupons_ProductWise_Match(t *testing.T) {
	c := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 2.0, "discount": 20.0}}

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestApplicableCoupons_ProductWise_NoMatch(t *testing.T) {
	c := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 99.0, "discount": 20.0}}

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestApplicableCoupons_ProductWise_MissingKeys(t *testing.T) {
	noDiscount := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 2.0}}
	noProduct := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"discount": 20.0}}

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{noDiscount, noProduct})
	require.NoError(t, err)
	assert.Empty(t, result)
}

// ============================================================================
// ApplicableCoupons - BxGy
// ============================================================================

func bxgyCoupon(buys []any, gets []any) domain.Coupon {
	return domain.Coupon{
		ID:   "bxgy1",
		Type: domain.CouponTypeBxGy,
		Details: domain.Details{
			"buy_products": buys,
			"get_products": gets,
		},
	}
}

func TestApplicableCoupons_BxGy_AllConditionsMet(t *testing.T) {
	c := bxgyCoupon(
		[]any{
			map[string]any{"product_id": 1.0, "quantity": 3.0},
			map[string]any{"product_id": 2.0, "quantity": 3.0},
		},
		[]any{map[string]any{"product_id": 3.0, "discount": 100.0}},
	)

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestApplicableCoupons_BxGy_QuantityTooLow(t *testing.T) {
	c := bxgyCoupon(
		[]any{map[string]any{"product_id": 2.0, "quantity": 5.0}}, // cart has qty 3
		[]any{map[string]any{"product_id": 3.0, "discount": 100.0}},
	)

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestApplicableCoupons_BxGy_OneUnmetConditionFailsAll(t *testing.T) {
	c := bxgyCoupon(
		[]any{
			map[string]any{"product_id": 1.0, "quantity": 2.0},
			map[string]any{"product_id": 99.0, "quantity": 1.0},
		},
		[]any{map[string]any{"product_id": 3.0, "discount": 100.0}},
	)

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestApplicableCoupons_BxGy_MalformedBuyEntry(t *testing.T) {
	c := bxgyCoupon(
		[]any{map[string]any{"product_id": 1.0}}, // quantity missing
		[]any{map[string]any{"product_id": 3.0, "discount": 100.0}},
	)

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result)
}

// ============================================================================
// ApplicableCoupons - Ordering and Unknown Types
// ============================================================================

func TestApplicableCoupons_PreservesInputOrder(t *testing.T) {
	first := cartWiseCoupon(100, 10)
	first.ID = "first"
	second := cartWiseCoupon(200, 20)
	second.ID = "second"
	third := cartWiseCoupon(300, 30)
	third.ID = "third"

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{first, second, third})
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "first", result[0].ID)
	assert.Equal(t, "second", result[1].ID)
	assert.Equal(t, "third", result[2].ID)
}

func TestApplicableCoupons_UnknownTypeExcluded(t *testing.T) {
	c := domain.Coupon{Type: "mystery", Details: domain.Details{"threshold": 1.0}}

	e := newTestEngine()
	result, err := e.ApplicableCoupons(testCart(), []domain.Coupon{c})
	require.NoError(t, err)
	assert.Empty(t, result)
}

// ============================================================================
// Apply - Input Validation
// ============================================================================

func TestApply_NilCart(t *testing.T) {
	c := cartWiseCoupon(100, 10)

	e := newTestEngine()
	_, err := e.Apply(&c, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestApply_EmptyCart(t *testing.T) {
	c := cartWiseCoupon(100, 10)

	e := newTestEngine()
	_, err := e.Apply(&c, &domain.Cart{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// ============================================================================
// Apply - CartWise
// ============================================================================

func TestApply_CartWise(t *testing.T) {
	cart := &domain.Cart{
		Items:      []domain.CartItem{{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 2}},
		TotalPrice: 100,
	}
	c := cartWiseCoupon(50, 10)

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.TotalPrice)
	assert.Same(t, cart, updated, "the same cart is mutated and returned")
}

func TestApply_CartWise_MissingDiscount(t *testing.T) {
	cart := testCart()
	c := domain.Coupon{Type: domain.CouponTypeCartWise, Details: domain.Details{"threshold": 100.0}}

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 440.0, updated.TotalPrice, "missing discount is a no-op")
}

func TestApply_CartWise_NoExpirationRecheck(t *testing.T) {
	past := testNow.Add(-time.Hour)
	cart := testCart()
	c := cartWiseCoupon(100, 10)
	c.ExpirationDate = &past

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 396.0, updated.TotalPrice, "apply trusts the caller's pre-filtering")
}

// ============================================================================
// Apply - ProductWise
// ============================================================================

func TestApply_ProductWise(t *testing.T) {
	cart := &domain.Cart{
		Items:      []domain.CartItem{{Product: domain.Product{ProductID: 7, Price: 20}, Quantity: 3}},
		TotalPrice: 60,
	}
	c := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 7.0, "discount": 50.0}}

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Items[0].TotalDiscount)
	assert.Equal(t, 30.0, updated.TotalPrice)
}

func TestApply_ProductWise_NoMatchingItem(t *testing.T) {
	cart := testCart()
	c := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 99.0, "discount": 50.0}}

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 440.0, updated.TotalPrice)
	for _, item := range updated.Items {
		assert.Zero(t, item.TotalDiscount)
	}
}

func TestApply_ProductWise_OverwritesLineDiscount(t *testing.T) {
	cart := &domain.Cart{
		Items:      []domain.CartItem{{Product: domain.Product{ProductID: 7, Price: 20}, Quantity: 3}},
		TotalPrice: 60,
	}
	c := domain.Coupon{Type: domain.CouponTypeProductWise, Details: domain.Details{"product_id": 7.0, "discount": 50.0}}

	e := newTestEngine()
	_, err := e.Apply(&c, cart)
	require.NoError(t, err)
	_, err = e.Apply(&c, cart)
	require.NoError(t, err)

	assert.Equal(t, 30.0, cart.Items[0].TotalDiscount, "line discount is overwritten, not summed")
	assert.Equal(t, 0.0, cart.TotalPrice, "cart total keeps decreasing across applications")
}

// ============================================================================
// Apply - BxGy
// ============================================================================

func TestApply_BxGy(t *testing.T) {
	cart := &domain.Cart{
		Items: []domain.CartItem{
			{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 2},
			{Product: domain.Product{ProductID: 2, Price: 10}, Quantity: 1},
		},
		TotalPrice: 110,
	}
	c := bxgyCoupon(
		[]any{map[string]any{"product_id": 1.0, "quantity": 2.0}},
		[]any{map[string]any{"product_id": 2.0, "discount": 100.0}},
	)

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.Items[1].TotalDiscount)
	assert.Equal(t, 100.0, updated.TotalPrice)
}

func TestApply_BxGy_BuyConditionNotMet(t *testing.T) {
	cart := &domain.Cart{
		Items: []domain.CartItem{
			{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 1},
			{Product: domain.Product{ProductID: 2, Price: 10}, Quantity: 1},
		},
		TotalPrice: 60,
	}
	c := bxgyCoupon(
		[]any{map[string]any{"product_id": 1.0, "quantity": 2.0}},
		[]any{map[string]any{"product_id": 2.0, "discount": 100.0}},
	)

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.TotalPrice, "unmet buy condition makes the whole application a no-op")
	assert.Zero(t, updated.Items[1].TotalDiscount)
}

func TestApply_BxGy_GetProductAbsentSkipped(t *testing.T) {
	cart := &domain.Cart{
		Items: []domain.CartItem{
			{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 2},
			{Product: domain.Product{ProductID: 2, Price: 10}, Quantity: 1},
		},
		TotalPrice: 110,
	}
	c := bxgyCoupon(
		[]any{map[string]any{"product_id": 1.0, "quantity": 2.0}},
		[]any{
			map[string]any{"product_id": 2.0, "discount": 100.0},
			map[string]any{"product_id": 99.0, "discount": 100.0},
		},
	)

	e := newTestEngine()
	updated, err := e.Apply(&c, cart)
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.Items[1].TotalDiscount)
	assert.Equal(t, 100.0, updated.TotalPrice, "the absent get-product is skipped")
}

// ============================================================================
// End-to-End Examples
// ============================================================================

func TestEndToEnd_CartWise(t *testing.T) {
	cart := &domain.Cart{
		Items:      []domain.CartItem{{Product: domain.Product{ProductID: 1, Price: 50}, Quantity: 2}},
		TotalPrice: 100,
	}
	c := cartWiseCoupon(50, 10)

	e := newTestEngine()
	applicable, err := e.ApplicableCoupons(cart, []domain.Coupon{c})
	require.NoError(t, err)
	require.Len(t, applicable, 1)

	updated, err := e.Apply(&applicable[0], cart)
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.TotalPrice)
}
