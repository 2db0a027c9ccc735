package domain

import (
	"time"
)

// Coupon type constants.
const (
	CouponTypeCartWise    = "cart_wise"
	CouponTypeProductWise = "product_wise"
	CouponTypeBxGy        = "bxgy"
)

// Coupon is a typed discount rule with an optional expiration and a
// type-specific parameter payload.
//
// Details is an open mapping whose required keys depend on Type; it is not
// structurally validated at creation time. A coupon whose details are missing
// required keys is silently skipped during evaluation and application rather
// than rejected.
type Coupon struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Details        Details    `json:"details"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Expired reports whether the coupon's expiration date is strictly before now.
// A coupon without an expiration date never expires.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}

// ValidTypes returns the set of valid coupon types.
func ValidTypes() []string {
	return []string{
		CouponTypeCartWise,
		CouponTypeProductWise,
		CouponTypeBxGy,
	}
}

// IsValidType checks whether the given type string is a valid coupon type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes() {
		if v == t {
			return true
		}
	}
	return false
}
