package domain

import "encoding/json"

// Details is the open, schema-less parameter payload of a coupon. It is
// persisted as a JSON document and read back as an untyped mapping, so
// numeric values may arrive as float64, integer, or json.Number depending on
// how the payload was produced.
//
// The accessors below are the validating parse step for the payload: each
// returns ok=false when the key is absent or of the wrong shape, and callers
// treat that as "this coupon does not participate", never as an error.
type Details map[string]any

// Detail keys per coupon type.
const (
	detailThreshold   = "threshold"
	detailDiscount    = "discount"
	detailProductID   = "product_id"
	detailQuantity    = "quantity"
	detailBuyProducts = "buy_products"
	detailGetProducts = "get_products"
)

// Number returns the value under key coerced to float64.
func (d Details) Number(key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return numberValue(v)
}

// Threshold returns the cart_wise minimum cart total.
func (d Details) Threshold() (float64, bool) {
	return d.Number(detailThreshold)
}

// Discount returns the percentage discount of a cart_wise or product_wise
// coupon.
func (d Details) Discount() (float64, bool) {
	return d.Number(detailDiscount)
}

// TargetProductID returns the product a product_wise coupon applies to.
func (d Details) TargetProductID() (int64, bool) {
	n, ok := d.Number(detailProductID)
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// BuyCondition is one entry of a bxgy coupon's buy_products list: the cart
// must contain the product with at least the given quantity.
type BuyCondition struct {
	ProductID int64
	Quantity  int
}

// GetEffect is one entry of a bxgy coupon's get_products list: the matching
// cart line receives the given percentage discount.
type GetEffect struct {
	ProductID int64
	Discount  float64
}

// BuyConditions parses the buy_products list. Any malformed entry fails the
// whole parse.
func (d Details) BuyConditions() ([]BuyCondition, bool) {
	entries, ok := d.objects(detailBuyProducts)
	if !ok {
		return nil, false
	}

	conditions := make([]BuyCondition, 0, len(entries))
	for _, entry := range entries {
		productID, ok := entry.Number(detailProductID)
		if !ok {
			return nil, false
		}
		quantity, ok := entry.Number(detailQuantity)
		if !ok {
			return nil, false
		}
		conditions = append(conditions, BuyCondition{
			ProductID: int64(productID),
			Quantity:  int(quantity),
		})
	}
	return conditions, true
}

// GetEffects parses the get_products list. Any malformed entry fails the
// whole parse.
func (d Details) GetEffects() ([]GetEffect, bool) {
	entries, ok := d.objects(detailGetProducts)
	if !ok {
		return nil, false
	}

	effects := make([]GetEffect, 0, len(entries))
	for _, entry := range entries {
		productID, ok := entry.Number(detailProductID)
		if !ok {
			return nil, false
		}
		discount, ok := entry.Number(detailDiscount)
		if !ok {
			return nil, false
		}
		effects = append(effects, GetEffect{
			ProductID: int64(productID),
			Discount:  discount,
		})
	}
	return effects, true
}

// objects returns the value under key as a list of nested mappings.
func (d Details) objects(key string) ([]Details, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}

	switch list := v.(type) {
	case []Details:
		return list, true
	case []map[string]any:
		out := make([]Details, len(list))
		for i, m := range list {
			out[i] = Details(m)
		}
		return out, true
	case []any:
		out := make([]Details, 0, len(list))
		for _, el := range list {
			switch m := el.(type) {
			case map[string]any:
				out = append(out, Details(m))
			case Details:
				out = append(out, m)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// numberValue coerces the dynamic JSON value shapes a details payload can
// carry into float64.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
