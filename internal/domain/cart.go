package domain

// Product is immutable catalog reference data attached to a cart line.
type Product struct {
	ProductID int64   `json:"product_id"`
	Price     float64 `json:"price"`
}

// CartItem is a single line of a cart. TotalDiscount is the discount applied
// to this line by coupon application; it is overwritten, not accumulated,
// each time a coupon touches the line.
type CartItem struct {
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity"`
	TotalDiscount float64 `json:"total_discount"`
}

// Cart is an ordered sequence of line items plus a running payable total.
//
// TotalPrice is maintained by coupon application and is deliberately NOT
// recomputed from the items: callers that need the pre-discount total must
// capture it before applying a coupon. The derived TotalAmount is independent
// bookkeeping and is not guaranteed to equal TotalPrice.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
}

// TotalAmount returns the derived cart total: the sum over all items of
// price*quantity minus the discount already applied to each line.
func (c *Cart) TotalAmount() float64 {
	var total float64
	for i := range c.Items {
		item := &c.Items[i]
		total += item.Product.Price*float64(item.Quantity) - item.TotalDiscount
	}
	return total
}

// FindItemIndex returns the index of the first cart item whose product ID
// matches, or -1 if no line matches. First match wins so results are stable
// for a given item order.
func (c *Cart) FindItemIndex(productID int64) int {
	for i := range c.Items {
		if c.Items[i].Product.ProductID == productID {
			return i
		}
	}
	return -1
}
