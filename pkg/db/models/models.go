package models

// All lists every table owned or touched by the checkout core, in creation order.
func All() []any {
	return []any{
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&Coupon{},
		&FulfillmentPoint{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Notification{},
	}
}
