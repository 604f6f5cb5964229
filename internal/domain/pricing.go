package domain

// LinePricing captures the monetary outputs of pricing one order line.
type LinePricing struct {
	BasePrice  int64
	AddonTotal int64
	UnitPrice  int64
	Quantity   int
	TotalPrice int64
}

// OrderPricing aggregates line totals for a whole order. Prices are whole-baht
// integers; no tax, discount or rounding applies.
type OrderPricing struct {
	Lines    []LinePricing
	Subtotal int64
	Total    int64
}
