package services

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/cameron-natural/api/internal/domain"
)

var (
	// ErrPricingInvalidSelection signals an item/variant combination that cannot be priced.
	ErrPricingInvalidSelection = errors.New("pricing: invalid selection")
	// ErrPricingInvalidQuantity signals a quantity below one.
	ErrPricingInvalidQuantity = errors.New("pricing: invalid quantity")
)

type pricingEngine struct{}

var _ PricingEngine = (*pricingEngine)(nil)

// NewPricingEngine constructs the pure pricing engine. All amounts are
// whole-baht integers; no rounding ever applies.
func NewPricingEngine() PricingEngine {
	return &pricingEngine{}
}

// PriceLine resolves the base price for the selection, adds the addon prices,
// and multiplies by quantity. A flat-priced item ignores the variant entirely.
func (e *pricingEngine) PriceLine(item MenuItem, variant domain.TempVariant, addons []Addon, quantity int) (domain.LinePricing, error) {
	if quantity < 1 {
		return domain.LinePricing{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrPricingInvalidQuantity, quantity)
	}
	if !item.Available {
		return domain.LinePricing{}, fmt.Errorf("%w: menu item %q is not available", ErrPricingInvalidSelection, item.ID)
	}

	var base int64
	switch {
	case item.SinglePrice != nil:
		base = *item.SinglePrice
	default:
		price, ok := item.Prices[variant]
		if !ok {
			return domain.LinePricing{}, fmt.Errorf("%w: menu item %q has no price for variant %q", ErrPricingInvalidSelection, item.ID, strings.TrimSpace(string(variant)))
		}
		base = price
	}

	var addonTotal int64
	for _, addon := range addons {
		if !addon.Available {
			return domain.LinePricing{}, fmt.Errorf("%w: addon %q is not available", ErrPricingInvalidSelection, addon.ID)
		}
		addonTotal += addon.Price
	}

	unit := base + addonTotal
	return domain.LinePricing{
		BasePrice:  base,
		AddonTotal: addonTotal,
		UnitPrice:  unit,
		Quantity:   quantity,
		TotalPrice: unit * int64(quantity),
	}, nil
}

// PriceOrder sums the line totals. The subtotal and total are always equal:
// there is no tax, discount or service charge.
func (e *pricingEngine) PriceOrder(lines []domain.LinePricing) domain.OrderPricing {
	pricing := domain.OrderPricing{
		Lines: make([]domain.LinePricing, len(lines)),
	}
	copy(pricing.Lines, lines)
	for _, line := range lines {
		pricing.Subtotal += line.TotalPrice
	}
	pricing.Total = pricing.Subtotal
	return pricing
}
