package services

import (
	"errors"
	"testing"

	domain "github.com/cameron-natural/api/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func thaiTeaItem() MenuItem {
	return MenuItem{
		ID:        "thai-tea",
		Name:      domain.BilingualName{TH: "ชาไทย", EN: "Thai Tea"},
		Prices:    map[domain.TempVariant]int64{domain.TempHot: 45, domain.TempIced: 55, domain.TempFrappe: 65},
		Available: true,
	}
}

func TestPriceLineVariantPricing(t *testing.T) {
	engine := NewPricingEngine()

	pricing, err := engine.PriceLine(thaiTeaItem(), domain.TempIced, nil, 2)
	if err != nil {
		t.Fatalf("price line: %v", err)
	}
	if pricing.BasePrice != 55 {
		t.Fatalf("expected base 55, got %d", pricing.BasePrice)
	}
	if pricing.UnitPrice != 55 || pricing.TotalPrice != 110 {
		t.Fatalf("unexpected pricing %+v", pricing)
	}
}

func TestPriceLineAddonsSumIntoUnitPrice(t *testing.T) {
	engine := NewPricingEngine()
	addons := []Addon{
		{ID: "pearls", Price: 10, Available: true},
		{ID: "pudding", Price: 15, Available: true},
	}

	pricing, err := engine.PriceLine(thaiTeaItem(), domain.TempHot, addons, 3)
	if err != nil {
		t.Fatalf("price line: %v", err)
	}
	if pricing.AddonTotal != 25 {
		t.Fatalf("expected addon total 25, got %d", pricing.AddonTotal)
	}
	if pricing.UnitPrice != 70 {
		t.Fatalf("expected unit 70, got %d", pricing.UnitPrice)
	}
	if pricing.TotalPrice != 210 {
		t.Fatalf("expected total 210, got %d", pricing.TotalPrice)
	}
}

func TestPriceLineSinglePriceWinsOverVariants(t *testing.T) {
	engine := NewPricingEngine()
	item := MenuItem{
		ID:          "matcha",
		SinglePrice: int64Ptr(80),
		Prices:      map[domain.TempVariant]int64{domain.TempIced: 55},
		Available:   true,
	}

	pricing, err := engine.PriceLine(item, domain.TempIced, nil, 1)
	if err != nil {
		t.Fatalf("price line: %v", err)
	}
	if pricing.BasePrice != 80 {
		t.Fatalf("expected single price 80 to win, got %d", pricing.BasePrice)
	}
}

func TestPriceLineMissingVariantPrice(t *testing.T) {
	engine := NewPricingEngine()
	item := MenuItem{
		ID:        "cocoa",
		Prices:    map[domain.TempVariant]int64{domain.TempHot: 50},
		Available: true,
	}

	if _, err := engine.PriceLine(item, domain.TempFrappe, nil, 1); !errors.Is(err, ErrPricingInvalidSelection) {
		t.Fatalf("expected ErrPricingInvalidSelection, got %v", err)
	}
}

func TestPriceLineUnavailableItem(t *testing.T) {
	engine := NewPricingEngine()
	item := thaiTeaItem()
	item.Available = false

	if _, err := engine.PriceLine(item, domain.TempIced, nil, 1); !errors.Is(err, ErrPricingInvalidSelection) {
		t.Fatalf("expected ErrPricingInvalidSelection, got %v", err)
	}
}

func TestPriceLineUnavailableAddon(t *testing.T) {
	engine := NewPricingEngine()
	addons := []Addon{{ID: "pearls", Price: 10, Available: false}}

	if _, err := engine.PriceLine(thaiTeaItem(), domain.TempIced, addons, 1); !errors.Is(err, ErrPricingInvalidSelection) {
		t.Fatalf("expected ErrPricingInvalidSelection, got %v", err)
	}
}

func TestPriceLineQuantityGuard(t *testing.T) {
	engine := NewPricingEngine()
	for _, qty := range []int{0, -1} {
		if _, err := engine.PriceLine(thaiTeaItem(), domain.TempIced, nil, qty); !errors.Is(err, ErrPricingInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrPricingInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestPriceOrderSumsLineTotals(t *testing.T) {
	engine := NewPricingEngine()

	pricing := engine.PriceOrder([]domain.LinePricing{
		{UnitPrice: 55, Quantity: 2, TotalPrice: 110},
		{UnitPrice: 80, Quantity: 1, TotalPrice: 80},
	})
	if pricing.Subtotal != 190 {
		t.Fatalf("expected subtotal 190, got %d", pricing.Subtotal)
	}
	if pricing.Total != pricing.Subtotal {
		t.Fatalf("total must equal subtotal, got %d vs %d", pricing.Total, pricing.Subtotal)
	}
}

func TestPriceOrderEmpty(t *testing.T) {
	engine := NewPricingEngine()
	pricing := engine.PriceOrder(nil)
	if pricing.Subtotal != 0 || pricing.Total != 0 {
		t.Fatalf("expected zero totals, got %+v", pricing)
	}
}
