package model

import "time"

// DiscountType distinguishes percentage discounts from fixed-amount
// discounts. Percentage discounts are capped at 50, fixed discounts at
// 100 currency units.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

const (
	MaxPercentageDiscount = 50
	MaxFixedDiscount      = 100
)

// Discount lowers the price of a package inside a validity window.
// Several discounts may exist per package; the one in effect at a
// moment is the highest-value discount whose window contains that
// moment.
type Discount struct {
	ID        uint64       // discounts.id
	PackageID uint64       // discounts.package_id
	Type      DiscountType // discounts.type
	Value     float64      // discounts.value (> 0)
	StartDate time.Time    // discounts.start_date
	EndDate   time.Time    // discounts.end_date
	CreatedAt time.Time    // discounts.created_at
}

// Apply returns the package price after this discount.  The result is
// never negative.
func (d Discount) Apply(price float64) float64 {
	var out float64
	switch d.Type {
	case DiscountPercentage:
		out = price * (1 - d.Value/100)
	case DiscountFixed:
		out = price - d.Value
	default:
		out = price
	}
	if out < 0 {
		return 0
	}
	return out
}
