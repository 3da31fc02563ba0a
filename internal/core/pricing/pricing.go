// Package pricing turns a unit price, a quantity and a discount into the
// amount charged for an order line.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

// CurrencyPlaces is the precision totals are stored with.
const CurrencyPlaces = domain.StoredPlaces

var hundred = decimal.NewFromInt(100)

// ComputeTotal returns unitPrice * quantity * (1 - discountPercent/100).
func ComputeTotal(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := Validate(unitPrice, quantity, discountPercent); err != nil {
		return decimal.Zero, err
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	discount := subtotal.Mul(discountPercent).Div(hundred)
	return subtotal.Sub(discount), nil
}

// Validate reports the first out-of-range input, checking quantity, then
// price, then discount.
func Validate(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return domain.ErrInvalidPrice
	}
	return ValidateDiscount(discountPercent)
}

// ValidateDiscount accepts percentages in [0, 100] with at most
// CurrencyPlaces decimals, the precision the order row keeps.
func ValidateDiscount(discountPercent decimal.Decimal) error {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) ||
		!domain.FitsStoredScale(discountPercent) {
		return domain.ErrInvalidDiscount
	}
	return nil
}

// RoundTotal rounds half away from zero to CurrencyPlaces.
func RoundTotal(total decimal.Decimal) decimal.Decimal {
	return total.Round(CurrencyPlaces)
}
