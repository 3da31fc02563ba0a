package domain

import "github.com/shopspring/decimal"

type Item struct {
	ID          int64           `db:"ItemID" json:"ItemID"`
	Description string          `db:"ItemDescription" json:"ItemDescription"`
	Quantity    int             `db:"Quantity" json:"Quantity"`
	Price       decimal.Decimal `db:"Price" json:"Price"`
}

// Stock is the locked view of an item row used by the order write path.
type Stock struct {
	Quantity  int             `db:"Quantity"`
	UnitPrice decimal.Decimal `db:"Price"`
}

type NewItem struct {
	Description string          `json:"ItemDescription"`
	Quantity    int             `json:"Quantity"`
	Price       decimal.Decimal `json:"Price"`
}

type ItemPatch struct {
	Description *string          `json:"ItemDescription"`
	Quantity    *int             `json:"Quantity"`
	Price       *decimal.Decimal `json:"Price"`
}

func (p ItemPatch) IsEmpty() bool {
	return p.Description == nil && p.Quantity == nil && p.Price == nil
}

// StoredPlaces is the scale of the DECIMAL price and percentage columns.
const StoredPlaces = 2

// FitsStoredScale reports whether d is stored without rounding.
func FitsStoredScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(StoredPlaces))
}

func ValidateStockLevel(quantity int, price decimal.Decimal) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	return ValidatePrice(price)
}

func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() || !FitsStoredScale(price) {
		return ErrInvalidPrice
	}
	return nil
}
