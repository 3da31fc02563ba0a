package domain

import "github.com/shopspring/decimal"

type Order struct {
	ID                 int64           `db:"OrderId" json:"OrderId"`
	CustomerID         int64           `db:"CustomerID" json:"CustomerID"`
	ItemID             int64           `db:"ItemID" json:"ItemID"`
	Quantity           int             `db:"Qty" json:"Qty"`
	DiscountPercentage decimal.Decimal `db:"DiscountPercentage" json:"DiscountPercentage"`
	TotalPrice         decimal.Decimal `db:"TotalPrice" json:"TotalPrice"`
}

// NewOrder is the input of an order creation. DiscountPercentage is
// optional and defaults to zero.
type NewOrder struct {
	CustomerID         int64            `json:"CustomerID"`
	ItemID             int64            `json:"ItemID"`
	Quantity           int              `json:"Qty"`
	DiscountPercentage *decimal.Decimal `json:"DiscountPercentage"`
}

func (n NewOrder) Discount() decimal.Decimal {
	if n.DiscountPercentage == nil {
		return decimal.Zero
	}
	return *n.DiscountPercentage
}

// OrderPatch carries the mutable order attributes. A nil field keeps
// the stored value.
type OrderPatch struct {
	CustomerID         *int64           `json:"CustomerID"`
	ItemID             *int64           `json:"ItemID"`
	Quantity           *int             `json:"Qty"`
	DiscountPercentage *decimal.Decimal `json:"DiscountPercentage"`
}

func (p OrderPatch) IsEmpty() bool {
	return p.CustomerID == nil && p.ItemID == nil && p.Quantity == nil && p.DiscountPercentage == nil
}

// Apply resolves the effective order after the patch, leaving
// TotalPrice untouched.
func (p OrderPatch) Apply(o Order) Order {
	if p.CustomerID != nil {
		o.CustomerID = *p.CustomerID
	}
	if p.ItemID != nil {
		o.ItemID = *p.ItemID
	}
	if p.Quantity != nil {
		o.Quantity = *p.Quantity
	}
	if p.DiscountPercentage != nil {
		o.DiscountPercentage = *p.DiscountPercentage
	}
	return o
}
