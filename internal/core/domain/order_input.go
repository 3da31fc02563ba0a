package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// orderInput mirrors the JSON of NewOrder and OrderPatch, keeping Qty and
// DiscountPercentage raw so that numeric strings are accepted and bad
// values surface as ErrInvalidQuantity or ErrInvalidDiscount instead of
// a decoding error.
type orderInput struct {
	CustomerID         *int64          `json:"CustomerID"`
	ItemID             *int64          `json:"ItemID"`
	Quantity           json.RawMessage `json:"Qty"`
	DiscountPercentage json.RawMessage `json:"DiscountPercentage"`
}

// numbers parses Qty and DiscountPercentage. An absent quantity counts as
// non-positive when required, which keeps the quantity error ahead of the
// discount error.
func (in orderInput) numbers(quantityRequired bool) (*int, *decimal.Decimal, error) {
	qty, err := parseQuantity(in.Quantity)
	if err != nil {
		return nil, nil, err
	}

	discount, err := parseDecimal(in.DiscountPercentage)
	if err != nil {
		if (qty == nil && quantityRequired) || (qty != nil && *qty <= 0) {
			return nil, nil, ErrInvalidQuantity
		}
		return nil, nil, ErrInvalidDiscount
	}

	return qty, discount, nil
}

func (n *NewOrder) UnmarshalJSON(data []byte) error {
	var in orderInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	qty, discount, err := in.numbers(true)
	if err != nil {
		return err
	}

	*n = NewOrder{DiscountPercentage: discount}
	if in.CustomerID != nil {
		n.CustomerID = *in.CustomerID
	}
	if in.ItemID != nil {
		n.ItemID = *in.ItemID
	}
	if qty != nil {
		n.Quantity = *qty
	}
	return nil
}

func (p *OrderPatch) UnmarshalJSON(data []byte) error {
	var in orderInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	qty, discount, err := in.numbers(false)
	if err != nil {
		return err
	}

	*p = OrderPatch{
		CustomerID:         in.CustomerID,
		ItemID:             in.ItemID,
		Quantity:           qty,
		DiscountPercentage: discount,
	}
	return nil
}

// parseQuantity accepts a JSON number or numeric string holding an
// integer. Range checks other than the int32 column bound are left to
// the order service.
func parseQuantity(raw json.RawMessage) (*int, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return nil, ErrInvalidQuantity
	}
	if d == nil {
		return nil, nil
	}
	if !d.IsInteger() || d.Abs().GreaterThan(maxQuantity) {
		return nil, ErrInvalidQuantity
	}

	q := int(d.IntPart())
	return &q, nil
}

// parseDecimal returns nil for an absent or null value.
func parseDecimal(raw json.RawMessage) (*decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
