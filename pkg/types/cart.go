package types

import "github.com/shopspring/decimal"

// ProductSnapshot is the denormalized product data captured when an item is
// added to the cart. It is never refreshed, so an upstream price change does
// not propagate to items already in a cart.
type ProductSnapshot struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// CartItem is one line of a client-held cart.
type CartItem struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Snapshot  ProductSnapshot `json:"snapshot"`
}

// LineTotal returns snapshot price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Snapshot.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
