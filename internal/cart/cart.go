package cart

import (
	"github.com/studioveld/storefront-backend/pkg/types"
)

// Merge folds an added item into an existing cart. An item with a known
// product id sums quantities onto the existing row and keeps the original
// snapshot; a new product id appends a row.
func Merge(items []types.CartItem, add types.CartItem) []types.CartItem {
	if add.Quantity <= 0 {
		return items
	}
	for i := range items {
		if items[i].ProductID == add.ProductID {
			items[i].Quantity += add.Quantity
			return items
		}
	}
	return append(items, add)
}

// SetQuantity replaces the quantity of the row with the given product id.
// A quantity of zero or less removes the row. Unknown ids are a no-op.
func SetQuantity(items []types.CartItem, productID, quantity int) []types.CartItem {
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			return append(items[:i], items[i+1:]...)
		}
		items[i].Quantity = quantity
		return items
	}
	return items
}

// Count returns the total number of units across all rows.
func Count(items []types.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
