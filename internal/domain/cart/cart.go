// Package cart implements the storefront shopping cart as a pure reducer
// over value-semantics state: every operation returns a new Cart and never
// mutates its receiver, so carts are safe to cache and replay.
package cart

import "github.com/shopspring/decimal"

// Line is one product entry in a cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the customer's pending selection.
type Cart struct {
	Items []Line `json:"items"`
}

// Add merges the given line into the cart: an existing line for the same
// product has its quantity increased, otherwise the line is appended.
func (c Cart) Add(l Line) Cart {
	items := make([]Line, len(c.Items))
	copy(items, c.Items)

	for i := range items {
		if items[i].ProductID == l.ProductID {
			items[i].Quantity += l.Quantity
			return Cart{Items: items}
		}
	}
	return Cart{Items: append(items, l)}
}

// UpdateQuantity sets the quantity for a product. Lines that end up at a
// quantity of zero or less are removed.
func (c Cart) UpdateQuantity(productID string, quantity int) Cart {
	items := make([]Line, 0, len(c.Items))
	for _, l := range c.Items {
		if l.ProductID == productID {
			l.Quantity = quantity
		}
		if l.Quantity > 0 {
			items = append(items, l)
		}
	}
	return Cart{Items: items}
}

// Remove drops the line for the given product.
func (c Cart) Remove(productID string) Cart {
	items := make([]Line, 0, len(c.Items))
	for _, l := range c.Items {
		if l.ProductID != productID {
			items = append(items, l)
		}
	}
	return Cart{Items: items}
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return Cart{}
}

// Subtotal returns the sum of unit price times quantity over all lines.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Items {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// ItemCount returns the total number of units across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}
