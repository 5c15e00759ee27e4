package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a loaf (or other item) in the bakery catalogue.
// CostPrice is what the bread costs to produce; it drives profit
// reporting and is never exposed on customer-facing responses.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CostPrice decimal.Decimal
	Category  string
	Image     string
	Active    bool
}

// Repository defines read operations for the catalogue.
type Repository interface {
	// List returns all active products.
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
