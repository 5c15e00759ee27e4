package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/product"
)

// Sentinel errors for order placement.
var (
	ErrEmptyItems      = errors.New("items required")
	ErrUnknownLocation = errors.New("unknown pickup location")
)

// ProductNotFoundError indicates a requested product does not exist or is
// no longer sold.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ItemRequest is one requested product line at checkout.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	CustomerID     string
	PickupLocation string
	Items          []ItemRequest
}

// Service encapsulates order placement and admin mutations.
type Service struct {
	products  product.Repository
	orders    Repository
	locations map[string]struct{}
	now       func() time.Time
}

// NewService creates an order Service. locations is the set of valid
// pickup-location labels offered at checkout.
func NewService(products product.Repository, orders Repository, locations []string) *Service {
	set := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		set[l] = struct{}{}
	}
	return &Service{
		products:  products,
		orders:    orders,
		locations: set,
		now:       time.Now,
	}
}

// Place validates the request, batch-fetches the catalogue entries,
// copies their price and cost price onto the line items, computes the
// total, and persists the order as pending.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if _, ok := s.locations[req.PickupLocation]; !ok {
		return nil, ErrUnknownLocation
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]LineItem, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		items[i] = LineItem{
			ID:          uuid.New().String(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			Price:       p.Price,
			CostPrice:   p.CostPrice,
		}
		total = total.Add(items[i].Revenue())
	}

	o := &Order{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		OrderedAt:      s.now(),
		PickupLocation: req.PickupLocation,
		TotalAmount:    total.Round(2),
		Status:         StatusPending,
		Items:          items,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// MarkCompleted transitions an order to completed and stamps the time.
func (s *Service) MarkCompleted(ctx context.Context, id string) error {
	if err := s.orders.MarkCompleted(ctx, id, s.now()); err != nil {
		return errors.Wrapf(err, "complete order %s", id)
	}
	return nil
}

// AddNotes replaces the admin notes on an order.
func (s *Service) AddNotes(ctx context.Context, id, notes string) error {
	if err := s.orders.UpdateNotes(ctx, id, notes); err != nil {
		return errors.Wrapf(err, "update notes for order %s", id)
	}
	return nil
}

// Delete removes an order and its line items.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete order %s", id)
	}
	return nil
}
