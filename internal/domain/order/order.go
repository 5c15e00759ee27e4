package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/customer"
	"github.com/TessaEngelbrecht/artos-pos/internal/verify"
)

// Status tracks an order through its lifecycle. New orders start as
// StatusPending, move to StatusVerified when a payment proof passes
// verification, and to StatusCompleted when the admin hands the bread over.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusCompleted:
		return true
	}
	return false
}

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// LineItem is a single product line within an order. Price and CostPrice
// are copied from the catalogue at order time so that later price changes
// never shift historical totals.
type LineItem struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	CostPrice   decimal.Decimal
}

// Revenue returns price times quantity for this line.
func (li LineItem) Revenue() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cost returns cost price times quantity for this line.
func (li LineItem) Cost() decimal.Decimal {
	return li.CostPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is a placed bakery order joined with its line items and customer.
type Order struct {
	ID             string
	CustomerID     string
	Customer       customer.Customer
	OrderedAt      time.Time
	PickupLocation string
	TotalAmount    decimal.Decimal
	Status         Status
	Notes          string
	PaymentProof   string
	Verification   *verify.Outcome
	CompletedAt    *time.Time
	Items          []LineItem
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListAll returns every order, newest first, joined with customer
	// and line items.
	ListAll(ctx context.Context) ([]Order, error)
	// ListInRange returns orders with start <= order_date < end,
	// newest first, joined with customer and line items.
	ListInRange(ctx context.Context, start, end time.Time) ([]Order, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	UpdateNotes(ctx context.Context, id, notes string) error
	Delete(ctx context.Context, id string) error
	AttachPaymentProof(ctx context.Context, id, proofPath string) error
	SaveVerification(ctx context.Context, id string, outcome *verify.Outcome, newStatus Status) error
}
