package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for customer lookup and registration.
var (
	ErrNotFound   = errors.New("customer not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Customer is a registered storefront account.
type Customer struct {
	ID            string
	Name          string
	Surname       string
	Email         string
	ContactNumber string
	PasswordHash  string
	CreatedAt     time.Time
}

// DisplayName returns the customer's full name as shown on reports.
func (c Customer) DisplayName() string {
	return c.Name + " " + c.Surname
}

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
}
