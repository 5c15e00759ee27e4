package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
)

// Service produces weekly reports on demand. It owns no state beyond the
// repository handle: every report is recomputed from the orders in the
// requested week, so concurrent and repeated calls are safe.
type Service struct {
	orders order.Repository
}

// NewService creates a report Service reading from the given repository.
func NewService(orders order.Repository) *Service {
	return &Service{orders: orders}
}

// Week bundles a computed weekly report with its source orders and window.
type Week struct {
	Start   time.Time
	End     time.Time
	Summary *WeeklySummary
	Orders  []order.Order
}

// ForWeek computes the report for the bakery week containing ref: it
// resolves the [CurrentWeekStart, NextWeekStart) window, fetches the
// orders inside it, and aggregates them.
func (s *Service) ForWeek(ctx context.Context, ref time.Time) (*Week, error) {
	start := CurrentWeekStart(ref)
	end := NextWeekStart(ref)

	orders, err := s.orders.ListInRange(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "list orders in week")
	}

	summary, err := Aggregate(orders)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate week")
	}

	return &Week{
		Start:   start,
		End:     end,
		Summary: summary,
		Orders:  orders,
	}, nil
}

// Export shapes the week into the downloadable document.
func (w *Week) Export() *Document {
	return BuildDocument(w.Start, w.Summary, w.Orders)
}
