package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
)

// ProductTotals is the per-product rollup across a week.
type ProductTotals struct {
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
	Cost     decimal.Decimal `json:"cost"`
}

// LocationTotals is the per-pickup-location rollup across a week.
type LocationTotals struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  []order.Order   `json:"-"`
}

// WeeklySummary is the derived weekly report. It is computed fresh from a
// list of orders on every request and never persisted; every total is
// exactly the sum of its per-order and per-item contributions.
type WeeklySummary struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	TotalCost    decimal.Decimal `json:"total_cost"`

	// CompletedOrders counts orders handed over; PendingOrders counts
	// everything else, verified included, since a verified payment is not
	// yet fulfilled. VerifiedOrders breaks that subset out on its own.
	CompletedOrders int `json:"completed_orders"`
	PendingOrders   int `json:"pending_orders"`
	VerifiedOrders  int `json:"verified_orders"`

	ProductSummary  map[string]ProductTotals  `json:"product_summary"`
	LocationSummary map[string]LocationTotals `json:"location_summary"`

	// BreadQuantities is the total units per product for the whole week:
	// what the bakery must produce.
	BreadQuantities map[string]int `json:"bread_quantities"`
	// LocationBreakdown is units per product per pickup location: how the
	// bake gets packed.
	LocationBreakdown map[string]map[string]int `json:"location_breakdown"`
}

// ValidationError reports a malformed order encountered during
// aggregation. Aggregation fails fast rather than returning a summary
// with silently-dropped rows.
type ValidationError struct {
	OrderID string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order %s: %s", e.OrderID, e.Reason)
}

// Aggregate folds the given orders into one WeeklySummary. Input order is
// irrelevant for the totals; an empty slice yields a zero summary with
// empty maps. Location labels group verbatim, without normalization.
func Aggregate(orders []order.Order) (*WeeklySummary, error) {
	s := &WeeklySummary{
		TotalOrders:       len(orders),
		TotalRevenue:      decimal.Zero,
		TotalProfit:       decimal.Zero,
		TotalCost:         decimal.Zero,
		ProductSummary:    make(map[string]ProductTotals),
		LocationSummary:   make(map[string]LocationTotals),
		BreadQuantities:   make(map[string]int),
		LocationBreakdown: make(map[string]map[string]int),
	}

	for i := range orders {
		if err := s.addOrder(&orders[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *WeeklySummary) addOrder(o *order.Order) error {
	s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)

	switch o.Status {
	case order.StatusCompleted:
		s.CompletedOrders++
	case order.StatusVerified:
		s.VerifiedOrders++
		s.PendingOrders++
	default:
		s.PendingOrders++
	}

	loc := s.LocationSummary[o.PickupLocation]
	loc.Count++
	loc.Revenue = loc.Revenue.Add(o.TotalAmount)
	loc.Orders = append(loc.Orders, *o)
	s.LocationSummary[o.PickupLocation] = loc

	breakdown := s.LocationBreakdown[o.PickupLocation]
	if breakdown == nil {
		breakdown = make(map[string]int)
		s.LocationBreakdown[o.PickupLocation] = breakdown
	}

	for _, item := range o.Items {
		if item.ProductName == "" {
			return &ValidationError{OrderID: o.ID, Reason: "line item missing product name"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{OrderID: o.ID, Reason: fmt.Sprintf("non-positive quantity for %s", item.ProductName)}
		}
		if item.Price.IsNegative() || item.CostPrice.IsNegative() {
			return &ValidationError{OrderID: o.ID, Reason: fmt.Sprintf("negative price for %s", item.ProductName)}
		}

		revenue := item.Revenue()
		cost := item.Cost()
		profit := revenue.Sub(cost)

		s.TotalProfit = s.TotalProfit.Add(profit)
		s.TotalCost = s.TotalCost.Add(cost)

		s.BreadQuantities[item.ProductName] += item.Quantity
		breakdown[item.ProductName] += item.Quantity

		pt := s.ProductSummary[item.ProductName]
		pt.Quantity += item.Quantity
		pt.Revenue = pt.Revenue.Add(revenue)
		pt.Profit = pt.Profit.Add(profit)
		pt.Cost = pt.Cost.Add(cost)
		s.ProductSummary[item.ProductName] = pt
	}
	return nil
}
