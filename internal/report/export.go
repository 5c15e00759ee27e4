package report

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
)

// OrderRow is one flattened order in the export document.
type OrderRow struct {
	Customer string
	Email    string
	Contact  string
	// Items is the joined line summary, e.g. "Rye x2, Sourdough x1".
	Items    string
	Total    string
	Location string
	Status   string
	Date     string
}

// Document is the downloadable weekly report: the summary, the production
// quantities, and one row per order.
type Document struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     *WeeklySummary
	Orders      []OrderRow
}

// BuildDocument shapes a summary and its source orders into the export
// document. PeriodEnd is the display end of the week (start + 6 days).
func BuildDocument(start time.Time, summary *WeeklySummary, orders []order.Order) *Document {
	rows := make([]OrderRow, len(orders))
	for i, o := range orders {
		parts := make([]string, len(o.Items))
		for j, item := range o.Items {
			parts[j] = item.ProductName + " x" + strconv.Itoa(item.Quantity)
		}

		rows[i] = OrderRow{
			Customer: o.Customer.DisplayName(),
			Email:    o.Customer.Email,
			Contact:  o.Customer.ContactNumber,
			Items:    strings.Join(parts, ", "),
			Total:    "R" + o.TotalAmount.StringFixed(2),
			Location: o.PickupLocation,
			Status:   string(o.Status),
			Date:     o.OrderedAt.Format("2006-01-02 15:04"),
		}
	}

	return &Document{
		PeriodStart: start,
		PeriodEnd:   WeekEndDisplay(start),
		Summary:     summary,
		Orders:      rows,
	}
}

// EncodeJSON writes the document as JSON to w.
func (d *Document) EncodeJSON(w io.Writer) error {
	var e jx.Encoder

	e.Obj(func(e *jx.Encoder) {
		e.Field("period", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("start", func(e *jx.Encoder) { e.Str(d.PeriodStart.Format("Mon Jan 02 2006")) })
				e.Field("end", func(e *jx.Encoder) { e.Str(d.PeriodEnd.Format("Mon Jan 02 2006")) })
			})
		})
		e.Field("summary", func(e *jx.Encoder) { d.encodeSummary(e) })
		e.Field("breadToOrder", func(e *jx.Encoder) { encodeQuantities(e, d.Summary.BreadQuantities) })
		e.Field("locationBreakdown", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, loc := range sortedKeys(d.Summary.LocationBreakdown) {
					e.Field(loc, func(e *jx.Encoder) { encodeQuantities(e, d.Summary.LocationBreakdown[loc]) })
				}
			})
		})
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, row := range d.Orders {
					encodeOrderRow(e, row)
				}
			})
		})
	})

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write export document")
	}
	return nil
}

// EncodeJSONGzip writes the gzip-compressed JSON document to w.
func (d *Document) EncodeJSONGzip(w io.Writer) error {
	gz := pgzip.NewWriter(w)
	if err := d.EncodeJSON(gz); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip export")
	}
	return nil
}

func (d *Document) encodeSummary(e *jx.Encoder) {
	s := d.Summary
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalOrders", func(e *jx.Encoder) { e.Int(s.TotalOrders) })
		e.Field("totalRevenue", func(e *jx.Encoder) { e.Raw([]byte(s.TotalRevenue.StringFixed(2))) })
		e.Field("totalProfit", func(e *jx.Encoder) { e.Raw([]byte(s.TotalProfit.StringFixed(2))) })
		e.Field("totalCost", func(e *jx.Encoder) { e.Raw([]byte(s.TotalCost.StringFixed(2))) })
		e.Field("completedOrders", func(e *jx.Encoder) { e.Int(s.CompletedOrders) })
		e.Field("pendingOrders", func(e *jx.Encoder) { e.Int(s.PendingOrders) })
		e.Field("verifiedOrders", func(e *jx.Encoder) { e.Int(s.VerifiedOrders) })
		e.Field("productSummary", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range sortedKeys(s.ProductSummary) {
					pt := s.ProductSummary[name]
					e.Field(name, func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("quantity", func(e *jx.Encoder) { e.Int(pt.Quantity) })
							e.Field("revenue", func(e *jx.Encoder) { e.Raw([]byte(pt.Revenue.StringFixed(2))) })
							e.Field("profit", func(e *jx.Encoder) { e.Raw([]byte(pt.Profit.StringFixed(2))) })
							e.Field("cost", func(e *jx.Encoder) { e.Raw([]byte(pt.Cost.StringFixed(2))) })
						})
					})
				}
			})
		})
		e.Field("locationSummary", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, loc := range sortedKeys(s.LocationSummary) {
					lt := s.LocationSummary[loc]
					e.Field(loc, func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("count", func(e *jx.Encoder) { e.Int(lt.Count) })
							e.Field("revenue", func(e *jx.Encoder) { e.Raw([]byte(lt.Revenue.StringFixed(2))) })
						})
					})
				}
			})
		})
	})
}

func encodeOrderRow(e *jx.Encoder, row OrderRow) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("customer", func(e *jx.Encoder) { e.Str(row.Customer) })
		e.Field("email", func(e *jx.Encoder) { e.Str(row.Email) })
		e.Field("contact", func(e *jx.Encoder) { e.Str(row.Contact) })
		e.Field("items", func(e *jx.Encoder) { e.Str(row.Items) })
		e.Field("total", func(e *jx.Encoder) { e.Str(row.Total) })
		e.Field("location", func(e *jx.Encoder) { e.Str(row.Location) })
		e.Field("status", func(e *jx.Encoder) { e.Str(row.Status) })
		e.Field("date", func(e *jx.Encoder) { e.Str(row.Date) })
	})
}

func encodeQuantities(e *jx.Encoder, m map[string]int) {
	e.Obj(func(e *jx.Encoder) {
		for _, k := range sortedKeys(m) {
			e.Field(k, func(e *jx.Encoder) { e.Int(m[k]) })
		}
	})
}

// sortedKeys returns map keys in lexical order so exports are stable.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
