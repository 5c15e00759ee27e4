package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/customer"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
	"github.com/TessaEngelbrecht/artos-pos/internal/verify"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, order_date, pickup_location, total_amount, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	createOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price, cost_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Orders are always read joined with their customer; line items are
	// loaded in a second query and stitched in.
	selectOrderSQL = `SELECT o.id, o.customer_id, o.order_date, o.pickup_location, o.total_amount,
			o.status, o.notes, o.payment_proof, o.verification, o.completed_at,
			c.id, c.name, c.surname, c.email, c.contact_number, c.created_at
		FROM orders o JOIN customers c ON c.id = o.customer_id`

	getOrderByIDSQL = selectOrderSQL + ` WHERE o.id = $1`
	listOrdersSQL   = selectOrderSQL + ` ORDER BY o.order_date DESC`
	listInRangeSQL  = selectOrderSQL + ` WHERE o.order_date >= $1 AND o.order_date < $2 ORDER BY o.order_date DESC`

	listItemsSQL = `SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price, i.cost_price
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)`

	markCompletedSQL = `UPDATE orders SET status = 'completed', completed_at = $2 WHERE id = $1`
	updateNotesSQL   = `UPDATE orders SET notes = $2 WHERE id = $1`
	attachProofSQL   = `UPDATE orders SET payment_proof = $2 WHERE id = $1`
	saveOutcomeSQL   = `UPDATE orders SET verification = $2, status = $3 WHERE id = $1`

	deleteItemsSQL = `DELETE FROM order_items WHERE order_id = $1`
	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, o.OrderedAt, o.PickupLocation, o.TotalAmount, string(o.Status), o.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, createOrderItemSQL,
			item.ID, o.ID, item.ProductID, item.Quantity, item.Price, item.CostPrice,
		)
		if err != nil {
			return fmt.Errorf("creating order item for %q: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order joined with customer and line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := r.loadItems(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listOrdersSQL)
}

// ListInRange returns orders with start <= order_date < end, newest first.
func (r *OrderRepository) ListInRange(ctx context.Context, start, end time.Time) ([]order.Order, error) {
	return r.list(ctx, listInRangeSQL, start, end)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.loadItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fetches line items for all given orders in one query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    order.LineItem
			orderID string
		)
		if err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Price, &item.CostPrice); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// MarkCompleted sets the order status to completed with the given time.
func (r *OrderRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, markCompletedSQL, id, at)
}

// UpdateNotes replaces the admin notes on the order.
func (r *OrderRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	return r.exec(ctx, updateNotesSQL, id, notes)
}

// AttachPaymentProof records the stored proof path on the order.
func (r *OrderRepository) AttachPaymentProof(ctx context.Context, id, proofPath string) error {
	return r.exec(ctx, attachProofSQL, id, proofPath)
}

// SaveVerification stores the verification outcome as JSONB and moves the
// order to the given status.
func (r *OrderRepository) SaveVerification(ctx context.Context, id string, outcome *verify.Outcome, newStatus order.Status) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshaling verification outcome: %w", err)
	}
	return r.exec(ctx, saveOutcomeSQL, id, payload, string(newStatus))
}

// Delete removes the order's line items and then the order itself.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteItemsSQL, id); err != nil {
		return fmt.Errorf("deleting items for order %q: %w", id, err)
	}

	tag, err := tx.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete order %q: %w", id, err)
	}
	return nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		c            customer.Customer
		status       string
		verification []byte
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.OrderedAt, &o.PickupLocation, &o.TotalAmount,
		&status, &o.Notes, &o.PaymentProof, &verification, &o.CompletedAt,
		&c.ID, &c.Name, &c.Surname, &c.Email, &c.ContactNumber, &c.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.Status = order.Status(status)
	o.Customer = c
	if len(verification) > 0 {
		var outcome verify.Outcome
		if err := json.Unmarshal(verification, &outcome); err != nil {
			return o, fmt.Errorf("decoding verification for order %q: %w", o.ID, err)
		}
		o.Verification = &outcome
	}
	return o, nil
}
