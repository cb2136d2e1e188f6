// internal/repository/postgres/order_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/order"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository owns orders, order_items and table_sessions.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, branch_id, order_type, token, table_session_id,
	event_date, advance_amount, customer_name, customer_phone, notes,
	total_amount, payment_reference, status, created_at, updated_at`

// CreateWithTx inserts the order and its item snapshots in one transaction.
func (r *OrderRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	query := `
		INSERT INTO orders (
			branch_id, order_type, token, table_session_id, event_date,
			advance_amount, customer_name, customer_phone, notes,
			total_amount, payment_reference, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		o.BranchID, o.Type, o.Token, o.TableSessionID, o.EventDate,
		o.AdvanceAmount, o.CustomerName, o.CustomerPhone, o.Notes,
		o.TotalAmount, o.PaymentReference, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, item_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := tx.QueryRow(ctx, itemQuery, o.ID, it.ItemID, it.Name, it.Price, it.Quantity).Scan(&it.ID); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

// FindByToken looks up an order by its customer-facing token, items included.
// Dine-in orders share their table session's token, so the newest order wins;
// the session view lists them all.
func (r *OrderRepository) FindByToken(ctx context.Context, token string) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE token = $1 ORDER BY created_at DESC LIMIT 1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, token))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// FindByID loads one order with items.
func (r *OrderRepository) FindByID(ctx context.Context, orderID int64) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListOpenByBranch returns non-terminal orders for the kitchen queue, oldest
// first, items included.
func (r *OrderRepository) ListOpenByBranch(ctx context.Context, branchID int64) ([]order.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE branch_id = $1
		  AND status NOT IN ('served', 'collected', 'delivered', 'cancelled')
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// ListBySession returns all orders placed under one table session.
func (r *OrderRepository) ListBySession(ctx context.Context, sessionID int64) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE table_session_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// UpdateStatus writes the new status, guarded on the expected current status
// so two staff clients racing on the same order cannot double-apply.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to order.OrderStatus) error {
	query := `UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, orderID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrInvalidTransition
	}
	return nil
}

// OpenTableSession creates an open sitting for a table. One open session per
// table is enforced by a partial unique index.
func (r *OrderRepository) OpenTableSession(ctx context.Context, s *order.TableSession) error {
	query := `
		INSERT INTO table_sessions (branch_id, table_number, token, is_open)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, opened_at
	`

	err := r.db.QueryRow(ctx, query, s.BranchID, s.TableNumber, s.Token).Scan(&s.ID, &s.OpenedAt)
	if err != nil {
		return fmt.Errorf("failed to open table session: %w", err)
	}
	s.IsOpen = true
	return nil
}

// FindOpenSessionByToken resolves a QR token to its open sitting.
func (r *OrderRepository) FindOpenSessionByToken(ctx context.Context, token string) (*order.TableSession, error) {
	query := `
		SELECT id, branch_id, table_number, token, is_open, opened_at, closed_at
		FROM table_sessions
		WHERE token = $1 AND is_open = TRUE
	`

	var s order.TableSession
	err := r.db.QueryRow(ctx, query, token).Scan(
		&s.ID, &s.BranchID, &s.TableNumber, &s.Token, &s.IsOpen, &s.OpenedAt, &s.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find table session: %w", err)
	}
	return &s, nil
}

// CloseTableSession marks the sitting closed at settle time.
func (r *OrderRepository) CloseTableSession(ctx context.Context, sessionID int64) error {
	query := `UPDATE table_sessions SET is_open = FALSE, closed_at = $2 WHERE id = $1 AND is_open = TRUE`

	result, err := r.db.Exec(ctx, query, sessionID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to close table session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID int64) ([]order.OrderItem, error) {
	query := `SELECT id, order_id, item_id, name, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []order.OrderItem
	for rows.Next() {
		var it order.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.BranchID, &o.Type, &o.Token, &o.TableSessionID,
		&o.EventDate, &o.AdvanceAmount, &o.CustomerName, &o.CustomerPhone, &o.Notes,
		&o.TotalAmount, &o.PaymentReference, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}
