package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"shrot-bot/internal/order"
)

const orderSelect = `
	SELECT
		o.id,
		o.user_id,
		o.product_id,
		o.quantity,
		o.address,
		o.latitude,
		o.longitude,
		o.created_at,
		o.status,
		o.order_price_per_kg,
		o.closed_at,
		o.closed_by,
		COALESCE(o.canceled_by_role, '') AS canceled_by_role,
		u.external_chat_id,
		COALESCE(u.first_name, '') AS first_name,
		COALESCE(u.last_name, '') AS last_name,
		COALESCE(u.phone, '') AS phone,
		p.name AS product_name,
		p.price_per_kg AS product_price_per_kg
	FROM orders o
	JOIN users u ON u.id = o.user_id
	JOIN products p ON p.id = o.product_id`

// CreateOrder inserts an open order with the product's current price frozen onto it.
func (s *Storage) CreateOrder(ctx context.Context, n NewOrder) (int64, error) {
	id, err := s.insertOrder(ctx, n, order.StatusOpen, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.CreateOrder: %w", err)
	}
	return id, nil
}

// CreateClosedOrder records a deal an admin already settled with the customer.
func (s *Storage) CreateClosedOrder(ctx context.Context, n NewOrder, adminID int64) (int64, error) {
	id, err := s.insertOrder(ctx, n, order.StatusClosed, &adminID)
	if err != nil {
		return 0, fmt.Errorf("storage.CreateClosedOrder: %w", err)
	}
	return id, nil
}

// CreateWalkInOrder stores a new walk-in customer together with their settled order.
// Neither row is kept when either insert fails.
func (s *Storage) CreateWalkInOrder(ctx context.Context, name, phone string, n NewOrder, adminID int64) (int64, int64, error) {
	const operation = "storage.CreateWalkInOrder"

	var userID, orderID int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if userID, err = s.insertWalkIn(ctx, tx, name, phone); err != nil {
			return err
		}
		n.UserID = userID
		orderID, err = s.insertOrderTx(ctx, tx, n, order.StatusClosed, &adminID)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", operation, err)
	}
	return userID, orderID, nil
}

func (s *Storage) insertOrder(ctx context.Context, n NewOrder, status order.Status, closedBy *int64) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = s.insertOrderTx(ctx, tx, n, status, closedBy)
		return err
	})
	return id, err
}

func (s *Storage) insertOrderTx(ctx context.Context, tx *sqlx.Tx, n NewOrder, status order.Status, closedBy *int64) (int64, error) {
	now := s.stamp()
	var closedAt *Timestamp
	if status == order.StatusClosed {
		closedAt = &now
	}

	var price float64
	lookup := tx.Rebind(`SELECT price_per_kg FROM products WHERE id = ? AND is_deleted = 0`)
	if err := tx.GetContext(ctx, &price, lookup, n.ProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}

	var id int64
	insert := tx.Rebind(`
		INSERT INTO orders (
			user_id, product_id, quantity, address, latitude, longitude,
			created_at, status, order_price_per_kg, closed_at, closed_by
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := tx.QueryRowxContext(ctx, insert,
		n.UserID, n.ProductID, n.Quantity, n.Address, n.Latitude, n.Longitude,
		now, string(status), price, closedAt, closedBy,
	).Scan(&id)
	return id, err
}

func (s *Storage) CloseOrder(ctx context.Context, orderID, adminID int64) (order.Outcome, error) {
	return s.transition(ctx, orderID, order.ActionClose, &adminID, 0)
}

func (s *Storage) CancelOrderByAdmin(ctx context.Context, orderID, adminID int64) (order.Outcome, error) {
	return s.transition(ctx, orderID, order.ActionAdminCancel, &adminID, 0)
}

// CancelOrderByUser only touches orders owned by userID.
func (s *Storage) CancelOrderByUser(ctx context.Context, orderID, userID int64) (order.Outcome, error) {
	return s.transition(ctx, orderID, order.ActionUserCancel, nil, userID)
}

// transition is a compare-and-swap on the status column. When the update loses, the
// row is read back so the caller can tell who won.
func (s *Storage) transition(ctx context.Context, orderID int64, action order.Action, actor *int64, ownerID int64) (order.Outcome, error) {
	const operation = "storage.transition"

	to, role, err := order.Next(order.StatusOpen, action)
	if err != nil {
		return order.Outcome{}, fmt.Errorf("%s: %w", operation, err)
	}

	var canceledBy any
	if role != order.RoleNone {
		canceledBy = string(role)
	}

	update := `
		UPDATE orders
		SET status = ?, closed_at = ?, closed_by = ?, canceled_by_role = ?
		WHERE id = ? AND status = 'open'`
	args := []any{string(to), s.stamp(), actor, canceledBy, orderID}
	if ownerID != 0 {
		update += ` AND user_id = ?`
		args = append(args, ownerID)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(update), args...)
	if err != nil {
		return order.Outcome{}, fmt.Errorf("%s: update: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return order.Outcome{}, fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 1 {
		return order.Outcome{
			Applied:    true,
			Found:      true,
			Status:     to,
			ClosedBy:   actor,
			CanceledBy: role,
		}, nil
	}

	current := struct {
		Status     order.Status     `db:"status"`
		ClosedBy   *int64           `db:"closed_by"`
		CanceledBy order.CancelRole `db:"canceled_by_role"`
	}{}
	lookup := `SELECT status, closed_by, COALESCE(canceled_by_role, '') AS canceled_by_role FROM orders WHERE id = ?`
	lookupArgs := []any{orderID}
	if ownerID != 0 {
		lookup += ` AND user_id = ?`
		lookupArgs = append(lookupArgs, ownerID)
	}
	if err := s.db.GetContext(ctx, &current, s.db.Rebind(lookup), lookupArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Outcome{}, nil
		}
		return order.Outcome{}, fmt.Errorf("%s: lookup: %w", operation, err)
	}

	return order.Outcome{
		Found:      true,
		Status:     current.Status,
		ClosedBy:   current.ClosedBy,
		CanceledBy: current.CanceledBy,
	}, nil
}

// DeleteOrder removes the row for good.
func (s *Storage) DeleteOrder(ctx context.Context, orderID int64) (bool, error) {
	const operation = "storage.DeleteOrder"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM orders WHERE id = ?`), orderID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", operation, err)
	}
	return n > 0, nil
}

func (s *Storage) OrderByID(ctx context.Context, orderID int64) (Order, error) {
	const operation = "storage.OrderByID"

	var o Order
	if err := s.db.GetContext(ctx, &o, s.db.Rebind(orderSelect+` WHERE o.id = ?`), orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("%s: %w", operation, err)
	}
	return o, nil
}

// ListOrders pages through orders with the given status, newest first. limit <= 0
// returns everything.
func (s *Storage) ListOrders(ctx context.Context, status order.Status, limit, offset int) ([]Order, error) {
	const operation = "storage.ListOrders"

	query := orderSelect
	var args []any
	if status != "" {
		query += ` WHERE o.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	var orders []Order
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return orders, nil
}

func (s *Storage) ListUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	const operation = "storage.ListUserOrders"

	var orders []Order
	query := s.db.Rebind(orderSelect + ` WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC`)
	if err := s.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return orders, nil
}

func (s *Storage) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, fmt.Errorf("storage.CountOrders: %w", err)
	}
	return n, nil
}

func (s *Storage) CountOrdersByStatus(ctx context.Context, status order.Status) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM orders WHERE status = ?`), string(status)); err != nil {
		return 0, fmt.Errorf("storage.CountOrdersByStatus: %w", err)
	}
	return n, nil
}

// ClosedOrdersBetween returns closed orders whose effective date (closing time, else
// creation time, in UTC) falls within [start, end], both days inclusive.
func (s *Storage) ClosedOrdersBetween(ctx context.Context, start, end time.Time) ([]Order, error) {
	const operation = "storage.ClosedOrdersBetween"

	from := start.Format(time.DateOnly)
	until := end.AddDate(0, 0, 1).Format(time.DateOnly)

	query := s.db.Rebind(orderSelect + `
		WHERE o.status = 'closed'
		  AND COALESCE(o.closed_at, o.created_at) >= ?
		  AND COALESCE(o.closed_at, o.created_at) < ?
		ORDER BY o.created_at ASC, o.id ASC`)

	var orders []Order
	if err := s.db.SelectContext(ctx, &orders, query, from, until); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return orders, nil
}
