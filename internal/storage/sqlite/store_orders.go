package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sableward/mercantile/internal/storage"
)

// ResetReadModel drops all order and line rows ahead of a replay.
func (s *Store) ResetReadModel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM order_lines`); err != nil {
		return fmt.Errorf("reset order lines: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("reset orders: %w", err)
	}
	return nil
}

// PutOrder inserts or replaces an order row keyed by UID.
func (s *Store) PutOrder(ctx context.Context, order storage.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(order.UID) == "" {
		return fmt.Errorf("order uid is required")
	}

	createdAt := order.CreatedAt.UTC()
	updatedAt := order.UpdatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO orders (
		   uid, number, customer, state, percentage_discount, discounted_value,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET
		   number = excluded.number,
		   customer = excluded.customer,
		   state = excluded.state,
		   percentage_discount = excluded.percentage_discount,
		   discounted_value = excluded.discounted_value,
		   updated_at = excluded.updated_at`,
		order.UID,
		order.Number,
		order.Customer,
		string(order.State),
		order.PercentageDiscount,
		order.DiscountedValue,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// GetOrder fetches an order by UID.
func (s *Store) GetOrder(ctx context.Context, uid string) (storage.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.OrderRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(uid) == "" {
		return storage.OrderRecord{}, fmt.Errorf("order uid is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT uid, number, customer, state, percentage_discount, discounted_value,
		        created_at, updated_at
		   FROM orders
		  WHERE uid = ?`, uid)

	var order storage.OrderRecord
	var state string
	var createdAt, updatedAt int64
	err := row.Scan(
		&order.UID,
		&order.Number,
		&order.Customer,
		&state,
		&order.PercentageDiscount,
		&order.DiscountedValue,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OrderRecord{}, storage.ErrNotFound
		}
		return storage.OrderRecord{}, fmt.Errorf("get order: %w", err)
	}
	order.State = storage.OrderState(state)
	order.CreatedAt = fromMillis(createdAt)
	order.UpdatedAt = fromMillis(updatedAt)
	return order, nil
}

// PutOrderLine inserts or replaces a line row. The upsert keeps the original
// rowid, so listing order is stable across quantity updates.
func (s *Store) PutOrderLine(ctx context.Context, line storage.OrderLineRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(line.OrderUID) == "" {
		return fmt.Errorf("order uid is required")
	}
	if strings.TrimSpace(line.ProductID) == "" {
		return fmt.Errorf("product id is required")
	}
	if line.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO order_lines (order_uid, product_id, product_name, price, quantity)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (order_uid, product_id) DO UPDATE SET
		   product_name = excluded.product_name,
		   price = excluded.price,
		   quantity = excluded.quantity`,
		line.OrderUID,
		line.ProductID,
		line.ProductName,
		line.Price,
		line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("put order line: %w", err)
	}
	return nil
}

// GetOrderLine fetches a line by (order uid, product id).
func (s *Store) GetOrderLine(ctx context.Context, orderUID, productID string) (storage.OrderLineRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderLineRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.OrderLineRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT order_uid, product_id, product_name, price, quantity
		   FROM order_lines
		  WHERE order_uid = ? AND product_id = ?`, orderUID, productID)

	var line storage.OrderLineRecord
	err := row.Scan(&line.OrderUID, &line.ProductID, &line.ProductName, &line.Price, &line.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OrderLineRecord{}, storage.ErrNotFound
		}
		return storage.OrderLineRecord{}, fmt.Errorf("get order line: %w", err)
	}
	return line, nil
}

// DeleteOrderLine removes a line row.
func (s *Store) DeleteOrderLine(ctx context.Context, orderUID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM order_lines WHERE order_uid = ? AND product_id = ?`, orderUID, productID)
	if err != nil {
		return fmt.Errorf("delete order line: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListOrderLines returns the order's lines ordered by ascending rowid, which
// is first-insertion order.
func (s *Store) ListOrderLines(ctx context.Context, orderUID string) ([]storage.OrderLineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT order_uid, product_id, product_name, price, quantity
		   FROM order_lines
		  WHERE order_uid = ?
		  ORDER BY id`, orderUID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []storage.OrderLineRecord
	for rows.Next() {
		var line storage.OrderLineRecord
		if err := rows.Scan(&line.OrderUID, &line.ProductID, &line.ProductName, &line.Price, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}
