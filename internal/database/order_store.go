package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
)

// OrderStore persists orders and their snapshot line items
type OrderStore struct {
	q dbtx
}

const orderColumns = `id, customer_id, customer_name, customer_phone, order_type, total_amount, status,
	cancellation_reason, verified_at, cancelled_at, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var customerID, verifiedAt, cancelledAt sql.NullString
	var orderType, status, createdAtStr, updatedAtStr string

	err := row.Scan(
		&order.ID,
		&customerID,
		&order.CustomerName,
		&order.CustomerPhone,
		&orderType,
		&order.TotalAmount,
		&status,
		&order.CancellationReason,
		&verifiedAt,
		&cancelledAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	order.CustomerID = customerID.String
	order.OrderType = domain.OrderType(orderType)
	order.Status = domain.OrderStatus(status)
	order.VerifiedAt = parseNullTime(verifiedAt)
	order.CancelledAt = parseNullTime(cancelledAt)
	order.CreatedAt = parseTime(createdAtStr)
	order.UpdatedAt = parseTime(updatedAtStr)
	return &order, nil
}

// Create inserts an order and its line items
func (s *OrderStore) Create(ctx context.Context, order *domain.Order) error {
	var customerID sql.NullString
	if order.CustomerID != "" {
		customerID = sql.NullString{String: order.CustomerID, Valid: true}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		order.ID.String(), customerID, order.CustomerName, order.CustomerPhone,
		string(order.OrderType), order.TotalAmount, string(order.Status), order.CancellationReason,
		nullTime(order.VerifiedAt), nullTime(order.CancelledAt),
		formatTime(order.CreatedAt), formatTime(order.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, product_name, unit_price, image_url,
			image_public_id, selected_color, selected_size, quantity, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, item := range order.Items {
		var imageURL, imagePublicID sql.NullString
		if item.Image != nil {
			imageURL = sql.NullString{String: item.Image.URL, Valid: true}
			imagePublicID = sql.NullString{String: item.Image.PublicID, Valid: true}
		}
		_, err := s.q.ExecContext(ctx, itemQuery,
			order.ID.String(), i, item.ProductID.String(), item.ProductName, item.UnitPrice,
			imageURL, imagePublicID, item.SelectedColor, item.SelectedSize, item.Quantity, item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

// FindByID finds an order by ID with its line items
func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(s.q.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrOrderNotFound, "find order")
	}
	if order.Items, err = s.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLineItem, error) {
	query := `
		SELECT product_id, product_name, unit_price, image_url, image_public_id,
			selected_color, selected_size, quantity, subtotal
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`
	rows, err := s.q.QueryContext(ctx, query, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderLineItem, 0)
	for rows.Next() {
		var item domain.OrderLineItem
		var imageURL, imagePublicID sql.NullString
		err := rows.Scan(
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&imageURL,
			&imagePublicID,
			&item.SelectedColor,
			&item.SelectedSize,
			&item.Quantity,
			&item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if imageURL.Valid {
			item.Image = &domain.ImageRef{URL: imageURL.String, PublicID: imagePublicID.String}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

// Save updates the order's status fields. Line items are never rewritten.
func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = ?, cancellation_reason = ?, verified_at = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		string(order.Status), order.CancellationReason,
		nullTime(order.VerifiedAt), nullTime(order.CancelledAt), formatTime(now),
		order.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	order.UpdatedAt = now
	return nil
}

// List lists orders with pagination, newest first
func (s *OrderStore) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	where := `WHERE (? = '' OR status = ?) AND (? = '' OR order_type = ?) AND (? = '' OR customer_id = ?)`
	args := []interface{}{
		string(filter.Status), string(filter.Status),
		string(filter.OrderType), string(filter.OrderType),
		filter.CustomerID, filter.CustomerID,
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders ` + where + ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	// Items are loaded after the order cursor is closed
	for i := range orders {
		items, err := s.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}
