package database

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/domain"
)

// CartStore persists carts and their line items
type CartStore struct {
	q dbtx
}

// FindActiveByCustomer returns the customer's active cart with its items
func (s *CartStore) FindActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, total_price, status, created_at, updated_at
		FROM carts
		WHERE customer_id = ? AND status = ?
	`

	var cart domain.Cart
	var createdAtStr, updatedAtStr string
	err := s.q.QueryRowContext(ctx, query, customerID, domain.CartStatusActive).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.TotalPrice,
		&cart.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCartNotFound, "find cart")
	}
	cart.CreatedAt = parseTime(createdAtStr)
	cart.UpdatedAt = parseTime(updatedAtStr)

	items, err := s.loadItems(ctx, cart.ID.String())
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (s *CartStore) loadItems(ctx context.Context, cartID string) ([]domain.CartLineItem, error) {
	query := `
		SELECT id, product_id, quantity, selected_color, selected_size
		FROM cart_items
		WHERE cart_id = ?
		ORDER BY position
	`
	rows, err := s.q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartLineItem, 0)
	for rows.Next() {
		var item domain.CartLineItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.SelectedColor, &item.SelectedSize); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// Create inserts a new cart with its items
func (s *CartStore) Create(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, customer_id, total_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		cart.ID.String(), cart.CustomerID, cart.TotalPrice, cart.Status,
		formatTime(cart.CreatedAt), formatTime(cart.UpdatedAt),
	)
	if err != nil {
		// Another request created the customer's active cart first
		if isUniqueViolation(err) {
			return domain.ErrConcurrentUpdate
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return s.writeItems(ctx, cart)
}

// Save updates the cart and replaces its items
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	query := `
		UPDATE carts
		SET total_price = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query, cart.TotalPrice, cart.Status, formatTime(now), cart.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrCartNotFound
	}
	cart.UpdatedAt = now

	if _, err := s.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID.String()); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return s.writeItems(ctx, cart)
}

func (s *CartStore) writeItems(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, selected_color, selected_size, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, item := range cart.Items {
		_, err := s.q.ExecContext(ctx, query,
			item.ID.String(), cart.ID.String(), item.ProductID.String(),
			item.Quantity, item.SelectedColor, item.SelectedSize, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate cart line for product %s: %w", item.ProductID, err)
			}
			return fmt.Errorf("failed to write cart item: %w", err)
		}
	}
	return nil
}
