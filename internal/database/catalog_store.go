package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
)

// CatalogStore persists catalog items
type CatalogStore struct {
	q dbtx
}

type imageRecord struct {
	URL       string `json:"url"`
	PublicID  string `json:"publicId"`
	IsPrimary bool   `json:"isPrimary"`
}

const catalogColumns = `id, name, price, description, category, colors, sizes, stock, is_active, images, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCatalogItem(row rowScanner) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	var colorsJSON, sizesJSON, imagesJSON string
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Description,
		&item.Category,
		&colorsJSON,
		&sizesJSON,
		&item.Stock,
		&item.IsActive,
		&imagesJSON,
		&item.Version,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(colorsJSON), &item.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors: %w", err)
	}
	if err := json.Unmarshal([]byte(sizesJSON), &item.Sizes); err != nil {
		return nil, fmt.Errorf("failed to decode sizes: %w", err)
	}
	var images []imageRecord
	if err := json.Unmarshal([]byte(imagesJSON), &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	item.Images = make([]domain.ProductImage, 0, len(images))
	for _, img := range images {
		item.Images = append(item.Images, domain.ProductImage{URL: img.URL, PublicID: img.PublicID, IsPrimary: img.IsPrimary})
	}

	item.CreatedAt = parseTime(createdAtStr)
	item.UpdatedAt = parseTime(updatedAtStr)
	return &item, nil
}

func encodeCatalogJSON(item *domain.CatalogItem) (colors, sizes, images string, err error) {
	colorsJSON, err := json.Marshal(nonNil(item.Colors))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode colors: %w", err)
	}
	sizesJSON, err := json.Marshal(nonNil(item.Sizes))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode sizes: %w", err)
	}
	records := make([]imageRecord, 0, len(item.Images))
	for _, img := range item.Images {
		records = append(records, imageRecord{URL: img.URL, PublicID: img.PublicID, IsPrimary: img.IsPrimary})
	}
	imagesJSON, err := json.Marshal(records)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(colorsJSON), string(sizesJSON), string(imagesJSON), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// FindByID finds a catalog item by ID
func (s *CatalogStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE id = ?`

	item, err := scanCatalogItem(s.q.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrProductNotFound, "find catalog item")
	}
	return item, nil
}

// Create inserts a new catalog item
func (s *CatalogStore) Create(ctx context.Context, item *domain.CatalogItem) error {
	colors, sizes, images, err := encodeCatalogJSON(item)
	if err != nil {
		return err
	}
	if item.Version == 0 {
		item.Version = 1
	}

	query := `
		INSERT INTO catalog_items (` + catalogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.q.ExecContext(ctx, query,
		item.ID.String(), item.Name, item.Price, item.Description, item.Category,
		colors, sizes, item.Stock, item.IsActive, images, item.Version,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("catalog item already exists")
		}
		return fmt.Errorf("failed to create catalog item: %w", err)
	}
	return nil
}

// Save updates a catalog item with optimistic locking on its version
func (s *CatalogStore) Save(ctx context.Context, item *domain.CatalogItem) error {
	colors, sizes, images, err := encodeCatalogJSON(item)
	if err != nil {
		return err
	}

	query := `
		UPDATE catalog_items
		SET name = ?, price = ?, description = ?, category = ?, colors = ?, sizes = ?,
		    stock = ?, is_active = ?, images = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		item.Name, item.Price, item.Description, item.Category, colors, sizes,
		item.Stock, item.IsActive, images, formatTime(now),
		item.ID.String(), item.Version,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewInsufficientStock(item.Name, 0)
		}
		return fmt.Errorf("failed to update catalog item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}

	item.Version++
	item.UpdatedAt = now
	return nil
}

// List lists catalog items with pagination, newest first
func (s *CatalogStore) List(ctx context.Context, filter repository.CatalogFilter) ([]domain.CatalogItem, int, error) {
	where := `WHERE (is_active = 1 OR ?) AND (? = '' OR category = ?)`
	args := []interface{}{filter.IncludeHidden, filter.Category, filter.Category}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count catalog items: %w", err)
	}

	query := `SELECT ` + catalogColumns + ` FROM catalog_items ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0)
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating catalog items: %w", err)
	}

	return items, total, nil
}

// Delete removes a catalog item. Cart lines and order snapshots that reference
// it are left in place.
func (s *CatalogStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete catalog item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
