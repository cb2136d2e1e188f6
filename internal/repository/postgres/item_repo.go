// internal/repository/postgres/item_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"mealdesk-service/internal/domain/menu"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemRepository struct {
	db *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, branch_id, name, description, price, is_vegetarian,
	is_available, image_url, created_at, updated_at`

// GetByID loads one item.
func (r *ItemRepository) GetByID(ctx context.Context, itemID int64) (*menu.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	var it menu.Item
	err := r.db.QueryRow(ctx, query, itemID).Scan(
		&it.ID, &it.BranchID, &it.Name, &it.Description, &it.Price,
		&it.IsVegetarian, &it.IsAvailable, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &it, nil
}

// GetByIDs returns items keyed by ID, preserving nothing about input order.
// Missing IDs are simply absent from the map; callers decide whether that is
// an error.
func (r *ItemRepository) GetByIDs(ctx context.Context, itemIDs []int64) (map[int64]menu.Item, error) {
	if len(itemIDs) == 0 {
		return map[int64]menu.Item{}, nil
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64]menu.Item, len(itemIDs))
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.BranchID, &it.Name, &it.Description, &it.Price,
			&it.IsVegetarian, &it.IsAvailable, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items[it.ID] = it
	}
	return items, rows.Err()
}

// ListAvailableByBranch returns items currently orderable at the branch.
func (r *ItemRepository) ListAvailableByBranch(ctx context.Context, branchID int64) ([]menu.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE branch_id = $1 AND is_available = TRUE ORDER BY name`

	rows, err := r.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.BranchID, &it.Name, &it.Description, &it.Price,
			&it.IsVegetarian, &it.IsAvailable, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts a new item.
func (r *ItemRepository) Create(ctx context.Context, it *menu.Item) error {
	query := `
		INSERT INTO items (branch_id, name, description, price, is_vegetarian, is_available, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		it.BranchID, it.Name, it.Description, it.Price,
		it.IsVegetarian, it.IsAvailable, it.ImageURL,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// SetAvailability toggles an item on or off the menu.
func (r *ItemRepository) SetAvailability(ctx context.Context, itemID int64, available bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET is_available = $2, updated_at = NOW() WHERE id = $1`,
		itemID, available,
	)
	if err != nil {
		return fmt.Errorf("failed to update item availability: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
