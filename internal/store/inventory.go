package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
)

// GetQuantity reads current stock for a product. A product with no
// inventory row has simply never been stocked, so it reads as zero rather
// than an error.
func GetQuantity(ctx context.Context, db *sql.DB, productID int64) (int, error) {
	var quantity int

	err := db.QueryRowContext(ctx,
		`SELECT quantity FROM inventory WHERE product_id = $1`,
		productID).Scan(&quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get quantity: %w", err)
	}

	return quantity, nil
}

func ListInventory(ctx context.Context, db *sql.DB) ([]models.InventoryRecord, error) {
	return listInventory(ctx, db,
		`SELECT product_id, quantity, last_updated
		 FROM inventory
		 ORDER BY product_id`)
}

// ListLowInventory returns records at or below the given quantity.
func ListLowInventory(ctx context.Context, db *sql.DB, minQuantity int) ([]models.InventoryRecord, error) {
	return listInventory(ctx, db,
		`SELECT product_id, quantity, last_updated
		 FROM inventory
		 WHERE quantity <= $1
		 ORDER BY product_id`, minQuantity)
}

func listInventory(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]models.InventoryRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var records []models.InventoryRecord
	for rows.Next() {
		var record models.InventoryRecord
		if err := rows.Scan(&record.ProductID, &record.Quantity, &record.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// IncreaseStock adds delta to a product's stock, creating the inventory row
// at delta if it does not exist yet.
func IncreaseStock(ctx context.Context, tx *sql.Tx, productID int64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (product_id, quantity, last_updated)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (product_id) DO UPDATE
		 SET quantity = inventory.quantity + EXCLUDED.quantity,
		     last_updated = NOW()`,
		productID, delta)
	if err != nil {
		return fmt.Errorf("increase stock for product %d: %w", productID, err)
	}

	return nil
}

// CheckSufficiency verifies stock covers every line item, locking each
// inventory row so the answer stays true until the transaction commits.
// Quantities are aggregated per product first: duplicate lines for the same
// product must be covered by that product's stock in total, not one line at
// a time. A missing row or a shortfall on any product fails the whole check.
func CheckSufficiency(ctx context.Context, tx *sql.Tx, items []models.LineItem) (bool, error) {
	required := make(map[int64]int, len(items))
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := required[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		required[item.ProductID] += item.Quantity
	}

	for _, productID := range productIDs {
		var quantity int

		err := tx.QueryRowContext(ctx,
			`SELECT quantity
			 FROM inventory
			 WHERE product_id = $1
			 FOR UPDATE`,
			productID).Scan(&quantity)
		if err != nil {
			if err == sql.ErrNoRows {
				return false, nil
			}
			return false, fmt.Errorf("lock inventory for product %d: %w", productID, err)
		}

		if quantity < required[productID] {
			return false, nil
		}
	}

	return true, nil
}

// DecreaseStock removes delta from a product's stock. The conditional
// update guarantees stock never goes negative even if a caller skipped the
// sufficiency check; when that happens it is a caller bug, and the zero-row
// result surfaces it.
func DecreaseStock(ctx context.Context, tx *sql.Tx, productID int64, delta int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - $1,
		     last_updated = NOW()
		 WHERE product_id = $2
		   AND quantity >= $1`,
		delta, productID)
	if err != nil {
		return fmt.Errorf("decrease stock for product %d: %w", productID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("decrease stock for product %d by %d after passed sufficiency check: %w", productID, delta, database.ErrInsufficientStock)
	}

	return nil
}
