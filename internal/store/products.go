package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
	"github.com/shopspring/decimal"
)

func CreateProduct(ctx context.Context, db *sql.DB, p models.Product) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (name, category, unit_price, supplier_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, category, unit_price, supplier_id`

	err := db.QueryRowContext(ctx, query, p.Name, p.Category, p.UnitPrice, p.SupplierID).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.UnitPrice,
		&product.SupplierID,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, name, category, unit_price, supplier_id
		FROM products
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.UnitPrice,
		&product.SupplierID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ListProducts returns all products, optionally filtered by supplier.
func ListProducts(ctx context.Context, db *sql.DB, supplierID int64) ([]models.Product, error) {
	query := `
		SELECT id, name, category, unit_price, supplier_id
		FROM products
		WHERE ($1 = 0 OR supplier_id = $1)
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.UnitPrice,
			&product.SupplierID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, p models.Product) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET name = $2, category = $3, unit_price = $4, supplier_id = $5
		WHERE id = $1
		RETURNING id, name, category, unit_price, supplier_id`

	err := db.QueryRowContext(ctx, query, p.ID, p.Name, p.Category, p.UnitPrice, p.SupplierID).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.UnitPrice,
		&product.SupplierID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// CatalogEntry is what a workflow needs from the catalog to enrich a raw
// line item.
type CatalogEntry struct {
	UnitPrice  decimal.Decimal
	SupplierID int64
}

// LookupProducts resolves price and supplier for a batch of product ids in
// one query. If any id is absent the whole lookup fails with an
// UnknownProductsError naming every missing id; callers never get a partial
// result.
func LookupProducts(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]CatalogEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, unit_price, supplier_id
		 FROM products
		 WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}
	defer rows.Close()

	catalog := make(map[int64]CatalogEntry, len(ids))
	for rows.Next() {
		var id int64
		var entry CatalogEntry
		if err := rows.Scan(&id, &entry.UnitPrice, &entry.SupplierID); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		catalog[id] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &database.UnknownProductsError{IDs: missing}
	}

	return catalog, nil
}
