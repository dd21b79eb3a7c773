package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
)

func CreateSupplier(ctx context.Context, db *sql.DB, s models.Supplier) (*models.Supplier, error) {
	supplier := &models.Supplier{}

	query := `
		INSERT INTO suppliers (name, location, contact_email, reliability_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, location, contact_email, reliability_score`

	err := db.QueryRowContext(ctx, query, s.Name, s.Location, s.ContactEmail, s.ReliabilityScore).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Location,
		&supplier.ContactEmail,
		&supplier.ReliabilityScore,
	)
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}

	return supplier, nil
}

func GetSupplier(ctx context.Context, db *sql.DB, id int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}

	query := `
		SELECT id, name, location, contact_email, reliability_score
		FROM suppliers
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Location,
		&supplier.ContactEmail,
		&supplier.ReliabilityScore,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}

	return supplier, nil
}

// ListSuppliers returns all suppliers, optionally filtered by location.
func ListSuppliers(ctx context.Context, db *sql.DB, location string) ([]models.Supplier, error) {
	query := `
		SELECT id, name, location, contact_email, reliability_score
		FROM suppliers
		WHERE ($1 = '' OR location = $1)
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, location)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		var supplier models.Supplier
		err := rows.Scan(
			&supplier.ID,
			&supplier.Name,
			&supplier.Location,
			&supplier.ContactEmail,
			&supplier.ReliabilityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return suppliers, nil
}

func UpdateSupplier(ctx context.Context, db *sql.DB, s models.Supplier) (*models.Supplier, error) {
	supplier := &models.Supplier{}

	query := `
		UPDATE suppliers
		SET name = $2, location = $3, contact_email = $4, reliability_score = $5
		WHERE id = $1
		RETURNING id, name, location, contact_email, reliability_score`

	err := db.QueryRowContext(ctx, query, s.ID, s.Name, s.Location, s.ContactEmail, s.ReliabilityScore).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Location,
		&supplier.ContactEmail,
		&supplier.ReliabilityScore,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("update supplier: %w", err)
	}

	return supplier, nil
}

// DeleteSupplier removes a supplier. Products referencing it are left in
// place with a dangling supplier_id; there is no cascade.
func DeleteSupplier(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrSupplierNotFound
	}

	return nil
}
