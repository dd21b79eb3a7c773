package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest carries the raw items of an incoming sale. Unlike
// orders, callers only say what and how many: unit prices always come from
// the catalog.
type CreateSaleRequest struct {
	Items []SaleItemRequest
}

type SaleItemRequest struct {
	ProductID int64
	Quantity  int
}

// SaleResult distinguishes the three outcomes of a sale: success (Sale
// set), insufficiency (InsufficientStock set, nothing written), and hard
// errors (returned as the error). Insufficiency is a normal business
// outcome, not a failure.
type SaleResult struct {
	Sale              *models.Sale
	InsufficientStock bool
}

func generateSaleNumber() string {
	return fmt.Sprintf("SALE-%s", uuid.NewString())
}

// CreateSale enriches the raw items from the catalog, runs a ledger-wide
// sufficiency check under row locks, and only then persists the sale and
// decrements inventory, all in one transaction. Any shortfall rejects the
// whole sale with nothing written; there is no partial fulfillment.
func CreateSale(ctx context.Context, db *sql.DB, req CreateSaleRequest) (*SaleResult, error) {
	result := &SaleResult{}

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result.Sale = nil
		result.InsufficientStock = false

		ids := make([]int64, len(req.Items))
		for i, item := range req.Items {
			ids[i] = item.ProductID
		}

		catalog, err := LookupProducts(ctx, tx, distinctProductIDs(ids))
		if err != nil {
			return err
		}

		items := make([]models.LineItem, len(req.Items))
		for i, raw := range req.Items {
			entry := catalog[raw.ProductID]
			items[i] = models.LineItem{
				ProductID:  raw.ProductID,
				SupplierID: entry.SupplierID,
				Quantity:   raw.Quantity,
				UnitPrice:  entry.UnitPrice,
				Subtotal:   entry.UnitPrice.Mul(decimal.NewFromInt(int64(raw.Quantity))),
			}
		}

		sufficient, err := CheckSufficiency(ctx, tx, items)
		if err != nil {
			return err
		}
		if !sufficient {
			result.InsufficientStock = true
			return nil
		}

		itemsJSON, err := marshalLineItems(items)
		if err != nil {
			return err
		}

		sale := &models.Sale{
			SaleNumber:  generateSaleNumber(),
			Items:       items,
			TotalAmount: sumSubtotals(items),
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO sales (sale_number, line_items, total_amount, created_at)
			 VALUES ($1, $2, $3, NOW())
			 RETURNING id, created_at`,
			sale.SaleNumber, itemsJSON, sale.TotalAmount).Scan(&sale.ID, &sale.CreatedAt)
		if err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for _, item := range items {
			if err := DecreaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		result.Sale = sale
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func GetSale(ctx context.Context, db *sql.DB, id int64) (*models.Sale, error) {
	sale := &models.Sale{}
	var itemsJSON []byte

	query := `
		SELECT id, sale_number, line_items, total_amount, created_at
		FROM sales
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&sale.ID,
		&sale.SaleNumber,
		&itemsJSON,
		&sale.TotalAmount,
		&sale.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	sale.Items, err = unmarshalLineItems(itemsJSON)
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// ListSales pages through sales newest first.
func ListSales(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, sale_number, line_items, total_amount, created_at
		FROM sales
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		var itemsJSON []byte
		err := rows.Scan(
			&sale.ID,
			&sale.SaleNumber,
			&itemsJSON,
			&sale.TotalAmount,
			&sale.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if sale.Items, err = unmarshalLineItems(itemsJSON); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(sales) > limit
	if hasMore {
		sales = sales[:limit]
	}

	var nextCursor string
	if hasMore {
		last := sales[len(sales)-1]
		nextCursor = EncodeCursor(RecordCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      sales,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
