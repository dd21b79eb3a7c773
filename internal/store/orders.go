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

// CreateOrderRequest carries the raw items of an incoming purchase order.
// Unit prices are taken from the caller, not the catalog: an order records
// what the stock was actually bought for.
type CreateOrderRequest struct {
	Items []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s", uuid.NewString())
}

// CreateOrder validates and enriches the raw items, persists the order and
// adds the ordered quantities to inventory, all inside one transaction. An
// unknown product id aborts before any write; orders never fail on
// insufficiency because they only add stock.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
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
			items[i] = models.LineItem{
				ProductID:  raw.ProductID,
				SupplierID: catalog[raw.ProductID].SupplierID,
				Quantity:   raw.Quantity,
				UnitPrice:  raw.UnitPrice,
				Subtotal:   raw.UnitPrice.Mul(decimal.NewFromInt(int64(raw.Quantity))),
			}
		}

		itemsJSON, err := marshalLineItems(items)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderNumber: generateOrderNumber(),
			Items:       items,
			TotalAmount: sumSubtotals(items),
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, line_items, total_amount, created_at)
			 VALUES ($1, $2, $3, NOW())
			 RETURNING id, created_at`,
			order.OrderNumber, itemsJSON, order.TotalAmount).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range items {
			if err := IncreaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}
	var itemsJSON []byte

	query := `
		SELECT id, order_number, line_items, total_amount, created_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&itemsJSON,
		&order.TotalAmount,
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.Items, err = unmarshalLineItems(itemsJSON)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders pages through orders newest first.
func ListOrders(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, order_number, line_items, total_amount, created_at
		FROM orders
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		var itemsJSON []byte
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&itemsJSON,
			&order.TotalAmount,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if order.Items, err = unmarshalLineItems(itemsJSON); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(RecordCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
