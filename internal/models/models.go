package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Supplier struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Location         string          `json:"location,omitempty"`
	ContactEmail     string          `json:"contact_email,omitempty"`
	ReliabilityScore decimal.Decimal `json:"reliability_score"`
}

type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID int64           `json:"supplier_id"`
}

// InventoryRecord tracks current stock for one product. Rows are created
// lazily by the first order that adds stock; a missing row reads as zero.
type InventoryRecord struct {
	ProductID   int64     `json:"product_id"`
	Quantity    int       `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

// LineItem is an embedded value inside an order or sale, never a row of its
// own. SupplierID is denormalized from the product at enrichment time.
type LineItem struct {
	ProductID  int64           `json:"product_id"`
	SupplierID int64           `json:"supplier_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Order is append-only: once created it is never mutated.
type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Sale is append-only, same shape as Order.
type Sale struct {
	ID          int64           `json:"id"`
	SaleNumber  string          `json:"sale_number"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
