package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateSaleUsesCatalogPriceAndDecrementsStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "4.25", supplier.ID)
	stockProduct(t, db, product.ID, 10)

	result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{
			{ProductID: product.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if result.InsufficientStock {
		t.Fatal("Sale should not be rejected")
	}
	if result.Sale == nil || result.Sale.ID == 0 {
		t.Fatal("Sale record should be created")
	}

	// 4 * 4.25 from the catalog; the caller never supplies a price.
	expectedTotal := decimal.RequireFromString("17.00")
	if !result.Sale.TotalAmount.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, result.Sale.TotalAmount)
	}
	if !result.Sale.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.25")) {
		t.Errorf("Sale line should carry the catalog price, got %s", result.Sale.Items[0].UnitPrice)
	}
	if result.Sale.Items[0].SupplierID != supplier.ID {
		t.Errorf("Expected enriched supplier %d, got %d", supplier.ID, result.Sale.Items[0].SupplierID)
	}

	quantity, err := store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 6 {
		t.Errorf("Expected stock 6 after sale, got %d", quantity)
	}
}

func TestSaleInsufficientStockScenario(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "1.00", supplier.ID)
	stockProduct(t, db, product.ID, 5)

	// First sale of 3 succeeds, stock drops to 2.
	first, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if first.InsufficientStock || first.Sale == nil {
		t.Fatalf("First sale should succeed, got %+v", first)
	}

	quantity, err := store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 2 {
		t.Errorf("Expected stock 2, got %d", quantity)
	}

	// Second identical sale is rejected softly, stock stays at 2.
	second, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if !second.InsufficientStock {
		t.Error("Second sale should report insufficient stock")
	}
	if second.Sale != nil {
		t.Error("Rejected sale should not carry a record")
	}

	quantity, err = store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 2 {
		t.Errorf("Stock should remain 2 after rejection, got %d", quantity)
	}

	var saleCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&saleCount); err != nil {
		t.Fatalf("Count sales: %v", err)
	}
	if saleCount != 1 {
		t.Errorf("Expected exactly 1 sale record, got %d", saleCount)
	}
}

func TestSaleDuplicateLinesCheckedInAggregate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "1.00", supplier.ID)
	stockProduct(t, db, product.ID, 5)

	// Each line alone fits within stock 5, but together they ask for 6;
	// the sale must be rejected softly, not fail partway through the
	// decrements.
	result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if !result.InsufficientStock {
		t.Error("Duplicate lines exceeding stock in total should be rejected")
	}
	if result.Sale != nil {
		t.Error("Rejected sale should not carry a record")
	}

	quantity, err := store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 5 {
		t.Errorf("Stock should remain 5 after rejection, got %d", quantity)
	}

	var saleCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&saleCount); err != nil {
		t.Fatalf("Count sales: %v", err)
	}
	if saleCount != 0 {
		t.Errorf("Expected no sale records, got %d", saleCount)
	}

	// With enough stock the same duplicate-line request succeeds and
	// decrements once per line.
	stockProduct(t, db, product.ID, 5)
	result, err = store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if result.InsufficientStock || result.Sale == nil {
		t.Fatalf("Sale should succeed with stock 10, got %+v", result)
	}
	if len(result.Sale.Items) != 2 {
		t.Errorf("Expected 2 line items, got %d", len(result.Sale.Items))
	}

	quantity, err = store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 4 {
		t.Errorf("Expected stock 4 after selling 6 of 10, got %d", quantity)
	}
}

func TestSaleRejectedWhenAnyItemShort(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	stocked := createTestProduct(t, db, "Widget", "1.00", supplier.ID)
	unstocked := createTestProduct(t, db, "Gadget", "1.00", supplier.ID)
	stockProduct(t, db, stocked.ID, 100)

	// The second item has no inventory row at all, which counts as
	// insufficient; the whole sale must be rejected with no decrement.
	result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{
			{ProductID: stocked.ID, Quantity: 1},
			{ProductID: unstocked.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	if !result.InsufficientStock {
		t.Error("Sale should be rejected when any item is short")
	}

	quantity, err := store.GetQuantity(ctx, db, stocked.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 100 {
		t.Errorf("Stocked product should be untouched, got %d", quantity)
	}
}

func TestSaleUnknownProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
		Items: []store.SaleItemRequest{{ProductID: 424242, Quantity: 1}},
	})

	var unknown *database.UnknownProductsError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownProductsError, got: %v", err)
	}

	var saleCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&saleCount); err != nil {
		t.Fatalf("Count sales: %v", err)
	}
	if saleCount != 0 {
		t.Errorf("Expected no sales, got %d", saleCount)
	}
}

func TestConcurrentSalesNeverOverdraw(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "1.00", supplier.ID)
	stockProduct(t, db, product.ID, 10)

	concurrency := 10
	var wg sync.WaitGroup
	results := make(chan *store.SaleResult, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
				Items: []store.SaleItemRequest{{ProductID: product.ID, Quantity: 2}},
			})
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			results <- result
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	rejectedCount := 0
	for result := range results {
		if result.InsufficientStock {
			rejectedCount++
		} else {
			successCount++
		}
	}

	// 10 units cover exactly 5 sales of 2; the rest must be rejected.
	if successCount != 5 {
		t.Errorf("Expected 5 successful sales, got %d", successCount)
	}
	if rejectedCount != 5 {
		t.Errorf("Expected 5 rejected sales, got %d", rejectedCount)
	}

	quantity, err := store.GetQuantity(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get quantity: %v", err)
	}
	if quantity != 0 {
		t.Errorf("Expected final stock 0, got %d", quantity)
	}
}

func TestGetAndListSales(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "2.00", supplier.ID)
	stockProduct(t, db, product.ID, 50)

	var lastID int64
	for i := 0; i < 3; i++ {
		result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{
			Items: []store.SaleItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("Create sale %d: %v", i, err)
		}
		lastID = result.Sale.ID
	}

	sale, err := store.GetSale(ctx, db, lastID)
	if err != nil {
		t.Fatalf("Get sale: %v", err)
	}
	if len(sale.Items) != 1 || sale.Items[0].ProductID != product.ID {
		t.Errorf("Unexpected sale items: %+v", sale.Items)
	}

	page, err := store.ListSales(ctx, db, "", 10)
	if err != nil {
		t.Fatalf("List sales: %v", err)
	}
	if page.HasMore {
		t.Error("Should not have more than one page")
	}

	if _, err := store.GetSale(ctx, db, 999999); !errors.Is(err, database.ErrSaleNotFound) {
		t.Errorf("Expected ErrSaleNotFound, got: %v", err)
	}
}
