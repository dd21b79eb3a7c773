package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
	"github.com/safar/go-inventory/internal/store"
	"github.com/shopspring/decimal"
)

func TestProductCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")

	product := createTestProduct(t, db, "Widget", "9.99", supplier.ID)
	if product.ID == 0 {
		t.Error("Product ID should not be 0")
	}
	if !product.UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("Expected unit price 9.99, got %s", product.UnitPrice)
	}

	fetched, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if fetched.Name != "Widget" || fetched.SupplierID != supplier.ID {
		t.Errorf("Unexpected product: %+v", fetched)
	}

	fetched.Name = "Widget v2"
	fetched.UnitPrice = decimal.RequireFromString("12.50")
	updated, err := store.UpdateProduct(ctx, db, *fetched)
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Name != "Widget v2" || !updated.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("Unexpected updated product: %+v", updated)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}
	if _, err := store.GetProduct(ctx, db, product.ID); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound after delete, got: %v", err)
	}
}

func TestProductNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.GetProduct(ctx, db, 999999); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got: %v", err)
	}
	if _, err := store.UpdateProduct(ctx, db, models.Product{ID: 999999, Name: "X", UnitPrice: decimal.NewFromInt(1)}); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound on update, got: %v", err)
	}
	if err := store.DeleteProduct(ctx, db, 999999); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound on delete, got: %v", err)
	}
}

func TestListProductsBySupplier(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	acme := createTestSupplier(t, db, "Acme Parts")
	globex := createTestSupplier(t, db, "Globex")

	createTestProduct(t, db, "Widget", "1.00", acme.ID)
	createTestProduct(t, db, "Gadget", "2.00", acme.ID)
	createTestProduct(t, db, "Gizmo", "3.00", globex.ID)

	all, err := store.ListProducts(ctx, db, 0)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 products, got %d", len(all))
	}

	acmeOnly, err := store.ListProducts(ctx, db, acme.ID)
	if err != nil {
		t.Fatalf("List products by supplier: %v", err)
	}
	if len(acmeOnly) != 2 {
		t.Errorf("Expected 2 products for supplier %d, got %d", acme.ID, len(acmeOnly))
	}
	for _, p := range acmeOnly {
		if p.SupplierID != acme.ID {
			t.Errorf("Product %d has supplier %d, want %d", p.ID, p.SupplierID, acme.ID)
		}
	}
}

func TestSupplierCRUDAndOrphaning(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	supplier := createTestSupplier(t, db, "Acme Parts")
	product := createTestProduct(t, db, "Widget", "1.00", supplier.ID)

	located, err := store.ListSuppliers(ctx, db, "Rotterdam")
	if err != nil {
		t.Fatalf("List suppliers: %v", err)
	}
	if len(located) != 1 {
		t.Errorf("Expected 1 supplier in Rotterdam, got %d", len(located))
	}

	elsewhere, err := store.ListSuppliers(ctx, db, "Osaka")
	if err != nil {
		t.Fatalf("List suppliers: %v", err)
	}
	if len(elsewhere) != 0 {
		t.Errorf("Expected no suppliers in Osaka, got %d", len(elsewhere))
	}

	supplier.Name = "Acme International"
	updated, err := store.UpdateSupplier(ctx, db, *supplier)
	if err != nil {
		t.Fatalf("Update supplier: %v", err)
	}
	if updated.Name != "Acme International" {
		t.Errorf("Unexpected supplier name: %q", updated.Name)
	}

	// Deleting a supplier leaves its products behind with a dangling
	// reference; there is no cascade.
	if err := store.DeleteSupplier(ctx, db, supplier.ID); err != nil {
		t.Fatalf("Delete supplier: %v", err)
	}

	orphan, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get orphaned product: %v", err)
	}
	if orphan.SupplierID != supplier.ID {
		t.Errorf("Expected dangling supplier id %d, got %d", supplier.ID, orphan.SupplierID)
	}

	if err := store.DeleteSupplier(ctx, db, supplier.ID); !errors.Is(err, database.ErrSupplierNotFound) {
		t.Errorf("Expected ErrSupplierNotFound on double delete, got: %v", err)
	}
}
