package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/go-inventory/internal/models"
	"github.com/safar/go-inventory/internal/store"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

func createTestSupplier(t *testing.T, db *sql.DB, name string) *models.Supplier {
	t.Helper()

	supplier, err := store.CreateSupplier(context.Background(), db, models.Supplier{
		Name:             name,
		Location:         "Rotterdam",
		ContactEmail:     "sales@example.com",
		ReliabilityScore: decimal.RequireFromString("4.5"),
	})
	if err != nil {
		t.Fatalf("Create supplier: %v", err)
	}

	return supplier
}

func createTestProduct(t *testing.T, db *sql.DB, name string, price string, supplierID int64) *models.Product {
	t.Helper()

	product, err := store.CreateProduct(context.Background(), db, models.Product{
		Name:       name,
		Category:   "test",
		UnitPrice:  decimal.RequireFromString(price),
		SupplierID: supplierID,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	return product
}

func stockProduct(t *testing.T, db *sql.DB, productID int64, quantity int) {
	t.Helper()

	_, err := store.CreateOrder(context.Background(), db, store.CreateOrderRequest{
		Items: []store.OrderItemRequest{
			{ProductID: productID, Quantity: quantity, UnitPrice: decimal.RequireFromString("1.00")},
		},
	})
	if err != nil {
		t.Fatalf("Stock product %d: %v", productID, err)
	}
}
