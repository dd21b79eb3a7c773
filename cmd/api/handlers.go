package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/safar/go-inventory/internal/auth"
	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/models"
	"github.com/safar/go-inventory/internal/store"
	"github.com/shopspring/decimal"
)

func handleRegister(db *sql.DB, bcryptCost int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		hash, err := auth.HashPassword(req.Password, bcryptCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		user, err := store.CreateUser(r.Context(), db, req.Username, hash)
		if err != nil {
			if errors.Is(err, database.ErrDuplicateUsername) {
				respondError(w, http.StatusBadRequest, "Username already taken")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, user)
	}
}

func handleLogin(db *sql.DB, issuer *auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := store.GetUserByUsername(r.Context(), db, req.Username)
		if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := issuer.Issue(user.Username)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "bearer",
		})
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			var supplierID int64
			if raw := r.URL.Query().Get("supplier_id"); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					respondError(w, http.StatusBadRequest, "Invalid supplier_id")
					return
				}
				supplierID = id
			}

			products, err := store.ListProducts(ctx, db, supplierID)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusOK, map[string]interface{}{
				"count":    len(products),
				"products": products,
			})

		case http.MethodPost:
			product, ok := decodeProduct(w, r, false)
			if !ok {
				return
			}

			created, err := store.CreateProduct(ctx, db, product)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusCreated, created)

		case http.MethodPut:
			product, ok := decodeProduct(w, r, true)
			if !ok {
				return
			}

			updated, err := store.UpdateProduct(ctx, db, product)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, updated)

		case http.MethodDelete:
			var req struct {
				ProductID int64 `json:"product_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			if err := store.DeleteProduct(ctx, db, req.ProductID); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func decodeProduct(w http.ResponseWriter, r *http.Request, requireID bool) (models.Product, bool) {
	var req struct {
		ID         int64   `json:"id"`
		Name       string  `json:"name"`
		Category   string  `json:"category"`
		UnitPrice  float64 `json:"unit_price"`
		SupplierID int64   `json:"supplier_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return models.Product{}, false
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return models.Product{}, false
	}
	if req.UnitPrice < 0 {
		respondError(w, http.StatusBadRequest, "Unit price must not be negative")
		return models.Product{}, false
	}
	if requireID && req.ID == 0 {
		respondError(w, http.StatusBadRequest, "Product id is required")
		return models.Product{}, false
	}

	return models.Product{
		ID:         req.ID,
		Name:       req.Name,
		Category:   req.Category,
		UnitPrice:  decimal.NewFromFloat(req.UnitPrice),
		SupplierID: req.SupplierID,
	}, true
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := strconv.ParseInt(r.URL.Path[len("/products/"):], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		product, err := store.GetProduct(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleSuppliers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			suppliers, err := store.ListSuppliers(ctx, db, r.URL.Query().Get("location"))
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusOK, map[string]interface{}{
				"count":     len(suppliers),
				"suppliers": suppliers,
			})

		case http.MethodPost:
			supplier, ok := decodeSupplier(w, r, false)
			if !ok {
				return
			}

			created, err := store.CreateSupplier(ctx, db, supplier)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusCreated, created)

		case http.MethodPut:
			supplier, ok := decodeSupplier(w, r, true)
			if !ok {
				return
			}

			updated, err := store.UpdateSupplier(ctx, db, supplier)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, updated)

		case http.MethodDelete:
			var req struct {
				SupplierID int64 `json:"supplier_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			if err := store.DeleteSupplier(ctx, db, req.SupplierID); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Supplier deleted"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func decodeSupplier(w http.ResponseWriter, r *http.Request, requireID bool) (models.Supplier, bool) {
	var req struct {
		ID               int64   `json:"id"`
		Name             string  `json:"name"`
		Location         string  `json:"location"`
		ContactEmail     string  `json:"contact_email"`
		ReliabilityScore float64 `json:"reliability_score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return models.Supplier{}, false
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Supplier name is required")
		return models.Supplier{}, false
	}
	if requireID && req.ID == 0 {
		respondError(w, http.StatusBadRequest, "Supplier id is required")
		return models.Supplier{}, false
	}

	return models.Supplier{
		ID:               req.ID,
		Name:             req.Name,
		Location:         req.Location,
		ContactEmail:     req.ContactEmail,
		ReliabilityScore: decimal.NewFromFloat(req.ReliabilityScore),
	}, true
}

func handleSupplierByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := strconv.ParseInt(r.URL.Path[len("/suppliers/"):], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid supplier ID")
			return
		}

		supplier, err := store.GetSupplier(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, supplier)
	}
}

func handleInventory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		records, err := store.ListInventory(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"count":     len(records),
			"inventory": records,
		})
	}
}

func handleLowInventory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		minQuantity := 10
		if raw := r.URL.Query().Get("min_quantity"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				respondError(w, http.StatusBadRequest, "Invalid min_quantity")
				return
			}
			minQuantity = parsed
		}

		records, err := store.ListLowInventory(r.Context(), db, minQuantity)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"count":     len(records),
			"inventory": records,
		})
	}
}

func handleOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			page, err := store.ListOrders(ctx, db, r.URL.Query().Get("cursor"), listLimit(r))
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusOK, page)

		case http.MethodPost:
			var req struct {
				OrderItems []struct {
					ProductID int64   `json:"product_id"`
					Quantity  int     `json:"quantity"`
					UnitPrice float64 `json:"unit_price"`
				} `json:"order_items"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if len(req.OrderItems) == 0 {
				respondError(w, http.StatusBadRequest, "Order must contain at least one item")
				return
			}

			items := make([]store.OrderItemRequest, len(req.OrderItems))
			for i, item := range req.OrderItems {
				if item.Quantity <= 0 {
					respondError(w, http.StatusBadRequest, "Item quantity must be positive")
					return
				}
				if item.UnitPrice < 0 {
					respondError(w, http.StatusBadRequest, "Unit price must not be negative")
					return
				}
				items[i] = store.OrderItemRequest{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					UnitPrice: decimal.NewFromFloat(item.UnitPrice),
				}
			}

			order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{Items: items})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, order)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := strconv.ParseInt(r.URL.Path[len("/orders/"):], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := store.GetOrder(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}

func handleSales(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			page, err := store.ListSales(ctx, db, r.URL.Query().Get("cursor"), listLimit(r))
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusOK, page)

		case http.MethodPost:
			var req struct {
				SaleItems []struct {
					ProductID int64 `json:"product_id"`
					Quantity  int   `json:"quantity"`
				} `json:"sale_items"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if len(req.SaleItems) == 0 {
				respondError(w, http.StatusBadRequest, "Sale must contain at least one item")
				return
			}

			items := make([]store.SaleItemRequest, len(req.SaleItems))
			for i, item := range req.SaleItems {
				if item.Quantity <= 0 {
					respondError(w, http.StatusBadRequest, "Item quantity must be positive")
					return
				}
				items[i] = store.SaleItemRequest{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				}
			}

			result, err := store.CreateSale(ctx, db, store.CreateSaleRequest{Items: items})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			// Insufficiency is a business outcome, not an error.
			if result.InsufficientStock {
				respondJSON(w, http.StatusOK, map[string]string{"message": "Insufficient inventory"})
				return
			}

			respondJSON(w, http.StatusCreated, result.Sale)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleSaleByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := strconv.ParseInt(r.URL.Path[len("/sales/"):], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid sale ID")
			return
		}

		sale, err := store.GetSale(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, sale)
	}
}

func listLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit
}

func respondStoreError(w http.ResponseWriter, err error) {
	var unknown *database.UnknownProductsError

	switch {
	case errors.As(err, &unknown):
		respondError(w, http.StatusBadRequest, unknown.Error())
	case errors.Is(err, store.ErrInvalidCursor):
		respondError(w, http.StatusBadRequest, "Invalid cursor")
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrSupplierNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrSaleNotFound),
		errors.Is(err, database.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
