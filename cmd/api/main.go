package main

import (
	"context"
	"log"
	"net/http"

	"github.com/safar/go-inventory/internal/auth"
	"github.com/safar/go-inventory/internal/config"
	"github.com/safar/go-inventory/internal/database"
	"github.com/safar/go-inventory/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	issuer, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.SigningAlgorithm, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Create token issuer: %v", err)
	}

	resolver := func(ctx context.Context, username string) (auth.Identity, error) {
		user, err := store.GetUserByUsername(ctx, db, username)
		if err != nil {
			return auth.Identity{}, auth.ErrUnknownSubject
		}
		return auth.Identity{UserID: user.ID, Username: user.Username}, nil
	}
	guard := auth.Middleware(issuer, resolver)

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/register", handleRegister(db, cfg.Auth.BcryptCost))
	mux.HandleFunc("/login", handleLogin(db, issuer))

	mux.Handle("/products", guard(handleProducts(db)))
	mux.Handle("/products/", guard(handleProductByID(db)))
	mux.Handle("/suppliers", guard(handleSuppliers(db)))
	mux.Handle("/suppliers/", guard(handleSupplierByID(db)))
	mux.Handle("/inventory", guard(handleInventory(db)))
	mux.Handle("/inventory/low", guard(handleLowInventory(db)))
	mux.Handle("/orders", guard(handleOrders(db)))
	mux.Handle("/orders/", guard(handleOrderByID(db)))
	mux.Handle("/sales", guard(handleSales(db)))
	mux.Handle("/sales/", guard(handleSaleByID(db)))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "API is running"})
}
