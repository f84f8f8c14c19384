package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"banklend/pkg/cache"
	"banklend/pkg/ledger"
	"banklend/pkg/models"
	"banklend/pkg/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedCustomers inserts the sample customers if they are not already
// present. Customer onboarding is otherwise external to this service.
func seedCustomers(s store.Storage) error {
	samples := []*models.Customer{
		{ID: "CUST001", Name: "John Doe"},
		{ID: "CUST002", Name: "Jane Smith"},
		{ID: "CUST003", Name: "Alice Johnson"},
	}
	for _, customer := range samples {
		customer.CreatedAt = time.Now()
		if err := s.SeedCustomer(customer); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	addr := envOr("ADDR", ":8080")
	dbPath := envOr("DB_PATH", "banklend.db")

	sqliteStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	if err := seedCustomers(sqliteStore); err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	var customerCache cache.Cache = cache.NewMemoryCache()
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		customerCache = cache.NewRedisCache(redisAddr)
		log.Printf("Using Redis customer cache at %s", redisAddr)
	}

	server := NewServer(ledger.New(sqliteStore, customerCache))

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handlers.LoggingHandler(os.Stdout, cors(server.Routes())),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Bank lending API listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalf("Server error: %v", err)
	case <-quit:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Server exited")
}
