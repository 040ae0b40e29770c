package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"

	"github.com/railbook/train-booking-system/internal/cache"
	"github.com/railbook/train-booking-system/internal/config"
	"github.com/railbook/train-booking-system/internal/database"
	"github.com/railbook/train-booking-system/internal/handlers"
	"github.com/railbook/train-booking-system/internal/inventory"
	"github.com/railbook/train-booking-system/internal/router"
	"github.com/railbook/train-booking-system/internal/routes"
	"github.com/railbook/train-booking-system/internal/service"
	"github.com/railbook/train-booking-system/internal/websocket"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Connect to database
	log.Println("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := database.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Connected to database")

	// Redis availability cache (optional)
	var availCache *cache.AvailabilityCache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, availability cache disabled: %v", cfg.RedisAddr, err)
	} else {
		availCache = cache.New(rdb, cfg.CacheTTL)
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	}

	// Temporal client (optional; holds then expire via the sweep only)
	var temporalClient client.Client
	if tc, err := client.Dial(client.Options{HostPort: cfg.TemporalHost}); err != nil {
		log.Printf("Temporal unavailable at %s, hold workflows disabled: %v", cfg.TemporalHost, err)
	} else {
		temporalClient = tc
		defer temporalClient.Close()
		log.Printf("Connected to Temporal at %s", cfg.TemporalHost)
	}

	// Publish route templates
	model := routes.NewModel()
	if err := seedRoutes(model); err != nil {
		log.Fatalf("Failed to publish routes: %v", err)
	}

	// WebSocket hub for availability change notifications
	hub := websocket.NewHub()
	go hub.Run()

	manager := inventory.NewManager(store)
	bookingService := service.NewBookingService(model, manager, store, availCache, hub, temporalClient)

	h := handlers.NewHandler(bookingService, hub)
	r := router.SetupRouter(h)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
