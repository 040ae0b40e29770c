package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/railbook/train-booking-system/internal/activities"
	"github.com/railbook/train-booking-system/internal/config"
	"github.com/railbook/train-booking-system/internal/database"
	"github.com/railbook/train-booking-system/internal/inventory"
	"github.com/railbook/train-booking-system/internal/routes"
	"github.com/railbook/train-booking-system/internal/service"
	"github.com/railbook/train-booking-system/internal/websocket"
	"github.com/railbook/train-booking-system/internal/workflows"
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
	log.Println("Connected to database")

	store := database.NewStore(pool)
	manager := inventory.NewManager(store)

	// The worker only releases holds, but it still broadcasts the
	// resulting availability changes through the hub.
	hub := websocket.NewHub()
	go hub.Run()

	bookingService := service.NewBookingService(routes.NewModel(), manager, store, nil, hub, nil)

	// Connect to Temporal
	log.Printf("Connecting to Temporal at %s...", cfg.TemporalHost)
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer c.Close()
	log.Println("Connected to Temporal")

	// Create worker
	w := worker.New(c, service.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.HoldWorkflow)
	w.RegisterWorkflow(workflows.SweepWorkflow)

	// Create and register activities
	acts := activities.NewActivities(bookingService)
	w.RegisterActivityWithOptions(acts.ReleaseExpiredHold, activity.RegisterOptions{Name: "ReleaseExpiredHold"})
	w.RegisterActivityWithOptions(acts.SweepExpiredHolds, activity.RegisterOptions{Name: "SweepExpiredHolds"})

	// Kick off the backstop sweep on a fixed schedule. A stable
	// workflow ID makes restarts idempotent.
	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           "expired-hold-sweep",
		TaskQueue:    service.TaskQueue,
		CronSchedule: "* * * * *",
	}, workflows.SweepWorkflow)
	if err != nil {
		log.Printf("Failed to schedule expired-hold sweep: %v", err)
	}

	// Start worker
	log.Println("Starting Temporal worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
