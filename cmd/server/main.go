/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the project ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (.env, environment), then apply command-line flags
  2. Initialize SQLite store
  3. Start notification dispatcher and websocket hub
  4. Create ledger service, handler, and router
  5. Start reminder scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -port    HTTP server port
  -db      SQLite database path (":memory:" for in-memory)
  -env     Path to a .env file (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop scheduler, drain notification queue
  4. Close database connection

EXAMPLES:
  ./server -db="./data/ledger.db"
  PORT=3000 SESSION_SECRET=... ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/project-engine/api"
	"github.com/warp/project-engine/config"
	"github.com/warp/project-engine/ledger"
	"github.com/warp/project-engine/notify"
	"github.com/warp/project-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Notifications
	hub := notify.NewHub(nil)
	dispatcher := notify.NewDispatcher(store, hub, cfg.NotifyBuffer)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Service and handler
	svc := ledger.NewService(store, dispatcher)
	svc.ResponseWindow = cfg.ResponseWindow
	handler := api.NewHandler(svc, store, hub)

	authz, err := api.NewAuthorizer()
	if err != nil {
		log.Fatalf("Failed to initialize authorization: %v", err)
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		Sessions:    api.NewSessions(cfg.SessionSecret),
		Authorizer:  authz,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Reminder scheduler
	scheduler := api.NewReminderScheduler(svc)
	scheduler.CheckInterval = cfg.ReminderInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Create server. No WriteTimeout: websocket streams are long-lived.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
