// Package main is the entry point for the EHS incident and hazard server.
// It provides a REST API for reporting incidents and hazards, the approval
// workflow, corrective action tracking and the in-app notification inbox.
//
// Architecture:
//   - Record status is derived from action items by the aggregator
//   - Lifecycle changes travel over an in-process event bus
//   - Notification rules route events to stakeholders by role and location
//   - Email is queued in Redis and delivered by background workers
//   - A periodic sweep raises overdue events once per record per day
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aawaaz/ehs-server/internal/app"
	"github.com/aawaaz/ehs-server/internal/config"
	"github.com/aawaaz/ehs-server/internal/handlers"
	"github.com/aawaaz/ehs-server/internal/logging"
	"github.com/aawaaz/ehs-server/internal/middleware"
	"github.com/aawaaz/ehs-server/internal/models"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "ehs-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting EHS Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"mail_transport", cfg.Mail.Transport,
		"timezone", cfg.Location.String(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.Build(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Background workers
	go a.Overdue.Start(ctx, cfg.OverdueSweepInterval)
	for _, w := range a.MailWorkers {
		go w.Start(ctx)
	}

	// Initialize handlers
	recordHandler := handlers.NewRecordHandler(a.RecordService, a.Approvals, sugar)
	actionItemHandler := handlers.NewActionItemHandler(a.ActionItems, a.RecordService, a.Clock, sugar)
	notificationHandler := handlers.NewNotificationHandler(a.Inbox, sugar)
	ruleHandler := handlers.NewRuleHandler(a.Rules, sugar)

	var dbPing, redisPing handlers.Pinger
	if a.Pool != nil {
		dbPing = a.Pool.Ping
	}
	if a.Redis != nil {
		redisPing = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	healthHandler := handlers.NewHealthHandler(dbPing, redisPing, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPM))

	approvers := middleware.RequireRole(models.RoleSafetyManager, models.RolePlantHead)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Route("/records", func(r chi.Router) {
				r.Post("/", recordHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", recordHandler.Get)
					r.Post("/submit", recordHandler.Submit)
					r.With(approvers).Post("/approve", recordHandler.Approve)
					r.With(approvers).Post("/reject", recordHandler.Reject)
					r.With(approvers).Post("/close", recordHandler.Close)

					r.Get("/action-items", actionItemHandler.List)
					r.Post("/action-items", actionItemHandler.Create)
					r.Get("/action-items/export", actionItemHandler.Export)
				})
			})

			r.Route("/action-items/{itemID}", func(r chi.Router) {
				r.Put("/", actionItemHandler.Update)
				r.Delete("/", actionItemHandler.Delete)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/{id}/read", notificationHandler.MarkRead)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/", ruleHandler.List)
				r.Put("/", ruleHandler.Upsert)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
