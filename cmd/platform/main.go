package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/police-portal/platform/internal/adapters/registry"
	"github.com/police-portal/platform/internal/audit"
	casesapi "github.com/police-portal/platform/internal/cases/api"
	casesinfra "github.com/police-portal/platform/internal/cases/infrastructure"
	"github.com/police-portal/platform/internal/complaint"
	"github.com/police-portal/platform/internal/identity"
	"github.com/police-portal/platform/internal/interrogation"
	"github.com/police-portal/platform/internal/notification"
	"github.com/police-portal/platform/internal/payment"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/reward"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/config"
	"github.com/police-portal/platform/internal/shared/database"
	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/metrics"
	secmiddleware "github.com/police-portal/platform/internal/shared/middleware"
	"github.com/police-portal/platform/internal/suspect"
	"github.com/police-portal/platform/internal/trial"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Event bus is optional: handlers publish only when it is present
	var bus events.EventBus
	if cfg.EventStore.Enabled {
		esBus, err := events.NewBus(ctx, cfg.EventStore)
		if err != nil {
			fmt.Printf("Warning: EventStoreDB not available: %v\n", err)
			fmt.Println("Running without event streaming...")
		} else {
			app.Bus = esBus
			bus = esBus
			defer esBus.Close()
			fmt.Println("Event bus initialized")
		}
	}

	// Civil registry adapter is optional: registration then skips the
	// registry cross-check
	var civilRegistry registry.Registry
	if cfg.Registry.Enabled {
		reg, err := registry.Connect(ctx, cfg.Registry)
		if err != nil {
			fmt.Printf("Warning: civil registry not available: %v\n", err)
		} else {
			civilRegistry = reg
			defer reg.Close()
			fmt.Println("Civil registry adapter connected")
		}
	}

	// Payment gateway is optional: payments stay pending without it
	var gateway payment.Gateway
	if cfg.Gateway.Enabled {
		gateway = payment.NewHTTPGateway(cfg.Gateway)
		fmt.Printf("Payment gateway enabled (%s)\n", cfg.Gateway.URL)
	}

	// Repositories
	userRepo := identity.NewRepository(db.Pool)
	roleRepo := rbac.NewRepository(db.Pool)
	caseRepo := casesinfra.NewPostgresRepository(db.Pool)
	complaintRepo := complaint.NewRepository(db.Pool)
	interrogationRepo := interrogation.NewRepository(db.Pool)
	suspectRepo := suspect.NewRepository(db.Pool)
	rewardRepo := reward.NewRepository(db.Pool)
	paymentRepo := payment.NewRepository(db.Pool)
	trialRepo := trial.NewRepository(db.Pool)
	notificationRepo := notification.NewRepository(db.Pool)
	auditRepo := audit.NewRepository(db.Pool)

	if err := auditRepo.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "audit initialization failed: %v\n", err)
		os.Exit(1)
	}

	// In-app notification delivery
	notifier := notification.NewService(notificationRepo, notification.DefaultServiceConfig())
	if err := notifier.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "notification service failed to start: %v\n", err)
		os.Exit(1)
	}
	defer notifier.Stop()

	// Audit subscriber persists domain events into the hash chain
	if bus != nil {
		auditSubscriber := audit.NewSubscriber(auditRepo, bus)
		if err := auditSubscriber.Start(ctx); err != nil {
			fmt.Printf("Warning: audit subscriber failed to start: %v\n", err)
		} else {
			fmt.Println("Audit subscriber started")
		}
	}

	// Handlers
	verifier := identity.NewVerifier(userRepo, civilRegistry)
	identityHandler := identity.NewHandler(userRepo, roleRepo, verifier)
	rbacHandler := rbac.NewHandler(roleRepo)
	casesHandler := casesapi.NewHandler(caseRepo, roleRepo, verifier, bus, notifier)
	complaintHandler := complaint.NewHandler(complaintRepo, roleRepo, bus, notifier)
	interrogationHandler := interrogation.NewHandler(interrogationRepo, caseRepo, suspectRepo, bus, notifier)
	suspectHandler := suspect.NewHandler(suspectRepo, caseRepo, bus, notifier)
	rewardHandler := reward.NewHandler(rewardRepo, suspectRepo, caseRepo, bus)
	paymentHandler := payment.NewHandler(paymentRepo, suspectRepo, gateway)
	trialHandler := trial.NewHandler(trialRepo, bus)
	notificationHandler := notification.NewHandler(notificationRepo)
	auditHandler := audit.NewHandler(auditRepo)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	// Public routes, rate limited per IP: citizens do not authenticate
	// to register, submit tips, look up rewards, or browse the
	// most-wanted list
	publicLimiter := secmiddleware.NewIPRateLimiter(5, 10)
	r.Group(func(r chi.Router) {
		r.Use(publicLimiter.Middleware)
		r.Post("/api/v1/register", identityHandler.Register)
		r.Post("/api/v1/tips", rewardHandler.SubmitTip)
		r.Get("/api/v1/rewards/lookup", rewardHandler.Lookup)
		r.Get("/api/v1/most-wanted", suspectHandler.MostWanted)
	})

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))

		r.Mount("/identity", identityHandler.Routes())
		r.Mount("/roles", rbacHandler.Routes())
		r.Mount("/complaints", complaintHandler.Routes())
		r.Mount("/cases", casesHandler.Routes())
		r.Mount("/interrogations", interrogationHandler.Routes())
		r.Mount("/suspects", suspectHandler.Routes())
		r.Mount("/rewards", rewardHandler.Routes())
		r.Mount("/payments", paymentHandler.Routes())
		r.Mount("/trials", trialHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
		r.Mount("/audit", auditHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Police Case Management Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:  %s\n", cfg.Server.Env)
	fmt.Printf("Server:       http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:          http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:       http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("EventStore:   enabled=%v %s:%d\n", cfg.EventStore.Enabled, cfg.EventStore.Host, cfg.EventStore.Port)
	fmt.Printf("Registry:     enabled=%v\n", cfg.Registry.Enabled)
	fmt.Printf("Gateway:      enabled=%v\n", cfg.Gateway.Enabled)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Police Case Management Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
