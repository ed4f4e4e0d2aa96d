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
	"github.com/healthreach/platform/internal/adapters/his"
	"github.com/healthreach/platform/internal/appointment"
	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/dashboard"
	"github.com/healthreach/platform/internal/enrollment"
	"github.com/healthreach/platform/internal/identity"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/auth"
	"github.com/healthreach/platform/internal/shared/config"
	"github.com/healthreach/platform/internal/shared/database"
	"github.com/healthreach/platform/internal/shared/events"
	"github.com/healthreach/platform/internal/shared/metrics"
	secmiddleware "github.com/healthreach/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
	HIS    *his.Adapter
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
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Event bus is optional; the platform runs without it
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore)
		if err != nil {
			fmt.Printf("Warning: EventStore not available: %v\n", err)
			fmt.Println("Running without event streaming...")
		} else {
			app.Bus = bus
			defer bus.Close()
			fmt.Println("EventStore bus initialized")
		}
	}

	// Repositories
	clientRepo := client.NewRepository(db.Pool)
	programRepo := program.NewRepository(db.Pool)
	enrollmentRepo := enrollment.NewRepository(db.Pool)
	appointmentRepo := appointment.NewRepository(db.Pool)
	operatorRepo := identity.NewRepository(db.Pool)

	if err := identity.Bootstrap(ctx, operatorRepo, cfg.Auth); err != nil {
		fmt.Printf("Warning: operator bootstrap failed: %v\n", err)
	}

	// Handlers
	clientHandler := client.NewHandler(clientRepo, app.Bus)
	programHandler := program.NewHandler(programRepo, app.Bus)
	enrollmentHandler := enrollment.NewHandler(enrollmentRepo, app.Bus)
	appointmentHandler := appointment.NewHandler(appointmentRepo, app.Bus)
	dashboardHandler := dashboard.NewHandler(clientRepo, programRepo, enrollmentRepo, appointmentRepo)
	identityHandler := identity.NewHandler(operatorRepo, cfg.Auth)

	// Legacy HIS importer
	if cfg.HIS.Enabled {
		app.HIS = his.New(cfg.HIS, appointmentRepo)
		if err := app.HIS.Start(ctx); err != nil {
			fmt.Printf("Warning: HIS importer failed to start: %v\n", err)
			app.HIS = nil
		} else {
			fmt.Println("HIS appointment importer started")
		}
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	loginLimiter := secmiddleware.NewIPRateLimiter(cfg.Server.LoginRateLimit, cfg.Server.LoginRateBurst)

	r.Route("/api/v1", func(r chi.Router) {
		// Login is public but rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Middleware)
			r.Mount("/auth", identityHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			if cfg.Server.Env == "production" {
				r.Use(auth.Middleware(cfg.Auth))
			}

			r.Mount("/clients", clientHandler.Routes())
			r.Mount("/programs", programHandler.Routes(enrollmentHandler.RosterRoutes()))
			r.Mount("/enrollments", enrollmentHandler.Routes())
			r.Mount("/appointments", appointmentHandler.Routes())
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
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

		if app.HIS != nil {
			if err := app.HIS.Stop(ctx); err != nil {
				fmt.Printf("HIS importer shutdown error: %v\n", err)
			}
		}

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("HealthReach Case Management Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:  %s\n", cfg.Server.Env)
	fmt.Printf("Server:       http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:          http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:       http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("EventStore:   enabled=%v\n", cfg.EventStore.Enabled)
	fmt.Printf("HIS importer: enabled=%v\n", cfg.HIS.Enabled)
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
		"name":    "HealthReach Case Management Platform",
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

		if app.HIS != nil {
			if err := app.HIS.Health(r.Context()); err != nil {
				checks["his"] = "not ready: " + err.Error()
			} else {
				checks["his"] = "ready"
			}
		} else {
			checks["his"] = "not configured"
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
