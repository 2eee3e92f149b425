package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/swarmpilot/swarmpilot/internal/adapter/auditlog"
	sphttp "github.com/swarmpilot/swarmpilot/internal/adapter/http"
	"github.com/swarmpilot/swarmpilot/internal/adapter/localllm"
	spotel "github.com/swarmpilot/swarmpilot/internal/adapter/otel"
	"github.com/swarmpilot/swarmpilot/internal/adapter/ristretto"
	"github.com/swarmpilot/swarmpilot/internal/adapter/ws"
	"github.com/swarmpilot/swarmpilot/internal/config"
	"github.com/swarmpilot/swarmpilot/internal/logger"
	"github.com/swarmpilot/swarmpilot/internal/middleware"
	"github.com/swarmpilot/swarmpilot/internal/service"
)

func main() {
	fallback := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(fallback)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLogger := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLogger.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"workspace", cfg.Dispatch.Workspace,
		"queue_capacity", cfg.Dispatch.QueueCapacity,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// Telemetry (no-op unless an OTLP endpoint is configured)
	shutdownOtel, err := spotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(shutdownCtx)
	}()

	metrics, err := spotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// In-process cache backing the idempotency layer
	store, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub()
	audit := auditlog.New(cfg.Audit.Path)
	registry := service.NewRegistry(cfg.Agents)

	manager := service.NewManager(cfg.Dispatch, registry)
	manager.SetAuditLog(audit)
	manager.SetBroadcaster(hub)
	manager.SetMetrics(metrics)
	if cfg.LocalLLM.URL != "" {
		manager.SetLLM(localllm.NewClient(cfg.LocalLLM.URL, cfg.LocalLLM.Model, cfg.LocalLLM.Timeout))
	}
	manager.Start()
	defer manager.Stop()
	slog.Info("dispatch manager started", "agents", registry.Len())

	// --- HTTP ---
	handlers := sphttp.NewHandlers(manager, audit)

	r := chi.NewRouter()

	// Middleware
	r.Use(sphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(sphttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(sphttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(spotel.HTTPMiddleware("swarmpilot"))
	r.Use(middleware.Idempotency(store, cfg.Cache.IdempotencyTTL))

	// Health endpoint with service status
	r.Get("/health", healthHandler(manager, hub))

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWS)

	// API routes
	sphttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(manager *service.Manager, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		QueueLength   int    `json:"queue_length"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:        "ok",
			QueueLength:   manager.AgentStatus(r.Context()).TaskQueueLength,
			WSConnections: hub.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
