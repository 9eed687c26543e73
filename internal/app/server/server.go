package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"worktrack/internal/domain/audit"
	"worktrack/internal/domain/core"
	"worktrack/internal/domain/importer"
	"worktrack/internal/domain/pay"
	"worktrack/internal/domain/rates"
	"worktrack/internal/domain/reports"
	"worktrack/internal/domain/timeentry"
	"worktrack/internal/platform/config"
	"worktrack/internal/platform/db"
	"worktrack/internal/platform/metrics"
	audithandler "worktrack/internal/transport/http/handlers/audit"
	authhandler "worktrack/internal/transport/http/handlers/auth"
	importshandler "worktrack/internal/transport/http/handlers/imports"
	jobshandler "worktrack/internal/transport/http/handlers/jobs"
	payhandler "worktrack/internal/transport/http/handlers/pay"
	reportshandler "worktrack/internal/transport/http/handlers/reports"
	settingshandler "worktrack/internal/transport/http/handlers/settings"
	technicianshandler "worktrack/internal/transport/http/handlers/technicians"
	timeentrieshandler "worktrack/internal/transport/http/handlers/timeentries"
	"worktrack/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		slog.Error("seed failed", "err", err)
		os.Exit(1)
	}

	router := NewRouter(pool, cfg)

	slog.Info("worktrack server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// NewRouter wires stores, services, and handlers onto a chi router.
func NewRouter(pool *pgxpool.Pool, cfg config.Config) http.Handler {
	collector := metrics.New()

	auditSvc := audit.New(pool)
	coreStore := core.NewStore(pool)
	entryStore := timeentry.NewStore(pool)
	rateStore := rates.NewStore(pool)

	entrySvc := timeentry.NewService(entryStore, auditSvc)
	paySvc := &pay.Service{
		Jobs:    coreStore,
		Entries: entryStore,
		Techs:   coreStore,
		Rates:   rateStore,
		Metrics: collector,
	}
	reportsSvc := &reports.Service{
		Pay:     paySvc,
		Jobs:    coreStore,
		Entries: entryStore,
		Store:   &reports.Store{DB: pool},
	}
	importSvc := &importer.Service{
		Jobs:     coreStore,
		Entries:  entryStore,
		MaxBatch: cfg.ImportMaxWorkOrders,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.With(middleware.RequireAdmin).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(collector.Snapshot()); err != nil {
				slog.Warn("write metrics failed", "err", err)
			}
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authH := authhandler.NewHandler(coreStore, auditSvc, cfg.JWTSecret, cfg.JWTTTL)
		r.Post("/auth/login", authH.HandleLogin)
		r.With(middleware.RequireUser).Get("/auth/me", authH.HandleMe)

		timeentrieshandler.NewHandler(entrySvc).RegisterRoutes(r)
		jobshandler.NewHandler(coreStore, auditSvc).RegisterRoutes(r)
		technicianshandler.NewHandler(coreStore, auditSvc).RegisterRoutes(r)
		payhandler.NewHandler(paySvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		settingshandler.NewHandler(coreStore, rateStore, entrySvc, auditSvc).RegisterRoutes(r)
		importshandler.NewHandler(importSvc, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	return router
}
