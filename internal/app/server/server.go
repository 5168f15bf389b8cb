// Package server assembles the HTTP application from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/domain/core"
	"sitehrm/internal/domain/export"
	"sitehrm/internal/domain/payroll"
	"sitehrm/internal/domain/salary"
	"sitehrm/internal/platform/config"
	cryptoutil "sitehrm/internal/platform/crypto"
	"sitehrm/internal/platform/db"
	"sitehrm/internal/platform/jobs"
	"sitehrm/internal/platform/metrics"
	"sitehrm/internal/transport/http/api"
	attendancehandler "sitehrm/internal/transport/http/handlers/attendance"
	audithandler "sitehrm/internal/transport/http/handlers/audit"
	authhandler "sitehrm/internal/transport/http/handlers/auth"
	corehandler "sitehrm/internal/transport/http/handlers/core"
	payrollhandler "sitehrm/internal/transport/http/handlers/payroll"
	salaryhandler "sitehrm/internal/transport/http/handlers/salary"
	"sitehrm/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
	Logger *slog.Logger
}

// New connects to the database, applies migrations and the seed when enabled, and
// builds the router with every component wired.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !crypto.Configured() {
		logger.Warn("DATA_ENCRYPTION_KEY not set; bank details and exports are stored in plaintext")
	}

	ptTable, err := salary.LoadPTTable(cfg.PTTablePath)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	jobSvc := jobs.New(pool)
	auditSvc := audit.New(pool)
	authStore := auth.NewStore(pool)

	coreStore := core.NewStore(pool, crypto)
	coreSvc := core.NewService(coreStore)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool))
	salarySvc := salary.NewService(salary.NewStore(pool))
	payslipStore := payroll.NewStore(pool)
	payslipSvc := payroll.NewService(payslipStore, coreStore, salarySvc, attendanceSvc, payroll.Options{
		LockPaid:                   cfg.PayslipLockPaid,
		RequireFinalizedAttendance: cfg.RequireFinalizedAttendance,
	}).WithMetrics(collector)
	orchestrator := &payroll.Orchestrator{
		Generator:   payslipSvc,
		Payslips:    payslipStore,
		Employees:   coreStore,
		Structures:  salarySvc,
		Health:      pool,
		Jobs:        jobSvc,
		Sink:        export.NewFileSink(cfg.ExportDir, coreStore, crypto),
		Metrics:     collector,
		Concurrency: cfg.BulkConcurrency,
		LockPaid:    cfg.PayslipLockPaid,
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	router.Use(chimiddleware.CleanPath)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

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
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*10, time.Minute))

		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, auditSvc)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)

		corehandler.NewHandler(coreSvc, auditSvc, authStore).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceSvc, auditSvc, pool, authStore).RegisterRoutes(r)
		salaryhandler.NewHandler(salarySvc, ptTable, cfg.DefaultPTJurisdiction, auditSvc, authStore).RegisterRoutes(r)
		payrollHandler := payrollhandler.NewHandler(payslipSvc, orchestrator, coreStore, jobSvc, auditSvc, pool, authStore)
		payrollHandler.Queue = jobSvc
		payrollHandler.RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobSvc, Logger: logger}, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "sitehrm"),
		slog.String("env", cfg.Environment),
	)
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	a.DB.Close()
}
