package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/infrastructure/auth"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/migration"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/scheduler"
	"github.com/erp/procurement/internal/infrastructure/storage"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/erp/procurement/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	runMigrations := flag.Bool("migrate", false, "Apply pending migrations before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting procurement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Environment:       cfg.App.Env,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Environment:       cfg.App.Env,
	}, cfg.Telemetry.MetricsExportInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	procurementMetrics, err := telemetry.NewProcurementMetrics(mp.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to create procurement metrics", zap.Error(err))
	}

	if *runMigrations {
		applyMigrations(&cfg.Database, log)
	}

	// Database with zap-backed GORM logger and optional query tracing
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log)
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugin(dbTracing),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Idempotency store for approve retries; Redis is mandatory in production
	idempotency, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotency.Close()
	}()

	health := map[string]handler.Pinger{"database": db}

	// Attachment storage
	var blobs procurement.BlobStorage
	switch {
	case cfg.Storage.Enabled:
		s3Store, err := storage.NewS3BlobStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize attachment storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare attachment bucket", zap.Error(err))
		}
		blobs = s3Store
		health["storage"] = s3Store
	case cfg.App.Env == "development":
		log.Warn("Attachment storage disabled, keeping uploads in memory")
		blobs = storage.NewMemoryBlobStorage()
	default:
		log.Warn("Attachment storage disabled, uploads will be rejected")
	}

	// Application services
	settings := procurement.Settings{
		Accounts: journal.Accounts{
			Cash:           cfg.Accounts.Cash,
			VATIn:          cfg.Accounts.VATIn,
			PrepaidPPh:     cfg.Accounts.PrepaidPPh,
			VendorPayable:  cfg.Accounts.VendorPayable,
			AdvancePayment: cfg.Accounts.AdvancePayment,
			TaxClearing:    cfg.Accounts.TaxClearing,
			Inventory:      cfg.Accounts.Inventory,
		},
		Installment: billing.InstallmentRules{
			MinDownPaymentRatio: cfg.Billing.MinDownPaymentRatio,
			MaxPartialPayments:  cfg.Billing.MaxPartialPayments,
		},
	}
	uow := persistence.NewGormUnitOfWork(db.DB)
	billingService := procurement.NewBillingService(uow, settings, log)
	billingService.SetMetrics(procurementMetrics)
	documentService := procurement.NewDocumentService(uow, blobs, settings, log)
	documentService.SetMetrics(procurementMetrics)
	dispatcher := procurement.NewDispatcher(procurement.Services{
		Documents: documentService,
		Billing:   billingService,
		Inventory: procurement.NewInventoryService(uow, log),
		Journal:   procurement.NewJournalService(uow),
	})

	// Daily sweep of open billing invoices against their payment terms
	if cfg.Billing.DueSweepSchedule != "" {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Billing.DueSweepSchedule)
		if err != nil {
			log.Fatal("Invalid billing.due_sweep_schedule", zap.Error(err))
		}
		triggerCfg := scheduler.DefaultCronTriggerConfig("billing_due_sweep")
		triggerCfg.Hour, triggerCfg.Minute = hour, minute
		dueSweep := scheduler.NewCronTrigger(triggerCfg, billingService.SweepDueInvoices, log)
		if err := dueSweep.Start(ctx); err != nil {
			log.Fatal("Failed to start billing due sweep", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := dueSweep.Stop(stopCtx); err != nil {
				log.Warn("Billing due sweep did not stop cleanly", zap.Error(err))
			}
		}()
	}

	authenticator := auth.NewAuthenticator(auth.NewJWTService(cfg.JWT), persistence.NewGormRoleLookup(db.DB))

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing - Server spans (if enabled)
	// 8. Metrics - Request counters and latency (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure(cfg.HTTP.HSTSMaxAge))
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, cfg.Storage.MaxUploadSize))
	if tp.IsEnabled() {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(mp))

	healthHandler := handler.NewHealthHandler(health)
	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
				Authenticator: authenticator,
				Logger:        log,
			}),
			middleware.TracingAttributeInjector(),
			middleware.ActivityLog(persistence.NewGormActivitySink(db.DB), log),
		),
	)

	procurementHandler := handler.NewProcurementHandler(dispatcher, cfg.Storage.MaxUploadSize)
	approveGuard := middleware.Idempotency(idempotency, cfg.HTTP.IdempotencyTTL, log)
	for _, group := range router.ProcurementRoutes(procurementHandler, approveGuard) {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func applyMigrations(cfg *config.DatabaseConfig, log *zap.Logger) {
	m, err := migration.NewFromConfig(cfg, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	if err := m.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
}
