package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	analyticsHttp "webhook-analytics-service/internal/analytics/adapters/http/fiber"
	analyticsMemory "webhook-analytics-service/internal/analytics/adapters/memory"
	analyticsMongo "webhook-analytics-service/internal/analytics/adapters/mongo"
	analyticsRedis "webhook-analytics-service/internal/analytics/adapters/redis"
	analyticsPorts "webhook-analytics-service/internal/analytics/core/ports"
	analyticsUsecase "webhook-analytics-service/internal/analytics/core/usecase"

	webhooksClickHouse "webhook-analytics-service/internal/webhooks/adapters/clickhouse"
	webhooksHttp "webhook-analytics-service/internal/webhooks/adapters/http/fiber"
	webhooksPg "webhook-analytics-service/internal/webhooks/adapters/postgres"
	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/ports"
	"webhook-analytics-service/internal/webhooks/core/signature"
	webhooksUsecase "webhook-analytics-service/internal/webhooks/core/usecase"

	"webhook-analytics-service/internal/platform/config"
	"webhook-analytics-service/internal/platform/httpserver"
	"webhook-analytics-service/internal/platform/logger"
	"webhook-analytics-service/internal/platform/tracing"

	_ "webhook-analytics-service/docs"
)

// bucketStore is what both analytics use cases need from storage.
type bucketStore interface {
	analyticsPorts.BucketStore
	analyticsPorts.BucketReader
}

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		// The logger is not built yet; fall back to a console one.
		boot, berr := logger.New("development")
		if berr != nil {
			panic(err)
		}
		boot.Fatal("invalid configuration", "error", err)
	}

	logMode := "development"
	if cfg.IsProduction() {
		logMode = "production"
	}
	log, err := logger.New(logMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	shutdownTracing := tracing.Init(ctx, log, tracing.Config{
		ServiceName: "webhook-analytics-service",
		Environment: cfg.Env,
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		Headers:     cfg.Tracing.Headers,
		SampleRatio: cfg.Tracing.SampleRatio,
	})

	// PostgreSQL tenant directory
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to open postgres", "error", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping postgres", "error", err)
	}

	tenants := webhooksPg.NewTenantDirectory(webhooksPg.NewSQLDB(db))
	if err := tenants.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate tenant tables", "error", err)
	}

	// Bucket store
	var store bucketStore
	switch cfg.BucketStore {
	case config.StoreMemory:
		log.Warn("using in-memory bucket store; metrics are lost on restart")
		store = analyticsMemory.New()
	default:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to mongo", "error", err)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		if err := client.Ping(ctx, nil); err != nil {
			log.Fatal("failed to ping mongo", "error", err)
		}

		col := client.Database(cfg.MongoDatabase).Collection(analyticsMongo.CollectionName)
		mongoStore := analyticsMongo.NewBucketStore(analyticsMongo.NewCollection(col))
		if err := mongoStore.Migrate(ctx); err != nil {
			log.Fatal("failed to create bucket indexes", "error", err)
		}
		store = mongoStore
	}

	// Usecases
	applyDeltaUC := analyticsUsecase.NewApplyDeltaUseCase(store, tenants, cfg.RollupPeriods...)
	var queryUC analyticsHttp.QueryRollupUseCase = analyticsUsecase.NewQueryRollupUseCase(store)

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable; rollup cache will fall through", "error", err)
		}
		queryUC = analyticsRedis.NewCachedRollup(queryUC, rdb, cfg.RollupCacheTTL, log)
	}

	var receipts ports.ReceiptRecorder
	if cfg.ClickHouse.Enabled() {
		conn, err := webhooksClickHouse.Open(ctx, cfg.ClickHouse)
		if err != nil {
			log.Fatal("failed to connect to clickhouse", "error", err)
		}
		defer conn.Close()

		recorder := webhooksClickHouse.NewReceiptRecorder(conn)
		if err := recorder.Migrate(ctx); err != nil {
			log.Fatal("failed to create receipts table", "error", err)
		}
		receipts = recorder
	}

	secrets := make(map[domain.Source]string)
	for _, src := range append([]domain.Source{domain.SourceGeneric}, domain.KnownSources...) {
		if secret := cfg.Secret(string(src)); secret != "" {
			secrets[src] = secret
		}
	}
	verifier := signature.NewVerifier(secrets, cfg.StripeTolerance)

	router := webhooksUsecase.NewRouter(applyDeltaUC, tenants, receipts, log)
	ingestUC := webhooksUsecase.NewIngestUseCase(verifier, router, log)

	// HTTP (Fiber) app + handlers
	app := httpserver.New(log, cfg.RequestTimeout)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// webhook endpoints
	webhooksHttp.NewWebhookHandler(ingestUC, verifier, cfg.FacebookVerifyToken).Register(app)

	// analytics endpoints
	analyticsHandler := analyticsHttp.NewAnalyticsHandler(queryUC)
	app.Get("/analytics/:tenantId", analyticsHandler.GetRollup)
	app.Get("/analytics/:tenantId/panels/:panel", analyticsHandler.GetPanel)

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// Graceful shutdown
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Error("fiber stopped", "error", err)
		}
	}()

	log.Info("server started",
		"addr", cfg.HTTPAddr,
		"env", cfg.Env,
		"bucket_store", cfg.BucketStore,
		"rollup_periods", applyDeltaUC.Periods(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("fiber shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown error", "error", err)
	}

	log.Info("server exiting")
}
