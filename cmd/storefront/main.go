package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/events"
	storehttp "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Setup(os.Stdout, cfg.LogLevel, "storefront")
	slog.Info("storefront starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fsClient *firestore.Client
	firestoreClient := func() (*firestore.Client, error) {
		if fsClient != nil {
			return fsClient, nil
		}
		c, err := repository.ConnectFirestore(ctx, cfg.FirestoreProject, cfg.FirestoreCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
		}
		fsClient = c
		return c, nil
	}
	defer func() {
		if fsClient != nil {
			fsClient.Close()
		}
	}()

	// Persistence
	var repo repository.Repository
	switch cfg.StoreBackend {
	case "firestore":
		client, err := firestoreClient()
		if err != nil {
			return err
		}
		repo = repository.NewFirestoreRepository(client)
		slog.Info("using Firestore store", "project", cfg.FirestoreProject)
	default:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		repo = repository.NewMongoRepository(db)
		if ix, ok := repo.(interface{ CreateIndexes(context.Context) error }); ok {
			if err := ix.CreateIndexes(ctx); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}
		}
		slog.Info("connected to MongoDB", "database", cfg.MongoDatabase)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	// Redis backs the cart snapshots and the catalog cache when configured.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		slog.Info("redis ping succeeded", "addr", cfg.RedisAddr)
	}

	products, closeCatalog, err := openCatalog(cfg, firestoreClient)
	if err != nil {
		return err
	}
	defer closeCatalog()
	if redisClient != nil {
		products = catalog.NewCachedCatalog(products, redisClient, cfg.CatalogCacheTTL)
	}
	if w, ok := products.(catalog.Writer); ok && cfg.CatalogSeed {
		// writes through the cache invalidate it
		if err := catalog.Seed(ctx, w); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		slog.Info("catalog seeded")
	}

	var carts *cart.Registry
	if redisClient != nil {
		carts = cart.NewRegistry(cart.NewRedisCache(redisClient, cfg.CartTTL))
	} else {
		carts = cart.NewRegistry(nil)
	}

	// Events
	var publisher events.Publisher = events.Noop{}
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaTopic, brokers...)
		defer kp.Close()
		publisher = kp
		slog.Info("publishing checkout events", "topic", cfg.KafkaTopic, "brokers", brokers)
	}

	// Payment widget
	var launcher payment.Launcher
	var widgets checkout.WidgetLoader
	switch cfg.PaymentProvider {
	case "stripe":
		launcher = payment.NewStripeLauncher(cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL)
	default:
		launcher = payment.InlineLauncher{Provider: "paystack", ScriptURL: cfg.WidgetScriptURL}
	}
	bridge := payment.NewBridge(launcher)
	if cfg.PaymentProvider == "stripe" {
		widgets = payment.Static(bridge)
	} else {
		widgets = payment.NewLoader(payment.ScriptLoad(&http.Client{Timeout: 10 * time.Second}, cfg.WidgetScriptURL, bridge))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	inbox := checkout.NewInbox()
	orchestrator := checkout.NewOrchestrator(repo, widgets, publisher, inbox, m, checkout.Config{
		PublicKey:      cfg.PaymentPublicKey,
		Currency:       cfg.Currency,
		TaxRate:        cfg.TaxRate,
		ChargeTax:      cfg.ChargeTax,
		PersistTimeout: cfg.PersistTimeout,
	})

	sweeper := checkout.NewSweeper(repo, orchestrator.Awaiting, cfg.PendingTTL, cfg.SweepInterval, m)
	go sweeper.Run(ctx)

	reaper := checkout.NewReaper(carts, orchestrator, cfg.SessionIdleTTL, cfg.SweepInterval)
	go reaper.Run(ctx)

	router := storehttp.NewRouter(storehttp.RouterConfig{
		Catalog:             products,
		Carts:               carts,
		Orchestrator:        orchestrator,
		Inbox:               inbox,
		Payments:            bridge,
		Sessions:            storehttp.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
		Metrics:             m,
		Gatherer:            reg,
		ClientCallbacks:     cfg.PaymentProvider != "stripe",
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		RequestTimeout:      cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC carries the health service for orchestrators.
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("storefront", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("gRPC health listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err = <-errCh:
		slog.Error("server failed, shutting down", "error", err)
	}

	slog.Info("shutting down storefront...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("server forced to shutdown", "error", shutdownErr)
	}
	grpcServer.GracefulStop()

	slog.Info("storefront stopped")
	return err
}

func openCatalog(cfg *config.Config, firestoreClient func() (*firestore.Client, error)) (catalog.Catalog, func(), error) {
	var (
		products catalog.Catalog
		closer   = func() {}
	)
	switch cfg.CatalogBackend {
	case "firestore":
		client, err := firestoreClient()
		if err != nil {
			return nil, nil, err
		}
		products = catalog.NewFirestoreCatalog(client)
	default:
		sc, err := catalog.NewSQLiteCatalog(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		closer = func() { sc.Close() }
		if err := sc.RunMigrations(); err != nil {
			closer()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("catalog migrations completed", "path", cfg.SQLitePath)
		products = sc
	}
	return products, closer, nil
}
