package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/config"
	"github.com/poisonshell/dream-api/internal/auth"
	"github.com/poisonshell/dream-api/internal/delivery"
	grpcHandler "github.com/poisonshell/dream-api/internal/delivery/grpc"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/loader"
	"github.com/poisonshell/dream-api/internal/metrics"
	"github.com/poisonshell/dream-api/internal/ratelimit"
	"github.com/poisonshell/dream-api/internal/repository"
	"github.com/poisonshell/dream-api/internal/usecase"
	"github.com/poisonshell/dream-api/pkg/db"
)

type storage struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
	admins     domain.AdminRepository
	// ping is nil for storage that is always ready.
	ping  delivery.Pinger
	close func() error
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("Starting Catalog API...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	secret, err := auth.ResolveSecret(cfg.JWTSecret, cfg.IsProduction())
	if err != nil {
		logger.Fatalf("Failed to resolve token secret: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Errorf("Error closing storage: %v", err)
		} else {
			logger.Info("Storage closed.")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(registry); err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	tokens := auth.NewTokenService(secret, cfg.JWTExpiresIn)
	limiter := ratelimit.New(cfg.LoginRateWindow, cfg.LoginRateMax, ratelimit.WithMaxKeys(cfg.LoginRateMaxKeys))
	go limiter.Run(ctx, cfg.LoginRateWindow)

	categoryUseCase := usecase.NewCategoryUseCase(store.categories, store.products, logger)
	productUseCase := usecase.NewProductUseCase(store.products, store.categories, logger)
	adminUseCase := usecase.NewAdminUseCase(store.admins, tokens, cfg.AdminInvitationCode, logger)
	logger.Info("Use cases initialized.")

	resolver := delivery.NewResolver(productUseCase, categoryUseCase, adminUseCase, limiter, m, logger)
	schema, err := resolver.Schema()
	if err != nil {
		logger.Fatalf("Failed to build GraphQL schema: %v", err)
	}

	router := delivery.NewRouter(delivery.RouterConfig{
		GraphQL: delivery.NewGraphQLHandler(schema, delivery.Limits{
			MaxDepth:      cfg.GraphQLMaxDepth,
			MaxComplexity: cfg.GraphQLMaxComplexity,
		}, m, logger),
		Health: delivery.NewHealthHandler(store.ping, logger),
		Tokens: tokens,
		NewLoaders: func() *loader.Set {
			return loader.NewSet(store.categories, store.admins, m.ObserveBatch)
		},
		TrustForwardedFor: cfg.TrustForwardedFor,
		CORSOrigins:       cfg.CORSOrigins,
		Playground:        cfg.PlaygroundEnabled(),
		Metrics:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:            logger,
	})
	logger.Info("Routes registered.")

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Server ready at http://localhost%s/graphql", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	if cfg.GRPCHealthAddr != "" {
		health := grpcHandler.NewHealthHandler(store.ping, logger)
		go health.Run(ctx, 15*time.Second)

		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			logger.Fatalf("Failed to listen on %s: %v", cfg.GRPCHealthAddr, err)
		}
		grpcServer := grpcHandler.NewServer(health, logger)
		go func() {
			logger.Infof("gRPC health server listening on %s", cfg.GRPCHealthAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Errorf("gRPC health server stopped: %v", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	<-ctx.Done()
	logger.Warn("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
	logger.Info("Catalog API shut down gracefully.")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart.")
		mem := repository.NewMemoryStore()
		return &storage{
			categories: mem,
			products:   mem,
			admins:     mem,
			close:      func() error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	database, err := db.Connect(connectCtx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established.")

	if err := db.EnsureSchema(connectCtx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	logger.Info("Database schema ensured.")

	return &storage{
		categories: repository.NewPostgresCategoryRepository(database, logger),
		products:   repository.NewPostgresProductRepository(database, logger),
		admins:     repository.NewPostgresAdminRepository(database, logger),
		ping:       database,
		close:      database.Close,
	}, nil
}
