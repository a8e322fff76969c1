package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/asset-vault/internal/adapter/catalog"
	"github.com/rl1809/asset-vault/internal/adapter/handler"
	"github.com/rl1809/asset-vault/internal/adapter/storage"
	"github.com/rl1809/asset-vault/internal/config"
	"github.com/rl1809/asset-vault/internal/core/service"
	"github.com/rl1809/asset-vault/internal/logging"
	"github.com/rl1809/asset-vault/internal/port"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.Env == "local",
		Fields:      map[string]string{"service": "asset-vault", "env": cfg.Env},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	redisAdapter := storage.NewRedisAdapter(rdb)
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Item catalog: MySQL first, then the optional YAML file
	var fallback port.ItemResolver
	if cfg.ItemsFile != "" {
		static, err := catalog.LoadYAML(cfg.ItemsFile)
		if err != nil {
			logger.Fatal("failed to load item catalog", zap.String("path", cfg.ItemsFile), zap.Error(err))
		}
		fallback = static
		logger.Info("loaded item catalog", zap.String("path", cfg.ItemsFile), zap.Int("items", len(static)))
	}
	items, err := catalog.NewCachedResolver(mysqlAdapter, fallback, cfg.ItemCacheLen, logger)
	if err != nil {
		logger.Fatal("failed to create item cache", zap.Error(err))
	}

	assetService := service.NewAssetService(
		mysqlAdapter,
		redisAdapter,
		service.NewConverter(items),
		cfg.QueueSize,
		service.WithLocker(redisAdapter, cfg.LockTTL),
		service.WithLogger(logger),
	)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(logger.With(zap.Int("worker", id)), assetService, cfg.WorkTimeout)
		}(i)
	}
	logger.Info("started workers", zap.Int("count", cfg.Workers))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterAssetServiceServer(grpcServer, handler.NewGRPCHandler(assetService, logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(assetService, logger).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close refresh queue and wait for workers
	assetService.Close()
	wg.Wait()
	logger.Info("workers stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}

func workerLoop(logger *zap.Logger, svc *service.AssetService, timeout time.Duration) {
	for req := range svc.RefreshQueue() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		done := svc.HandleRefresh(ctx, req)
		cancel()
		logger.Debug("handled refresh",
			zap.String("request_id", done.ID),
			zap.Int64("owner_id", done.OwnerID),
			zap.String("status", string(done.Status)))
	}
}
