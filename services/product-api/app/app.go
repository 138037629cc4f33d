package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/cache"
	"github.com/nimeshabuddhika/product-api/pkg/database"
	middleware "github.com/nimeshabuddhika/product-api/pkg/middlewares"
	"github.com/nimeshabuddhika/product-api/pkg/repositories"
	"github.com/nimeshabuddhika/product-api/services/product-api/configs"
	"github.com/nimeshabuddhika/product-api/services/product-api/internal/handlers"
	"github.com/nimeshabuddhika/product-api/services/product-api/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKey = "product_api:requests"

// NewRouter builds the Gin engine around service. limiter may be nil.
//
// Post-processing runs in reverse registration order, so forwarded errors are
// logged by ErrorLogger, then written by ErrorHandler, and the final status is
// seen by Metrics and RequestLogger.
func NewRouter(logger *zap.Logger, service services.ProductService, limiter middleware.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.TraceID(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.ErrorLogger(logger))
	r.Use(middleware.JSONBody())

	baseHandler := handlers.NewBaseHandler(logger)
	baseHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(limiter))

	baseHandler.RegisterAPIRoutes(api)
	handlers.NewProductHandler(logger, service).RegisterRoutes(api)

	r.NoRoute(middleware.NotFound())
	return r
}

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
func NewApp(ctx context.Context, logger *zap.Logger, cfg *configs.Config) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, err := newRepository(ctx, logger, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// Redis backs both the read cache and the global rate limit counter
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client, closeRedis, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, closeRedis)
		redisClient = client
		repo = repositories.NewCachedProductRepository(repo, client, cfg.CacheTTL, logger)
		logger.Info("product cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	var publisher services.ProductPublisher = services.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher, err = services.NewKafkaPublisher(ctx, logger, services.KafkaPublisherConfig{
			Brokers:    cfg.KafkaBrokers,
			Topic:      cfg.KafkaTopic,
			Partitions: cfg.KafkaPartitions,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, publisher.Close)
	}

	var limiter middleware.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = pkg.NewDistributedLimiter(redisClient, rateLimitKey, cfg.RateLimitRPS, cfg.RateLimitBurst, time.Second, logger)
	}

	productService := services.NewProductService(logger, repo, publisher)
	r := NewRouter(logger, productService, limiter)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, cleanup, nil
}

func newRepository(ctx context.Context, logger *zap.Logger, cfg *configs.Config, closers *[]func()) (repositories.ProductRepository, error) {
	if cfg.Store != configs.StorePostgres {
		logger.Info("using in-memory product store")
		return repositories.NewMemoryProductRepository(), nil
	}

	db, disconnect, err := database.New(ctx, logger, database.Config{
		PrimaryDSN: cfg.DatabaseURL,
		ReadDSNs:   cfg.DatabaseReadURLs,
		MaxConns:   cfg.DbMaxCons,
		MinConns:   cfg.DbMinCons,
	})
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, disconnect)

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.DatabaseURL); err != nil {
		return nil, err
	}
	return repositories.NewPostgresProductRepository(db), nil
}
