package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"marketplace-service/internal/api"
	"marketplace-service/internal/cache"
	"marketplace-service/internal/config"
	"marketplace-service/internal/consumer"
	"marketplace-service/internal/logger"
	"marketplace-service/internal/metrics"
	"marketplace-service/internal/payment"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/migrations"
)

func connectDB(cfg config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i <= cfg.ConnectRetries; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.Name)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%d)", i+1, cfg.Name, cfg.Host, cfg.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%d after retries: %w", cfg.Name, cfg.Host, cfg.Port, err)
}

func rateLimiter(cfg config.HTTPConfig) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "optional path to a config file")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := logger.Setup(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File, Service: cfg.ServiceName}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	db, err := connectDB(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(db, 3, time.Second); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; cache and idempotency calls will fail until it is reachable")
	}

	productCache := cache.NewProductCache(rdb, cfg.Redis.ProductTTL)

	// kafka is optional
	var orderEvents service.MessageWriter
	if cfg.Kafka.Enabled() {
		writer := config.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		defer writer.Close()
		orderEvents = writer

		reader := config.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID)
		defer reader.Close()
		g.Go(func() error {
			consumer.NewConsumer(reader, productCache).Start(ctx)
			return nil
		})
	} else {
		log.Warn().Msg("kafka brokers not configured; order events disabled")
	}

	userRepo := repository.NewUserRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	tokens := service.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	gateway := payment.NewClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout)
	catalogService := service.NewCatalogService(categoryRepo, productRepo, productCache)

	services := api.Services{
		Tokens:   tokens,
		Users:    service.NewUserService(userRepo, tokens, cache.NewTokenBlacklist(rdb)),
		Sellers:  service.NewSellerService(sellerRepo),
		Catalog:  catalogService,
		Products: service.NewProductService(productRepo, categoryRepo, productCache),
		Orders:   service.NewOrderService(orderRepo, cache.NewIdempotencyStore(rdb), productCache, orderEvents),
		Payments: service.NewPaymentService(orderRepo, gateway, cfg.Razorpay.KeySecret, cfg.Razorpay.Currency, orderEvents),
	}

	g.Go(func() error {
		if _, err := catalogService.PreWarmCache(ctx); err != nil {
			log.Warn().Err(err).Msg("product cache warmup failed")
		}
		return nil
	})

	serverMetrics := metrics.NewServerMetrics("api")

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.HTTP.CORSOrigins}))
	e.Use(serverMetrics.Middleware())
	e.Use(rateLimiter(cfg.HTTP))

	api.RegisterRoutes(e, services, cfg.Admin.APIKey)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": cfg.ServiceName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	e.GET("/metrics", echo.WrapHandler(serverMetrics.Handler()))

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		log.Info().Str("addr", addr).Msg("http server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
}
