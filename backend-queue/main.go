package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/di"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/handler"
	"github.com/prohmpiriya/take-a-number/backend-queue/migrations"
	"github.com/prohmpiriya/take-a-number/pkg/config"
	"github.com/prohmpiriya/take-a-number/pkg/database"
	"github.com/prohmpiriya/take-a-number/pkg/kafka"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/redis"
	"github.com/prohmpiriya/take-a-number/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		logger.Error("queue service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  cfg.Log.OutputPath,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("starting queue service",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
		zap.String("store", cfg.Queue.Store),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		log.Warn("telemetry disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database
	var db *database.PostgresDB
	if cfg.UsesPostgres() {
		db, err = database.NewPostgres(ctx, &database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  database.DefaultPostgresConfig().ConnectTimeout,
			MaxRetries:      cfg.Database.MaxRetries,
			RetryInterval:   cfg.Database.RetryInterval,
			EnableTracing:   cfg.OTel.Enabled,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host))

		if cfg.Database.AutoMigrate {
			if err := migrations.Apply(ctx, db.Pool()); err != nil {
				return err
			}
		}
	} else {
		log.Warn("using in-memory store, queue state is lost on restart")
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &redis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			EnableTracing: cfg.OTel.Enabled,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Initialize Kafka
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:        cfg.Kafka.Brokers,
			ClientID:       cfg.Kafka.ClientID,
			ProduceTimeout: cfg.Kafka.ProduceTimeout,
			RecordRetries:  kafka.DefaultProducerConfig().RecordRetries,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		log.Info("connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	containerCfg := &di.ContainerConfig{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
	}
	if producer != nil {
		containerCfg.Producer = producer
	}

	container, err := di.NewContainer(containerCfg)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.SetupRouter(container.Handlers, &handler.RouterConfig{
		ServiceName:    cfg.OTel.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TokenConfig:    container.TokenConfig,
		Logger:         log,
		EnableTracing:  cfg.OTel.Enabled,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("queue service listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down queue service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
