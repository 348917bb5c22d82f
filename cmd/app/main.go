package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/writerspace/internal/auth"
	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/handler"
	"github.com/BloggingApp/writerspace/internal/mailer"
	"github.com/BloggingApp/writerspace/internal/metrics"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/postcache"
	"github.com/BloggingApp/writerspace/internal/rabbitmq"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/BloggingApp/writerspace/internal/repository/postgres"
	"github.com/BloggingApp/writerspace/internal/server"
	"github.com/BloggingApp/writerspace/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := config.LoadEnv(); err != nil {
		logger.Sugar().Panicf("failed to load environment variables: %s", err.Error())
	}

	if err := config.InitConfig("."); err != nil {
		logger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar().Panicf("failed to load config: %s", err.Error())
	}

	db, err := postgres.DB(ctx, cfg.DB)
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
	}
	logger.Info("Successfully connected to PostgreSQL")

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Sugar().Panicf("failed to apply migrations: %s", err.Error())
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
	}
	logger.Sugar().Infof("Successfully connected to Redis: %s", pong)

	deps := service.Dependencies{
		Cache:  postcache.New(),
		Mailer: mailer.New(cfg.Email, &http.Client{Timeout: 10 * time.Second}),
	}

	if cfg.RabbitMQConnStr != "" {
		mq, err := rabbitmq.New(cfg.RabbitMQConnStr)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
		}
		defer mq.Close()
		deps.Publisher = mq
		logger.Info("Successfully connected to RabbitMQ")
	}

	if cfg.Auth.Issuer != "" {
		verifier, err := auth.NewVerifier(ctx, cfg.Auth.Provider, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.JWKSURL)
		if err != nil {
			logger.Sugar().Panicf("failed to initialize federated sign-in: %s", err.Error())
		}
		deps.Verifier = verifier
		logger.Sugar().Infof("Federated sign-in enabled for %s", cfg.Auth.Provider)
	}

	deps.Cache.Subscribe(func(snap postcache.Snapshot) {
		metrics.PostCachePosts.Set(float64(len(snap.Posts)))
		outcome := "ok"
		if snap.Error != "" {
			outcome = "error"
		}
		metrics.PostCacheSnapshotsTotal.WithLabelValues(outcome).Inc()
	})

	repos := repository.New(db, rdb)
	services := service.New(logger, repos, deps, cfg)

	services.OnAuthStateChanged(func(event model.AuthEvent) {
		if event.User == nil {
			logger.Sugar().Infof("auth state changed: %s", event.Type)
			return
		}
		logger.Sugar().Infof("auth state changed: %s (%s)", event.Type, event.User.ID)
	})

	feed := postgres.NewPostFeed(db, deps.Cache, logger, cfg.FeedRetryDelay)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Sugar().Errorf("posts feed exited: %s", err.Error())
		}
	}()

	handlers := handler.New(logger, services, cfg)

	srv := server.New()
	serverConfig := config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 10,
	}
	go func(srv *server.Server, cfg config.ServerConfig) {
		if err := srv.Run(cfg); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}(srv, serverConfig)

	logger.Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Minute)
	defer drainCancel()
	if err := services.Drain(drainCtx); err != nil {
		logger.Sugar().Errorf("failed to finish newsletter announcements: %s", err.Error())
	}
}
