// Command createadmin creates an administrator account, or promotes an existing one.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/postcache"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/BloggingApp/writerspace/internal/repository/postgres"
	"github.com/BloggingApp/writerspace/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := config.LoadEnv(); err != nil {
		logger.Sugar().Fatalf("failed to load environment variables: %s", err.Error())
	}
	if err := config.InitConfig("."); err != nil {
		logger.Sugar().Fatalf("failed to initialize yaml config: %s", err.Error())
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Sugar().Fatalf("failed to load config: %s", err.Error())
	}

	db, err := postgres.DB(ctx, cfg.DB)
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to postgres: %s", err.Error())
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Sugar().Fatalf("failed to apply migrations: %s", err.Error())
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	services := service.New(logger, repository.New(db, rdb), service.Dependencies{Cache: postcache.New()}, cfg)

	user, err := services.CreateAdmin(ctx, dto.SignUpRequest{
		Email:       *email,
		Password:    *password,
		DisplayName: *name,
	})
	if err != nil {
		logger.Sugar().Fatalf("failed to create admin: %s", err.Error())
	}

	logger.Sugar().Infof("admin ready: %s (%s)", user.Email, user.ID)
}
