package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"anoa.com/unitech/internal/bootstrap"
	"anoa.com/unitech/internal/config"
	userRepo "anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/internal/server"
	"anoa.com/unitech/pkg/database"
	"anoa.com/unitech/pkg/logger"
	"anoa.com/unitech/pkg/mailer"
	"anoa.com/unitech/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Debug:    !cfg.IsProduction(),
	})
	if err != nil {
		zapLogger.Fatal("failed to connect database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		// The admin has no role profile, so the reactor hooks are not needed here.
		if err := bootstrap.SeedAdminUser(ctx, userRepo.NewUserRepository(db), cfg.AdminEmail, cfg.AdminPassword, zapLogger); err != nil {
			zapLogger.Fatal("failed to seed admin user", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("redis unreachable, caching and rate limiting are degraded", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
	} else {
		zapLogger.Warn("REDIS_URL not set, caching and rate limiting are disabled")
	}

	var imageStorage storage.ImageStorage
	if cfg.CloudinaryURL != "" || cfg.CloudinaryCloudName != "" {
		imageStorage, err = storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			URL:        cfg.CloudinaryURL,
			CloudName:  cfg.CloudinaryCloudName,
			RootFolder: cfg.CloudinaryUploadFolder,
		})
		if err != nil {
			zapLogger.Fatal("failed to initialize cloudinary storage", zap.Error(err))
		}
	} else {
		zapLogger.Warn("cloudinary not configured, image uploads are ignored")
	}

	var meiliClient meilisearch.ServiceManager
	if host := cfg.MeiliSearchHost; host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		zapLogger.Warn("MEILISEARCH_HOST not set, course search uses SQL matching")
	}

	srv, err := server.NewServer(server.Deps{
		DB:           db,
		Redis:        redisClient,
		Meili:        meiliClient,
		ImageStorage: imageStorage,
		Mailer: mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, zapLogger.Named("mailer")),
		Config: cfg,
		Logger: zapLogger,
	})
	if err != nil {
		zapLogger.Fatal("failed to build server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("server exited with error", zap.Error(err))
	}
}
