package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artgallery/internal/cache"
	"github.com/artgallery/internal/config"
	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/handler"
	"github.com/artgallery/internal/logging"
	"github.com/artgallery/internal/router"
	"github.com/artgallery/internal/service"
	"github.com/artgallery/internal/storage"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	// 初始化数据库
	gdb, err := db.Open(db.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		DSN:    cfg.DatabaseDSN,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	store, err := storage.New(ctx, storage.Options{
		Driver:    cfg.StorageDriver,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		BaseURL:   cfg.StorageBaseURL,
		LocalDir:  cfg.UploadDir,
	})
	if err != nil {
		return err
	}

	// Redis 不可用时退化为无缓存
	var galleryCache service.GalleryCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			logger.Warn("gallery cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			galleryCache = redisCache
		}
	}

	// 密钥缺失时拒绝启动，避免用公开常量签发 token
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}
	if len(cfg.AdminEmails) == 0 || cfg.AdminPassHash == "" {
		logger.Warn("admin credentials are not configured, login is disabled")
	}

	ordering := service.NewOrderingService(gdb)
	api := handler.NewAPI(handler.Options{
		Drawings: service.NewDrawingService(gdb, ordering, store, galleryCache),
		Uploads:  service.NewUploadService(gdb, ordering, store, galleryCache, cfg.SignedURLTTL),
		Auth: service.NewAuthService(service.AuthConfig{
			AdminEmails:  cfg.AdminEmails,
			PasswordHash: cfg.AdminPassHash,
			Secret:       []byte(cfg.JWTSecret),
			TokenTTL:     cfg.JWTTTL,
		}),
		TempDir:        cfg.TempDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	routerOpts := router.Options{Logger: logger}
	if local, ok := store.(*storage.LocalStore); ok {
		routerOpts.UploadDir = local.Dir()
		routerOpts.UploadURLPath = cfg.UploadURLPath
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "storage", cfg.StorageDriver, "database", cfg.DatabaseDriver)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
