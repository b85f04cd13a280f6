package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enviroshake/gallery-backend/internal/clients/gcp"
	"github.com/enviroshake/gallery-backend/internal/gallery"
	"github.com/enviroshake/gallery-backend/internal/handlers"
	"github.com/enviroshake/gallery-backend/internal/observability"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
	"github.com/enviroshake/gallery-backend/internal/server"
)

type App struct {
	Log          *logger.Logger
	Cfg          Config
	Router       *gin.Engine
	Metadata     *gcp.MetadataService
	Bucket       *gcp.BucketService
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.Info("configuration loaded",
		"bucket", cfg.GalleryBucket,
		"project", cfg.FirestoreProjectID,
		"prefixes", cfg.AcceptedPrefixes,
	)

	ctx := context.Background()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: ServiceName,
		Environment: cfg.Environment,
	})

	metadata, err := gcp.NewMetadataService(ctx, log, cfg.FirestoreProjectID)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init metadata store: %w", err)
	}
	bucket, err := gcp.NewBucketService(log, cfg.GalleryBucket, cfg.CDNDomain)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init bucket service: %w", err)
	}

	// Connectivity probe, non-fatal.
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := metadata.Ping(pingCtx); err != nil {
		log.Warn("metadata store connectivity check failed", "error", err)
	} else {
		log.Info("metadata store reachable")
	}
	cancel()

	keys := gallery.NewKeyNormalizer(cfg.GalleryBucket, cfg.CDNDomain, cfg.AcceptedPrefixes)
	resolver := gallery.NewResolver(log, metadata, keys)
	streamer := gallery.NewArchiveStreamer(log, bucket)

	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		ServiceName:     ServiceName,
		ExtraOrigins:    cfg.ExtraOrigins,
		HealthHandler:   handlers.NewHealthHandler(),
		DownloadHandler: handlers.NewDownloadHandler(log, resolver, bucket, streamer),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		Metadata:     metadata,
		Bucket:       bucket,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := fmt.Sprintf(":%d", a.Cfg.Port)
	a.Log.Info("server starting", "addr", addr)
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Metadata != nil {
		_ = a.Metadata.Close()
	}
	if a.Bucket != nil {
		_ = a.Bucket.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
