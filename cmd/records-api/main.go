package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/journey-records-api/api/swagger"
	"github.com/noah-isme/journey-records-api/internal/repository"
	"github.com/noah-isme/journey-records-api/internal/service"
	"github.com/noah-isme/journey-records-api/pkg/cache"
	"github.com/noah-isme/journey-records-api/pkg/config"
	"github.com/noah-isme/journey-records-api/pkg/database"
	"github.com/noah-isme/journey-records-api/pkg/export"
	"github.com/noah-isme/journey-records-api/pkg/logger"
	"github.com/noah-isme/journey-records-api/pkg/storage"
)

// @title Journey Records API
// @version 1.0.0
// @description Grades, attendance and teacher evaluations over an imported records workbook
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	repo, closer, err := newSnapshotRepository(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init overlay backend", zap.String("backend", cfg.Overlay.Backend), zap.Error(err))
	}
	if closer != nil {
		defer closer.Close()
	}

	uploads, err := storage.NewLocalStorage(cfg.Data.UploadsDir)
	if err != nil {
		logr.Fatal("failed to init upload storage", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	overlay := service.NewOverlayStore(repo, metrics, logr.Named("overlay"))
	overlay.Load(ctx)

	importer := service.NewDatasetImporter(cfg.Admin, logr.Named("importer"))
	views := service.NewViewService(importer, overlay, cfg.Data.SourcePath, metrics, logr.Named("views"))
	aggregation := service.NewAggregationService(views, overlay)
	records := service.NewRecordsService(views, overlay, validate, logr.Named("records"))
	auth := service.NewAuthService(views, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	reports := service.NewReportService(views, aggregation, export.NewPDFExporter(), newCSVExporter(cfg.Reports), logr.Named("reports"))

	router := newRouter(cfg, logr, services{
		auth:        auth,
		views:       views,
		aggregation: aggregation,
		records:     records,
		reports:     reports,
		metrics:     metrics,
		uploads:     uploads,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "overlay", cfg.Overlay.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}

func newCSVExporter(cfg config.ReportsConfig) *export.CSVExporter {
	opts := []export.CSVOption{export.WithDelimiter(cfg.CSVDelimiter)}
	if cfg.CSVBOM {
		opts = append(opts, export.WithUTF8BOM())
	}
	return export.NewCSVExporter(opts...)
}

type snapshotRepository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

func newSnapshotRepository(ctx context.Context, cfg *config.Config) (snapshotRepository, io.Closer, error) {
	switch cfg.Overlay.Backend {
	case "", config.OverlayBackendFile:
		return repository.NewFileSnapshotRepository(cfg.Overlay.FilePath), nil, nil
	case config.OverlayBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db, nil
	case config.OverlayBackendRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSnapshotRepository(client, cfg.Overlay.RedisKey), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown overlay backend %q", cfg.Overlay.Backend)
	}
}
