package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/university-timetable/api/swagger"
	"github.com/noah-isme/university-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/university-timetable/internal/middleware"
	"github.com/noah-isme/university-timetable/internal/repository"
	"github.com/noah-isme/university-timetable/internal/service"
	"github.com/noah-isme/university-timetable/pkg/config"
	"github.com/noah-isme/university-timetable/pkg/database"
	"github.com/noah-isme/university-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/university-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/university-timetable/pkg/middleware/requestid"
)

// @title University Timetable API
// @version 1.0.0
// @description Student and teacher timetables, lesson scheduling and grid export
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	lessonRepo := repository.NewLessonRepository(db, metricsSvc)
	catalogRepo := repository.NewCatalogRepository(db, metricsSvc)

	validate := validator.New()
	lessonSvc := service.NewLessonService(lessonRepo, catalogRepo, validate, metricsSvc, logr)
	timetableSvc := service.NewTimetableService(catalogRepo, lessonRepo, cfg.Timetable, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix),
		handler.NewTimetableHandler(timetableSvc, service.NewTimetableExporter()),
		handler.NewLessonHandler(lessonSvc),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
