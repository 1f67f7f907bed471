package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Automatic weekly timetable generation for schools.
// @BasePath /api/v1
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Migrations.AutoRun {
		migrator, err := database.NewMigrator(db.DB, logr)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, using in-process generation lock and no cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheService := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "timetable", logr),
		metrics,
		service.CacheOptions{Enabled: cfg.Cache.Enabled && redisClient != nil, TTL: cfg.Cache.DefaultTTL},
		logr,
	)

	teachingLoads := repository.NewTeachingLoadRepository(db)
	schedules := repository.NewScheduleRepository(db)

	workload := service.NewWorkloadService(
		repository.NewInstitutionRepository(db),
		repository.NewGenerationSettingRepository(db),
		teachingLoads,
		repository.NewRoomRepository(db),
		cacheService,
		validate,
		logr,
		service.WorkloadConfig{
			Limits: timetable.WorkloadLimits{
				MaxWeeklyHours:     cfg.Timetable.MaxWeeklyHours,
				WarningWeeklyHours: cfg.Timetable.WarningWeeklyHours,
			},
			StatsCacheTTL: cfg.Timetable.StatsCacheTTL,
		},
	)

	engine := timetable.NewEngine(timetable.EngineConfig{
		MaxWeeklyHours: cfg.Timetable.MaxWeeklyHours,
		CoreSubjects:   cfg.Timetable.CoreSubjects,
	}, logr.Named("engine"))

	generation := service.NewScheduleGenerationService(
		workload,
		engine,
		schedules,
		repository.NewScheduleSessionRepository(db),
		repository.NewScheduleConflictRepository(db),
		teachingLoads,
		repository.NewGenerationLockRepository(redisClient),
		db,
		metrics,
		cacheService,
		validate,
		logr,
		service.ScheduleGenerationConfig{LockTTL: cfg.Timetable.LockTTL},
	)

	generationJobs := service.NewGenerationJobService(generation, cfg.Timetable.JobTTL, logr)
	if cfg.Timetable.AsyncEnabled {
		queue := jobs.NewQueue("schedule-generation", generationJobs.Handle, jobs.QueueConfig{
			Workers:       cfg.Timetable.JobWorkers,
			MaxRetries:    cfg.Timetable.JobRetries,
			RetryDelay:    5 * time.Second,
			MaxRetryDelay: time.Minute,
			JobTimeout:    cfg.Timetable.LockTTL,
			Logger:        logr,
			OnFailure:     generationJobs.HandleFailure,
		})
		queue.Start(ctx)
		defer queue.Stop()
		generationJobs.AttachQueue(queue)
	}

	exporter := service.NewScheduleExportService(generation, nil, nil, logr)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, tokens, handler.Handlers{
		Workload:  handler.NewWorkloadHandler(workload),
		Schedules: handler.NewScheduleHandler(generation, generationJobs, exporter),
		Metrics:   handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
