package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/oes-platform/enrolment-api/api/swagger"
	"github.com/oes-platform/enrolment-api/internal/handler"
	"github.com/oes-platform/enrolment-api/internal/middleware"
	"github.com/oes-platform/enrolment-api/internal/repository"
	"github.com/oes-platform/enrolment-api/internal/service"
	"github.com/oes-platform/enrolment-api/pkg/cache"
	"github.com/oes-platform/enrolment-api/pkg/config"
	"github.com/oes-platform/enrolment-api/pkg/database"
	"github.com/oes-platform/enrolment-api/pkg/logger"
	corsmiddleware "github.com/oes-platform/enrolment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oes-platform/enrolment-api/pkg/middleware/requestid"
)

// @title Enrolment Portal API
// @version 1.0.0
// @description Course catalogue, eligibility evaluation and add/drop workflow
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalogue cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && cacheRepo != nil)

	enrolmentRepo := repository.NewEnrolmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	catalogSvc := service.NewCatalogService(courseRepo, classRepo, enrolmentRepo, cacheSvc, logr)
	eligibilitySvc := service.NewEligibilityService(enrolmentRepo, classRepo, catalogSvc, metricsSvc, nil, logr)
	timetableSvc := service.NewTimetableService(classRepo, logr)
	historySvc := service.NewHistoryService(historyRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)

	enrolmentHandler := handler.NewEnrolmentHandler(eligibilitySvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Scrape)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/enrolments/evaluate", enrolmentHandler.Evaluate)
		api.POST("/enrolments", enrolmentHandler.Create)
		api.DELETE("/enrolments/:id", enrolmentHandler.Delete)

		api.GET("/students/:id", studentHandler.GetByID)
		api.GET("/students/:id/enrolments", enrolmentHandler.ListByStudent)
		api.GET("/students/:id/available-classes", catalogHandler.AvailableClasses)
		api.GET("/students/:id/history", historyHandler.ListByStudent)

		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/classes", catalogHandler.ListClasses)

		api.POST("/timetable/check", timetableHandler.Check)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
