package main

import (
	"context"
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

	_ "github.com/noah-isme/hr-discipline-api/api/swagger"
	"github.com/noah-isme/hr-discipline-api/internal/handler"
	"github.com/noah-isme/hr-discipline-api/internal/middleware"
	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/repository"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	"github.com/noah-isme/hr-discipline-api/internal/service"
	"github.com/noah-isme/hr-discipline-api/pkg/cache"
	"github.com/noah-isme/hr-discipline-api/pkg/config"
	"github.com/noah-isme/hr-discipline-api/pkg/database"
	"github.com/noah-isme/hr-discipline-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hr-discipline-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hr-discipline-api/pkg/middleware/requestid"
)

// @title HR Discipline API
// @version 0.1.0
// @description Tardiness classification and disciplinary escalation engine
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	ruleRepo := repository.NewRuleRepository(db)
	accumRepo := repository.NewAccumulationRepository(db)
	disciplinaryRepo := repository.NewDisciplinaryRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	catalog := rules.NewCatalog()
	tokenSvc := service.NewTokenService(cfg.JWT)
	notificationSvc := service.NewNotificationService(cfg.Notifications, service.LoggingNotifier{Logger: logr}, metrics, logr)
	disciplinarySvc := service.NewDisciplinaryService(disciplinaryRepo, notificationSvc, metrics, validate, logr)
	ruleSvc := service.NewRuleService(ruleRepo, catalog, validate, logr)
	accumSvc := service.NewAccumulationService(accumRepo, cacheRepo, cfg.Cache.Enabled, cfg.Cache.SummaryTTL, logr)
	pipelineSvc := service.NewPipelineService(catalog, accumRepo, reviewRepo, disciplinarySvc, accumSvc, metrics, cfg.Engine, cfg.Pipeline, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := ruleSvc.Reload(ctx); err != nil {
		logr.Sugar().Fatalw("failed to load rule catalog", "error", err)
	}

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()
	pipelineSvc.Start(ctx)
	defer pipelineSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	attendanceHandler := handler.NewAttendanceEventHandler(pipelineSvc)
	accumHandler := handler.NewAccumulationHandler(accumSvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	disciplinaryHandler := handler.NewDisciplinaryHandler(disciplinarySvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	ingest := api.Group("/attendance")
	ingest.Use(middleware.RBAC(models.RoleService, models.RoleHRAdmin, models.RoleSuperAdmin))
	ingest.POST("/events", attendanceHandler.Ingest)
	ingest.POST("/events/bulk", attendanceHandler.IngestBulk)

	reviews := api.Group("/review-queue")
	reviews.GET("", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), attendanceHandler.ListReviews)
	reviews.POST("/:id/resolve", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), attendanceHandler.ResolveReview)

	accums := api.Group("/accumulations")
	accums.GET("", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), accumHandler.List)
	accums.GET("/:employee_id/summary", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), accumHandler.Summary)
	accums.GET("/:employee_id/:year/:month", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), accumHandler.Get)
	accums.DELETE("/:employee_id/:year/:month", middleware.RBAC(models.RoleSuperAdmin), accumHandler.Delete)

	ruleRoutes := api.Group("/rules")
	ruleRoutes.GET("/tardiness", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), ruleHandler.ListTardiness)
	ruleRoutes.POST("/tardiness", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.CreateTardiness)
	ruleRoutes.PUT("/tardiness/:id", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.UpdateTardiness)
	ruleRoutes.PATCH("/tardiness/:id/active", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.SetTardinessActive)
	ruleRoutes.GET("/disciplinary", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), ruleHandler.ListActions)
	ruleRoutes.POST("/disciplinary", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.CreateAction)
	ruleRoutes.PUT("/disciplinary/:id", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.UpdateAction)
	ruleRoutes.PATCH("/disciplinary/:id/active", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), ruleHandler.SetActionActive)
	ruleRoutes.POST("/reload", middleware.RBAC(models.RoleSuperAdmin), ruleHandler.Reload)

	records := api.Group("/disciplinary-records")
	records.GET("", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), disciplinaryHandler.List)
	records.GET("/:id", middleware.RBAC(models.RoleHRAdmin, models.RoleSupervisor, models.RoleSuperAdmin), disciplinaryHandler.Get)
	records.POST("/:id/approve", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), disciplinaryHandler.Approve)
	records.POST("/:id/cancel", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), disciplinaryHandler.Cancel)
	records.POST("/:id/complete", middleware.RBAC(models.RoleHRAdmin, models.RoleSuperAdmin), disciplinaryHandler.Complete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
