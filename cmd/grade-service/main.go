package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/sala-kh/grade-service/api/swagger"
	"github.com/sala-kh/grade-service/internal/handler"
	"github.com/sala-kh/grade-service/internal/middleware"
	"github.com/sala-kh/grade-service/internal/models"
	"github.com/sala-kh/grade-service/internal/repository"
	"github.com/sala-kh/grade-service/internal/service"
	"github.com/sala-kh/grade-service/pkg/cache"
	"github.com/sala-kh/grade-service/pkg/config"
	"github.com/sala-kh/grade-service/pkg/database"
	"github.com/sala-kh/grade-service/pkg/logger"
	corsmiddleware "github.com/sala-kh/grade-service/pkg/middleware/cors"
	reqidmiddleware "github.com/sala-kh/grade-service/pkg/middleware/requestid"
)

// @title Grade Service API
// @version 1.0.0
// @description Grade calculation and ranking engine
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

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close()
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	scale := gradingScale(cfg.Grading)

	grades := repository.NewGradeRepository(db)
	configs := repository.NewGradeConfigRepository(db)
	schedules := repository.NewSemesterScheduleRepository(db)
	assessments := repository.NewAssessmentTypeRepository(db)
	subjects := repository.NewSubjectRepository(db)
	classes := repository.NewClassRepository(db)
	students := repository.NewStudentRepository(db)

	configSvc := service.NewGradeConfigService(configs, subjects, nil, logr)
	scheduleSvc := service.NewScheduleService(schedules, nil, logr)
	assessmentSvc := service.NewAssessmentService(assessments, nil, logr)
	gradeSvc := service.NewGradeService(grades, assessments, subjects, classes, students, scheduleSvc, cacheSvc, nil, logr)
	calcSvc := service.NewCalculationService(grades, configSvc, scale, metrics, logr)
	rankingSvc := service.NewRankingService(calcSvc, students, classes, cacheSvc, cfg.Cache.TTL, metrics, logr)
	summarySvc := service.NewSummaryService(grades, calcSvc, rankingSvc, scheduleSvc, subjects, classes, students, scale, cacheSvc, cfg.Cache.TTL, logr)
	exportSvc := service.NewExportService(summarySvc, logr)

	verifier := middleware.NewTokenVerifier(cfg.JWT.Secret)

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

	registerRoutes(r.Group(cfg.APIPrefix), verifier, routeHandlers{
		assessments: handler.NewAssessmentHandler(assessmentSvc),
		configs:     handler.NewGradeConfigHandler(configSvc),
		schedules:   handler.NewScheduleHandler(scheduleSvc),
		grades:      handler.NewGradeHandler(gradeSvc),
		rankings:    handler.NewRankingHandler(rankingSvc),
		summaries:   handler.NewSummaryHandler(summarySvc, exportSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env), zap.Bool("cache", cfg.Cache.Enabled))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

type routeHandlers struct {
	assessments *handler.AssessmentHandler
	configs     *handler.GradeConfigHandler
	schedules   *handler.ScheduleHandler
	grades      *handler.GradeHandler
	rankings    *handler.RankingHandler
	summaries   *handler.SummaryHandler
}

func registerRoutes(api *gin.RouterGroup, verifier *middleware.TokenVerifier, h routeHandlers) {
	api.Use(middleware.JWT(verifier))

	api.GET("/assessment-types", h.assessments.List)
	api.GET("/assessment-types/:id", h.assessments.Get)
	api.POST("/assessment-types", middleware.RequireRoles(models.RoleAdmin), h.assessments.Create)
	api.PUT("/assessment-types/:id", middleware.RequireRoles(models.RoleAdmin), h.assessments.Update)

	api.GET("/grade-configs/resolve", h.configs.Resolve)
	api.GET("/grade-configs", h.configs.List)
	api.POST("/grade-configs", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.configs.Save)

	api.GET("/schedules/resolve", h.schedules.Resolve)
	api.POST("/schedules", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.schedules.Save)

	api.POST("/grades", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.Create)
	api.POST("/grades/bulk", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.Bulk)
	api.POST("/grades/monthly", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.Monthly)
	api.POST("/grades/semester-exam", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.SemesterExam)
	api.GET("/grades", h.grades.List)
	api.GET("/grades/:id", h.grades.Get)
	api.PUT("/grades/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.Update)
	api.DELETE("/grades/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.Delete)

	api.GET("/classes/:id/ranking", h.rankings.Rank)
	api.GET("/classes/:id/summary", h.summaries.ClassSummary)
	api.GET("/classes/:id/summary/export", h.summaries.ExportClassSummary)
	api.GET("/students/:id/semester-summary", h.summaries.StudentSummary)
}

func gradingScale(cfg config.GradingConfig) models.GradingScale {
	bands := make([]models.ScaleBand, len(cfg.Bands))
	for i, b := range cfg.Bands {
		bands[i] = models.ScaleBand{Letter: b.Letter, MinScore: b.MinScore}
	}
	return models.GradingScale{Bands: bands, PassThreshold: cfg.PassThreshold}
}
