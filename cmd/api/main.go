package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/virtuclass/classroom-api/api/swagger"
	"github.com/virtuclass/classroom-api/internal/handler"
	internalmiddleware "github.com/virtuclass/classroom-api/internal/middleware"
	"github.com/virtuclass/classroom-api/internal/repository"
	"github.com/virtuclass/classroom-api/internal/service"
	"github.com/virtuclass/classroom-api/pkg/cache"
	"github.com/virtuclass/classroom-api/pkg/config"
	"github.com/virtuclass/classroom-api/pkg/database"
	"github.com/virtuclass/classroom-api/pkg/logger"
	corsmiddleware "github.com/virtuclass/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/virtuclass/classroom-api/pkg/middleware/requestid"
)

// @title VirtuClass Classroom API
// @version 1.0.0
// @description Classroom management backend with roster synchronization
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

	mongoClient, db, err := database.NewMongo(cfg.Mongo)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to mongo", "error", err)
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without quiz cache", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer redisClient.Close() //nolint:errcheck
		}
	}

	sectionRepo := repository.NewSectionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	moduleRepo := repository.NewSectionModuleRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	authService := service.NewAuthService(teacherRepo, studentRepo, moduleRepo, nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
	})
	teacherService := service.NewTeacherService(teacherRepo, logr)
	rosterService := service.NewRosterService(studentRepo, moduleRepo, nil, logr)
	sectionService := service.NewSectionService(sectionRepo, moduleRepo, studentRepo, nil, logr)
	studentService := service.NewStudentService(studentRepo, sectionRepo, rosterService, logr)
	moduleService := service.NewModuleService(studentRepo, moduleRepo, cacheService, nil, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := mongoClient.Ping(c.Request.Context(), nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authService, handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Teachers: handler.NewTeacherHandler(teacherService),
		Sections: handler.NewSectionHandler(sectionService),
		Students: handler.NewStudentHandler(studentService, rosterService),
		Modules:  handler.NewModuleHandler(moduleService, cfg.Exports.Enabled),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}
