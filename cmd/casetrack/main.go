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

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phangsc88/legal-case-tracker/internal/config"
	"github.com/phangsc88/legal-case-tracker/internal/middleware"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/handler"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting legal-case-tracker service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.TemplateType{},
		&entity.TemplateTask{},
		&entity.Case{},
		&entity.Task{},
		&entity.Remark{},
		&entity.Attachment{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unreachable, token refresh will fail", zap.Error(err))
	}

	// 初始化MinIO
	minioClient := initMinIO(cfg.MinIO, zapLogger)

	// 组装仓库与服务
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, minioClient, cfg, zapLogger, nil)
	handlers := handler.NewHandlers(services, cfg)

	// 首次启动时保证有管理员账号
	seedAdmin(services, zapLogger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func initMinIO(cfg config.MinIOConfig, zapLogger *zap.Logger) *minio.Client {
	if cfg.Endpoint == "" {
		zapLogger.Warn("MinIO endpoint not configured, attachments disabled")
		return nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("MinIO init failed, attachments disabled", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		zapLogger.Warn("MinIO bucket check failed", zap.Error(err))
		return client
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			zapLogger.Warn("MinIO bucket creation failed", zap.Error(err))
		}
	}

	return client
}

// seedAdmin 用户表为空时创建默认管理员，密码必须首登后修改
func seedAdmin(services *service.Services, zapLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	users, err := services.User.List(ctx)
	if err != nil {
		zapLogger.Warn("Admin seed check failed", zap.Error(err))
		return
	}
	if len(users) > 0 {
		return
	}

	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if password == "" {
		password = "admin"
	}
	if _, err := services.User.Add(ctx, "admin", password, entity.PrivilegeAdmin); err != nil {
		zapLogger.Warn("Admin seed failed", zap.Error(err))
		return
	}
	zapLogger.Info("Default admin user created", zap.String("username", "admin"))
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证（无需登录）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
		}

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authed.GET("/auth/me", h.Auth.Me)

			// 案件
			cases := authed.Group("/cases")
			{
				cases.GET("", h.Case.List)
				cases.POST("", h.Case.Create)
				cases.GET("/:id", h.Case.Get)
				cases.PUT("/:id", middleware.RequireAdmin(), h.Case.Update)
				cases.DELETE("/:id", middleware.RequireAdmin(), h.Case.Delete)
				cases.PUT("/:id/status", h.Case.UpdateStatus)
				cases.GET("/:id/tasks", h.Task.ListForCase)
				cases.GET("/:id/remarks", h.Case.ListRemarks)
				cases.POST("/:id/remarks", h.Case.AddRemark)
			}

			// 任务
			tasks := authed.Group("/tasks")
			{
				tasks.GET("/:id", h.Task.Get)
				tasks.PUT("/:id", h.Task.Update)
				tasks.GET("/:id/attachments", h.Attachment.List)
				tasks.POST("/:id/attachments", h.Attachment.Upload)
			}

			// 附件
			attachments := authed.Group("/attachments")
			{
				attachments.GET("/:id/download", h.Attachment.Download)
				attachments.DELETE("/:id", h.Attachment.Delete)
			}

			// 清单模板：查询对所有登录用户开放，维护仅管理员
			authed.GET("/template-types", h.Template.ListTypes)
			authed.GET("/template-types/:id/tasks", h.Template.ListTasks)

			admin := authed.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/template-types", h.Template.AddType)
				admin.DELETE("/template-types/:id", h.Template.DeleteType)
				admin.POST("/template-types/:id/tasks", h.Template.AddTask)
				admin.PUT("/template-tasks/:taskId", h.Template.UpdateTask)
				admin.DELETE("/template-tasks/:taskId", h.Template.DeleteTask)

				// 用户管理
				admin.GET("/users", h.User.List)
				admin.POST("/users", h.User.Add)
				admin.PUT("/users/:id/password", h.User.UpdatePassword)
				admin.DELETE("/users/:id", h.User.Delete)
			}

			// 报表与日历
			reports := authed.Group("/reports")
			{
				reports.GET("/cases", h.Report.AffectedCases)
				reports.GET("/tasks", h.Report.AffectedTasks)
				reports.GET("/export", h.Report.Export)
			}
			authed.GET("/dashboard", h.Report.Dashboard)
			authed.GET("/calendar/day", h.Report.CalendarDay)
			authed.GET("/calendar/range", h.Report.CalendarRange)
		}
	}
}
