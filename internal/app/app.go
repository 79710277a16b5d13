package app

import (
	"compliance_training_backend/internal/catalog"
	"compliance_training_backend/internal/config"
	"compliance_training_backend/internal/controller"
	"compliance_training_backend/internal/repository"
	"compliance_training_backend/internal/service"
	"compliance_training_backend/pkg/configwatcher"
	"compliance_training_backend/pkg/database"
	"compliance_training_backend/pkg/logger"
	"compliance_training_backend/pkg/monitoring"
	"compliance_training_backend/pkg/security"
	"compliance_training_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	Selector *repository.StoreSelector
	Redis    *redis.Client

	services        *services
	configCallbacks []func(*config.Config)
}

type services struct {
	training *service.TrainingService
	audit    *service.AuditService
}

type controllers struct {
	auth   *controller.AuthController
	module *controller.ModuleController
	user   *controller.UserController
	admin  *controller.AdminController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) shouldMigrate() bool {
	return a.Config.ForceMigrate || a.Config.Server.Mode != gin.ReleaseMode
}

// connectDatabase 连接并按需迁移；失败只返回错误，由调用方决定是否回退到内存存储
func (a *App) connectDatabase(ctx context.Context) (*gorm.DB, error) {
	timeout := a.Config.Storage.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	db, err := database.InitDB(&a.Config.Database, timeout)
	if err != nil {
		return nil, err
	}
	if a.shouldMigrate() {
		if err := database.Migrate(db); err != nil {
			if sqlDB, derr := db.DB(); derr == nil {
				sqlDB.Close()
			}
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func (a *App) initServices(db *gorm.DB) (*services, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	resolver, err := service.NewAssignmentResolver(cat, a.Config.Assignment)
	if err != nil {
		return nil, err
	}

	opts := repository.SelectorOptions{
		ProbeTimeout:      a.Config.Storage.ProbeTimeout,
		ReconnectInterval: a.Config.Storage.ReconnectInterval,
	}
	if a.Config.Database.Enabled {
		opts.Connect = a.connectDatabase
	}
	a.Selector = repository.NewStoreSelector(db, repository.NewMemoryUserRepository(), opts)

	var sink service.AuditSink
	if a.Redis != nil {
		sink = service.NewRedisAuditSink(a.Redis, a.Config.Redis.AuditKey, a.Config.Redis.AuditCap)
	}

	s := &services{training: service.NewTrainingService(cat, resolver, a.Selector)}
	s.audit = service.NewAuditService(s.training, sink)

	// 配置热加载只替换分配规则，其余配置需要重启
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		r, err := service.NewAssignmentResolver(s.training.Catalog, newCfg.Assignment)
		if err != nil {
			logger.Log.Error("keeping previous assignment rules", zap.Error(err))
			return
		}
		s.training.SetResolver(r)
		logger.Log.Info("assignment rules reloaded",
			zap.Strings("adminIds", newCfg.Assignment.AdminIDs),
			zap.String("restrictedId", newCfg.Assignment.RestrictedID))
	})
	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.training, a.Config),
		module: controller.NewModuleController(s.training),
		user:   controller.NewUserController(s.training, s.audit),
		admin:  controller.NewAdminController(s.audit),
		health: controller.NewHealthController(a.Selector),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化日志、存储与路由。数据库不可用时以内存存储启动（-migrate-only 除外）
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	a := &App{Config: cfg}

	var db *gorm.DB
	if cfg.Database.Enabled {
		var err error
		db, err = a.connectDatabase(context.Background())
		if err != nil {
			if cfg.MigrateOnly {
				return nil, fmt.Errorf("database migration: %w", err)
			}
			logger.Log.Warn("database unavailable, starting with in-memory storage", zap.Error(err))
		} else {
			logger.Log.Info("Database connection established")
		}
	}
	if cfg.MigrateOnly {
		if db == nil {
			return nil, errors.New("database is disabled, nothing to migrate")
		}
		return a, nil
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis, cfg.Storage.ConnectTimeout)
		if err != nil {
			logger.Log.Warn("redis unavailable, email results are only logged", zap.Error(err))
		} else {
			a.Redis = rdb
		}
	}

	if err := a.build(db); err != nil {
		return nil, err
	}
	return a, nil
}

// build 组装服务与路由，测试中直接传入 sqlite 或 nil
func (a *App) build(db *gorm.DB) error {
	gin.SetMode(a.Config.Server.Mode)

	s, err := a.initServices(db)
	if err != nil {
		return err
	}
	a.services = s
	c := a.initControllers(s)

	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	a.setupMiddlewares(router, a.Config)
	a.registerRoutes(router, c)
	a.Router = router
	return nil
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Config.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, a.Config.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}
	}

	if a.Config.FilePath != "" {
		if err := configwatcher.Watch(ctx, a.Config.FilePath, a.reloadConfig); err != nil {
			logger.Log.Warn("config hot reload disabled", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("listen failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if db := a.Selector.DB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
