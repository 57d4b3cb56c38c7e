package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/controller"
	"questionnaire_backend/internal/middleware"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/pkg/configwatcher"
	"questionnaire_backend/pkg/database"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/messaging"
	"questionnaire_backend/pkg/monitoring"
	"questionnaire_backend/pkg/security"
	"questionnaire_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Tenants         *database.TenantRegistry
	services        *services
	mq              *messaging.RabbitMQClient
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	form       *repository.FormRepository
	question   *repository.QuestionRepository
	rule       *repository.RuleRepository
	submission *repository.SubmissionRepository
	export     *repository.ExportRepository
	user       *repository.UserRepository
	timezone   *repository.TimeZoneRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	timezone   *service.TimeZoneService
	form       *service.FormService
	question   *service.QuestionService
	rule       *service.RuleService
	submission *service.SubmissionService
	scoring    *service.ScoringService
	export     *service.ExportService
}

type controllers struct {
	auth       *controller.AuthController
	form       *controller.FormController
	question   *controller.QuestionController
	rule       *controller.RuleController
	submission *controller.SubmissionController
	scoring    *controller.ScoringController
	export     *controller.ExportController
	timezone   *controller.TimeZoneController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// 仓储持有默认库，请求级的租户库通过 context 传入
func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		form:       repository.NewFormRepository(db),
		question:   repository.NewQuestionRepository(db),
		rule:       repository.NewRuleRepository(db),
		submission: repository.NewSubmissionRepository(db),
		export:     repository.NewExportRepository(db),
		user:       repository.NewUserRepository(db),
		timezone:   repository.NewTimeZoneRepository(db),
	}
}

func (a *App) initEvents(cfg *config.Config) service.EventPublisher {
	if !cfg.RabbitMQ.Enabled {
		return service.LogEventPublisher{}
	}
	client, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, events will only be logged", zap.Error(err))
		return service.LogEventPublisher{}
	}
	a.mq = client
	return service.NewAMQPEventPublisher(client)
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	events := a.initEvents(cfg)

	s.storage = service.NewStorageService(&cfg.Storage)
	s.timezone = service.NewTimeZoneService(repos.timezone, service.NewTimeZoneCache())
	s.auth = service.NewAuthService(repos.user, service.NewRedisLoginThrottle(rdb, &cfg.Security), cfg.JWT)
	s.form = service.NewFormService(repos.form)
	s.question = service.NewQuestionService(repos.form, repos.question)
	s.rule = service.NewRuleService(repos.form, repos.rule, events)
	s.submission = service.NewSubmissionService(repos.form, repos.rule, repos.submission, events)
	s.scoring = service.NewScoringService(repos.form, repos.submission, events)
	s.export = service.NewExportService(repos.form, repos.submission, repos.export, s.storage, s.timezone, cfg.Export.TTL())

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		form:       controller.NewFormController(s.form),
		question:   controller.NewQuestionController(s.question),
		rule:       controller.NewRuleController(s.rule),
		submission: controller.NewSubmissionController(s.submission),
		scoring:    controller.NewScoringController(s.scoring),
		export:     controller.NewExportController(s.export),
		timezone:   controller.NewTimeZoneController(s.timezone),
		health:     controller.NewHealthController(db, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.ErrorHandler())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时清理默认库与各租户库中的过期导出
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(a.Config.Export.PurgeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				a.purgeExports(s.export)
			}
		}
	}()

	if a.ConfigFile != "" {
		go func() {
			err := configwatcher.Watch(a.ctx, a.ConfigFile, func(cfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(cfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func (a *App) purgeExports(exports *service.ExportService) {
	targets := map[string]*gorm.DB{"": a.DB}
	for _, id := range a.Tenants.Tenants() {
		db, ok, err := a.Tenants.Resolve(id)
		if err != nil || !ok {
			logger.Log.Warn("Skip export purge for tenant", zap.String("tenant", id), zap.Error(err))
			continue
		}
		targets[id] = db
	}
	for id, db := range targets {
		ctx := database.WithDB(a.ctx, db)
		if _, err := exports.PurgeExpired(ctx); err != nil {
			logger.Log.Error("Export purge failed", zap.String("tenant", id), zap.Error(err))
		}
	}
}

func (a *App) openTenant(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.InitDB(cfg, a.Config.Server.Mode == "debug")
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func NewApp(cfg *config.Config, configFile string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	// 分值以 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:     cfg,
		ConfigFile: configFile,
		DB:         db,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb
	app.Tenants = database.NewTenantRegistry(db, cfg.Tenants, app.openTenant)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	app.RegisterConfigCallback(func(c *config.Config) {
		app.Tenants.UpdateTenants(c.Tenants)
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		services.export.SetTTL(c.Export.TTL())
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		logger.SetMode(c.Server.Mode)
	})

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

// EnsureAdmin 启动参数指定时创建初始管理员
func (a *App) EnsureAdmin(email, password string) error {
	if a.services == nil {
		return errors.New("services not initialized")
	}
	_, err := a.services.auth.EnsureAdmin(a.ctx, "Administrator", email, password)
	return err
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.Close()
	log.Println("Server exiting")
}

// Close 停止后台任务并释放外部连接
func (a *App) Close() {
	a.cancel()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.mq != nil {
		a.mq.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Tenants != nil {
		a.Tenants.UpdateTenants(nil)
	}
}
