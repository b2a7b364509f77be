package app

import (
	"anatomy_edu_backend/internal/config"
	"anatomy_edu_backend/internal/controller"
	"anatomy_edu_backend/internal/repository"
	"anatomy_edu_backend/internal/service"
	"anatomy_edu_backend/internal/util"
	"anatomy_edu_backend/pkg/database"
	"anatomy_edu_backend/pkg/logger"
	"anatomy_edu_backend/pkg/monitoring"
	"anatomy_edu_backend/pkg/security"
	"anatomy_edu_backend/pkg/tracing"
	"context"
	"log"
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
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
	shutdowns       []func()
}

type repositories struct {
	user    *repository.UserRepository
	quiz    *repository.QuizRepository
	stats   *repository.StatsRepository
	attempt *repository.AttemptRepository
}

type services struct {
	auth    *service.AuthService
	user    *service.UserService
	storage *service.StorageService
	quiz    *service.QuizService
	attempt *service.AttemptService
	stats   *service.StatsService
}

type controllers struct {
	auth    *controller.AuthController
	user    *controller.UserController
	quiz    *controller.QuizController
	attempt *controller.AttemptController
	stats   *controller.StatsController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig swaps in a reloaded configuration and notifies subscribers.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	stats := repository.NewStatsRepository(db)
	return &repositories{
		user:    repository.NewUserRepository(db),
		quiz:    repository.NewQuizRepository(db, rdb),
		stats:   stats,
		attempt: repository.NewAttemptRepository(db, stats),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.quiz = service.NewQuizService(repos.quiz, repos.attempt)
	s.attempt = service.NewAttemptService(repos.attempt, repos.quiz)
	s.stats = service.NewStatsService(repos.user, repos.quiz)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth, s.user),
		user:    controller.NewUserController(s.user),
		quiz:    controller.NewQuizController(s.quiz, s.storage),
		attempt: controller.NewAttemptController(s.attempt),
		stats:   controller.NewStatsController(s.stats),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("anatomy-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.shutdowns = append(app.shutdowns, func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		})
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	for _, stop := range a.shutdowns {
		stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
