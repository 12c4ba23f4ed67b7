package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careguide/config"
	deliveryHttp "careguide/internal/delivery/http"
	"careguide/internal/delivery/http/handler"
	"careguide/internal/delivery/http/middleware"
	"careguide/internal/delivery/web"
	"careguide/internal/infrastructure/cache"
	"careguide/internal/infrastructure/database"
	"careguide/internal/infrastructure/functions"
	"careguide/internal/infrastructure/storage"
	"careguide/internal/privileged"
	"careguide/internal/repository"
	"careguide/internal/service"
	"careguide/internal/session"
	"careguide/internal/usecase"
	"careguide/pkg/jwt"
	"careguide/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Storage     *storage.S3Storage
	Sessions    *session.Registry
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App)
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	if cfg.DB.Migrate {
		if err := database.RunMigrations(database.URL(cfg.DB), log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	// Initialize object storage
	objectStorage, err := storage.NewS3Storage(context.Background(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.Storage = objectStorage
	log.Info("Object storage initialized successfully")

	// Initialize all layers
	server, err := app.initializeServer(log)
	if err != nil {
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return logrus.StandardLogger()
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(log *logrus.Logger) (*http.Server, error) {
	cfg := app.Config

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	transactor := database.NewTransactor(app.DB)
	userRepo := repository.NewUserRepository(app.DB)
	profileRepo := repository.NewProfileRepository(app.DB)
	tokenRepo := repository.NewTokenRepository(app.RedisClient)

	// Initialize services
	mailer := service.NewLogMailer(log)
	avatarService := service.NewAvatarService(log)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, cfg.Auth, cfg.App.BaseURL, transactor, userRepo, profileRepo, tokenRepo, jwtService, mailer)
	profileUsecase := usecase.NewProfileUsecase(log, profileRepo, app.Storage, avatarService)

	privilegedClient, err := privileged.NewClient(cfg.Auth.ServiceRoleKey, cfg.Auth.ServiceRoleKey, log, profileRepo, userRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to create privileged client: %w", err)
	}
	deleteDoctorUsecase := usecase.NewDeleteDoctorUsecase(log, authUsecase, profileUsecase, privilegedClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	profileHandler := handler.NewProfileHandler(profileUsecase, customValidator)
	directoryHandler := handler.NewDirectoryHandler(profileUsecase)
	deleteDoctorHandler := handler.NewDeleteDoctorHandler(deleteDoctorUsecase)
	healthHandler := handler.NewHealthHandler(log, map[string]handler.HealthCheck{
		"database": app.pingDatabase,
		"redis": func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		},
		"storage": app.Storage.Ping,
	})

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUsecase)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		profileHandler,
		directoryHandler,
		deleteDoctorHandler,
		healthHandler,
		authMiddleware,
		profileUsecase,
	)
	httpRouter := router.Setup()

	// Session stores of the web application, one per browser
	sessionStorage := session.NewRedisStorage(app.RedisClient, cfg.JWT.RefreshExpiry)
	app.Sessions = session.NewRegistry(func(id string) *session.Store {
		client := session.NewAuthClient(id, authUsecase, sessionStorage, log, cfg.App.BaseURL+"/")
		return session.NewStore(client, profileUsecase, log)
	}, cfg.Session.IdleTimeout, log)

	csrfKey, err := loadCSRFKey(cfg.App, log)
	if err != nil {
		return nil, err
	}

	webHandler, err := web.NewHandler(
		log,
		app.Sessions,
		profileUsecase,
		authUsecase,
		functions.NewClient(cfg.Functions.URL, nil),
		web.Options{
			BaseURL:       cfg.App.BaseURL,
			CSRFKey:       csrfKey,
			SecureCookies: cfg.App.SecureCookies,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize web pages: %w", err)
	}
	webHandler.Register(httpRouter)

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// loadCSRFKey returns the configured 32-byte CSRF key, or a random one that
// invalidates open forms on every restart.
func loadCSRFKey(cfg config.AppConfig, log *logrus.Logger) ([]byte, error) {
	if len(cfg.CSRFKey) == 32 {
		return []byte(cfg.CSRFKey), nil
	}
	if cfg.CSRFKey != "" {
		return nil, fmt.Errorf("APP_CSRF_KEY must be 32 bytes, got %d", len(cfg.CSRFKey))
	}

	log.Warn("APP_CSRF_KEY is not set, using a random key")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	return key, nil
}

func (app *App) pingDatabase(ctx context.Context) error {
	sqlDB, err := app.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops the session registry and closes all connections
func (app *App) Close() {
	if app.Sessions != nil {
		app.Sessions.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
