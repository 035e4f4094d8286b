package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/unisphere-scheduler/internal/app/controllers"
	appMigrations "github.com/yigit/unisphere-scheduler/internal/app/migrations"
	appRepos "github.com/yigit/unisphere-scheduler/internal/app/repositories"
	appRoutes "github.com/yigit/unisphere-scheduler/internal/app/routes"
	appServices "github.com/yigit/unisphere-scheduler/internal/app/services"
	"github.com/yigit/unisphere-scheduler/internal/config"
	"github.com/yigit/unisphere-scheduler/internal/db"
	appMiddleware "github.com/yigit/unisphere-scheduler/internal/middleware"
	pkgAuth "github.com/yigit/unisphere-scheduler/internal/pkg/auth"
	"github.com/yigit/unisphere-scheduler/internal/pkg/helpers"
	"github.com/yigit/unisphere-scheduler/internal/pkg/lock"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
	"github.com/yigit/unisphere-scheduler/internal/pkg/metrics"
	"github.com/yigit/unisphere-scheduler/internal/seed"
)

// DefaultConfigPath is read unless CONFIG_PATH points elsewhere
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos              *appRepos.Repositories
	SchedulingService  appServices.SchedulingService
	ScheduleController *appControllers.ScheduleController
	AuthMiddleware     *appMiddleware.AuthMiddleware
	JWTService         *pkgAuth.JWTService
	Locker             lock.Locker
	Metrics            *metrics.Metrics
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", DefaultConfigPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Component("api")
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and optionally seeds.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Seed.Enabled {
		classrooms := appRepos.NewClassroomRepository(database.Pool)
		if err := seed.CreateDefaultData(ctx, classrooms, lgr); err != nil {
			// Seeding is a convenience; a partial seed should not block startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// SetupLocker picks the run lock backend: redis when configured, otherwise in process.
// The returned client is nil in the in-process case.
func SetupLocker(cfg *config.Config, lgr zerolog.Logger) (lock.Locker, *db.RedisDB, error) {
	redisDB, err := db.NewRedisDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	if redisDB == nil {
		lgr.Warn().Msg("No redis address configured, run locks are local to this process")
		return lock.NewLocalLocker(), nil, nil
	}
	return lock.NewRedisLocker(redisDB.Client), redisDB, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, locker lock.Locker, lgr zerolog.Logger) (*Dependencies, error) {
	grid, err := cfg.SchedulerGrid()
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Repos:   appRepos.NewRepositories(database),
		Locker:  locker,
		Metrics: metrics.New(),
		Logger:  lgr,
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.SchedulingService = appServices.NewSchedulingService(
		appServices.SchedulingStores{
			Sections:    deps.Repos.SectionRepository,
			Classrooms:  deps.Repos.ClassroomRepository,
			Instructors: deps.Repos.InstructorRepository,
			Schedules:   deps.Repos.ScheduleRepository,
		},
		locker,
		deps.Metrics,
		appServices.SchedulingConfig{
			Grid:          grid,
			MaxBacktracks: cfg.Scheduler.MaxBacktracks,
			Timeout:       helpers.ParseDuration(cfg.Scheduler.Timeout, 30*time.Second),
			LockTTL:       helpers.ParseDuration(cfg.Scheduler.LockTTL, lock.DefaultTTL),
		},
		logger.Component("scheduler"),
	)

	deps.ScheduleController = appControllers.NewScheduleController(deps.SchedulingService)

	return deps, nil
}

// Pinger is anything the health check can ping
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports 503 when any dependency fails its ping
func HealthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, health gin.HandlerFunc) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.ScheduleController, deps.AuthMiddleware, health)

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
