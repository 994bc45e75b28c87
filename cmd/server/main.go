package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"convoeval/internal/config"
	"convoeval/internal/domain"
	"convoeval/internal/domain/fiber/handler"
	"convoeval/internal/logger"
	"convoeval/internal/middleware"
	"convoeval/internal/model"
	"convoeval/internal/repository"
	"convoeval/internal/service"
	"convoeval/internal/usecase"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		fmt.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	if err := logger.Initialize(appConfig.Env, "info"); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := connectDB(log)

	provider, err := buildProvider(ctx, appConfig.Provider, log)
	if err != nil {
		log.Fatal("could not construct evaluation provider", zap.Error(err))
	}

	historyRepo := repository.NewHistoryRepository(db)
	catalog := service.NewCatalog(service.DefaultQuestions)
	uc := usecase.NewEvaluationUsecase(historyRepo, provider, catalog, log)
	h := handler.NewEvaluateHandler(uc)
	h.RegisterRoutes(app)

	log.Info("server starting",
		zap.String("port", appConfig.Port),
		zap.String("provider", appConfig.Provider))
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// buildProvider constructs the configured scoring backend. Construction
// fails here, loudly, when credentials are missing.
func buildProvider(ctx context.Context, name string, log *zap.Logger) (domain.EvaluationProvider, error) {
	switch name {
	case "gemini":
		return service.NewGeminiService(ctx, config.LoadGeminiConfig(), log)
	case "openrouter":
		return service.NewOpenRouterService(config.LoadOpenRouterConfig(), log)
	default:
		return nil, fmt.Errorf("unknown evaluation provider %q", name)
	}
}

// connectDB opens the history database: a local sqlite file by default,
// postgres when configured.
func connectDB(log *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	var (
		db  *gorm.DB
		err error
	)
	switch dbConfig.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			dbConfig.Host,
			dbConfig.User,
			dbConfig.Password,
			dbConfig.Name,
			dbConfig.Port,
			dbConfig.SSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		db, err = gorm.Open(sqlite.Open(dbConfig.Path), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("could not connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("could not get database instance", zap.Error(err))
	}
	if appConfig.Env != "production" {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetMaxOpenConns(200)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.HistoryEntry{}); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	return db
}
