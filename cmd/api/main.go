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

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/huddleplan/huddle-pipeline/internal/adapter/handler"
	"github.com/huddleplan/huddle-pipeline/internal/adapter/repository"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/cache"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/database"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/metrics"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/storage"
	presenceUsecase "github.com/huddleplan/huddle-pipeline/internal/usecase/presence"
	turnUsecase "github.com/huddleplan/huddle-pipeline/internal/usecase/turn"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
	"github.com/huddleplan/huddle-pipeline/pkg/extraction"
	"github.com/huddleplan/huddle-pipeline/pkg/jwt"
	"github.com/huddleplan/huddle-pipeline/pkg/stt"
	pkgvalidator "github.com/huddleplan/huddle-pipeline/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying schema migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; manage schema with sql-migrate in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize clip storage
	log.Println("🗄️  Initializing clip storage...")
	clipStore, err := storage.NewClipStore(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize clip storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	huddleRepo := repository.NewHuddleRepository(db)
	itemRepo := repository.NewPlanningItemRepository(db)
	chunkRepo := repository.NewTranscriptChunkRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	// Initialize metrics
	pipelineMetrics := metrics.NewMetrics()

	// Initialize external clients
	log.Println("🎙️  Initializing transcription and extraction clients...")
	transcriber := stt.NewTranscriber(&cfg.STT)
	extractor := extraction.NewClient(&cfg.Extraction)
	dedupStore := cache.NewDedupStore(redisClient, 24*time.Hour)

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Initialize turn pipeline
	log.Println("🧩 Initializing turn pipeline...")
	resolver := turnUsecase.NewResolver(logger)
	turnService := turnUsecase.NewService(
		huddleRepo,
		itemRepo,
		chunkRepo,
		resolver,
		extractor,
		transcriber,
		clipStore,
		dedupStore,
		pipelineMetrics,
		logger,
	)

	// Initialize presence service and reaper
	log.Println("💓 Initializing presence service...")
	presenceService := presenceUsecase.NewService(presenceRepo, logger)
	reaper := presenceUsecase.NewReaper(presenceRepo, cfg.Presence, pipelineMetrics, logger)
	reaper.Start(context.Background())
	defer reaper.Stop()

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	huddleHandler := handler.NewHuddleHandler(huddleRepo, jwtManager, cfg.JWT.AccessExpiry, logger)
	turnHandler := handler.NewTurnHandler(turnService, logger)
	presenceHandler := handler.NewPresenceHandler(presenceService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, jwtManager, huddleHandler, turnHandler, presenceHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
