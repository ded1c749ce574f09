package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/config"
	"github.com/museme-app/museme-engine/pkg/database"
	"github.com/museme-app/museme-engine/pkg/handlers"
	"github.com/museme-app/museme-engine/pkg/llm"
	"github.com/museme-app/museme-engine/pkg/middleware"
	"github.com/museme-app/museme-engine/pkg/repositories"
	"github.com/museme-app/museme-engine/pkg/services"
	"github.com/museme-app/museme-engine/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("generation_model", cfg.Generation.Model),
		zap.Int("fallback_keys", len(cfg.Generation.FallbackKeys)))

	// Connect to PostgreSQL and apply migrations
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Optional Redis cache
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		logger.Info("Connected to Redis", zap.String("host", cfg.Redis.Host))
	}

	// Optional object storage for sample playback
	objectStore, err := storage.NewObjectStore(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to connect to object store", zap.Error(err))
	}

	// Repositories
	credentialRepo := repositories.NewCredentialRepository(db)
	assetRepo := repositories.NewAssetRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	songRepo := repositories.NewSongRepository(db)

	// Generation pipeline
	generator, err := llm.NewGenerator(&cfg.Generation, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	pool := llm.NewCredentialPool(credentialRepo, cfg.Generation.FallbackKeys, logger)
	dispatcher := llm.NewDispatcher(generator, pool, logger)

	// Services
	maxRetries := cfg.Generation.MaxRetriesPerCredential
	ledger := services.NewVersionLedger(db, songRepo, projectRepo, logger)
	credentialService := services.NewCredentialService(credentialRepo, logger)
	assetService := services.NewAssetService(assetRepo, objectStore, logger)
	analysisService := services.NewAnalysisService(assetRepo, dispatcher, redisClient, maxRetries, logger)
	songService := services.NewSongService(songRepo, projectRepo, assetRepo, dispatcher, ledger, redisClient, maxRetries, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewCredentialHandler(credentialService, logger).RegisterRoutes(mux)
	handlers.NewAssetHandler(assetService, analysisService, logger).RegisterRoutes(mux)
	handlers.NewSongHandler(songService, logger).RegisterRoutes(mux)
	handlers.NewProjectHandler(songService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting museme-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
