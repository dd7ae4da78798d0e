package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/vbonduro/mealmate/internal/config"
	"github.com/vbonduro/mealmate/internal/db"
	"github.com/vbonduro/mealmate/internal/logging"
	"github.com/vbonduro/mealmate/internal/photostore/local"
	"github.com/vbonduro/mealmate/internal/service"
	"github.com/vbonduro/mealmate/internal/settings"
	"github.com/vbonduro/mealmate/internal/spoonacular"
	"github.com/vbonduro/mealmate/internal/store"
	"github.com/vbonduro/mealmate/internal/vision"
	claudevision "github.com/vbonduro/mealmate/internal/vision/claude"
	ollamavision "github.com/vbonduro/mealmate/internal/vision/ollama"
	openaivision "github.com/vbonduro/mealmate/internal/vision/openai"
	"github.com/vbonduro/mealmate/internal/web"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	for _, warning := range cfg.Warnings() {
		logger.Warn("configuration incomplete", "error", warning)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	prefs := settings.New(store.NewKVStore(database), logger)
	if err := prefs.Load(context.Background()); err != nil {
		logger.Error("failed to load settings", "error", err)
		return
	}

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize vision backend", "error", err)
		return
	}

	recipes := spoonacular.NewClient(cfg.SpoonacularAPIKey, cfg.SpoonacularBaseURL, logger)
	mealService := service.NewMealService(extractor, recipes, photoStg, prefs, logger)
	server := web.NewServer(mealService, photoStg, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newExtractor(cfg *config.Config, logger *slog.Logger) (vision.Extractor, error) {
	switch cfg.VisionBackend {
	case config.BackendClaude:
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeExtractor(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeBaseURL), nil
	case config.BackendOllama:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		extractor, err := ollamavision.NewOllamaExtractor(cfg.OllamaHost, cfg.OllamaModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama extractor: %w", err)
		}
		return extractor, nil
	default:
		logger.Info("using OpenAI vision backend", "model", cfg.OpenAIModel)
		return openaivision.NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	}
}
