package main

import (
	"github.com/joho/godotenv"
	"github.com/techgini/verifybot/internal/analysis"
	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/bot"
	"github.com/techgini/verifybot/internal/chat"
	"github.com/techgini/verifybot/internal/gateway"
	"github.com/techgini/verifybot/internal/storage"
	"github.com/techgini/verifybot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env before viper reads the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Missing required configuration", zap.Error(err))
	}

	// Open the audit event log
	auditLog := audit.Open(cfg.Audit.LogFile, logger)
	defer auditLog.Close()

	// Initialize storage
	var store storage.Store
	switch cfg.Storage.Backend {
	case "memory":
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStore(cfg.Chat.HistoryLimit)
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		store, err = storage.NewPostgresStore(dbConfig, cfg.Chat.HistoryLimit)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	default:
		logger.Info("Using file storage", zap.String("path", cfg.Storage.Path))
		store = storage.NewFileStore(cfg.Storage.Path, cfg.Chat.HistoryLimit, logger)
	}
	defer store.Close()

	// Initialize the model gateway
	var gw gateway.ModelGateway
	switch cfg.Model.Provider {
	case "openai":
		logger.Info("Using OpenAI gateway", zap.String("model", cfg.OpenAI.Model))
		gw = gateway.NewOpenAIClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			cfg.Model.Timeout,
			auditLog,
			logger,
		)
	default:
		logger.Info("Using Gemini gateway", zap.String("model", cfg.Gemini.Model))
		gw = gateway.NewGeminiClient(
			cfg.Gemini.APIKey,
			cfg.Gemini.Model,
			cfg.Model.Timeout,
			auditLog,
			logger,
		)
	}

	orchestrator := analysis.NewOrchestrator(gw, store, auditLog, logger)
	sessions := chat.NewSessionManager(gw, store, auditLog, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, gw, orchestrator, sessions, store, auditLog, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	auditLog.System(audit.ActionBotStart, "")
	logger.Info("Bot is running")

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
