package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/glebk/rehab-clicker/internal/bot"
	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/game"
	"github.com/glebk/rehab-clicker/internal/logging"
	"github.com/glebk/rehab-clicker/internal/repository/sqlite"
	"github.com/glebk/rehab-clicker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.RequireToken(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	logger, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	// Initialize database
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	logger.Info().Str("path", cfg.DatabasePath).Msg("database initialized")

	// Initialize repositories
	playerRepo := sqlite.NewPlayerRepository(db)
	historyRepo := sqlite.NewHistoryRepository(db)

	// Initialize service
	gameService := service.NewGameService(playerRepo, historyRepo, game.Options{
		MaxTypingRate: cfg.MaxTypingRate,
	}, logging.Component(logger, "service"))
	defer gameService.Shutdown()

	// Initialize bot
	telegramBot, err := bot.New(cfg.TelegramToken, gameService, cfg, logging.Component(logger, "bot"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bot")
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("bot started, press Ctrl+C to stop")
	if err := telegramBot.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("bot stopped with error")
		return
	}
	logger.Info().Msg("shutting down gracefully")
}
