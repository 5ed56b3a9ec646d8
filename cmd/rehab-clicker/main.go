package main

import (
	"context"
	"os"
	"os/signal"
	"os/user"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/game"
	"github.com/glebk/rehab-clicker/internal/logging"
	"github.com/glebk/rehab-clicker/internal/repository/sqlite"
	"github.com/glebk/rehab-clicker/internal/service"
	"github.com/glebk/rehab-clicker/internal/tui"
)

// localPlayerID is the journal id of whoever sits at the terminal
const localPlayerID = 1

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// The screen belongs to tview, so logs go to a file or nowhere
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = os.DevNull
	}
	logger, closer, err := logging.Open(logFile, cfg.Log.Level, false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	gameService := service.NewGameService(
		sqlite.NewPlayerRepository(db),
		sqlite.NewHistoryRepository(db),
		game.Options{MaxTypingRate: cfg.MaxTypingRate},
		logging.Component(logger, "service"),
	)
	defer gameService.Shutdown()

	username, firstName := "player", "Player"
	if u, err := user.Current(); err == nil {
		username = u.Username
		if u.Name != "" {
			firstName = u.Name
		}
	}
	if err := gameService.RegisterPlayer(localPlayerID, username, firstName, ""); err != nil {
		log.Fatal().Err(err).Msg("failed to register player")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := tui.New(gameService, localPlayerID, cfg.Presentation, logging.Component(logger, "tui"))
	if err := ui.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("terminal UI stopped with error")
		log.Fatal().Err(err).Msg("terminal UI failed")
	}
}
