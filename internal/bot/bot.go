package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/game"
	"github.com/glebk/rehab-clicker/internal/service"
)

const (
	actionEarn  = "earn"
	actionUse   = "use"
	actionRehab = "rehab"
)

// Bot represents the Telegram bot
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	service *service.GameService
	config  *config.Config
	printer *message.Printer
	log     zerolog.Logger

	newPresenter func(chatID int64) game.Presenter

	// chats maps a player to the chat their game renders in
	chatsMu sync.Mutex
	chats   map[int64]int64
}

// New creates a new Bot instance
func New(token string, svc *service.GameService, cfg *config.Config, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	b := NewWithSender(api, svc, cfg, log)
	b.api = api
	return b, nil
}

// NewWithSender creates a Bot that talks through sender. It cannot poll for updates.
func NewWithSender(sender Sender, svc *service.GameService, cfg *config.Config, log zerolog.Logger) *Bot {
	b := &Bot{
		sender:  sender,
		service: svc,
		config:  cfg,
		printer: message.NewPrinter(language.English),
		log:     log,
		chats:   make(map[int64]int64),
	}
	b.newPresenter = func(chatID int64) game.Presenter {
		return newChatPresenter(sender, chatID, svc.Catalog(), cfg.Presentation, b.printer,
			log.With().Int64("chat_id", chatID).Logger())
	}
	return b
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no API connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go b.idleGamesRoutine(ctx)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(update)
		}
	}
}

// HandleUpdate dispatches one update
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// idleGamesRoutine closes games that have been left alone
func (b *Bot) idleGamesRoutine(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.closeIdleGames()
		}
	}
}

// closeIdleGames ends idle games and tells each player in the chat where
// their game was running
func (b *Bot) closeIdleGames() {
	for _, playerID := range b.service.CloseIdle(b.config.IdleTimeout) {
		b.chatsMu.Lock()
		chatID, ok := b.chats[playerID]
		delete(b.chats, playerID)
		b.chatsMu.Unlock()
		if !ok {
			chatID = playerID
		}
		b.sendMessage(chatID, "💤 Your session ended after a long break. Send /start to play again.")
	}
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	b.registerPlayer(msg.From)

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if b.service.RehabOpen(msg.From.ID) {
		b.handleRehabAttempt(msg)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "rehab":
		b.handleRehab(msg)
	case "cancel":
		b.handleCancel(msg)
	case "stats":
		b.handleStats(msg)
	case "help":
		b.handleHelp(msg)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Use /help to learn more")
	}
}

// handleStart starts a fresh game
func (b *Bot) handleStart(msg *tgbotapi.Message) {
	text := fmt.Sprintf(
		"👋 Welcome, %s!\n\n"+
			"Tap 💵 to earn money, spend it on substances and watch the world get greyer.\n"+
			"After %d uses you can go to rehab and type your way back.\n\n"+
			"Use /help for more",
		msg.From.FirstName, domain.RehabThreshold,
	)
	b.sendMessage(msg.Chat.ID, text)

	if _, err := b.service.StartGame(msg.From.ID, b.newPresenter(msg.Chat.ID)); err != nil {
		b.log.Error().Err(err).Int64("player_id", msg.From.ID).Msg("failed to start game")
		b.sendMessage(msg.Chat.ID, "❌ Could not start a game. Try again later")
		return
	}

	b.chatsMu.Lock()
	b.chats[msg.From.ID] = msg.Chat.ID
	b.chatsMu.Unlock()
}

// handleRehab opens the typing challenge
func (b *Bot) handleRehab(msg *tgbotapi.Message) {
	err := b.service.OpenRehab(msg.From.ID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoGame):
		b.sendMessage(msg.Chat.ID, "📭 No game in progress. Send /start")
	case errors.Is(err, domain.ErrRefused):
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("🚪 Rehab opens after %d uses", domain.RehabThreshold))
	default:
		b.log.Error().Err(err).Msg("failed to open rehab")
	}
}

// handleCancel leaves the typing challenge
func (b *Bot) handleCancel(msg *tgbotapi.Message) {
	if !b.service.RehabOpen(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "📭 Nothing to cancel")
		return
	}
	if err := b.service.CancelRehab(msg.From.ID); err != nil {
		b.log.Error().Err(err).Msg("failed to cancel rehab")
	}
}

// handleRehabAttempt treats a text message as a typed rehab answer
func (b *Bot) handleRehabAttempt(msg *tgbotapi.Message) {
	playerID := msg.From.ID

	if isForwarded(msg) {
		if err := b.service.ReportViolation(playerID, game.ViolationForward); err != nil {
			b.log.Error().Err(err).Msg("failed to report violation")
		}
		return
	}
	if msg.Text == "" {
		return
	}

	err := b.service.SubmitRehab(playerID, msg.Text)
	switch {
	case err == nil, errors.Is(err, domain.ErrChallengeFailed), errors.Is(err, game.ErrViolation):
		// the presenter has already answered
	case errors.Is(err, domain.ErrRefused), errors.Is(err, service.ErrNoGame):
	default:
		b.log.Error().Err(err).Int64("player_id", playerID).Msg("failed to submit rehab")
	}
}

func isForwarded(msg *tgbotapi.Message) bool {
	return msg.ForwardDate != 0 || msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardSenderName != ""
}

// handleStats shows lifetime totals
func (b *Bot) handleStats(msg *tgbotapi.Message) {
	stats, err := b.service.Stats(msg.From.ID)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to get stats")
		b.sendMessage(msg.Chat.ID, "❌ Could not load your history")
		return
	}
	b.sendMessage(msg.Chat.ID, b.statsText(stats))
}

func (b *Bot) statsText(stats *domain.PlayerStats) string {
	var sb strings.Builder
	sb.WriteString("📊 Your history\n\n")
	sb.WriteString(b.printer.Sprintf("🎮 Sessions: %d\n", stats.Sessions))
	sb.WriteString(b.printer.Sprintf("💊 Uses: %d\n", stats.Uses))

	ids := make([]string, 0, len(stats.UsesBySubstance))
	for id := range stats.UsesBySubstance {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := id
		if sub, err := b.service.Catalog().Lookup(domain.SubstanceID(id)); err == nil {
			name = sub.Icon + " " + sub.Name
		}
		sb.WriteString(b.printer.Sprintf("  • %s: %d\n", name, stats.UsesBySubstance[domain.SubstanceID(id)]))
	}

	sb.WriteString(b.printer.Sprintf("🏥 Rehab completed: %d\n", stats.RehabPassed))
	sb.WriteString(b.printer.Sprintf("✏️ Rehab attempts failed: %d\n", stats.RehabFailed))
	sb.WriteString(b.printer.Sprintf("🚫 Cheating attempts: %d", stats.Violations))
	if stats.LastRehabAt != nil {
		sb.WriteString("\n🕊 Last rehab: " + stats.LastRehabAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}

// handleHelp shows help information
func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	text := `Rehab Clicker - Help

Commands:
/start - Start a new game
/rehab - Open the rehab challenge (after 5 uses)
/cancel - Leave the rehab challenge
/stats - Show your history
/help - Show this help

How it works:
1. Tap 💵 Earn $1 to make money
2. Spend it on a substance: the effect lasts a few seconds and blocks further use
3. Every use raises withdrawal, switching substances raises it twice as much
4. Each substance wears off faster the more you use it
5. Rehab clears withdrawal and tolerance if you type the passage exactly

Pasting and forwarding text in rehab are not allowed.`

	b.sendMessage(msg.Chat.ID, text)
}

// handleCallbackQuery handles button callbacks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	b.registerPlayer(query.From)

	action, arg, _ := strings.Cut(query.Data, ":")
	playerID := query.From.ID

	var err error
	switch action {
	case actionEarn:
		err = b.service.Earn(playerID)
	case actionUse:
		_, err = b.service.Use(playerID, domain.SubstanceID(arg))
	case actionRehab:
		err = b.service.OpenRehab(playerID)
	default:
		b.answerCallback(query.ID, "Unknown action")
		return
	}

	switch {
	case err == nil, errors.Is(err, domain.ErrRefused):
		// refusals are silent
		b.answerCallback(query.ID, "")
	case errors.Is(err, service.ErrNoGame):
		b.answerCallback(query.ID, "This game is over. Send /start")
	default:
		b.log.Error().Err(err).Str("data", query.Data).Int64("player_id", playerID).Msg("callback failed")
		b.answerCallback(query.ID, "")
	}
}

// registerPlayer registers or updates a player
func (b *Bot) registerPlayer(user *tgbotapi.User) {
	username := user.UserName
	if username == "" {
		username = fmt.Sprintf("player%d", user.ID)
	}

	if err := b.service.RegisterPlayer(user.ID, username, user.FirstName, user.LastName); err != nil {
		b.log.Error().Err(err).Int64("player_id", user.ID).Msg("failed to register player")
	}
}

// sendMessage sends a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// answerCallback answers a callback query
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.sender.Request(callback); err != nil {
		b.log.Error().Err(err).Msg("failed to answer callback")
	}
}
