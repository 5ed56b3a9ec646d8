package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/visual"
)

const (
	retryText   = "Try again! You made a mistake. Type the text exactly as shown."
	successText = "Congratulations! You have completed TROSA!"
	placeholder = "Type the text above exactly as shown..."
)

// Sender is the part of the Bot API the bot needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatPresenter renders one game into a chat: a dashboard message edited in
// place, an effect message that flashes while an effect runs, and short-lived
// notices that delete themselves.
type chatPresenter struct {
	sender  Sender
	chatID  int64
	catalog *domain.Catalog
	cfg     config.Presentation
	printer *message.Printer
	log     zerolog.Logger
	rng     *rand.Rand
	after   func(d time.Duration, f func())

	dashboardID  int
	dashboard    string
	keyboard     string
	effectID     int
	effectHeader string
	promptID     int
}

func newChatPresenter(sender Sender, chatID int64, catalog *domain.Catalog, cfg config.Presentation, printer *message.Printer, log zerolog.Logger) *chatPresenter {
	return &chatPresenter{
		sender:  sender,
		chatID:  chatID,
		catalog: catalog,
		cfg:     cfg,
		printer: printer,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Render shows money, withdrawal and the purchase buttons
func (p *chatPresenter) Render(s domain.Snapshot) {
	text := p.dashboardText(s)
	markup := p.dashboardKeyboard(s)
	key := keyboardKey(markup)

	if p.dashboardID == 0 {
		msg := tgbotapi.NewMessage(p.chatID, text)
		msg.ReplyMarkup = markup
		sent, err := p.sender.Send(msg)
		if err != nil {
			p.log.Error().Err(err).Msg("failed to send dashboard")
			return
		}
		p.dashboardID = sent.MessageID
		p.dashboard, p.keyboard = text, key
		return
	}

	if text == p.dashboard && key == p.keyboard {
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(p.chatID, p.dashboardID, text, markup)
	if _, err := p.sender.Send(edit); err != nil {
		p.log.Error().Err(err).Msg("failed to edit dashboard")
		return
	}
	p.dashboard, p.keyboard = text, key
}

func (p *chatPresenter) dashboardText(s domain.Snapshot) string {
	var b strings.Builder

	b.WriteString(p.printer.Sprintf("💵 Money: $%d\n", s.Money))

	look := visual.Degrade(s.WithdrawalLevel)
	b.WriteString(fmt.Sprintf("🥀 Withdrawal: %d %s\n", s.WithdrawalLevel, visual.Gauge(look.Factor, 10, "▓", "░")))
	if s.EffectActive {
		b.WriteString("🌈 Everything feels sharp and bright\n")
	} else {
		b.WriteString(fmt.Sprintf("🌫 Blur %.1fpx · Brightness %d%%\n", look.BlurPx, look.BrightnessPct))
	}
	b.WriteString(fmt.Sprintf("💊 Uses since rehab: %d\n", s.AbuseCount))
	b.WriteString(fmt.Sprintf("🎵 Soundtrack: %s\n", visual.SoundtrackFor(s.EffectActive)))

	if s.RehabAvailable {
		b.WriteString("\n🏥 Rehab is available.")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (p *chatPresenter) dashboardKeyboard(s domain.Snapshot) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💵 Earn $1", actionEarn),
		),
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, sub := range p.catalog.All() {
		icon := sub.Icon
		if !s.Affordable(sub) {
			icon = "🔒"
		}
		label := p.printer.Sprintf("%s %s $%d", icon, sub.Name, sub.Price)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, actionUse+":"+string(sub.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if s.RehabAvailable {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏥 Rehab", actionRehab),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func keyboardKey(markup tgbotapi.InlineKeyboardMarkup) string {
	var b strings.Builder
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			b.WriteString(btn.Text)
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ShowEffect posts the effect banner
func (p *chatPresenter) ShowEffect(sub domain.Substance) {
	p.effectHeader = fmt.Sprintf("%s %s Effect", sub.Icon, sub.Name)
	sent, err := p.sender.Send(tgbotapi.NewMessage(p.chatID, p.effectHeader))
	if err != nil {
		p.log.Error().Err(err).Msg("failed to send effect")
		return
	}
	p.effectID = sent.MessageID
}

// PlayTick flashes the effect banner, throttled to stay under edit limits
func (p *chatPresenter) PlayTick(pulse int) {
	if p.effectID == 0 || pulse%p.cfg.TickRenderEvery != 0 {
		return
	}

	flash := visual.Pulse(p.rng, pulse)
	width := 3
	if flash.Opacity > 0.5 {
		width = 8
	}
	text := p.effectHeader + "\n" + strings.Repeat(flash.Color.Emoji, width)

	if _, err := p.sender.Send(tgbotapi.NewEditMessageText(p.chatID, p.effectID, text)); err != nil {
		p.log.Debug().Err(err).Int("pulse", pulse).Msg("failed to flash effect")
	}
}

// ClearEffect removes the effect banner
func (p *chatPresenter) ClearEffect() {
	if p.effectID == 0 {
		return
	}
	p.delete(p.effectID)
	p.effectID = 0
}

// ShowRehabPrompt posts the reference text and asks for a reply. An earlier
// prompt still on screen is deleted first.
func (p *chatPresenter) ShowRehabPrompt(reference string) {
	text := "🏥 Rehab\n\nType the text below exactly as shown and send it. " +
		"Pasting and forwarding are not allowed. /cancel to leave.\n\n" + reference

	if p.promptID != 0 {
		p.delete(p.promptID)
		p.promptID = 0
	}

	msg := tgbotapi.NewMessage(p.chatID, text)
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, InputFieldPlaceholder: placeholder}
	sent, err := p.sender.Send(msg)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to send rehab prompt")
		return
	}
	p.promptID = sent.MessageID
}

// HideRehabPrompt removes the reference text
func (p *chatPresenter) HideRehabPrompt() {
	if p.promptID == 0 {
		return
	}
	p.delete(p.promptID)
	p.promptID = 0
}

// ShowRehabRetry asks for another attempt
func (p *chatPresenter) ShowRehabRetry() {
	msg := tgbotapi.NewMessage(p.chatID, retryText)
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, InputFieldPlaceholder: placeholder}
	if _, err := p.sender.Send(msg); err != nil {
		p.log.Error().Err(err).Msg("failed to send rehab retry")
	}
}

// ShowRehabSuccess congratulates the player for a few seconds
func (p *chatPresenter) ShowRehabSuccess() {
	p.flashNotice("🎉 "+successText, p.cfg.SuccessTTL)
}

// ShowTransientWarning shows a short-lived warning
func (p *chatPresenter) ShowTransientWarning(text string) {
	p.flashNotice("⚠️ "+text, p.cfg.WarningTTL)
}

func (p *chatPresenter) flashNotice(text string, ttl time.Duration) {
	sent, err := p.sender.Send(tgbotapi.NewMessage(p.chatID, text))
	if err != nil {
		p.log.Error().Err(err).Msg("failed to send notice")
		return
	}
	id := sent.MessageID
	p.after(ttl, func() { p.delete(id) })
}

func (p *chatPresenter) delete(messageID int) {
	if _, err := p.sender.Request(tgbotapi.NewDeleteMessage(p.chatID, messageID)); err != nil {
		p.log.Debug().Err(err).Int("message_id", messageID).Msg("failed to delete message")
	}
}
