// Package tui plays one local game in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/game"
	"github.com/glebk/rehab-clicker/internal/service"
	"github.com/glebk/rehab-clicker/internal/visual"
)

const helpText = " [black:gold]e[-:-] earn  [black:gold]1-4[-:-] use  [black:gold]r[-:-] rehab  [black:gold]s[-:-] stats  [black:gold]q[-:-] quit "

const rehabHint = " [black:gold]Enter[-:-] submit  [black:gold]Esc[-:-] leave  no pasting "

// noticeRefresh redraws often enough for notices to disappear on time
const noticeRefresh = 250 * time.Millisecond

// UI is the terminal front-end
type UI struct {
	app       *tview.Application
	pages     *tview.Pages
	header    *tview.TextView
	effect    *tview.TextView
	menu      *tview.List
	status    *tview.TextView
	reference *tview.TextView
	input     *guardedInput
	painted   []*tview.Box

	svc       *service.GameService
	playerID  int64
	presenter *Presenter
	log       zerolog.Logger

	rehabShown bool
	retries    int
}

// New builds the screen for playerID. The game starts in Run.
func New(svc *service.GameService, playerID int64, cfg config.Presentation, log zerolog.Logger) *UI {
	ui := &UI{
		app:       tview.NewApplication(),
		svc:       svc,
		playerID:  playerID,
		presenter: NewPresenter(cfg),
		log:       log,
	}
	ui.build()
	return ui
}

func (ui *UI) build() {
	ui.header = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	ui.header.SetBorder(true).SetTitle(" Rehab Clicker ")

	ui.effect = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)

	ui.menu = tview.NewList().ShowSecondaryText(false)
	ui.menu.SetBorder(true).SetTitle(" Actions ")
	ui.menu.AddItem("💵 Earn $1", "", 'e', func() { ui.check("earn", ui.svc.Earn(ui.playerID)) })
	for i, sub := range ui.svc.Catalog().All() {
		id := sub.ID
		ui.menu.AddItem(sub.Name, "", rune('1'+i), func() {
			_, err := ui.svc.Use(ui.playerID, id)
			ui.check("use", err)
		})
	}
	ui.menu.AddItem("🏥 Rehab", "", 'r', func() { ui.check("rehab", ui.svc.OpenRehab(ui.playerID)) })
	ui.menu.AddItem("📊 Stats", "", 's', ui.openStats)
	ui.menu.AddItem("Quit", "", 'q', ui.app.Stop)

	ui.status = tview.NewTextView().SetDynamicColors(true).SetText(helpText)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.header, 7, 0, false).
		AddItem(ui.effect, 3, 0, false).
		AddItem(ui.menu, 0, 1, true).
		AddItem(ui.status, 1, 0, false)

	ui.reference = tview.NewTextView().SetWrap(true).SetWordWrap(true)
	ui.input = newGuardedInput(ui.violation)
	ui.input.SetPlaceholder(placeholder)
	ui.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			ui.submitRehab()
		case tcell.KeyEscape:
			ui.check("cancel rehab", ui.svc.CancelRehab(ui.playerID))
		}
	})
	hint := tview.NewTextView().SetDynamicColors(true).SetText(rehabHint)

	rehab := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.reference, 0, 1, false).
		AddItem(ui.input, 1, 0, true).
		AddItem(hint, 1, 0, false)
	rehab.SetBorder(true).SetTitle(" 🏥 Rehab ")

	ui.pages = tview.NewPages().
		AddPage("main", main, true, true).
		AddPage("rehab", centered(rehab, 76, 14), true, false)

	ui.painted = []*tview.Box{main.Box, ui.header.Box, ui.effect.Box, ui.menu.Box, ui.status.Box}
	ui.app.SetFocus(ui.menu)
	ui.app.SetInputCapture(ui.handleGlobalKeys)
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexColumn).
			AddItem(nil, 0, 1, false).
			AddItem(p, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
}

// Run starts a fresh game and blocks until the player quits or ctx is done
func (ui *UI) Run(ctx context.Context) error {
	if err := ui.start(); err != nil {
		return err
	}
	defer ui.svc.EndGame(ui.playerID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ui.app.Stop()
	}()
	go ui.refreshLoop(ctx)

	ui.sync()
	return ui.app.SetRoot(ui.pages, true).EnableMouse(true).EnablePaste(true).Run()
}

func (ui *UI) start() error {
	if _, err := ui.svc.StartGame(ui.playerID, ui.presenter); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	return nil
}

func (ui *UI) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(noticeRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ui.presenter.Changed():
		case <-ticker.C:
		}
		ui.app.QueueUpdateDraw(ui.sync)
	}
}

func (ui *UI) handleGlobalKeys(ev *tcell.EventKey) *tcell.EventKey {
	if ui.rehabShown {
		// tview quits on Ctrl+C before the field sees it
		if v, ok := clipboardViolation(ev); ok && v == game.ViolationCopy {
			ui.violation(v)
			return nil
		}
	}
	return ev
}

func (ui *UI) check(action string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRefused),
		errors.Is(err, domain.ErrChallengeFailed),
		errors.Is(err, game.ErrViolation):
		ui.log.Debug().Err(err).Str("action", action).Msg("action declined")
	default:
		ui.log.Error().Err(err).Str("action", action).Msg("action failed")
	}
}

func (ui *UI) violation(v game.Violation) {
	ui.check("violation", ui.svc.ReportViolation(ui.playerID, v))
}

func (ui *UI) submitRehab() {
	err := ui.svc.SubmitRehab(ui.playerID, ui.input.GetText())
	if errors.Is(err, game.ErrViolation) {
		ui.input.SetText("")
	}
	ui.check("submit rehab", err)
}

// sync copies the presenter's view onto the widgets. It runs on the UI goroutine.
func (ui *UI) sync() {
	v := ui.presenter.View()
	s := v.Snapshot

	look := visual.Degrade(s.WithdrawalLevel)
	bg := visual.Dim(look.Background, look.BrightnessPct)
	if v.Effect != nil || v.RehabOpen {
		bg = visual.Healthy().Background
	}
	if v.Effect != nil && v.Flashing {
		bg = v.Flash.Blend(bg)
	}
	color := tcell.NewHexColor(bg.Hex())
	for _, box := range ui.painted {
		box.SetBackgroundColor(color)
	}

	ui.header.SetText(headerText(s, look))
	ui.effect.SetText(effectText(v))
	ui.syncMenu(s)

	if v.NoticeVisible(time.Now()) {
		ui.status.SetText(" " + tview.Escape(v.Notice))
	} else {
		ui.status.SetText(helpText)
	}

	ui.syncRehab(v)
}

func headerText(s domain.Snapshot, look visual.Look) string {
	var b strings.Builder
	fmt.Fprintf(&b, " 💵 Money: [yellow]$%d[-]\n", s.Money)
	fmt.Fprintf(&b, " 🥀 Withdrawal: %d %s\n", s.WithdrawalLevel, visual.Gauge(look.Factor, 20, "█", "░"))
	if s.EffectActive {
		b.WriteString(" 🌈 Everything feels sharp and bright\n")
	} else {
		fmt.Fprintf(&b, " 🌫 Blur %.1fpx  Brightness %d%%\n", look.BlurPx, look.BrightnessPct)
	}
	fmt.Fprintf(&b, " 💊 Uses since rehab: %d\n", s.AbuseCount)
	fmt.Fprintf(&b, " 🎵 Soundtrack: %s", visual.SoundtrackFor(s.EffectActive))
	return b.String()
}

func effectText(v View) string {
	if v.Effect == nil {
		return ""
	}
	text := fmt.Sprintf("%s %s Effect", v.Effect.Icon, v.Effect.Name)
	if v.Flashing {
		width := 6
		if v.Flash.Opacity > 0.5 {
			width = 16
		}
		text += "\n" + strings.Repeat(v.Flash.Color.Emoji, width)
	}
	return text
}

func (ui *UI) syncMenu(s domain.Snapshot) {
	for i, sub := range ui.svc.Catalog().All() {
		icon := sub.Icon
		if !s.Affordable(sub) {
			icon = "🔒"
		}
		ui.menu.SetItemText(i+1, fmt.Sprintf("%s %s  $%d", icon, sub.Name, sub.Price), "")
	}

	rehab := "🏥 Rehab"
	if !s.RehabAvailable {
		rehab = fmt.Sprintf("🏥 Rehab (after %d more uses)", domain.RehabThreshold-s.AbuseCount)
	}
	ui.menu.SetItemText(ui.svc.Catalog().Len()+1, rehab, "")
}

func (ui *UI) syncRehab(v View) {
	switch {
	case v.RehabOpen && !ui.rehabShown:
		ui.rehabShown = true
		ui.retries = 0
		ui.reference.SetText(v.Reference)
		ui.input.SetText("")
		ui.input.SetPlaceholder(placeholder)
		ui.pages.ShowPage("rehab")
		ui.app.SetFocus(ui.input)
	case !v.RehabOpen && ui.rehabShown:
		ui.rehabShown = false
		ui.pages.HidePage("rehab")
		ui.app.SetFocus(ui.menu)
	}

	if ui.rehabShown && v.Retries != ui.retries {
		ui.retries = v.Retries
		ui.input.SetText("")
		ui.input.SetPlaceholder(retryText)
	}
}

func (ui *UI) openStats() {
	stats, err := ui.svc.Stats(ui.playerID)
	if err != nil {
		ui.log.Error().Err(err).Msg("failed to load stats")
		return
	}

	text := tview.NewTextView().SetDynamicColors(true).SetText(statsText(stats, ui.svc.Catalog()))
	text.SetBorder(true).SetTitle(" 📊 History ")
	text.SetDoneFunc(func(tcell.Key) { ui.closeStats() })

	ui.pages.AddPage("stats", centered(text, 48, 14), true, true)
	ui.app.SetFocus(text)
}

func (ui *UI) closeStats() {
	ui.pages.RemovePage("stats")
	ui.app.SetFocus(ui.menu)
}

func statsText(stats *domain.PlayerStats, catalog *domain.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, " Sessions: %d\n", stats.Sessions)
	fmt.Fprintf(&b, " Uses: %d\n", stats.Uses)
	for _, sub := range catalog.All() {
		if n := stats.UsesBySubstance[sub.ID]; n > 0 {
			fmt.Fprintf(&b, "   %s %s: %d\n", sub.Icon, sub.Name, n)
		}
	}
	fmt.Fprintf(&b, " Rehab completed: %d\n", stats.RehabPassed)
	fmt.Fprintf(&b, " Rehab attempts failed: %d\n", stats.RehabFailed)
	fmt.Fprintf(&b, " Cheating attempts: %d\n", stats.Violations)
	if stats.LastRehabAt != nil {
		fmt.Fprintf(&b, " Last rehab: %s\n", stats.LastRehabAt.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString("\n [black:gold]Esc[-:-] close")
	return b.String()
}
