package tui

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/game"
	"github.com/glebk/rehab-clicker/internal/repository/sqlite"
	"github.com/glebk/rehab-clicker/internal/service"
)

func testPresentation() config.Presentation {
	return config.Presentation{WarningTTL: 2 * time.Second, SuccessTTL: 3 * time.Second, TickRenderEvery: 1}
}

type testUI struct {
	*UI
	sched *game.ManualScheduler
	now   time.Time
}

func makeTestUI(t *testing.T) *testUI {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tu := &testUI{
		sched: game.NewManualScheduler(),
		now:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	svc := service.NewGameService(
		sqlite.NewPlayerRepository(db),
		sqlite.NewHistoryRepository(db),
		game.Options{
			RehabText:     "calm down",
			NewScheduler:  func(sync.Locker) game.Scheduler { return tu.sched },
			Now:           func() time.Time { return tu.now },
			MaxTypingRate: 10,
		},
		zerolog.Nop(),
	)
	require.NoError(t, svc.RegisterPlayer(1, "local", "Local", ""))

	tu.UI = New(svc, 1, testPresentation(), zerolog.Nop())
	require.NoError(t, tu.start())
	tu.sync()
	return tu
}

func (tu *testUI) press(t *testing.T, r rune) {
	t.Helper()
	handler := tu.menu.InputHandler()
	handler(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone), func(p tview.Primitive) { tu.app.SetFocus(p) })
	tu.sync()
}

func (tu *testUI) typeText(text string) {
	handler := tu.input.InputHandler()
	for _, r := range text {
		handler(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone), func(tview.Primitive) {})
	}
}

func TestMenuShortcutsDriveTheGame(t *testing.T) {
	tu := makeTestUI(t)

	for i := 0; i < 3; i++ {
		tu.press(t, 'e')
	}
	assert.Contains(t, tu.header.GetText(false), "$3")

	line, _ := tu.menu.GetItemText(1)
	assert.Contains(t, line, "🍺 Alcohol")
	line, _ = tu.menu.GetItemText(2)
	assert.Contains(t, line, "🔒")

	tu.press(t, '1')
	assert.Contains(t, tu.header.GetText(false), "$0")
	assert.Contains(t, tu.effect.GetText(false), "Alcohol Effect")
	assert.Contains(t, tu.header.GetText(false), "upbeat")

	tu.sched.Advance(1)
	tu.sync()
	lines := strings.Split(tu.effect.GetText(false), "\n")
	require.Len(t, lines, 2)

	tu.sched.Advance(game.PulseCount(5 * time.Second))
	tu.sync()
	assert.Empty(t, tu.effect.GetText(false))
	assert.Contains(t, tu.header.GetText(false), "calm")
}

func TestRehabPageFlow(t *testing.T) {
	tu := makeTestUI(t)

	tu.press(t, 'r')
	assert.False(t, tu.rehabShown)
	line, _ := tu.menu.GetItemText(5)
	assert.Equal(t, "🏥 Rehab (after 5 more uses)", line)

	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			tu.press(t, 'e')
		}
		tu.press(t, '1')
		tu.sched.Advance(game.PulseCount(5*time.Second) + 1)
	}
	tu.sync()
	line, _ = tu.menu.GetItemText(5)
	assert.Equal(t, "🏥 Rehab", line)

	tu.press(t, 'r')
	require.True(t, tu.rehabShown)
	assert.Equal(t, "calm down", tu.reference.GetText(false))
	assert.Same(t, tview.Primitive(tu.input), tu.app.GetFocus())

	tu.now = tu.now.Add(time.Minute)
	tu.typeText("calm town")
	assert.Equal(t, "calm town", tu.input.GetText())
	tu.submitRehab()
	tu.sync()
	assert.True(t, tu.rehabShown)
	assert.Empty(t, tu.input.GetText())
	assert.Equal(t, 1, tu.retries)

	tu.typeText("calm down")
	tu.submitRehab()
	tu.sync()
	assert.False(t, tu.rehabShown)
	assert.Contains(t, tu.status.GetText(false), successText)
	assert.Contains(t, tu.header.GetText(false), "Withdrawal: 0")

	stats, err := tu.svc.Stats(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RehabPassed)
	assert.Equal(t, 1, stats.RehabFailed)
}

func TestRehabRejectsFastTyping(t *testing.T) {
	tu := makeTestUI(t)
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			tu.press(t, 'e')
		}
		tu.press(t, '1')
		tu.sched.Advance(game.PulseCount(5*time.Second) + 1)
	}
	tu.press(t, 'r')
	require.True(t, tu.rehabShown)

	tu.typeText("calm down")
	tu.submitRehab()
	tu.sync()
	assert.True(t, tu.rehabShown)
	assert.Empty(t, tu.input.GetText())
	assert.Contains(t, tu.status.GetText(false), "Pasting is not allowed in rehab!")

	capture := tu.app.GetInputCapture()
	require.NotNil(t, capture)
	assert.Nil(t, capture(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))

	stats, err := tu.svc.Stats(1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Violations)
}

func TestGlobalCaptureLeavesKeysAloneOutsideRehab(t *testing.T) {
	tu := makeTestUI(t)
	capture := tu.app.GetInputCapture()
	require.NotNil(t, capture)

	ev := tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	assert.Same(t, ev, capture(ev))
}

func TestGuardedInput(t *testing.T) {
	var reported []game.Violation
	input := newGuardedInput(func(v game.Violation) { reported = append(reported, v) })
	input.SetRect(0, 0, 20, 1)
	noFocus := func(tview.Primitive) {}

	input.PasteHandler()("pasted text", noFocus)
	assert.Empty(t, input.GetText())

	handler := input.InputHandler()
	handler(tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone), noFocus)
	handler(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone), noFocus)
	handler(tcell.NewEventKey(tcell.KeyCtrlV, 0, tcell.ModCtrl), noFocus)
	handler(tcell.NewEventKey(tcell.KeyCtrlX, 0, tcell.ModCtrl), noFocus)
	handler(tcell.NewEventKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl), noFocus)
	handler(tcell.NewEventKey(tcell.KeyInsert, 0, tcell.ModShift), noFocus)
	assert.Equal(t, "hi", input.GetText())

	mouse := input.MouseHandler()
	consumed, _ := mouse(tview.MouseRightClick, tcell.NewEventMouse(2, 0, tcell.Button2, tcell.ModNone), noFocus)
	assert.True(t, consumed)
	consumed, _ = mouse(tview.MouseRightClick, tcell.NewEventMouse(2, 5, tcell.Button2, tcell.ModNone), noFocus)
	assert.False(t, consumed)

	assert.Equal(t, []game.Violation{
		game.ViolationPaste,
		game.ViolationPaste,
		game.ViolationCut,
		game.ViolationCopy,
		game.ViolationPaste,
		game.ViolationContextMenu,
	}, reported)
}

func TestClipboardViolation(t *testing.T) {
	tests := []struct {
		name  string
		event *tcell.EventKey
		want  game.Violation
		ok    bool
	}{
		{"ctrl v", tcell.NewEventKey(tcell.KeyCtrlV, 0, tcell.ModCtrl), game.ViolationPaste, true},
		{"ctrl rune v", tcell.NewEventKey(tcell.KeyRune, 'v', tcell.ModCtrl), game.ViolationPaste, true},
		{"ctrl c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), game.ViolationCopy, true},
		{"ctrl insert", tcell.NewEventKey(tcell.KeyInsert, 0, tcell.ModCtrl), game.ViolationCopy, true},
		{"shift delete", tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModShift), game.ViolationCut, true},
		{"plain v", tcell.NewEventKey(tcell.KeyRune, 'v', tcell.ModNone), "", false},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := clipboardViolation(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPresenterCoalescesChanges(t *testing.T) {
	p := NewPresenter(testPresentation())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Render(domain.Snapshot{Money: 2})
	p.ShowTransientWarning("Copying is not allowed in rehab!")

	select {
	case <-p.Changed():
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-p.Changed():
		t.Fatal("changes should coalesce into one signal")
	default:
	}

	v := p.View()
	assert.Equal(t, 2, v.Snapshot.Money)
	assert.True(t, v.NoticeVisible(now.Add(time.Second)))
	assert.False(t, v.NoticeVisible(now.Add(2*time.Second)))
}

func TestPresenterTracksEffectAndRehab(t *testing.T) {
	p := NewPresenter(testPresentation())
	alcohol, err := domain.DefaultCatalog().Lookup(domain.Alcohol)
	require.NoError(t, err)

	p.ShowEffect(alcohol)
	v := p.View()
	require.NotNil(t, v.Effect)
	assert.Equal(t, "Alcohol", v.Effect.Name)
	assert.False(t, v.Flashing)

	p.PlayTick(0)
	v = p.View()
	assert.True(t, v.Flashing)
	assert.Equal(t, 0.8, v.Flash.Opacity)

	p.ClearEffect()
	v = p.View()
	assert.Nil(t, v.Effect)
	assert.False(t, v.Flashing)

	p.ShowRehabPrompt("calm down")
	p.ShowRehabRetry()
	p.ShowRehabRetry()
	assert.Equal(t, 2, p.View().Retries)

	p.ShowRehabPrompt("calm down")
	v = p.View()
	assert.True(t, v.RehabOpen)
	assert.Equal(t, "calm down", v.Reference)
	assert.Zero(t, v.Retries)

	p.HideRehabPrompt()
	p.ShowRehabSuccess()
	v = p.View()
	assert.False(t, v.RehabOpen)
	assert.Equal(t, "🎉 "+successText, v.Notice)
}
