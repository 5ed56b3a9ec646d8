package tui

import (
	"math/rand"
	"sync"
	"time"

	"github.com/glebk/rehab-clicker/internal/config"
	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/visual"
)

const (
	retryText   = "Try again! You made a mistake. Type the text exactly as shown."
	successText = "Congratulations! You have completed TROSA!"
	placeholder = "Type the text above exactly as shown..."
)

// View is everything the screen shows at one moment
type View struct {
	Snapshot domain.Snapshot
	Effect   *domain.Substance
	Flash    visual.Flash
	Pulse    int
	// Flashing is set once the first pulse of the current effect has played
	Flashing  bool
	RehabOpen bool
	Reference string
	// Retries counts failed attempts since the prompt opened
	Retries     int
	Notice      string
	NoticeUntil time.Time
}

// NoticeVisible reports whether the notice should still be on screen at now
func (v View) NoticeVisible(now time.Time) bool {
	return v.Notice != "" && now.Before(v.NoticeUntil)
}

// Presenter records game output into a View. It never touches tview, so the
// game can call it while holding its lock.
type Presenter struct {
	mu      sync.Mutex
	view    View
	changed chan struct{}
	cfg     config.Presentation
	rng     *rand.Rand
	now     func() time.Time
}

// NewPresenter creates a presenter with an empty view
func NewPresenter(cfg config.Presentation) *Presenter {
	return &Presenter{
		changed: make(chan struct{}, 1),
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// Changed fires after the view was modified. Bursts coalesce into one signal.
func (p *Presenter) Changed() <-chan struct{} {
	return p.changed
}

// View returns a copy of the current view
func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

func (p *Presenter) update(f func(v *View)) {
	p.mu.Lock()
	f(&p.view)
	p.mu.Unlock()

	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// Render stores the latest snapshot
func (p *Presenter) Render(s domain.Snapshot) {
	p.update(func(v *View) { v.Snapshot = s })
}

// ShowEffect starts the effect banner for sub with no flash yet
func (p *Presenter) ShowEffect(sub domain.Substance) {
	p.update(func(v *View) {
		v.Effect = &sub
		v.Pulse = 0
		v.Flashing = false
		v.Flash = visual.Flash{}
	})
}

// PlayTick records a random flash for the given pulse
func (p *Presenter) PlayTick(pulse int) {
	flash := visual.Pulse(p.rng, pulse)
	p.update(func(v *View) {
		v.Pulse = pulse
		v.Flashing = true
		v.Flash = flash
	})
}

// ClearEffect drops the banner and flash
func (p *Presenter) ClearEffect() {
	p.update(func(v *View) {
		v.Effect = nil
		v.Pulse = 0
		v.Flashing = false
		v.Flash = visual.Flash{}
	})
}

// ShowRehabPrompt opens the rehab page with a fresh retry count
func (p *Presenter) ShowRehabPrompt(reference string) {
	p.update(func(v *View) {
		v.RehabOpen = true
		v.Reference = reference
		v.Retries = 0
	})
}

// HideRehabPrompt closes the rehab page
func (p *Presenter) HideRehabPrompt() {
	p.update(func(v *View) {
		v.RehabOpen = false
		v.Retries = 0
	})
}

// ShowRehabRetry counts a failed attempt
func (p *Presenter) ShowRehabRetry() {
	p.update(func(v *View) { v.Retries++ })
}

// ShowRehabSuccess shows the congratulation notice for SuccessTTL
func (p *Presenter) ShowRehabSuccess() {
	p.notice("🎉 "+successText, p.cfg.SuccessTTL)
}

// ShowTransientWarning shows text as a notice for WarningTTL
func (p *Presenter) ShowTransientWarning(text string) {
	p.notice("⚠️ "+text, p.cfg.WarningTTL)
}

func (p *Presenter) notice(text string, ttl time.Duration) {
	until := p.now().Add(ttl)
	p.update(func(v *View) {
		v.Notice = text
		v.NoticeUntil = until
	})
}
