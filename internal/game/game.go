package game

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/glebk/rehab-clicker/internal/domain"
)

// ErrViolation is matched by every *ViolationError
var ErrViolation = errors.New("input integrity violation")

// ViolationError is returned when a rehab submission was not typed literally
type ViolationError struct {
	Violation Violation
}

func (e *ViolationError) Error() string {
	return "input integrity violation: " + string(e.Violation)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrViolation
}

// Options configures a Game
type Options struct {
	Catalog   *domain.Catalog
	RehabText string
	// NewScheduler builds the effect scheduler around the game's lock.
	// Defaults to NewTickerScheduler.
	NewScheduler func(lock sync.Locker) Scheduler
	Now          func() time.Time
	// MaxTypingRate is the characters per second above which a rehab
	// submission counts as pasted. Zero disables the check.
	MaxTypingRate float64
	Logger        zerolog.Logger
}

// Game owns one session: state, effect timer and rehab challenge. Every method
// and every timer callback runs under the same mutex.
type Game struct {
	mu        sync.Mutex
	state     *domain.SessionState
	timer     *EffectTimer
	rehab     *RehabChallenge
	presenter Presenter
	now       func() time.Time
	maxRate   float64
	log       zerolog.Logger
	closed    bool
}

// New creates a game rendering to p
func New(p Presenter, opts Options) *Game {
	if opts.Catalog == nil {
		opts.Catalog = domain.DefaultCatalog()
	}
	if opts.RehabText == "" {
		opts.RehabText = DefaultRehabText
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	g := &Game{
		state:     domain.NewSessionState(opts.Catalog),
		rehab:     NewRehabChallenge(opts.RehabText),
		presenter: p,
		now:       opts.Now,
		maxRate:   opts.MaxTypingRate,
		log:       opts.Logger,
	}

	var scheduler Scheduler
	if opts.NewScheduler != nil {
		scheduler = opts.NewScheduler(&g.mu)
	} else {
		scheduler = NewTickerScheduler(&g.mu)
	}
	g.timer = NewEffectTimer(scheduler)

	return g
}

// Catalog returns the substances on offer
func (g *Game) Catalog() *domain.Catalog {
	return g.state.Catalog()
}

// Refresh re-renders the current state
func (g *Game) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.presenter.Render(g.state.Snapshot())
}

// Snapshot returns a copy of the current state
func (g *Game) Snapshot() domain.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Snapshot()
}

// Earn adds one unit of money
func (g *Game) Earn() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.Refused(domain.ReasonClosed)
	}
	g.state.Earn()
	g.presenter.Render(g.state.Snapshot())
	return nil
}

// Use buys a substance and starts its effect. Refusals are returned but
// nothing is rendered for them.
func (g *Game) Use(id domain.SubstanceID) (domain.UseResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.UseResult{}, domain.Refused(domain.ReasonClosed)
	}

	res, err := g.state.Use(id)
	if err != nil {
		return domain.UseResult{}, err
	}

	if err := g.timer.Start(res.EffectDuration(), g.onTick, g.onEffectEnd); err != nil {
		// effectActive latches timers, so this is a defect
		g.log.Error().Err(err).Str("substance", string(id)).Msg("effect timer out of sync with state")
		g.timer.Stop()
		if err := g.timer.Start(res.EffectDuration(), g.onTick, g.onEffectEnd); err != nil {
			g.log.Error().Err(err).Str("substance", string(id)).Msg("failed to restart effect timer")
		}
	}

	g.log.Debug().
		Str("substance", string(id)).
		Int("duration", res.Duration).
		Int("withdrawal", g.state.WithdrawalLevel()).
		Int("abuse_count", g.state.AbuseCount()).
		Msg("substance used")

	g.presenter.ShowEffect(res.Substance)
	g.presenter.Render(g.state.Snapshot())
	return res, nil
}

func (g *Game) onTick(pulse int) {
	g.presenter.PlayTick(pulse)
}

func (g *Game) onEffectEnd() {
	g.state.EndEffect()
	g.presenter.ClearEffect()
	g.presenter.Render(g.state.Snapshot())
	g.log.Debug().Msg("effect ended")
}

// OpenRehab shows the typing challenge once enough abuse has accumulated
func (g *Game) OpenRehab() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.Refused(domain.ReasonClosed)
	}
	if !g.state.RehabAvailable() {
		return domain.Refused(domain.ReasonRehabUnavailable)
	}

	g.rehab.Open(g.now())
	g.presenter.ShowRehabPrompt(g.rehab.Reference())
	return nil
}

// SubmitRehab checks a typed attempt. It returns ErrChallengeFailed on a
// mismatch and a *ViolationError when the text arrived too fast to be typed.
// The speed check runs before the comparison, so with MaxTypingRate set an
// exact answer is still rejected when it arrives faster than that rate.
func (g *Game) SubmitRehab(input string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.Refused(domain.ReasonClosed)
	}
	if !g.rehab.IsOpen() {
		return domain.Refused(domain.ReasonRehabClosed)
	}

	if TypingTooFast(input, g.now().Sub(g.rehab.OpenedAt()), g.maxRate) {
		g.presenter.ShowTransientWarning(ViolationPaste.Warning())
		return &ViolationError{Violation: ViolationPaste}
	}

	withdrawal := g.state.WithdrawalLevel()
	if err := g.rehab.Attempt(input, g.state); err != nil {
		if errors.Is(err, domain.ErrChallengeFailed) {
			g.presenter.ShowRehabRetry()
		}
		return err
	}

	if g.timer.Active() {
		g.timer.Stop()
		g.state.EndEffect()
		g.presenter.ClearEffect()
	}

	g.log.Info().Int("withdrawal_cleared", withdrawal).Msg("rehab completed")

	g.presenter.HideRehabPrompt()
	g.presenter.ShowRehabSuccess()
	g.presenter.Render(g.state.Snapshot())
	return nil
}

// CancelRehab closes the challenge without touching the session
func (g *Game) CancelRehab() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.rehab.IsOpen() {
		return
	}
	g.rehab.Cancel()
	g.presenter.HideRehabPrompt()
	g.presenter.Render(g.state.Snapshot())
}

// RehabOpen reports whether the challenge is waiting for input
func (g *Game) RehabOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rehab.IsOpen()
}

// ReportViolation warns the player. The session is not affected.
func (g *Game) ReportViolation(v Violation) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	if text := v.Warning(); text != "" {
		g.presenter.ShowTransientWarning(text)
	}
}

// Close stops any running effect. Later actions are refused.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	g.timer.Stop()
	g.rehab.Cancel()
}
