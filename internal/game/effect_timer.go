package game

import (
	"errors"
	"time"
)

// TickInterval is the fixed pulse cadence of an effect
const TickInterval = 200 * time.Millisecond

// ErrTimerActive is returned when Start is called while an effect is running
var ErrTimerActive = errors.New("effect timer already active")

// EffectTimer is a single-slot repeating activity: a fixed number of pulses
// followed by exactly one end callback. It is not safe for concurrent use;
// callers and the scheduler share one logical thread.
type EffectTimer struct {
	scheduler Scheduler
	run       *effectRun
}

type effectRun struct {
	total  int
	fired  int
	cancel func()
	onTick func(pulse int)
	onEnd  func()
}

// NewEffectTimer creates an idle timer on the given scheduler
func NewEffectTimer(scheduler Scheduler) *EffectTimer {
	return &EffectTimer{scheduler: scheduler}
}

// PulseCount returns how many pulses an effect of the given length produces
func PulseCount(duration time.Duration) int {
	if duration <= 0 {
		return 0
	}
	return int(duration / TickInterval)
}

// Start begins an effect. onTick receives the zero-based pulse number.
func (t *EffectTimer) Start(duration time.Duration, onTick func(pulse int), onEnd func()) error {
	if t.run != nil {
		return ErrTimerActive
	}

	run := &effectRun{
		total:  PulseCount(duration),
		onTick: onTick,
		onEnd:  onEnd,
	}
	t.run = run
	run.cancel = t.scheduler.Every(TickInterval, func() { t.pulse(run) })
	return nil
}

func (t *EffectTimer) pulse(run *effectRun) {
	if t.run != run {
		return
	}
	if run.fired >= run.total {
		t.run = nil
		run.cancel()
		if run.onEnd != nil {
			run.onEnd()
		}
		return
	}
	n := run.fired
	run.fired++
	if run.onTick != nil {
		run.onTick(n)
	}
}

// Stop cancels the running effect without firing its end callback.
// Stopping an idle timer is a no-op.
func (t *EffectTimer) Stop() {
	run := t.run
	if run == nil {
		return
	}
	t.run = nil
	run.cancel()
}

// Active reports whether an effect is running
func (t *EffectTimer) Active() bool {
	return t.run != nil
}
