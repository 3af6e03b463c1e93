// Package clock drives the round countdown.
package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tiltup/internal/deck"
	"github.com/verte-zerg/tiltup/internal/model"
)

// DefaultPeriod is the countdown cadence.
const DefaultPeriod = time.Second

// Tick advances the countdown by one period. It does nothing until
// calibration has completed or after the round is over. The preparation
// countdown runs first; when the play countdown reaches zero the timer handle
// is cleared and the round is scored over the whole deck.
func Tick(s model.SessionState) model.SessionState {
	if s.IsOver || !s.HasStarted || !s.CalibrationComplete {
		return s
	}
	if s.PrepTime > 0 {
		s.PrepTime--
		return s
	}
	if s.TimeRemaining > 1 {
		s.TimeRemaining--
		return s
	}
	score := deck.Score(s.Words)
	s.TimeRemaining = 0
	s.Timer = ""
	s.IsOver = true
	s.Score = &score
	return s
}

// NewHandle returns a fresh timer handle.
func NewHandle() model.TimerHandle {
	return model.TimerHandle(uuid.NewString())
}

// Timers owns the repeating session timer. At most one timer runs at a time;
// arming a new handle stops the previous one.
type Timers struct {
	clock  clockwork.Clock
	period time.Duration
	logger zerolog.Logger

	mu     sync.Mutex
	handle model.TimerHandle
	stop   chan struct{}
}

// NewTimers returns an idle timer owner.
func NewTimers(c clockwork.Clock, period time.Duration, logger zerolog.Logger) *Timers {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Timers{clock: c, period: period, logger: logger}
}

// Arm starts a repeating timer calling fire with h every period.
func (t *Timers) Arm(h model.TimerHandle, fire func(model.TimerHandle)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handle == h && t.stop != nil {
		return
	}
	t.stopLocked()
	stop := make(chan struct{})
	t.handle = h
	t.stop = stop
	ticker := t.clock.NewTicker(t.period)
	t.logger.Debug().Str("timer", string(h)).Dur("period", t.period).Msg("timer armed")

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				select {
				case <-stop:
					return
				default:
				}
				fire(h)
			}
		}
	}()
}

// Release stops the timer if h is the active handle.
func (t *Timers) Release(h model.TimerHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h == "" || h != t.handle {
		return
	}
	t.stopLocked()
}

// Stop releases whatever timer is active.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Active returns the armed handle, or the zero handle.
func (t *Timers) Active() model.TimerHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle
}

func (t *Timers) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.logger.Debug().Str("timer", string(t.handle)).Msg("timer released")
	t.stop = nil
	t.handle = ""
}
