package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tiltup/internal/clock"
	"github.com/verte-zerg/tiltup/internal/deck"
	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/observable"
	"github.com/verte-zerg/tiltup/internal/orientation"
)

// Machine owns one round and the resources it holds: the repeating timer
// and the orientation sensor. All transitions go through it and run one at a
// time; timer and sensor side effects are derived from the difference
// between the old and new snapshot.
type Machine struct {
	mu       sync.Mutex
	category model.Category
	game     model.GameConfig
	shuffler *deck.Shuffler
	store    *observable.Store[model.SessionState]
	timers   *clock.Timers
	sensor   *orientation.Sensor
	clock    clockwork.Clock
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock sets the clock driving the round timer.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithLogger sets the machine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithShuffler sets the deck shuffler.
func WithShuffler(sh *deck.Shuffler) Option {
	return func(m *Machine) { m.shuffler = sh }
}

// WithSensor attaches an orientation sensor. Without one the round is
// played with manual commands only.
func WithSensor(s *orientation.Sensor) Option {
	return func(m *Machine) { m.sensor = s }
}

// New builds a machine holding a freshly shuffled round of category.
func New(ctx context.Context, category model.Category, game model.GameConfig, opts ...Option) *Machine {
	m := &Machine{
		category: category,
		game:     game,
		clock:    clockwork.NewRealClock(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.shuffler == nil {
		m.shuffler = deck.New()
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.timers = clock.NewTimers(m.clock, game.Tick, m.logger)

	initial := NewState(uuid.NewString(), category, m.shuffler.Initialize(category.WordList), game, m.sensor == nil)
	m.store = observable.New(initial)
	m.logger.Info().
		Str("session_id", initial.ID).
		Str("category", category.Slug).
		Int("words", len(initial.Words)).
		Msg("session created")
	return m
}

// State returns the current snapshot.
func (m *Machine) State() model.SessionState {
	return m.store.Get()
}

// Subscribe calls fn with the current snapshot and every later one. Listeners
// must return quickly and must not call back into the Machine.
func (m *Machine) Subscribe(fn func(model.SessionState)) (unsubscribe func()) {
	return m.store.Subscribe(fn)
}

// Start begins the round and asks for orientation access.
func (m *Machine) Start() {
	h := clock.NewHandle()
	prev, next, ok := m.apply("start", func(s model.SessionState) model.SessionState {
		return Start(s, h)
	})
	if !ok || prev.HasStarted || !next.HasStarted || next.ManualControl {
		return
	}
	m.sensor.Activate(m.ctx, sensorEvents{m})
}

// AnswerWord confirms the current word.
func (m *Machine) AnswerWord() {
	m.apply("answer", AnswerWord)
}

// SkipWord passes on the current word.
func (m *Machine) SkipWord() {
	m.apply("skip", SkipWord)
}

// Reset discards the round and deals a new one from the same category.
// The sensor is recalibrated before the fresh round is published, so a
// calibration result from the old round cannot land on the new one.
func (m *Machine) Reset() {
	if m.sensor != nil {
		m.sensor.Recalibrate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	id := uuid.NewString()
	words := m.shuffler.Initialize(m.category.WordList)
	m.applyLocked("reset", func(s model.SessionState) model.SessionState {
		return Reset(s, id, m.category, words, m.game)
	})
}

// UseManualControl stops waiting for tilt sensing and lets the round run on
// manual commands.
func (m *Machine) UseManualControl() {
	m.apply("manual-control", UseManualControl)
}

// Close releases the timer and the sensor. Later commands are ignored.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.timers.Stop()
	m.mu.Unlock()

	m.cancel()
	if m.sensor != nil {
		m.sensor.Close()
	}
	m.logger.Debug().Msg("session closed")
}

func (m *Machine) tick(h model.TimerHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if cur := m.store.Get(); cur.Timer != h {
		m.logger.Debug().Str("timer", string(h)).Msg("ignoring tick from released timer")
		m.timers.Release(h)
		return
	}
	m.applyLocked("tick", clock.Tick)
}

func (m *Machine) apply(event string, fn func(model.SessionState) model.SessionState) (prev, next model.SessionState, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		cur := m.store.Get()
		return cur, cur, false
	}
	prev, next = m.applyLocked(event, fn)
	return prev, next, true
}

func (m *Machine) applyLocked(event string, fn func(model.SessionState) model.SessionState) (prev, next model.SessionState) {
	prev, next = m.store.Update(fn)
	if prev.Timer != next.Timer {
		if prev.Timer != "" {
			m.timers.Release(prev.Timer)
		}
		if next.Timer != "" {
			m.timers.Arm(next.Timer, m.tick)
		}
	}
	m.logTransition(event, prev, next)
	return prev, next
}

func (m *Machine) logTransition(event string, prev, next model.SessionState) {
	from, to := prev.Phase(), next.Phase()
	if from == to && prev.ID == next.ID {
		return
	}
	ev := m.logger.Info().
		Str("session_id", next.ID).
		Str("event", event).
		Stringer("from", from).
		Stringer("to", to)
	if to == model.PhaseOver && next.Score != nil {
		ev = ev.Int("correct", next.Score.Correct).
			Int("total", next.Score.Total).
			Int("accuracy", next.Score.Accuracy)
	}
	ev.Msg("phase changed")
}

// sensorEvents adapts sensor callbacks to machine transitions.
type sensorEvents struct {
	m *Machine
}

func (e sensorEvents) Gesture(g model.Gesture) {
	e.m.apply("gesture", func(s model.SessionState) model.SessionState {
		return Gesture(s, g)
	})
}

func (e sensorEvents) Calibrated() {
	e.m.apply("calibration-complete", CompleteCalibration)
}

func (e sensorEvents) Unavailable(err error) {
	e.m.logger.Warn().Err(err).Msg("falling back to manual controls")
	e.m.apply("manual-control", UseManualControl)
}
