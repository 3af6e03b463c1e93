package orientation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tiltup/internal/model"
)

// DefaultCalibrationInterval is the cadence of calibration checks.
const DefaultCalibrationInterval = 500 * time.Millisecond

// Handler receives sensor events. Sensor calls it with its own lock held, so
// a Handler must not call back into the Sensor.
type Handler interface {
	Gesture(g model.Gesture)
	Calibrated()
	Unavailable(err error)
}

type status int

const (
	statusIdle status = iota
	statusPending
	statusActive
	statusUnavailable
	statusClosed
)

// Sensor owns activation of an orientation source: the permission request,
// the sample pump and the periodic calibration check.
type Sensor struct {
	mu       sync.Mutex
	detector *Detector
	perm     Permission
	source   Source
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger

	handler   Handler
	status    status
	cancel    context.CancelFunc
	calibStop chan struct{}
}

// Option customizes a Sensor.
type Option func(*Sensor)

// WithClock sets the clock driving calibration checks.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sensor) { s.clock = c }
}

// WithLogger sets the sensor logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sensor) { s.logger = l }
}

// WithInterval sets the calibration cadence.
func WithInterval(d time.Duration) Option {
	return func(s *Sensor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewSensor builds an inactive sensor.
func NewSensor(detector *Detector, perm Permission, source Source, opts ...Option) *Sensor {
	s := &Sensor{
		detector: detector,
		perm:     perm,
		source:   source,
		clock:    clockwork.NewRealClock(),
		interval: DefaultCalibrationInterval,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.perm == nil {
		s.perm = Unsupported{}
	}
	return s
}

// Activate requests permission and, once granted, subscribes to the source
// and starts calibrating. Calling it again never subscribes twice; on an
// active sensor it restarts calibration if a reset cleared it.
func (s *Sensor) Activate(ctx context.Context, h Handler) {
	s.mu.Lock()
	switch s.status {
	case statusActive:
		s.startCalibrationLocked()
		s.mu.Unlock()
		return
	case statusPending, statusUnavailable, statusClosed:
		s.mu.Unlock()
		return
	}
	s.handler = h
	s.status = statusPending
	async := s.perm.Async()
	s.mu.Unlock()

	s.logger.Info().Bool("async", async).Msg("requesting orientation access")
	if async {
		go s.acquire(ctx)
		return
	}
	s.acquire(ctx)
}

func (s *Sensor) acquire(ctx context.Context) {
	state, err := s.perm.Request(ctx)
	if err != nil {
		s.fail(fmt.Errorf("%w: %v", ErrPermissionDenied, err))
		return
	}
	switch state {
	case PermissionGranted:
		s.wire(ctx)
	case PermissionDenied:
		s.fail(ErrPermissionDenied)
	default:
		s.fail(ErrUnsupported)
	}
}

func (s *Sensor) wire(ctx context.Context) {
	pumpCtx, cancel := context.WithCancel(ctx)
	ch, err := s.source.Open(pumpCtx)
	if err != nil {
		cancel()
		s.fail(fmt.Errorf("%w: failed to open source: %v", ErrUnsupported, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != statusPending {
		cancel()
		return
	}
	s.status = statusActive
	s.cancel = cancel
	s.logger.Info().Msg("orientation source subscribed")
	s.startCalibrationLocked()
	go s.pump(pumpCtx, ch)
}

func (s *Sensor) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != statusPending {
		return
	}
	s.status = statusUnavailable
	s.logger.Warn().Err(err).Msg("orientation sensing unavailable, manual controls only")
	if s.handler != nil {
		s.handler.Unavailable(err)
	}
}

func (s *Sensor) pump(ctx context.Context, ch <-chan model.Sample) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-ch:
			if !ok {
				s.logger.Debug().Msg("orientation source closed")
				return
			}
			s.ingest(sample)
		}
	}
}

func (s *Sensor) ingest(sample model.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != statusActive {
		return
	}
	g := s.detector.Ingest(sample)
	if g == model.GestureNone || s.handler == nil {
		return
	}
	s.logger.Debug().Stringer("gesture", g).Msg("gesture detected")
	s.handler.Gesture(g)
}

func (s *Sensor) startCalibrationLocked() {
	if s.calibStop != nil || s.detector.Calibrated() {
		return
	}
	stop := make(chan struct{})
	s.calibStop = stop
	ticker := s.clock.NewTicker(s.interval)
	s.logger.Info().Dur("interval", s.interval).Msg("calibration start")
	go s.calibrate(ticker, stop)
}

func (s *Sensor) calibrate(ticker clockwork.Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if s.checkCalibration(stop) {
				return
			}
		}
	}
}

func (s *Sensor) checkCalibration(stop chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-stop:
		return true
	default:
	}
	if !s.detector.CheckCalibration() {
		return false
	}
	s.calibStop = nil
	s.logger.Info().Msg("calibration complete")
	if s.handler != nil {
		s.handler.Calibrated()
	}
	return true
}

func (s *Sensor) stopCalibrationLocked() {
	if s.calibStop != nil {
		close(s.calibStop)
		s.calibStop = nil
	}
}

// Recalibrate clears calibration and the tilt latch. The source stays
// subscribed; the next Activate starts a new calibration run.
func (s *Sensor) Recalibrate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalibrationLocked()
	s.detector.Reset()
}

// Active reports whether the source is subscribed.
func (s *Sensor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == statusActive
}

// Calibrated reports whether gestures are being classified.
func (s *Sensor) Calibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.Calibrated()
}

// Buffered returns the readings currently held for calibration.
func (s *Sensor) Buffered() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.Buffered()
}

// Close unsubscribes from the source and stops calibration.
func (s *Sensor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalibrationLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = statusClosed
}
