// Package orientation turns raw device tilt readings into gestures.
package orientation

import (
	"math"

	"github.com/verte-zerg/tiltup/internal/model"
)

const maxAngle = 90

// Thresholds configures calibration and gesture classification, in degrees.
type Thresholds struct {
	Tilt    float64
	Neutral float64
	Noise   float64
	Window  int
	Buffer  int
}

// DefaultThresholds returns the stock detection settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Tilt:    70,
		Neutral: 20,
		Noise:   20,
		Window:  3,
		Buffer:  10,
	}
}

// ThresholdsFrom converts sensor settings, keeping defaults for zero fields.
func ThresholdsFrom(cfg model.SensorConfig) Thresholds {
	th := DefaultThresholds()
	if cfg.TiltThreshold > 0 {
		th.Tilt = cfg.TiltThreshold
	}
	if cfg.NeutralBand > 0 {
		th.Neutral = cfg.NeutralBand
	}
	if cfg.NoiseThreshold > 0 {
		th.Noise = cfg.NoiseThreshold
	}
	if cfg.Window > 0 {
		th.Window = cfg.Window
	}
	if cfg.Buffer > 0 {
		th.Buffer = cfg.Buffer
	}
	if th.Buffer < th.Window {
		th.Buffer = th.Window
	}
	return th
}

// Detector keeps a rolling window of readings and a tilt latch. It is not
// safe for concurrent use; Sensor serializes access.
type Detector struct {
	th         Thresholds
	buffer     []float64
	tilted     bool
	calibrated bool
}

// NewDetector returns an uncalibrated detector.
func NewDetector(th Thresholds) *Detector {
	return &Detector{th: th, buffer: make([]float64, 0, th.Buffer)}
}

// Ingest buffers a reading and classifies it. Readings are only classified
// once calibration has completed. A missing reading is ignored entirely.
func (d *Detector) Ingest(sample model.Sample) model.Gesture {
	angle, ok := normalize(sample)
	if !ok {
		return model.GestureNone
	}
	d.buffer = append(d.buffer, angle)
	if over := len(d.buffer) - d.th.Buffer; over > 0 {
		d.buffer = append(d.buffer[:0], d.buffer[over:]...)
	}
	if !d.calibrated {
		return model.GestureNone
	}
	return d.classify(angle)
}

func (d *Detector) classify(angle float64) model.Gesture {
	if d.tilted {
		if angle > -d.th.Neutral && angle < d.th.Neutral {
			d.tilted = false
		}
		return model.GestureNone
	}
	switch {
	case angle > d.th.Tilt:
		d.tilted = true
		return model.GestureSkip
	case angle < -d.th.Tilt:
		d.tilted = true
		return model.GestureConfirm
	default:
		return model.GestureNone
	}
}

// CheckCalibration runs one calibration step and reports whether the
// detector is calibrated. Calibration completes when the recent window is
// quieter than the noise threshold.
func (d *Detector) CheckCalibration() bool {
	if d.calibrated {
		return true
	}
	window := d.buffer
	if len(window) > d.th.Window {
		window = window[len(window)-d.th.Window:]
	}
	if CumulativeDifference(window) < d.th.Noise {
		d.calibrated = true
	}
	return d.calibrated
}

// Calibrated reports whether gestures are being classified.
func (d *Detector) Calibrated() bool {
	return d.calibrated
}

// Tilted reports whether the latch is set.
func (d *Detector) Tilted() bool {
	return d.tilted
}

// Buffered returns a copy of the buffered readings, oldest first.
func (d *Detector) Buffered() []float64 {
	out := make([]float64, len(d.buffer))
	copy(out, d.buffer)
	return out
}

// Reset drops calibration, the latch and buffered readings.
func (d *Detector) Reset() {
	d.buffer = d.buffer[:0]
	d.tilted = false
	d.calibrated = false
}

// CumulativeDifference sums absolute differences of consecutive readings.
// Fewer than two readings contribute nothing.
func CumulativeDifference(samples []float64) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += math.Abs(samples[i] - samples[i-1])
	}
	return total
}

func normalize(sample model.Sample) (float64, bool) {
	if sample.Gamma == nil {
		return 0, false
	}
	v := *sample.Gamma
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(-maxAngle, math.Min(maxAngle, v)), true
}
