// Package model defines shared data structures.
package model

import "time"

// Category is a named word list supplied by the content catalog.
type Category struct {
	Name     string
	Slug     string
	WordList []string
}

// WordEntry is one word of a shuffled deck.
type WordEntry struct {
	Value   string
	Correct bool
}

// Score summarizes a finished round.
type Score struct {
	Correct  int
	Total    int
	Accuracy int
}

// Gesture is a classified tilt event.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureSkip
	GestureConfirm
)

func (g Gesture) String() string {
	switch g {
	case GestureSkip:
		return "skip"
	case GestureConfirm:
		return "confirm"
	default:
		return "none"
	}
}

// Sample is a raw orientation reading. Gamma is nil when the platform
// delivered no value.
type Sample struct {
	Gamma *float64
}

// Angle returns a sample carrying the given gamma.
func Angle(gamma float64) Sample {
	return Sample{Gamma: &gamma}
}

// TimerHandle identifies the active repeating session timer. The zero value
// means no timer is armed.
type TimerHandle string

// Phase is the session state derived from the snapshot flags.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingCalibration
	PhasePrepping
	PhasePlaying
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseAwaitingCalibration:
		return "awaiting-calibration"
	case PhasePrepping:
		return "prepping"
	case PhasePlaying:
		return "playing"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// SessionState is an immutable snapshot of one round. Snapshots are never
// modified after publication; transitions build new values and copy Words
// before changing an entry.
type SessionState struct {
	ID       string
	Category Category

	CurrentIndex int
	Words        []WordEntry

	HasStarted          bool
	CalibrationComplete bool
	ManualControl       bool

	PrepTime      int
	TimeRemaining int
	PlayTime      int

	IsOver bool
	Score  *Score

	Timer TimerHandle
}

// Phase derives the explicit state from the snapshot flags.
func (s SessionState) Phase() Phase {
	switch {
	case s.IsOver:
		return PhaseOver
	case !s.HasStarted:
		return PhaseNotStarted
	case !s.CalibrationComplete:
		return PhaseAwaitingCalibration
	case s.PrepTime > 0:
		return PhasePrepping
	default:
		return PhasePlaying
	}
}

// CurrentWord returns the word being played, if any.
func (s SessionState) CurrentWord() (string, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Words) {
		return "", false
	}
	return s.Words[s.CurrentIndex].Value, true
}

// GameConfig defines round settings.
type GameConfig struct {
	Category string
	PrepTime int
	PlayTime int
	Tick     time.Duration
}

// SensorConfig defines gesture detection settings.
type SensorConfig struct {
	Source              string
	TiltThreshold       float64
	NeutralBand         float64
	NoiseThreshold      float64
	CalibrationInterval time.Duration
	Window              int
	Buffer              int
}

// RemoteConfig defines the phone bridge listener.
type RemoteConfig struct {
	Bind    string
	Port    int
	TLSCert string
	TLSKey  string
}
