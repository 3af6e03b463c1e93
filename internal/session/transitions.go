// Package session implements the round state machine.
package session

import (
	"github.com/verte-zerg/tiltup/internal/deck"
	"github.com/verte-zerg/tiltup/internal/model"
)

// NewState builds a round that has not started. In manual-control mode there
// is nothing to calibrate, so calibration counts as complete.
func NewState(id string, category model.Category, words []model.WordEntry, game model.GameConfig, manual bool) model.SessionState {
	return model.SessionState{
		ID:                  id,
		Category:            category,
		Words:               words,
		ManualControl:       manual,
		CalibrationComplete: manual,
		PrepTime:            max(game.PrepTime, 0),
		TimeRemaining:       max(game.PlayTime, 0),
		PlayTime:            max(game.PlayTime, 0),
	}
}

// Start arms the round with timer h. It only applies once per round.
func Start(s model.SessionState, h model.TimerHandle) model.SessionState {
	if s.HasStarted || s.IsOver {
		return s
	}
	s.HasStarted = true
	s.Timer = h
	return s
}

// CompleteCalibration lets the clock run. Only a started round awaiting
// calibration accepts it.
func CompleteCalibration(s model.SessionState) model.SessionState {
	if !s.HasStarted || s.IsOver || s.CalibrationComplete {
		return s
	}
	s.CalibrationComplete = true
	return s
}

// UseManualControl switches the round to manual commands after sensing turned
// out to be unavailable.
func UseManualControl(s model.SessionState) model.SessionState {
	if s.ManualControl {
		return s
	}
	s.ManualControl = true
	if !s.IsOver {
		s.CalibrationComplete = true
	}
	return s
}

// AnswerWord confirms the current word and moves on.
func AnswerWord(s model.SessionState) model.SessionState {
	return advance(s, true)
}

// SkipWord moves on without confirming the current word.
func SkipWord(s model.SessionState) model.SessionState {
	return advance(s, false)
}

func advance(s model.SessionState, correct bool) model.SessionState {
	if !s.HasStarted || s.IsOver || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Words) {
		return s
	}
	last := deck.IsLast(s.Words, s.CurrentIndex)
	if correct {
		s.Words = deck.MarkCorrect(s.Words, s.CurrentIndex)
	}
	s.CurrentIndex++
	if last {
		score := deck.Score(s.Words)
		s.Score = &score
		s.IsOver = true
		s.Timer = ""
	}
	return s
}

// Gesture applies a classified tilt to a running round.
func Gesture(s model.SessionState, g model.Gesture) model.SessionState {
	if !s.HasStarted {
		return s
	}
	switch g {
	case model.GestureConfirm:
		return AnswerWord(s)
	case model.GestureSkip:
		return SkipWord(s)
	default:
		return s
	}
}

// Reset replaces the round with a fresh one over words, keeping the control
// mode. The old timer handle is dropped with the old state.
func Reset(s model.SessionState, id string, category model.Category, words []model.WordEntry, game model.GameConfig) model.SessionState {
	return NewState(id, category, words, game, s.ManualControl)
}

// LiveScore scores the words played so far.
func LiveScore(s model.SessionState) model.Score {
	return deck.Score(deck.Played(s.Words, s.CurrentIndex))
}
