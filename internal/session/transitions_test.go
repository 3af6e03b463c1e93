package session

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tiltup/internal/clock"
	"github.com/verte-zerg/tiltup/internal/deck"
	"github.com/verte-zerg/tiltup/internal/model"
)

var (
	twoWords = model.Category{Name: "Letters", Slug: "letters", WordList: []string{"A", "B"}}
	testGame = model.GameConfig{PrepTime: 2, PlayTime: 30}
)

func freshState(category model.Category) model.SessionState {
	return NewState("s1", category, deck.NewSeeded(1).Initialize(category.WordList), testGame, false)
}

func tickN(s model.SessionState, n int) model.SessionState {
	for i := 0; i < n; i++ {
		s = clock.Tick(s)
	}
	return s
}

func TestRoundScenario(t *testing.T) {
	// Given: a fresh round over ["A", "B"]
	s := freshState(twoWords)
	require.Equal(t, model.PhaseNotStarted, s.Phase())

	// When: the round starts and calibration completes
	s = Start(s, "t1")
	require.Equal(t, model.PhaseAwaitingCalibration, s.Phase())
	s = CompleteCalibration(s)
	require.Equal(t, model.PhasePrepping, s.Phase())

	// When: the preparation countdown runs out
	s = tickN(s, 2)
	require.Equal(t, model.PhasePlaying, s.Phase())
	require.Equal(t, 30, s.TimeRemaining)

	// When: the first word is answered and the second skipped
	s = AnswerWord(s)
	require.False(t, s.IsOver)
	s = SkipWord(s)

	// Then: the round is over with half the words confirmed
	require.True(t, s.IsOver)
	require.Equal(t, model.PhaseOver, s.Phase())
	require.Equal(t, &model.Score{Correct: 1, Total: 2, Accuracy: 50}, s.Score)
	require.Empty(t, s.Timer)
}

func TestStartOnlyOnce(t *testing.T) {
	s := Start(freshState(twoWords), "t1")
	again := Start(s, "t2")
	require.Equal(t, model.TimerHandle("t1"), again.Timer)
}

func TestAdvanceFromLastWordEndsRound(t *testing.T) {
	s := freshState(model.Category{WordList: []string{"a", "b", "c"}})
	s = Start(s, "t1")
	s.CurrentIndex = 2

	s = SkipWord(s)

	require.True(t, s.IsOver)
	require.Equal(t, &model.Score{Correct: 0, Total: 3, Accuracy: 0}, s.Score)
	require.Equal(t, 3, s.CurrentIndex)
}

func TestTransitionsNoopWhenOver(t *testing.T) {
	s := freshState(model.Category{WordList: []string{"a"}})
	s = AnswerWord(Start(s, "t1"))
	require.True(t, s.IsOver)
	score := *s.Score

	assert.Equal(t, s, AnswerWord(s))
	assert.Equal(t, s, SkipWord(s))
	assert.Equal(t, s, clock.Tick(s))
	assert.Equal(t, s, CompleteCalibration(s))
	assert.Equal(t, score, *AnswerWord(s).Score)
}

func TestAnswerDoesNotMutatePreviousSnapshot(t *testing.T) {
	s := Start(freshState(twoWords), "t1")
	next := AnswerWord(s)

	require.True(t, next.Words[0].Correct)
	require.False(t, s.Words[0].Correct)
	require.Zero(t, s.CurrentIndex)
}

func TestEmptyDeckAdvanceIsNoop(t *testing.T) {
	s := Start(freshState(model.Category{}), "t1")
	require.Equal(t, s, AnswerWord(s))
}

func TestGestureRequiresStart(t *testing.T) {
	s := freshState(twoWords)
	require.Equal(t, s, Gesture(s, model.GestureConfirm))

	s = Start(s, "t1")
	answered := Gesture(s, model.GestureConfirm)
	require.True(t, answered.Words[0].Correct)
	skipped := Gesture(s, model.GestureSkip)
	require.False(t, skipped.Words[0].Correct)
	require.Equal(t, 1, skipped.CurrentIndex)
	require.Equal(t, s, Gesture(s, model.GestureNone))
}

func TestCalibrationRequiresStart(t *testing.T) {
	// Given: a round that has not been started
	s := freshState(twoWords)

	// When: a calibration result arrives early
	early := CompleteCalibration(s)

	// Then: it is dropped and the round still waits for calibration after start
	require.Equal(t, s, early)
	require.Equal(t, model.PhaseAwaitingCalibration, Start(early, "t1").Phase())
}

func TestAdvanceRequiresStart(t *testing.T) {
	// Given: a round that has not been started
	s := freshState(twoWords)

	// When/Then: manual commands leave it untouched
	require.Equal(t, s, AnswerWord(s))
	require.Equal(t, s, SkipWord(s))
	require.Equal(t, model.PhaseNotStarted, s.Phase())
}

func TestManualControlCompletesCalibration(t *testing.T) {
	s := Start(freshState(twoWords), "t1")
	s = UseManualControl(s)

	require.True(t, s.ManualControl)
	require.Equal(t, model.PhasePrepping, s.Phase())
}

func TestResetProducesFreshRound(t *testing.T) {
	category := model.Category{Name: "Letters", WordList: []string{"a", "b", "c", "d"}}
	s := Start(freshState(category), "t1")
	s = AnswerWord(CompleteCalibration(s))

	fresh := Reset(s, "s2", category, deck.NewSeeded(99).Initialize(category.WordList), testGame)

	assert.False(t, fresh.HasStarted)
	assert.False(t, fresh.IsOver)
	assert.False(t, fresh.CalibrationComplete)
	assert.Nil(t, fresh.Score)
	assert.Empty(t, fresh.Timer)
	assert.Zero(t, fresh.CurrentIndex)
	assert.Equal(t, "s2", fresh.ID)
	assert.Equal(t, "Letters", fresh.Category.Name)
	words := deck.Words(fresh.Words)
	sort.Strings(words)
	assert.Equal(t, []string{"a", "b", "c", "d"}, words)
	for _, w := range fresh.Words {
		assert.False(t, w.Correct)
	}
}

func TestResetKeepsManualControl(t *testing.T) {
	s := UseManualControl(freshState(twoWords))
	fresh := Reset(s, "s2", twoWords, deck.NewSeeded(1).Initialize(twoWords.WordList), testGame)
	assert.True(t, fresh.ManualControl)
	assert.True(t, fresh.CalibrationComplete)
}

func TestLiveScore(t *testing.T) {
	s := Start(freshState(model.Category{WordList: []string{"a", "b", "c", "d"}}), "t1")
	s = AnswerWord(SkipWord(s))
	assert.Equal(t, model.Score{Correct: 1, Total: 2, Accuracy: 50}, LiveScore(s))
}
