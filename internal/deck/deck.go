// Package deck builds and scores shuffled word decks.
package deck

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tiltup/internal/model"
)

// Shuffler produces randomized decks.
type Shuffler struct {
	rnd *rand.Rand
}

// New returns a Shuffler seeded with the current time.
func New() *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a Shuffler with a fixed seed.
func NewSeeded(seed int64) *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(seed))}
}

// Initialize returns the words as a deck in random order. The input slice is
// not modified.
func (s *Shuffler) Initialize(words []string) []model.WordEntry {
	entries := make([]model.WordEntry, len(words))
	for i, w := range words {
		entries[i] = model.WordEntry{Value: w}
	}
	s.rnd.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	return entries
}

// MarkCorrect returns a copy of entries with the word at index confirmed.
// An index outside the deck is a no-op and returns entries unchanged.
func MarkCorrect(entries []model.WordEntry, index int) []model.WordEntry {
	if index < 0 || index >= len(entries) {
		return entries
	}
	out := make([]model.WordEntry, len(entries))
	copy(out, entries)
	out[index].Correct = true
	return out
}

// IsLast reports whether index is the final play position.
func IsLast(entries []model.WordEntry, index int) bool {
	return len(entries) > 0 && index == len(entries)-1
}

// Score counts confirmed words. Accuracy is floored; an empty deck scores 0.
func Score(entries []model.WordEntry) model.Score {
	score := model.Score{Total: len(entries)}
	for _, e := range entries {
		if e.Correct {
			score.Correct++
		}
	}
	if score.Total > 0 {
		score.Accuracy = score.Correct * 100 / score.Total
	}
	return score
}

// Played returns the entries before index, clamped to the deck.
func Played(entries []model.WordEntry, index int) []model.WordEntry {
	switch {
	case index <= 0:
		return nil
	case index > len(entries):
		return entries
	default:
		return entries[:index]
	}
}

// Words returns the deck values in deck order.
func Words(entries []model.WordEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}
