package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/tiltup/internal/deck"
	"github.com/verte-zerg/tiltup/internal/model"
)

const (
	colorGreen = "\x1b[32m"
	colorRed   = "\x1b[31m"
	colorDim   = "\x1b[2m"
	colorReset = "\x1b[0m"
)

// Outcome describes what happened to one word of a round.
type Outcome string

const (
	OutcomeCorrect  Outcome = "correct"
	OutcomePassed   Outcome = "passed"
	OutcomeUnplayed Outcome = "not reached"
)

// Outcomes classifies every word of s in deck order.
func Outcomes(s model.SessionState) []Outcome {
	out := make([]Outcome, len(s.Words))
	for i, w := range s.Words {
		switch {
		case w.Correct:
			out[i] = OutcomeCorrect
		case i < s.CurrentIndex:
			out[i] = OutcomePassed
		default:
			out[i] = OutcomeUnplayed
		}
	}
	return out
}

// WriteSummary prints the end-of-round table. A round that never started
// prints nothing. Color is used when w is a terminal, or when forced.
func WriteSummary(w io.Writer, s model.SessionState, forceColor bool) error {
	if !s.HasStarted {
		return nil
	}
	useColor := shouldUseColor(w, forceColor)
	outcomes := Outcomes(s)

	rows := make([][]string, len(s.Words))
	for i, word := range s.Words {
		rows[i] = []string{strconv.Itoa(i + 1), word.Value, string(outcomes[i])}
	}
	lines := formatTable([]string{"#", "Word", "Result"}, rows, map[int]bool{0: true})

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.Category.Name)
	for i, line := range lines {
		if i > 0 && useColor {
			line = colorFor(outcomes[i-1]) + line + colorReset
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	score := deck.Score(s.Words)
	if s.Score != nil {
		score = *s.Score
	}
	status := "round over"
	if !s.IsOver {
		status = "round abandoned"
	}
	fmt.Fprintf(&b, "\n%d of %d correct (%d%%), %s with %ds left\n",
		score.Correct, score.Total, score.Accuracy, status, s.TimeRemaining)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func colorFor(o Outcome) string {
	switch o {
	case OutcomeCorrect:
		return colorGreen
	case OutcomePassed:
		return colorRed
	default:
		return colorDim
	}
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
