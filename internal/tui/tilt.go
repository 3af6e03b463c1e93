package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/orientation"
)

const (
	simulatorRate  = 100 * time.Millisecond
	simulatedAngle = 80.0
	// holdTicks is how long a key press keeps the simulated device tilted.
	holdTicks = 4
)

type simulatorTickMsg struct{}

// Simulator turns arrow keys into orientation samples. It reports the
// current angle at a steady rate, like a real sensor.
type Simulator struct {
	source *orientation.ChanSource
	angle  float64
	hold   int
}

// NewSimulator feeds samples into source.
func NewSimulator(source *orientation.ChanSource) *Simulator {
	return &Simulator{source: source}
}

// Tilt holds the device at angle for a short while before it levels out.
func (s *Simulator) Tilt(angle float64) {
	s.angle = angle
	s.hold = holdTicks
}

// Angle returns the simulated reading.
func (s *Simulator) Angle() float64 {
	return s.angle
}

func (s *Simulator) step() {
	s.source.Push(model.Angle(s.angle))
	if s.hold > 0 {
		s.hold--
		if s.hold == 0 {
			s.angle = 0
		}
	}
}

func simulatorTick() tea.Cmd {
	return tea.Tick(simulatorRate, func(time.Time) tea.Msg {
		return simulatorTickMsg{}
	})
}
