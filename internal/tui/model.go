// Package tui provides the Bubble Tea interface for a round.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/session"
)

// Session is the part of the session machine the interface drives.
type Session interface {
	State() model.SessionState
	Subscribe(fn func(model.SessionState)) (unsubscribe func())
	Start()
	AnswerWord()
	SkipWord()
	UseManualControl()
	Reset()
}

type stateMsg model.SessionState

// Options configures optional parts of the interface.
type Options struct {
	// Simulator, when set, turns arrow keys into tilt readings.
	Simulator *Simulator
	// RemoteURL and RemoteQR describe where a phone can connect.
	RemoteURL string
	RemoteQR  string
}

// Model implements the Bubble Tea round UI.
type Model struct {
	session     Session
	states      chan model.SessionState
	unsubscribe func()
	opts        Options

	state model.SessionState
	keys  keyMap
	help  help.Model
	bar   progress.Model

	width  int
	height int
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	wordStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A")).Padding(0, 1)
)

// NewModel constructs the round UI. It subscribes to s immediately so no
// snapshot is missed.
func NewModel(s Session, opts Options) *Model {
	m := &Model{
		session: s,
		states:  make(chan model.SessionState, 1),
		opts:    opts,
		keys:    defaultKeys(opts.Simulator != nil),
		help:    help.New(),
		bar:     progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
	m.state = s.State()
	m.unsubscribe = s.Subscribe(m.publish)
	m.updateKeys()
	return m
}

// publish keeps only the newest snapshot. It runs on the machine's
// goroutine and must not block.
func (m *Model) publish(s model.SessionState) {
	select {
	case <-m.states:
	default:
	}
	select {
	case m.states <- s:
	default:
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-m.states)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForState()}
	if m.opts.Simulator != nil {
		cmds = append(cmds, simulatorTick())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = min(msg.Width/2, 60)
		return m, nil
	case stateMsg:
		m.state = model.SessionState(msg)
		m.updateKeys()
		return m, m.waitForState()
	case simulatorTickMsg:
		m.opts.Simulator.step()
		return m, simulatorTick()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unsubscribe()
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.session.Start()
	case key.Matches(msg, m.keys.Answer):
		m.session.AnswerWord()
	case key.Matches(msg, m.keys.Skip):
		m.session.SkipWord()
	case key.Matches(msg, m.keys.TiltDown):
		m.opts.Simulator.Tilt(-simulatedAngle)
	case key.Matches(msg, m.keys.TiltUp):
		m.opts.Simulator.Tilt(simulatedAngle)
	case key.Matches(msg, m.keys.Manual):
		m.session.UseManualControl()
	case key.Matches(msg, m.keys.Reset):
		m.session.Reset()
	}
	return nil
}

// updateKeys enables only the bindings that mean something in the current
// phase.
func (m *Model) updateKeys() {
	phase := m.state.Phase()
	m.keys.Start.SetEnabled(phase == model.PhaseNotStarted)
	m.keys.Answer.SetEnabled(phase == model.PhasePlaying)
	m.keys.Skip.SetEnabled(phase == model.PhasePlaying)
	m.keys.Manual.SetEnabled(phase == model.PhaseAwaitingCalibration)
	m.keys.Reset.SetEnabled(phase != model.PhaseNotStarted)
	simulated := m.opts.Simulator != nil && !m.state.ManualControl && m.state.HasStarted && !m.state.IsOver
	m.keys.TiltDown.SetEnabled(simulated)
	m.keys.TiltUp.SetEnabled(simulated)
}

// State returns the last snapshot the interface rendered.
func (m *Model) State() model.SessionState {
	return m.state
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	header := m.renderHeader()
	footer := footerStyle.Render(m.help.View(m.keys))
	if m.width == 0 || m.height == 0 {
		return lipgloss.JoinVertical(lipgloss.Center, header, "", content, "", footer)
	}
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	headerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, header)
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return headerLine + "\n" + body + "\n" + footerLine
}

func (m *Model) renderHeader() string {
	parts := []string{titleStyle.Render(m.state.Category.Name)}
	if m.state.HasStarted {
		score := session.LiveScore(m.state)
		parts = append(parts, footerStyle.Render(fmt.Sprintf("%d/%d", score.Correct, score.Total)))
	}
	if m.state.ManualControl {
		parts = append(parts, badgeStyle.Render("manual controls"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderBody() string {
	switch m.state.Phase() {
	case model.PhaseNotStarted:
		return m.renderIntro()
	case model.PhaseAwaitingCalibration:
		hint := "Hold the device still"
		if m.opts.RemoteURL != "" {
			hint = "Allow tilt access on the phone, then hold it still"
		}
		return lipgloss.JoinVertical(lipgloss.Center,
			pendingStyle.Render(hint),
			footerStyle.Render("press m to play without tilt"),
		)
	case model.PhasePrepping:
		return lipgloss.JoinVertical(lipgloss.Center,
			pendingStyle.Render("Get ready"),
			countdownStyle.Render(fmt.Sprintf("%d", m.state.PrepTime)),
		)
	case model.PhasePlaying:
		return m.renderPlaying()
	default:
		return m.renderOver()
	}
}

func (m *Model) renderIntro() string {
	lines := []string{
		wordStyle.Render(fmt.Sprintf("%d words", len(m.state.Words))),
		pendingStyle.Render(fmt.Sprintf("%ds to guess as many as you can", m.state.PlayTime)),
	}
	if m.opts.RemoteQR != "" {
		lines = append(lines, "", m.opts.RemoteQR, pendingStyle.Render(m.opts.RemoteURL))
	} else if m.opts.RemoteURL != "" {
		lines = append(lines, "", pendingStyle.Render("Open "+m.opts.RemoteURL+" on your phone"))
	}
	lines = append(lines, "", pendingStyle.Render("Press space to start"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderPlaying() string {
	word, _ := m.state.CurrentWord()
	width := m.width * 70 / 100
	if width < 1 {
		width = 40
	}
	percent := 0.0
	if m.state.PlayTime > 0 {
		percent = float64(m.state.TimeRemaining) / float64(m.state.PlayTime)
	}
	lines := []string{
		wrapTitle(word, width, wordStyle),
		"",
		m.bar.ViewAs(percent),
		pendingStyle.Render(fmt.Sprintf("%ds", m.state.TimeRemaining)),
	}
	if m.opts.Simulator != nil && !m.state.ManualControl {
		lines = append(lines, renderTilt(m.opts.Simulator.Angle()))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func renderTilt(angle float64) string {
	switch {
	case angle < 0:
		return correctStyle.Render("▼ tilted down")
	case angle > 0:
		return skippedStyle.Render("▲ tilted up")
	default:
		return pendingStyle.Render("● level")
	}
}

func (m *Model) renderOver() string {
	lines := []string{titleStyle.Render("Round over")}
	if m.state.Score != nil {
		lines = append(lines, wordStyle.Render(fmt.Sprintf("%d of %d correct · %d%%",
			m.state.Score.Correct, m.state.Score.Total, m.state.Score.Accuracy)))
	}
	lines = append(lines, "")
	for i, w := range m.state.Words {
		switch {
		case i >= m.state.CurrentIndex:
			lines = append(lines, pendingStyle.Render("· "+w.Value))
		case w.Correct:
			lines = append(lines, correctStyle.Render("✓ "+w.Value))
		default:
			lines = append(lines, skippedStyle.Render("✗ "+w.Value))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
