package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start    key.Binding
	Answer   key.Binding
	Skip     key.Binding
	TiltDown key.Binding
	TiltUp   key.Binding
	Manual   key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

func defaultKeys(simulated bool) keyMap {
	k := keyMap{
		Start:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "start")),
		Answer:   key.NewBinding(key.WithKeys("left", "y"), key.WithHelp("←/y", "correct")),
		Skip:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "pass")),
		TiltDown: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "tilt down")),
		TiltUp:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "tilt up")),
		Manual:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "play without tilt")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new round")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
	k.TiltDown.SetEnabled(simulated)
	k.TiltUp.SetEnabled(simulated)
	k.Manual.SetEnabled(false)
	return k
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Answer, k.Skip, k.TiltDown, k.TiltUp, k.Manual, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
