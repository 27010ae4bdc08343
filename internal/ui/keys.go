package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists every binding the viewer reacts to.
type KeyMap struct {
	Quit  key.Binding
	Trail key.Binding
	Panel key.Binding
	Clear key.Binding
	Up    key.Binding
	Down  key.Binding
	Home  key.Binding
	End   key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Trail, k.Panel, k.Clear}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Trail, k.Panel, k.Clear},
		{k.Up, k.Down, k.Home, k.End},
	}
}

var Keys = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "Q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Trail: key.NewBinding(
		key.WithKeys("t", "T"),
		key.WithHelp("t", "trail"),
	),
	Panel: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "beacons/history"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c", "C"),
		key.WithHelp("c", "clear history"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "bottom"),
	),
}
