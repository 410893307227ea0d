package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	Raise        key.Binding
	Lower        key.Binding
	Reset        key.Binding
	Unacked      key.Binding
	More         key.Binding
	Open         key.Binding
	Copy         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "scroll down")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "scroll up")),
		Raise:        key.NewBinding(key.WithKeys("+", "l"), key.WithHelp("+/l", "raise threshold")),
		Lower:        key.NewBinding(key.WithKeys("-", "h"), key.WithHelp("-/h", "lower threshold")),
		Reset:        key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset threshold")),
		Unacked:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "load unacked")),
		More:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "load more")),
		Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open permalink")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy permalink")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
