package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the sync view
type KeyMap struct {
	Stop key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("s", "esc"),
			key.WithHelp("s", "stop sync"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "stop and quit"),
		),
	}
}
