package viz

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the live view bindings.
type KeyMap struct {
	Pause key.Binding
	Reset key.Binding
	Next  key.Binding
	Up    key.Binding
	Down  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Pause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset state and parameters")),
		Next:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "select next parameter")),
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "increase parameter (+5%)")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "decrease parameter (-5%)")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Reset, k.Up, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Reset, k.Next},
		{k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
