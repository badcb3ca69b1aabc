package tui

import "github.com/charmbracelet/bubbles/key"

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

// KeyMap mirrors the surface's action pads
type KeyMap struct {
	Record  key.Binding
	Overdub key.Binding
	Undo    key.Binding
	Redo    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Record:  Key("record/play", "r"),
		Overdub: Key("overdub", "o"),
		Undo:    Key("undo", "u"),
		Redo:    Key("redo", "y"),
		Help:    Key("more", "?"),
		Quit:    Key("quit", "q", "ctrl+c"),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Overdub, k.Undo, k.Redo, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Record, k.Overdub},
		{k.Undo, k.Redo},
		{k.Help, k.Quit},
	}
}
