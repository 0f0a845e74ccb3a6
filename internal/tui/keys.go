package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up           key.Binding
	Down         key.Binding
	PrevCategory key.Binding
	NextCategory key.Binding
	Home         key.Binding
	End          key.Binding

	// Actions
	Open       key.Binding
	Reload     key.Binding
	ClearCache key.Binding
	ClearAll   key.Binding
	Metrics    key.Binding
	Filter     key.Binding
	Jump       key.Binding
	Help       key.Binding
	Escape     key.Binding
	Quit       key.Binding
}

// Keys is the active key map
var Keys = DefaultKeyMap()

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		PrevCategory: key.NewBinding(
			key.WithKeys("h", "left", "shift+tab"),
			key.WithHelp("h/←", "prev category"),
		),
		NextCategory: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("l/→", "next category"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter", "open article"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear category cache"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all caches"),
		),
		Metrics: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "cache metrics"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Jump: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "jump to category"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns bindings for the footer (implements help.KeyMap)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextCategory, k.Open, k.Reload, k.Filter, k.Help, k.Quit}
}

// FullHelp returns bindings for the help screen (implements help.KeyMap)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.PrevCategory, k.NextCategory},
		{k.Open, k.Reload, k.ClearCache, k.ClearAll, k.Metrics},
		{k.Filter, k.Jump, k.Escape, k.Help, k.Quit},
	}
}
