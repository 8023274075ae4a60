package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the board keybindings.
type keyMap struct {
	PrevSubject key.Binding
	NextSubject key.Binding
	Up          key.Binding
	Down        key.Binding
	Pending     key.Binding
	InProgress  key.Binding
	Completed   key.Binding
	Undo        key.Binding
	NewTask     key.Binding
	NewSubject  key.Binding
	Marks       key.Binding
	Settings    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevSubject: key.NewBinding(key.WithKeys("h", "left", "shift+tab"), key.WithHelp("h", "prev subject")),
		NextSubject: key.NewBinding(key.WithKeys("l", "right", "tab"), key.WithHelp("l", "next subject")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Pending:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "pending")),
		InProgress:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "in progress")),
		Completed:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Undo:        key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		NewTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		NewSubject:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "new subject")),
		Marks:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "marks")),
		Settings:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevSubject, k.NextSubject, k.Pending, k.InProgress, k.Completed, k.Undo, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevSubject, k.NextSubject, k.Up, k.Down},
		{k.Pending, k.InProgress, k.Completed, k.Undo},
		{k.NewTask, k.NewSubject, k.Marks, k.Settings},
		{k.Help, k.Quit},
	}
}
