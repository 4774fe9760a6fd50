package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Open         key.Binding
	Edit         key.Binding
	Save         key.Binding
	Complete     key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Filter       key.Binding
	Sort         key.Binding
	ClearFilters key.Binding
	ResetLayout  key.Binding
	Close        key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("j/k", "navigate")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/k", "navigate")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Save:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Complete:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "mark complete")),
		NextPage:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("h/l", "page")),
		PrevPage:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/l", "page")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Sort:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		ClearFilters: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filters")),
		ResetLayout:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset layout")),
		Close:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) tableHelp() []key.Binding {
	return []key.Binding{k.Up, k.Open, k.Complete, k.Filter, k.Sort, k.NextPage, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Up, k.Edit, k.Save, k.Close, k.Quit}
}
