package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding

	// Home
	EditPath    key.Binding
	Sample      key.Binding
	Live        key.Binding
	Diagnostics key.Binding
	Open        key.Binding

	// Live
	Capture key.Binding

	// Diagnostics
	CheckHealth key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		EditPath: key.NewBinding(
			key.WithKeys("/", "i"),
			key.WithHelp("/", "Enter image path"),
		),
		Sample: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "Open sample"),
		),
		Live: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Live detection"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Diagnostics"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open / confirm"),
		),

		Capture: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Capture frame"),
		),

		CheckHealth: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Check health"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),
	}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.EditPath, k.Sample, k.Live, k.Diagnostics, k.Open},
		{k.Capture},
		{k.CheckHealth},
		{k.Up, k.Down, k.HalfPageDown, k.HalfPageUp},
		{k.CycleTheme, k.Help, k.Back, k.Quit},
	}
}
