package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the form
type Styles struct {
	Title        lipgloss.Style
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Indicator    lipgloss.Style
	MenuItem     lipgloss.Style
	MenuSelected lipgloss.Style
	Status       lipgloss.Style
	StatusError  lipgloss.Style
	Help         lipgloss.Style
	Dim          lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		LabelFocused: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // yellow
		Indicator:    lipgloss.NewStyle().Foreground(lipgloss.Color("51")),             // cyan
		MenuItem: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2),
		MenuSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("238")).
			Bold(true).
			PaddingLeft(2),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Help:        lipgloss.NewStyle().Faint(true),
		Dim:         lipgloss.NewStyle().Faint(true),
	}
}
