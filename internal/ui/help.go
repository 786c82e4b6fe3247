package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
)

// KeyMap defines the form's key bindings
type KeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Accept    key.Binding
	Close     key.Binding
	NextField key.Binding
	PrevField key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next suggestion"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous suggestion"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept / submit"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close suggestions"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Accept, k.NextField, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Accept, k.Close},
		{k.NextField, k.PrevField, k.Help, k.Quit},
	}
}

// HelpRenderer handles help content rendering
type HelpRenderer struct {
	keys KeyMap
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer(keys KeyMap) *HelpRenderer {
	return &HelpRenderer{keys: keys}
}

// RenderHelpContent generates help content with colors for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	line := func(b key.Binding) string {
		h := b.Help()
		return fmt.Sprintf("  %s %s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc))
	}

	var help strings.Builder

	help.WriteString(titleStyle.Render("suggestbox help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Suggestions"))
	help.WriteString("\n")
	help.WriteString(line(r.keys.Next))
	help.WriteString(line(r.keys.Prev))
	help.WriteString(line(r.keys.Accept))
	help.WriteString(line(r.keys.Close))
	help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render("click"), descStyle.Render("accept a suggestion")))
	help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render("hover"), descStyle.Render("highlight a suggestion")))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Form"))
	help.WriteString("\n")
	help.WriteString(line(r.keys.NextField))
	help.WriteString(line(r.keys.PrevField))
	help.WriteString(line(r.keys.Help))
	help.WriteString(line(r.keys.Quit))
	help.WriteString("\n")

	noteStyle := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	help.WriteString(noteStyle.Render("  Append fields complete the last word and add a separator;"))
	help.WriteString("\n")
	help.WriteString(noteStyle.Render("  replace fields take the suggestion as their whole value."))
	help.WriteString("\n")

	return help.String()
}

// pagerCommand runs content in the ov pager as a tea.ExecCommand
type pagerCommand struct {
	content string
}

func (p *pagerCommand) Run() error {
	root, err := oviewer.NewRoot(strings.NewReader(p.content))
	if err != nil {
		return err
	}

	// Do not write the pager screen back on exit; the form redraws itself
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// ov opens the terminal itself
func (p *pagerCommand) SetStdin(io.Reader)  {}
func (p *pagerCommand) SetStdout(io.Writer) {}
func (p *pagerCommand) SetStderr(io.Writer) {}

// showHelpInPager returns a command that shows help using the ov pager
func showHelpInPager(content string) tea.Cmd {
	return tea.Exec(&pagerCommand{content: content}, func(err error) tea.Msg {
		return helpPagerMsg{err: err}
	})
}
