package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"suggestbox/internal/autotag"
	"suggestbox/internal/config"
	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/logging"
	"suggestbox/internal/suggest"
)

const (
	title         = "suggestbox"
	statusTimeout = 4 * time.Second
)

// Model is the form hosting one Field per configured input
type Model struct {
	bus    eventbus.EventBus
	config *config.Config

	fields []*Field
	focus  int

	tagger   *autotag.Tagger
	tagField *Field
	tagging  bool
	spinner  spinner.Model

	width  int
	height int
	help   help.Model
	keys   KeyMap
	styles *Styles

	status    string
	statusErr bool
	statusID  int

	logger *log.Logger
}

// NewModel creates the form for cfg. Suggestions are fetched through
// transport; tagger may be nil when auto-tagging is not configured.
func NewModel(bus eventbus.EventBus, cfg *config.Config, transport suggest.Transport, tagger *autotag.Tagger) *Model {
	m := &Model{
		bus:     bus,
		config:  cfg,
		tagger:  tagger,
		spinner: spinner.New(spinner.WithSpinner(spinner.Moon)),
		help:    help.New(),
		keys:    DefaultKeyMap(),
		styles:  NewStyles(),
		logger:  logging.New("ui"),
	}

	ttl := cfg.Suggest.CacheTTLValue()
	for _, fc := range cfg.Fields {
		opts := []suggest.FetcherOption{suggest.WithBus(bus)}
		if ttl > 0 {
			opts = append(opts, suggest.WithCache(suggest.NewCache(ttl)))
		}
		fetcher := suggest.NewFetcher(fc.Name, transport, opts...)
		m.fields = append(m.fields, NewField(fc, fetcher, bus, m.styles, m.keys))
	}

	if tagger != nil {
		m.tagField = m.field(cfg.Autotag.Field)
	}

	return m
}

// Fields returns the form's fields in display order
func (m *Model) Fields() []*Field {
	return m.fields
}

// Focused returns the field holding focus
func (m *Model) Focused() *Field {
	if len(m.fields) == 0 {
		return nil
	}
	return m.fields[m.focus]
}

// Status returns the status line text
func (m *Model) Status() string {
	return m.status
}

// Init focuses the first field and starts auto-tagging a configured image
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if f := m.Focused(); f != nil {
		cmds = append(cmds, f.Focus())
	}
	if path := m.config.Autotag.Image; path != "" && m.tagger != nil {
		cmds = append(cmds, func() tea.Msg { return autotag.StartMsg{Path: path} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for _, f := range m.fields {
			f.SetWidth(msg.Width)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case debounceMsg:
		return m, m.routeTo(msg.field, msg)

	case blurTimeoutMsg:
		return m, m.routeTo(msg.field, msg)

	case suggest.ResultMsg:
		return m, m.routeTo(msg.Field, msg)

	case autotag.StartMsg:
		return m, m.startTagging(msg.Path)

	case autotag.ResultMsg:
		return m, m.finishTagging(msg)

	case spinner.TickMsg:
		if !m.tagging {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.tagField.SetIndicator(m.spinner.View())
		return m, cmd

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case helpPagerMsg:
		if msg.err != nil {
			m.logger.Error("help pager failed", "err", msg.err)
			return m, m.setStatus(fmt.Sprintf("help unavailable: %v", msg.err), true)
		}
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}

	if f := m.Focused(); f != nil {
		return m, f.UpdateInput(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		return showHelpInPager(NewHelpRenderer(m.keys).RenderHelpContent())

	case key.Matches(msg, m.keys.NextField):
		return m.setFocus((m.focus + 1) % len(m.fields))

	case key.Matches(msg, m.keys.PrevField):
		return m.setFocus((m.focus - 1 + len(m.fields)) % len(m.fields))
	}

	f := m.Focused()
	if f == nil {
		return nil
	}
	cmd, handled := f.HandleKey(msg)
	if !handled && key.Matches(msg, m.keys.Accept) {
		return m.submit(f)
	}
	return cmd
}

// handleMouse translates screen coordinates to field rows
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	tops := m.fieldTops()
	var cmds []tea.Cmd

	for i, f := range m.fields {
		row := msg.Y - tops[i]
		inside := row >= 0 && row < f.Height()
		item, onItem := f.ItemAt(row)

		switch msg.Action {
		case tea.MouseActionMotion:
			if inside && onItem {
				cmds = append(cmds, f.Hover(item))
			} else {
				cmds = append(cmds, f.Leave())
			}

		case tea.MouseActionPress:
			if msg.Button != tea.MouseButtonLeft || !inside {
				continue
			}
			if onItem {
				if i != m.focus {
					cmds = append(cmds, m.fields[m.focus].Blur())
					m.focus = i
				}
				cmds = append(cmds, f.Click(item))
			} else if row == 0 {
				cmds = append(cmds, m.setFocus(i))
			}
		}
	}
	return tea.Batch(cmds...)
}

// fieldTops returns the first screen row of each field as laid out by View
func (m *Model) fieldTops() []int {
	tops := make([]int, len(m.fields))
	row := lipgloss.Height(m.styles.Title.Render(title))
	for i, f := range m.fields {
		tops[i] = row
		row += f.Height() + 1
	}
	return tops
}

func (m *Model) setFocus(i int) tea.Cmd {
	if len(m.fields) == 0 || (i == m.focus && m.fields[i].Focused()) {
		return nil
	}
	blur := m.fields[m.focus].Blur()
	m.focus = i
	return tea.Batch(blur, m.fields[i].Focus())
}

func (m *Model) submit(f *Field) tea.Cmd {
	text := f.Value()
	f.closeMenu()
	m.logger.Info("field submitted", "field", f.Name(), "text", text)
	m.publish(domain.FieldSubmittedEvent{Field: f.Name(), Text: text})
	return m.setStatus(fmt.Sprintf("%s: %q", f.cfg.Label, text), false)
}

func (m *Model) routeTo(name string, msg tea.Msg) tea.Cmd {
	f := m.field(name)
	if f == nil {
		return nil
	}
	return f.Update(msg)
}

func (m *Model) startTagging(path string) tea.Cmd {
	if m.tagger == nil || m.tagField == nil {
		return nil
	}
	_, cmd := m.tagger.Start(path)
	m.tagField.SetIndicator(m.spinner.View())
	if m.tagging {
		return cmd
	}
	m.tagging = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) finishTagging(msg autotag.ResultMsg) tea.Cmd {
	if m.tagger == nil || !m.tagger.Current(msg.Seq) {
		return nil
	}
	m.tagging = false
	m.tagField.SetIndicator("")

	if msg.Err != nil {
		m.publish(domain.AutotagFailedEvent{Image: msg.Path, Err: msg.Err})
		return m.setStatus(fmt.Sprintf("auto-tagging failed: %v", msg.Err), true)
	}

	m.tagField.AppendTokens(msg.Tags)
	m.publish(domain.TagsProducedEvent{Field: m.tagField.Name(), Image: msg.Path, Tags: msg.Tags})
	if len(msg.Tags) == 0 {
		return m.setStatus("no tags found", false)
	}
	return m.setStatus("tagged: "+strings.Join(msg.Tags, ", "), false)
}

// handleEvent reflects events raised outside Update into the status line
func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch e := e.(type) {
	case domain.ConfigLoadedEvent:
		return m.setStatus(fmt.Sprintf("loaded %d fields from %s", len(e.Fields), e.Path), false)
	case domain.ConfigSavedEvent:
		return m.setStatus("config saved to "+e.Path, false)
	}
	return nil
}

func (m *Model) setStatus(s string, isErr bool) tea.Cmd {
	m.statusID++
	m.status = s
	m.statusErr = isErr
	id := m.statusID
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m *Model) field(name string) *Field {
	for _, f := range m.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (m *Model) publish(e domain.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// Close stops every field's timers and requests and any upload
func (m *Model) Close() {
	for _, f := range m.fields {
		f.Close()
	}
	if m.tagger != nil {
		m.tagger.Cancel()
	}
}

// View renders the form
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	for _, f := range m.fields {
		b.WriteString(f.View())
		b.WriteString("\n\n")
	}

	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.StatusError
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return b.String()
}
