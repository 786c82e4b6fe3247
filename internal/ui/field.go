package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"suggestbox/internal/config"
	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/logging"
	"suggestbox/internal/suggest"
)

// inputWidth is the input's width when the terminal leaves room for it
const inputWidth = 48

// Field binds one text input to its suggestion state. It owns the baseline
// text, the suggestion list with its selection, the debounce and blur
// timers and the fetcher, and keeps the input text in step with the
// highlighted suggestion.
//
// All methods must be called from the program's Update.
type Field struct {
	cfg     config.FieldConfig
	input   textinput.Model
	list    *suggest.List
	fetcher *suggest.Fetcher

	debounce  suggest.Debouncer
	blurTimer suggest.Debouncer

	baseline  string
	hovering  bool
	indicator string
	width     int

	bus    eventbus.EventBus
	styles *Styles
	keys   KeyMap
	logger *log.Logger
}

// NewField creates a field for cfg that fetches through fetcher
func NewField(cfg config.FieldConfig, fetcher *suggest.Fetcher, bus eventbus.EventBus, styles *Styles, keys KeyMap) *Field {
	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = inputWidth

	return &Field{
		cfg:     cfg,
		input:   ti,
		list:    suggest.NewList(),
		fetcher: fetcher,
		bus:     bus,
		styles:  styles,
		keys:    keys,
		logger:  logging.New("field").With("field", cfg.Name),
	}
}

// Name returns the configured field name
func (f *Field) Name() string {
	return f.cfg.Name
}

// Value returns the current input text
func (f *Field) Value() string {
	return f.input.Value()
}

// Baseline returns the text last typed or accepted by the user
func (f *Field) Baseline() string {
	return f.baseline
}

// Selection returns the active suggestion selection
func (f *Field) Selection() suggest.Selection {
	return f.list.Selection()
}

// Suggestions returns the installed suggestions
func (f *Field) Suggestions() []string {
	return f.list.Items()
}

// Mounted reports whether the suggestion menu is shown
func (f *Field) Mounted() bool {
	return !f.list.IsEmpty()
}

// HasSelection reports whether a suggestion is highlighted
func (f *Field) HasSelection() bool {
	_, ok := f.list.Selected()
	return ok
}

// Focused reports whether the input has focus
func (f *Field) Focused() bool {
	return f.input.Focused()
}

// SetValue replaces the text as if the user had typed it, without fetching
func (f *Field) SetValue(s string) {
	f.setText(s)
	f.baseline = s
	f.list.Select(suggest.NoSelection)
}

// SetIndicator sets the glyph shown after the label
func (f *Field) SetIndicator(s string) {
	f.indicator = s
	f.fitInput()
}

// SetWidth fits the field to a terminal w columns wide. Every row View
// renders stays on one screen line, so Height matches what is drawn.
func (f *Field) SetWidth(w int) {
	f.width = w
	f.fitInput()
}

// Focus focuses the input and fetches suggestions for its current value
func (f *Field) Focus() tea.Cmd {
	f.blurTimer.Stop()
	cmd := f.input.Focus()
	f.input.CursorEnd()
	return tea.Batch(cmd, f.fetch())
}

// Blur releases focus and schedules removal of the menu after the grace delay
func (f *Field) Blur() tea.Cmd {
	f.input.Blur()
	f.debounce.Stop()
	return f.scheduleRemoval()
}

// HandleKey processes a key press for the focused field. It reports whether
// the key was consumed; unconsumed keys are left to the form.
func (f *Field) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, f.keys.Next):
		if !f.Mounted() {
			return nil, false
		}
		f.list.Move(suggest.DirectionNext)
		f.sync()
		return nil, true

	case key.Matches(msg, f.keys.Prev):
		if !f.Mounted() {
			return nil, false
		}
		f.list.Move(suggest.DirectionPrevious)
		f.sync()
		return nil, true

	case key.Matches(msg, f.keys.Accept):
		s, ok := f.list.Selected()
		if !ok {
			return nil, false
		}
		return f.accept(s), true

	case key.Matches(msg, f.keys.Close):
		if !f.Mounted() {
			return nil, false
		}
		f.setText(f.baseline)
		f.closeMenu()
		return nil, true
	}

	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() == before {
		return cmd, true
	}
	return tea.Batch(cmd, f.edited()), true
}

// UpdateInput forwards non-key messages, such as cursor blinks, to the input
func (f *Field) UpdateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

// Update handles the field's own timer and fetch messages
func (f *Field) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounceMsg:
		if !f.debounce.Due(msg.gen) {
			return nil
		}
		return f.fetch()

	case blurTimeoutMsg:
		if !f.blurTimer.Due(msg.gen) {
			return nil
		}
		if f.cfg.BlurPolicy == domain.BlurHover && f.hovering {
			f.logger.Debug("menu hovered, keeping it open")
			return nil
		}
		f.closeMenu()

	case suggest.ResultMsg:
		f.apply(msg)
	}
	return nil
}

// ItemAt maps a row of the field's view to a suggestion index
func (f *Field) ItemAt(row int) (int, bool) {
	i := row - 1
	if !f.Mounted() || i < 0 || i >= f.list.Len() {
		return 0, false
	}
	return i, true
}

// Click accepts suggestion i, focuses the input and fetches again
func (f *Field) Click(i int) tea.Cmd {
	if i < 0 || i >= f.list.Len() {
		return nil
	}
	f.blurTimer.Stop()
	cmd := f.input.Focus()
	return tea.Batch(cmd, f.accept(f.list.Get(i)))
}

// Hover highlights suggestion i directly. An index outside the menu
// counts as leaving it.
func (f *Field) Hover(i int) tea.Cmd {
	sel := suggest.Hover(i, f.list.Len())
	if _, ok := sel.Index(); !ok {
		return f.Leave()
	}
	f.hovering = true
	if sel != f.list.Selection() {
		f.list.Select(sel)
		f.sync()
	}
	return nil
}

// Leave records that the pointer is no longer over the menu. A blurred
// field whose removal was suppressed by hovering schedules it again.
func (f *Field) Leave() tea.Cmd {
	if !f.hovering {
		return nil
	}
	f.hovering = false
	if f.cfg.BlurPolicy != domain.BlurHover || f.input.Focused() || !f.Mounted() || f.blurTimer.Pending() {
		return nil
	}
	return f.scheduleRemoval()
}

// AppendTokens appends externally produced tokens to the text
func (f *Field) AppendTokens(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	sep := f.cfg.Separator
	text := f.input.Value()
	if text != "" && !strings.HasSuffix(text, sep) {
		text += sep
	}
	f.SetValue(text + strings.Join(tokens, sep))
}

// Close cancels timers and in-flight requests
func (f *Field) Close() {
	f.debounce.Stop()
	f.blurTimer.Stop()
	f.fetcher.Close()
}

// Height returns the number of rows View renders
func (f *Field) Height() int {
	return 1 + f.list.Len()
}

// View renders the input line and, when mounted, the menu
func (f *Field) View() string {
	labelStyle := f.styles.Label
	if f.input.Focused() {
		labelStyle = f.styles.LabelFocused
	}
	clamp := lipgloss.NewStyle()
	if f.width > 0 {
		clamp = clamp.MaxWidth(f.width)
	}
	line := clamp.Render(f.label(labelStyle) + f.input.View())

	if !f.Mounted() {
		return line
	}

	rows := make([]string, 0, f.list.Len()+1)
	rows = append(rows, line)
	itemStyle := f.styles.MenuItem
	if !f.input.Focused() {
		// Blurred menus linger only for the grace delay or while hovered
		itemStyle = itemStyle.Inherit(f.styles.Dim)
	}
	sel, hasSel := f.list.Selection().Index()
	for i, item := range f.list.Items() {
		if hasSel && i == sel {
			rows = append(rows, clamp.Render(f.styles.MenuSelected.Render(item)))
			continue
		}
		rows = append(rows, clamp.Render(itemStyle.Render(item)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f *Field) label(style lipgloss.Style) string {
	if f.indicator == "" {
		return style.Render(f.cfg.Label+":") + " "
	}
	return style.Render(f.cfg.Label) + f.styles.Indicator.Render(" "+f.indicator) + style.Render(":") + " "
}

// fitInput narrows the input so the label line fits the terminal; one
// column is left for the cursor
func (f *Field) fitInput() {
	if f.width <= 0 {
		f.input.Width = inputWidth
		return
	}
	w := f.width - lipgloss.Width(f.label(f.styles.Label)) - 1
	f.input.Width = max(1, min(inputWidth, w))
}

func (f *Field) fetch() tea.Cmd {
	_, cmd := f.fetcher.Fetch(domain.Query(f.input.Value()))
	return cmd
}

// edited runs after the user changed the text
func (f *Field) edited() tea.Cmd {
	f.list.Select(suggest.NoSelection)
	f.baseline = f.input.Value()
	name := f.cfg.Name
	return f.debounce.Schedule(f.cfg.Debounce.Std(), func(gen uint64) tea.Msg {
		return debounceMsg{field: name, gen: gen}
	})
}

func (f *Field) scheduleRemoval() tea.Cmd {
	name := f.cfg.Name
	return f.blurTimer.Schedule(f.cfg.BlurGrace.Std(), func(gen uint64) tea.Msg {
		return blurTimeoutMsg{field: name, gen: gen}
	})
}

func (f *Field) accept(s string) tea.Cmd {
	text := f.cfg.Accept.Apply(f.baseline, s, f.cfg.Separator)
	f.SetValue(text)
	f.debounce.Stop()
	if f.bus != nil {
		f.bus.Publish(domain.SuggestionAcceptedEvent{
			Field:      f.cfg.Name,
			Suggestion: s,
			Text:       text,
			Mode:       f.cfg.Accept,
		})
	}
	return f.fetch()
}

func (f *Field) apply(msg suggest.ResultMsg) {
	if !f.fetcher.Current(msg.Seq) {
		f.logger.Debug("dropping stale suggestions", "q", msg.Query, "seq", msg.Seq)
		if f.bus != nil {
			f.bus.Publish(domain.SuggestionsStaleEvent{Field: f.cfg.Name, Query: msg.Query, Seq: msg.Seq})
		}
		return
	}

	hadSelection := f.HasSelection()
	f.list.Install(msg.Set)
	if hadSelection {
		f.sync()
	}
	if f.list.IsEmpty() {
		f.hovering = false
	}
	if f.bus != nil {
		f.bus.Publish(domain.SuggestionsAppliedEvent{Field: f.cfg.Name, Query: msg.Query, Count: msg.Set.Count()})
	}
}

// closeMenu removes the menu. The visible text stays as it is; the
// baseline only moves on typing or acceptance.
func (f *Field) closeMenu() {
	f.debounce.Stop()
	f.blurTimer.Stop()
	f.fetcher.Cancel()
	f.list.Clear()
	f.hovering = false
}

// sync writes the highlighted suggestion, or the baseline, into the input
func (f *Field) sync() {
	s, ok := f.list.Selected()
	if !ok {
		f.setText(f.baseline)
		return
	}
	f.setText(f.cfg.Accept.Apply(f.baseline, s, f.cfg.Separator))
}

func (f *Field) setText(s string) {
	f.input.SetValue(s)
	f.input.CursorEnd()
}
