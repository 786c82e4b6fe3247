package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"suggestbox/internal/autotag"
	"suggestbox/internal/config"
	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/suggest"
)

// fakeTransport answers from a fixed table and records every query
type fakeTransport struct {
	mu      sync.Mutex
	results map[string][]string
	queries []string
}

func newFakeTransport(results map[string][]string) *fakeTransport {
	return &fakeTransport{results: results}
}

func (t *fakeTransport) Fetch(_ context.Context, q domain.Query) (domain.SuggestionSet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries = append(t.queries, string(q))
	return domain.NewSuggestionSet(t.results[string(q)]), nil
}

func (t *fakeTransport) Queries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.queries...)
}

func (t *fakeTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries = nil
}

// recordingBus keeps published events in order
type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func (b *recordingBus) Publish(e eventbus.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe(eventbus.EventType, eventbus.EventHandler) func() {
	return func() {}
}

func (b *recordingBus) Close() {}

func (b *recordingBus) Events() []eventbus.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]eventbus.DomainEvent(nil), b.events...)
}

func testFieldConfig(name string, accept domain.AcceptMode, policy domain.BlurPolicy) config.FieldConfig {
	return config.FieldConfig{
		Name:       name,
		Label:      name,
		Accept:     accept,
		Separator:  " ",
		Debounce:   config.Duration(time.Millisecond),
		BlurPolicy: policy,
		BlurGrace:  config.Duration(time.Millisecond),
	}
}

func newTestField(t *testing.T, cfg config.FieldConfig, transport suggest.Transport, bus eventbus.EventBus) *Field {
	t.Helper()
	var opts []suggest.FetcherOption
	if bus != nil {
		opts = append(opts, suggest.WithBus(bus))
	}
	f := NewField(cfg, suggest.NewFetcher(cfg.Name, transport, opts...), bus, NewStyles(), DefaultKeyMap())
	t.Cleanup(f.Close)
	return f
}

// pump runs cmd and feeds every message accepted by route back through
// update until the program has been quiet for a moment. Cursor blinks,
// spinner ticks and status timers are dropped.
func pump(t *testing.T, update func(tea.Msg) tea.Cmd, cmd tea.Cmd) {
	t.Helper()

	msgs := make(chan tea.Msg, 256)
	pending := 0
	run := func(c tea.Cmd) {
		if c == nil {
			return
		}
		pending++
		go func() { msgs <- c() }()
	}
	run(cmd)

	deadline := time.After(5 * time.Second)
	for pending > 0 {
		select {
		case msg := <-msgs:
			pending--
			switch msg := msg.(type) {
			case tea.BatchMsg:
				for _, c := range msg {
					run(c)
				}
			case nil:
			default:
				if routed(msg) {
					run(update(msg))
				}
			}
		case <-time.After(150 * time.Millisecond):
			return
		case <-deadline:
			t.Fatal("commands did not settle")
		}
	}
}

func routed(msg tea.Msg) bool {
	switch msg.(type) {
	case debounceMsg, blurTimeoutMsg, suggest.ResultMsg, autotag.StartMsg, autotag.ResultMsg:
		return true
	}
	return false
}

func pumpField(t *testing.T, f *Field, cmd tea.Cmd) {
	t.Helper()
	pump(t, f.Update, cmd)
}

func pumpModel(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	pump(t, func(msg tea.Msg) tea.Cmd {
		_, next := m.Update(msg)
		return next
	}, cmd)
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func typeText(f *Field, s string) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range s {
		cmd, _ := f.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
