package suggest

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/logging"
)

// ResultMsg carries the outcome of one fetch. Failed fetches arrive with an
// empty set; the error has already been logged and published.
type ResultMsg struct {
	Field string
	Seq   uint64
	Query domain.Query
	Set   domain.SuggestionSet
}

// Fetcher issues suggestion requests for one field. Each Fetch supersedes
// the previous one: its context is cancelled and its sequence number stops
// being current, so a late response can be recognised and dropped.
//
// Fetch, Current and Cancel must be called from Update only; the returned
// commands may run concurrently.
type Fetcher struct {
	field     string
	transport Transport
	cache     *Cache
	bus       eventbus.EventBus
	logger    *log.Logger

	seq    uint64
	cancel context.CancelFunc
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithCache serves repeated queries from c
func WithCache(c *Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// WithBus publishes fetch events on bus
func WithBus(bus eventbus.EventBus) FetcherOption {
	return func(f *Fetcher) { f.bus = bus }
}

// NewFetcher creates a fetcher for the named field
func NewFetcher(field string, transport Transport, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		field:     field,
		transport: transport,
		logger:    logging.New("fetch").With("field", field),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch starts a request for q and returns its sequence number and the
// command that performs it.
func (f *Fetcher) Fetch(q domain.Query) (uint64, tea.Cmd) {
	f.Cancel()
	seq := f.seq

	if f.cache != nil {
		if set, ok := f.cache.Get(q); ok {
			f.logger.Debug("cache hit", "q", q, "seq", seq)
			return seq, func() tea.Msg {
				return ResultMsg{Field: f.field, Seq: seq, Query: q, Set: set}
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.publish(domain.QueryIssuedEvent{Field: f.field, Query: q, Seq: seq})

	return seq, func() tea.Msg {
		defer cancel()

		set, err := f.transport.Fetch(ctx, q)
		switch {
		case err == nil:
			if f.cache != nil {
				f.cache.Set(q, set)
			}
		case errors.Is(err, context.Canceled):
			f.logger.Debug("request superseded", "q", q, "seq", seq)
			set = domain.SuggestionSet{}
		default:
			f.logger.Warn("fetch failed, showing no suggestions", "q", q, "seq", seq, "err", err)
			f.publish(domain.FetchFailedEvent{Field: f.field, Query: q, Err: err})
			set = domain.SuggestionSet{}
		}

		return ResultMsg{Field: f.field, Seq: seq, Query: q, Set: set}
	}
}

// Current reports whether seq belongs to the latest issued fetch
func (f *Fetcher) Current(seq uint64) bool {
	return seq == f.seq
}

// Cancel aborts the in-flight request and invalidates its result
func (f *Fetcher) Cancel() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
}

// Close releases the fetcher's resources
func (f *Fetcher) Close() {
	f.Cancel()
	if f.cache != nil {
		f.cache.Close()
	}
}

func (f *Fetcher) publish(e domain.DomainEvent) {
	if f.bus != nil {
		f.bus.Publish(e)
	}
}
