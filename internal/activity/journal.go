// Package activity keeps a journal of what happens in the form.
//
// The journal subscribes to every widget event on the bus. It writes an
// audit line per event to the log and keeps per-kind counters that are
// reported when the program exits.
package activity

import (
	"sync"

	"github.com/charmbracelet/log"

	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/logging"
)

// Stats counts journaled events by kind
type Stats struct {
	Queries   int
	Applied   int
	Stale     int
	Failed    int
	Accepted  int
	Submitted int
	Tagged    int
	TagErrors int
}

// Journal records widget events
type Journal struct {
	mu     sync.Mutex
	stats  Stats
	logger *log.Logger
}

// NewJournal creates an empty journal
func NewJournal() *Journal {
	return &Journal{logger: logging.New("activity")}
}

var journaled = []domain.EventType{
	domain.EventQueryIssued,
	domain.EventSuggestionsApplied,
	domain.EventSuggestionsStale,
	domain.EventFetchFailed,
	domain.EventSuggestionAccepted,
	domain.EventFieldSubmitted,
	domain.EventTagsProduced,
	domain.EventAutotagFailed,
}

// Attach subscribes the journal to bus and returns a function that detaches it
func (j *Journal) Attach(bus eventbus.EventBus) func() {
	unsubs := make([]func(), 0, len(journaled))
	for _, t := range journaled {
		unsubs = append(unsubs, bus.Subscribe(t, j.Record))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Record journals a single event
func (j *Journal) Record(e eventbus.DomainEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch e := e.(type) {
	case domain.QueryIssuedEvent:
		j.stats.Queries++
		j.logger.Debug("query issued", "field", e.Field, "text", e.Query.String(), "seq", e.Seq)
	case domain.SuggestionsAppliedEvent:
		j.stats.Applied++
		j.logger.Debug("suggestions applied", "field", e.Field, "text", e.Query.String(), "count", e.Count)
	case domain.SuggestionsStaleEvent:
		j.stats.Stale++
		j.logger.Debug("stale suggestions dropped", "field", e.Field, "text", e.Query.String(), "seq", e.Seq)
	case domain.FetchFailedEvent:
		j.stats.Failed++
		j.logger.Warn("fetch failed", "field", e.Field, "text", e.Query.String(), "err", e.Err)
	case domain.SuggestionAcceptedEvent:
		j.stats.Accepted++
		j.logger.Info("suggestion accepted", "field", e.Field, "suggestion", e.Suggestion, "mode", e.Mode, "text", e.Text)
	case domain.FieldSubmittedEvent:
		j.stats.Submitted++
		j.logger.Info("field submitted", "field", e.Field, "text", e.Text)
	case domain.TagsProducedEvent:
		j.stats.Tagged++
		j.logger.Info("tags produced", "field", e.Field, "image", e.Image, "tags", e.Tags)
	case domain.AutotagFailedEvent:
		j.stats.TagErrors++
		j.logger.Warn("auto-tag failed", "image", e.Image, "err", e.Err)
	}
}

// Stats returns a snapshot of the counters
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats
}

// Summarize logs the counters collected so far
func (j *Journal) Summarize() {
	s := j.Stats()
	j.logger.Info("session summary",
		"queries", s.Queries,
		"applied", s.Applied,
		"stale", s.Stale,
		"failed", s.Failed,
		"accepted", s.Accepted,
		"submitted", s.Submitted,
		"tagged", s.Tagged,
		"tag_errors", s.TagErrors,
	)
}
