package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQueryIssued        EventType = "QueryIssued"
	EventSuggestionsApplied EventType = "SuggestionsApplied"
	EventSuggestionsStale   EventType = "SuggestionsStale"
	EventFetchFailed        EventType = "FetchFailed"
	EventSuggestionAccepted EventType = "SuggestionAccepted"
	EventFieldSubmitted     EventType = "FieldSubmitted"
	EventTagsProduced       EventType = "TagsProduced"
	EventAutotagFailed      EventType = "AutotagFailed"
	EventConfigLoaded       EventType = "ConfigLoaded"
	EventConfigSaved        EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QueryIssuedEvent is emitted when a field sends a query to the endpoint
type QueryIssuedEvent struct {
	Field string
	Query Query
	Seq   uint64
}

func (e QueryIssuedEvent) Type() EventType { return EventQueryIssued }

// SuggestionsAppliedEvent is emitted when the latest response is installed
type SuggestionsAppliedEvent struct {
	Field string
	Query Query
	Count int
}

func (e SuggestionsAppliedEvent) Type() EventType { return EventSuggestionsApplied }

// SuggestionsStaleEvent is emitted when a superseded response is discarded
type SuggestionsStaleEvent struct {
	Field string
	Query Query
	Seq   uint64
}

func (e SuggestionsStaleEvent) Type() EventType { return EventSuggestionsStale }

// FetchFailedEvent is emitted when a fetch degrades to an empty set
type FetchFailedEvent struct {
	Field string
	Query Query
	Err   error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// SuggestionAcceptedEvent is emitted when a suggestion is committed into a field
type SuggestionAcceptedEvent struct {
	Field      string
	Suggestion string
	Text       string // field text after accepting
	Mode       AcceptMode
}

func (e SuggestionAcceptedEvent) Type() EventType { return EventSuggestionAccepted }

// FieldSubmittedEvent is emitted when the user submits a field's text
type FieldSubmittedEvent struct {
	Field string
	Text  string
}

func (e FieldSubmittedEvent) Type() EventType { return EventFieldSubmitted }

// TagsProducedEvent is emitted when the auto-tagger returns tags for an image
type TagsProducedEvent struct {
	Field string
	Image string
	Tags  []string
}

func (e TagsProducedEvent) Type() EventType { return EventTagsProduced }

// AutotagFailedEvent is emitted when an image upload fails
type AutotagFailedEvent struct {
	Image string
	Err   error
}

func (e AutotagFailedEvent) Type() EventType { return EventAutotagFailed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path   string
	Fields []string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
