package ui

import (
	"suggestbox/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// debounceMsg fires when a field's input has been quiet for its debounce delay
type debounceMsg struct {
	field string
	gen   uint64
}

// blurTimeoutMsg fires when a blurred field's grace delay has passed
type blurTimeoutMsg struct {
	field string
	gen   uint64
}

// helpPagerMsg contains the result of showing help in the pager
type helpPagerMsg struct {
	err error
}

// clearStatusMsg clears the status line if it still shows message id
type clearStatusMsg struct {
	id int
}
