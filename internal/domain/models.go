package domain

import "strings"

// Query is the exact text of a field at the moment a fetch is issued
type Query string

// String returns the raw query text
func (q Query) String() string {
	return string(q)
}

// SuggestionSet is an ordered list of suggestions in server rank order
type SuggestionSet struct {
	items []string
}

// NewSuggestionSet creates a set from the given items, copying the slice
func NewSuggestionSet(items []string) SuggestionSet {
	if len(items) == 0 {
		return SuggestionSet{}
	}
	cp := make([]string, len(items))
	copy(cp, items)
	return SuggestionSet{items: cp}
}

// Count returns the number of suggestions
func (s SuggestionSet) Count() int {
	return len(s.items)
}

// Empty reports whether the set has no suggestions (no menu is shown)
func (s SuggestionSet) Empty() bool {
	return len(s.items) == 0
}

// At returns the suggestion at index i
func (s SuggestionSet) At(i int) string {
	return s.items[i]
}

// Items returns a copy of the suggestions
func (s SuggestionSet) Items() []string {
	cp := make([]string, len(s.items))
	copy(cp, s.items)
	return cp
}

// AcceptMode decides how an accepted suggestion is written into a field
type AcceptMode string

const (
	// AcceptReplace replaces the whole field text with the suggestion
	AcceptReplace AcceptMode = "replace"
	// AcceptAppend completes the last token and adds a trailing separator
	AcceptAppend AcceptMode = "append"
)

// Valid reports whether the mode is known
func (m AcceptMode) Valid() bool {
	return m == AcceptReplace || m == AcceptAppend
}

// Apply returns the field text after accepting suggestion into text.
//
// In append mode the suggestion completes the trailing token: everything up
// to and including the last separator is kept unless the suggestion already
// carries that prefix itself.
func (m AcceptMode) Apply(text, suggestion, sep string) string {
	if m != AcceptAppend {
		return suggestion
	}
	if sep == "" {
		return suggestion
	}
	head := ""
	if i := strings.LastIndex(text, sep); i >= 0 {
		head = text[:i+len(sep)]
	}
	if strings.HasPrefix(suggestion, head) {
		return suggestion + sep
	}
	return head + suggestion + sep
}

// BlurPolicy decides when a blurred field drops its menu
type BlurPolicy string

const (
	// BlurDelay removes the menu after the grace delay
	BlurDelay BlurPolicy = "delay"
	// BlurHover keeps the menu while the pointer hovers over it
	BlurHover BlurPolicy = "hover"
)

// Valid reports whether the policy is known
func (p BlurPolicy) Valid() bool {
	return p == BlurDelay || p == BlurHover
}
