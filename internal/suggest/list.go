package suggest

import "suggestbox/internal/domain"

// List holds the installed suggestion set and the active selection.
// The selection is always NoSelection or a valid index into the set.
type List struct {
	set domain.SuggestionSet
	sel Selection
}

// NewList creates an empty list with nothing selected
func NewList() *List {
	return &List{sel: NoSelection}
}

// Install replaces the suggestion set and resets the selection
func (l *List) Install(set domain.SuggestionSet) {
	l.set = set
	l.sel = NoSelection
}

// Clear drops the suggestion set
func (l *List) Clear() {
	l.Install(domain.SuggestionSet{})
}

// IsEmpty reports whether there is nothing to show
func (l *List) IsEmpty() bool {
	return l.set.Empty()
}

// Len returns the number of suggestions
func (l *List) Len() int {
	return l.set.Count()
}

// Get returns the suggestion at index i
func (l *List) Get(i int) string {
	return l.set.At(i)
}

// Items returns the suggestions in rank order
func (l *List) Items() []string {
	return l.set.Items()
}

// Selection returns the active selection
func (l *List) Selection() Selection {
	return l.sel
}

// Select sets the active selection. Out-of-range values become NoSelection.
func (l *List) Select(sel Selection) {
	if i, ok := sel.Index(); !ok || i >= l.set.Count() {
		l.sel = NoSelection
		return
	}
	l.sel = sel
}

// Move applies a directional step and returns the new selection
func (l *List) Move(dir Direction) Selection {
	l.Select(Navigate(l.sel, l.set.Count(), dir))
	return l.sel
}

// Selected returns the highlighted suggestion, if any
func (l *List) Selected() (string, bool) {
	i, ok := l.sel.Index()
	if !ok {
		return "", false
	}
	return l.set.At(i), true
}
