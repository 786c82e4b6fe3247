package suggest

// Selection is an index into the current suggestion set, or NoSelection
type Selection int

// NoSelection means no suggestion is highlighted
const NoSelection Selection = -1

// Index returns the selected index and whether anything is selected
func (s Selection) Index() (int, bool) {
	if s < 0 {
		return 0, false
	}
	return int(s), true
}

// Direction is a relative navigation step
type Direction int

const (
	DirectionNext Direction = iota
	DirectionPrevious
)

// Navigate applies one directional step to sel over a set of n suggestions
func Navigate(sel Selection, n int, dir Direction) Selection {
	switch dir {
	case DirectionNext:
		return Next(sel, n)
	case DirectionPrevious:
		return Previous(sel, n)
	default:
		return sel
	}
}

// Next moves down one item. Past the last item it wraps to NoSelection,
// and from NoSelection it goes to the first item.
func Next(sel Selection, n int) Selection {
	if n <= 0 {
		return sel
	}
	i, ok := sel.Index()
	switch {
	case !ok:
		return 0
	case i >= n-1:
		return NoSelection
	default:
		return Selection(i + 1)
	}
}

// Previous moves up one item. Before the first item it wraps to NoSelection,
// and from NoSelection it goes to the last item.
func Previous(sel Selection, n int) Selection {
	if n <= 0 {
		return sel
	}
	i, ok := sel.Index()
	switch {
	case !ok:
		return Selection(n - 1)
	case i == 0:
		return NoSelection
	case i > n-1:
		// Out of range after a shrink; the last item is the closest valid step
		return Selection(n - 1)
	default:
		return Selection(i - 1)
	}
}

// Hover jumps straight to item i, ignoring the current selection
func Hover(i, n int) Selection {
	if i < 0 || i >= n {
		return NoSelection
	}
	return Selection(i)
}
