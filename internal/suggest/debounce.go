package suggest

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Debouncer coalesces bursts of triggers so only the latest one fires.
// It is not safe for concurrent use; call it from Update only.
type Debouncer struct {
	gen   uint64
	timer *time.Timer
	stop  chan struct{}
}

// Schedule cancels any pending trigger and returns a command that yields
// msg(gen) once delay has passed without another Schedule or Stop.
// A cancelled command returns no message.
func (d *Debouncer) Schedule(delay time.Duration, msg func(gen uint64) tea.Msg) tea.Cmd {
	d.Stop()

	d.gen++
	gen := d.gen
	timer := time.NewTimer(delay)
	stop := make(chan struct{})
	d.timer = timer
	d.stop = stop

	return func() tea.Msg {
		select {
		case <-timer.C:
			return msg(gen)
		case <-stop:
			return nil
		}
	}
}

// Stop cancels the pending trigger, if any
func (d *Debouncer) Stop() {
	if d.stop == nil {
		return
	}
	d.timer.Stop()
	close(d.stop)
	d.timer = nil
	d.stop = nil
}

// Pending reports whether a trigger is scheduled and has not been consumed
func (d *Debouncer) Pending() bool {
	return d.stop != nil
}

// Due reports whether a fired trigger with generation gen is the latest
// pending one, and consumes it.
func (d *Debouncer) Due(gen uint64) bool {
	if d.stop == nil || gen != d.gen {
		return false
	}
	d.timer = nil
	d.stop = nil
	return true
}
