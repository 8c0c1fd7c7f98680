package daemon

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"
)

// GlibTimer schedules one-shot callbacks on the GLib main loop.
type GlibTimer struct{}

// After runs fn on the main loop once d has elapsed. The returned
// function removes the source if it has not fired.
func (GlibTimer) After(d time.Duration, fn func()) func() {
	fired := false
	handle := glib.TimeoutAdd(uint(d.Milliseconds()), func() bool {
		fired = true
		fn()
		return false
	})

	return func() {
		if fired {
			return
		}
		fired = true
		glib.SourceRemove(handle)
	}
}

// Dispatch queues fn on the main loop. It is safe to call from any goroutine.
func Dispatch(fn func()) {
	glib.IdleAdd(fn)
}
