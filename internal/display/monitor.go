package display

import (
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
)

// singleConnector returns the connector name of the only monitor on
// display. It reports false when there is no display or when zero or
// several monitors are connected.
func singleConnector(display *gdk.Display) (string, bool) {
	if display == nil {
		return "", false
	}

	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() != 1 {
		return "", false
	}

	monitor := wrapMonitor(monitors.Item(0))
	if monitor == nil {
		return "", false
	}

	connector := monitor.Connector()
	return connector, connector != ""
}

// monitorCount returns how many monitors display knows about.
func monitorCount(display *gdk.Display) uint {
	if display == nil {
		return 0
	}
	monitors := display.Monitors()
	if monitors == nil {
		return 0
	}
	return monitors.NItems()
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// gotk4 does not export its own wrapMonitor.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor embeds a *glib.Object, so a struct with the same
	// layout can be reinterpreted as one.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
