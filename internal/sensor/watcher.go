package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sensorproxy "github.com/arnarg/go-iio-sensor-proxy"
	"github.com/godbus/dbus/v5"
)

const (
	// BusName is the well-known name of iio-sensor-proxy.
	BusName = "net.hadess.SensorProxy"
	// ObjectPath is the sensor proxy object path.
	ObjectPath = dbus.ObjectPath("/net/hadess/SensorProxy")
	// Interface is the sensor proxy interface name.
	Interface = "net.hadess.SensorProxy"
	// OrientationProperty is the property carrying the accelerometer orientation.
	OrientationProperty = "AccelerometerOrientation"

	nameOwnerChanged   = "org.freedesktop.DBus.NameOwnerChanged"
	propertiesChanged  = "org.freedesktop.DBus.Properties.PropertiesChanged"
	propertiesIface    = "org.freedesktop.DBus.Properties"
	busDaemonInterface = "org.freedesktop.DBus"
)

// Accelerometer is the part of the sensor proxy the watcher drives.
type Accelerometer interface {
	HasAccelerometer() (bool, error)
	ClaimAccelerometer() error
	ReleaseAccelerometer() error
}

// Options configures a Watcher.
type Options struct {
	// RequireAccelerometer keeps the watcher idle when the proxy reports
	// no accelerometer.
	RequireAccelerometer bool

	// Dispatch runs callbacks on the caller's main loop. Defaults to
	// calling them directly on the signal goroutine.
	Dispatch func(func())
}

// Watcher follows the sensor proxy's presence and orientation.
type Watcher struct {
	logger *slog.Logger
	opts   Options

	conn     *dbus.Conn
	signalCh chan *dbus.Signal

	// Seams for tests; set from conn in Start.
	newProxy        func() (Accelerometer, error)
	readOrientation func() (string, error)

	// Callbacks
	onAppeared    func()
	onVanished    func()
	onOrientation func(orientation string)

	mu          sync.RWMutex
	proxy       Accelerometer
	present     bool
	claimed     bool
	orientation string
	hasValue    bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher creates a Watcher. Nothing touches the bus until Start.
func NewWatcher(opts Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(f func()) { f() }
	}
	return &Watcher{
		logger: logger,
		opts:   opts,
	}
}

// OnAppeared sets the callback for the sensor proxy appearing on the bus.
func (w *Watcher) OnAppeared(cb func()) {
	w.onAppeared = cb
}

// OnVanished sets the callback for the sensor proxy leaving the bus.
func (w *Watcher) OnVanished(cb func()) {
	w.onVanished = cb
}

// OnOrientation sets the callback for orientation readings. It fires once
// when the proxy appears and again for each property change.
func (w *Watcher) OnOrientation(cb func(orientation string)) {
	w.onOrientation = cb
}

// Start connects to the system bus and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	w.conn = conn

	if w.newProxy == nil {
		w.newProxy = func() (Accelerometer, error) {
			proxy, err := sensorproxy.NewSensorProxyFromBus(conn)
			if err != nil {
				return nil, err
			}
			return proxy, nil
		}
	}
	if w.readOrientation == nil {
		w.readOrientation = func() (string, error) {
			return readOrientationProperty(conn)
		}
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(busDaemonInterface),
		dbus.WithMatchInterface(busDaemonInterface),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, BusName),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to watch bus name: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to watch sensor properties: %w", err)
	}

	w.signalCh = make(chan *dbus.Signal, 10)
	conn.Signal(w.signalCh)

	var hasOwner bool
	if err := conn.BusObject().Call(busDaemonInterface+".NameHasOwner", 0, BusName).Store(&hasOwner); err != nil {
		w.logger.Warn("failed to query sensor proxy owner", "error", err)
	}
	if !hasOwner {
		w.logger.Info("waiting for sensor proxy", "bus_name", BusName)
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.signalLoop(ctx, hasOwner)

	return nil
}

// Stop releases the accelerometer and disconnects.
func (w *Watcher) Stop() {
	if w.conn == nil {
		return
	}

	close(w.stopCh)
	w.conn.RemoveSignal(w.signalCh)
	<-w.doneCh
	w.release()

	if err := w.conn.Close(); err != nil {
		w.logger.Debug("failed to close system bus", "error", err)
	}
	w.conn = nil
	w.logger.Debug("sensor watcher stopped")
}

// Present reports whether the sensor proxy is currently on the bus.
func (w *Watcher) Present() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.present
}

// Orientation returns the last orientation reported by the proxy.
func (w *Watcher) Orientation() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.present || !w.hasValue {
		return "", false
	}
	return w.orientation, true
}

// signalLoop handles bus signals until stopped. An owner present at
// start is handled here first so appearances never run concurrently.
func (w *Watcher) signalLoop(ctx context.Context, hasOwner bool) {
	defer close(w.doneCh)

	if hasOwner {
		w.handleAppeared()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case sig, ok := <-w.signalCh:
			if !ok {
				return
			}
			w.handleSignal(sig)
		}
	}
}

// handleSignal routes a bus signal to the matching handler.
func (w *Watcher) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case nameOwnerChanged:
		if len(sig.Body) < 3 {
			return
		}
		name, _ := sig.Body[0].(string)
		newOwner, _ := sig.Body[2].(string)
		if name != BusName {
			return
		}
		if newOwner != "" {
			w.handleAppeared()
		} else {
			w.handleVanished()
		}

	case propertiesChanged:
		if sig.Path != ObjectPath || len(sig.Body) < 3 {
			return
		}
		iface, _ := sig.Body[0].(string)
		if iface != Interface {
			return
		}
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		invalidated, _ := sig.Body[2].([]string)
		w.handlePropertiesChanged(changed, invalidated)
	}
}

// handleAppeared claims the accelerometer and reports the first reading.
// A claim held from a previous owner is released first.
func (w *Watcher) handleAppeared() {
	w.release()

	proxy, err := w.newProxy()
	if err != nil {
		w.logger.Error("failed to create sensor proxy", "error", err)
		return
	}

	hasAccel, err := proxy.HasAccelerometer()
	if err != nil {
		w.logger.Warn("failed to check for accelerometer", "error", err)
	} else if !hasAccel && w.requireAccelerometer() {
		w.logger.Warn("sensor proxy reports no accelerometer, staying idle")
		return
	}

	claimed := true
	if err := proxy.ClaimAccelerometer(); err != nil {
		w.logger.Warn("failed to claim accelerometer", "error", err)
		claimed = false
	}

	w.mu.Lock()
	w.proxy = proxy
	w.present = true
	w.claimed = claimed
	w.hasValue = false
	w.mu.Unlock()

	w.logger.Info("sensor proxy appeared", "claimed", claimed)
	w.dispatch(w.onAppeared)
	w.refreshOrientation()
}

// release gives up the accelerometer claim, if one is held.
func (w *Watcher) release() {
	w.mu.Lock()
	proxy, claimed := w.proxy, w.claimed
	w.claimed = false
	w.mu.Unlock()

	if !claimed || proxy == nil {
		return
	}
	if err := proxy.ReleaseAccelerometer(); err != nil {
		w.logger.Debug("failed to release accelerometer", "error", err)
	}
}

// SetRequireAccelerometer changes whether a proxy without an accelerometer
// is ignored. It applies from the next time the proxy appears.
func (w *Watcher) SetRequireAccelerometer(require bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.RequireAccelerometer = require
}

func (w *Watcher) requireAccelerometer() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts.RequireAccelerometer
}

// handleVanished forgets the proxy and any cached reading.
func (w *Watcher) handleVanished() {
	w.mu.Lock()
	wasPresent := w.present
	w.proxy = nil
	w.present = false
	w.claimed = false
	w.hasValue = false
	w.orientation = ""
	w.mu.Unlock()

	if !wasPresent {
		return
	}

	w.logger.Info("sensor proxy vanished")
	w.dispatch(w.onVanished)
}

func (w *Watcher) handlePropertiesChanged(changed map[string]dbus.Variant, invalidated []string) {
	if !w.Present() {
		return
	}

	if v, ok := changed[OrientationProperty]; ok {
		if s, ok := v.Value().(string); ok {
			w.setOrientation(s)
		}
		return
	}

	for _, name := range invalidated {
		if name == OrientationProperty {
			w.refreshOrientation()
			return
		}
	}
}

// refreshOrientation re-reads the property from the bus.
func (w *Watcher) refreshOrientation() {
	s, err := w.readOrientation()
	if err != nil {
		w.logger.Debug("orientation not available", "error", err)
		return
	}
	w.setOrientation(s)
}

func (w *Watcher) setOrientation(s string) {
	w.mu.Lock()
	w.orientation = s
	w.hasValue = true
	w.mu.Unlock()

	w.logger.Debug("orientation reported", "orientation", s)
	if w.onOrientation != nil {
		w.opts.Dispatch(func() { w.onOrientation(s) })
	}
}

func (w *Watcher) dispatch(cb func()) {
	if cb != nil {
		w.opts.Dispatch(cb)
	}
}

// readOrientationProperty fetches AccelerometerOrientation directly.
func readOrientationProperty(conn *dbus.Conn) (string, error) {
	obj := conn.Object(BusName, ObjectPath)
	v, err := obj.GetProperty(Interface + "." + OrientationProperty)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s type %s", OrientationProperty, v.Signature())
	}
	return s, nil
}
