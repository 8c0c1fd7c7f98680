package sensor

import (
	"context"
	"fmt"

	sensorproxy "github.com/arnarg/go-iio-sensor-proxy"
	"github.com/godbus/dbus/v5"
)

// Status is a one-shot snapshot of the sensor proxy.
type Status struct {
	Present          bool   `json:"present" yaml:"present"`
	HasAccelerometer bool   `json:"has_accelerometer" yaml:"has_accelerometer"`
	Orientation      string `json:"orientation,omitempty" yaml:"orientation,omitempty"`
}

// Query connects to the system bus and reports the proxy's current state.
// The accelerometer is claimed for the duration of the read.
func Query(ctx context.Context) (Status, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return Status{}, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	p := probe{
		hasOwner: func() (bool, error) {
			var ok bool
			err := conn.BusObject().CallWithContext(ctx, busDaemonInterface+".NameHasOwner", 0, BusName).Store(&ok)
			return ok, err
		},
		newProxy: func() (Accelerometer, error) {
			proxy, err := sensorproxy.NewSensorProxyFromBus(conn)
			if err != nil {
				return nil, err
			}
			return proxy, nil
		},
		readOrientation: func() (string, error) {
			return readOrientationProperty(conn)
		},
	}
	return p.run()
}

type probe struct {
	hasOwner        func() (bool, error)
	newProxy        func() (Accelerometer, error)
	readOrientation func() (string, error)
}

func (p probe) run() (Status, error) {
	var st Status

	present, err := p.hasOwner()
	if err != nil {
		return st, fmt.Errorf("failed to query %s owner: %w", BusName, err)
	}
	if !present {
		return st, nil
	}
	st.Present = true

	proxy, err := p.newProxy()
	if err != nil {
		return st, fmt.Errorf("failed to create sensor proxy: %w", err)
	}

	st.HasAccelerometer, err = proxy.HasAccelerometer()
	if err != nil {
		return st, fmt.Errorf("failed to query accelerometer: %w", err)
	}
	if !st.HasAccelerometer {
		return st, nil
	}

	if err := proxy.ClaimAccelerometer(); err != nil {
		return st, fmt.Errorf("failed to claim accelerometer: %w", err)
	}
	defer func() { _ = proxy.ReleaseAccelerometer() }()

	// No reading is not an error; the proxy may not have one yet.
	if s, err := p.readOrientation(); err == nil {
		st.Orientation = s
	}
	return st, nil
}
