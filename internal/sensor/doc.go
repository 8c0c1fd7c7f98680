// Package sensor watches iio-sensor-proxy on the D-Bus system bus.
// It tracks the net.hadess.SensorProxy name appearing and vanishing,
// claims the accelerometer while the service is present, and reports
// AccelerometerOrientation property changes.
package sensor
