// Package orientation maps the accelerometer orientations reported by
// iio-sensor-proxy onto wlr-randr display transforms and overlay anchors.
package orientation
