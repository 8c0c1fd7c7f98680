// Package display manages the GTK4 overlay window that asks the user to
// rotate the screen. The window is a Wayland layer-shell surface on the
// overlay layer, anchored to a corner of the only connected monitor.
package display
