// Package daemon provides the plumbing around the prompt: configuration
// and stylesheet hot-reload, the main-loop timer, and desktop notifications
// about the prompt's own failures.
package daemon
