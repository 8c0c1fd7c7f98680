// Package prompt holds the rotation prompt's state and reacts to sensor,
// click and timer events. It is driven entirely from the GTK main loop.
package prompt

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/trigg/orientprompt/internal/orientation"
)

// Window is the overlay the prompt shows and hides.
type Window interface {
	Show()
	Hide()
	SetAnchors(anchors orientation.Anchors)
	// Screen returns the connector of the only monitor, or false when
	// there is not exactly one.
	Screen() (string, bool)
}

// Sensor supplies the current physical orientation.
type Sensor interface {
	Orientation() (string, bool)
}

// Rotator applies a display transform to an output.
type Rotator interface {
	SetTransform(ctx context.Context, output string, transform orientation.Transform) error
}

// Timer schedules fn after d on the main loop. The returned function
// cancels it if it has not fired yet.
type Timer interface {
	After(d time.Duration, fn func()) (cancel func())
}

// Controller decides when the prompt is visible and applies rotations.
type Controller struct {
	window  Window
	sensor  Sensor
	rotator Rotator
	timer   Timer
	logger  *slog.Logger
	timeout time.Duration

	lastSet       orientation.Orientation
	sensorPresent bool
	cancelTimer   func()
	promptID      ulid.ULID

	onRotateFailed func(output string, err error)
}

// NewController creates a Controller. The display is assumed to start in
// the normal orientation.
func NewController(window Window, sensor Sensor, rotator Rotator, timer Timer, timeout time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		window:  window,
		sensor:  sensor,
		rotator: rotator,
		timer:   timer,
		logger:  logger,
		timeout: timeout,
		lastSet: orientation.Normal,
	}
}

// LastSet returns the orientation most recently applied.
func (c *Controller) LastSet() orientation.Orientation {
	return c.lastSet
}

// Pending reports whether a hide timer is armed.
func (c *Controller) Pending() bool {
	return c.cancelTimer != nil
}

// SetTimeout changes how long future prompts stay visible.
func (c *Controller) SetTimeout(d time.Duration) {
	c.timeout = d
}

// SetRotator replaces the rotator used by later confirmations.
func (c *Controller) SetRotator(r Rotator) {
	c.rotator = r
}

// OnRotateFailed registers a callback for transforms that could not be applied.
func (c *Controller) OnRotateFailed(cb func(output string, err error)) {
	c.onRotateFailed = cb
}

// SensorAppeared records that the orientation sensor is available.
func (c *Controller) SensorAppeared() {
	c.sensorPresent = true
}

// SensorVanished records that the sensor left the bus and withdraws any
// visible prompt.
func (c *Controller) SensorVanished() {
	c.sensorPresent = false
	c.window.Hide()
	c.unsetTimer()
}

// DeviceOriented handles a new physical orientation reading.
func (c *Controller) DeviceOriented(direction string) {
	if direction == "" {
		return
	}

	if _, ok := c.window.Screen(); !ok {
		c.window.Hide()
		c.logger.Error("orientation changed with incorrect monitor configuration", "orientation", direction)
		return
	}

	if orientation.Orientation(direction) == c.lastSet {
		c.window.Hide()
		c.unsetTimer()
		return
	}

	c.promptID = newPromptID()
	c.logger.Info("prompting for rotation",
		"prompt_id", c.promptID.String(),
		"orientation", direction,
		"current", c.lastSet,
	)
	c.window.Show()
	c.setTimer()
}

// Confirm rotates the display to the current physical orientation.
func (c *Controller) Confirm() {
	if !c.sensorPresent {
		return
	}
	output, ok := c.window.Screen()
	if !ok {
		return
	}

	value, _ := c.sensor.Orientation()
	o := orientation.Orientation(value)
	c.lastSet = o
	c.window.Hide()
	c.unsetTimer()

	transform, ok := o.Transform()
	if !ok {
		c.logger.Error("unknown orientation", "orientation", value)
		return
	}
	anchors, _ := o.Anchors()

	if err := c.rotator.SetTransform(context.Background(), output, transform); err != nil {
		c.logger.Error("failed to rotate display",
			"prompt_id", c.promptID.String(),
			"output", output,
			"transform", transform,
			"error", err,
		)
		if c.onRotateFailed != nil {
			c.onRotateFailed(output, err)
		}
		return
	}
	c.window.SetAnchors(anchors)

	c.logger.Info("display rotated",
		"prompt_id", c.promptID.String(),
		"output", output,
		"orientation", o,
		"transform", transform,
	)
}

// TimerElapsed hides the prompt once the timeout passes without a click.
func (c *Controller) TimerElapsed() {
	c.window.Hide()
	c.cancelTimer = nil
	c.logger.Debug("prompt expired", "prompt_id", c.promptID.String())
}

func (c *Controller) setTimer() {
	c.unsetTimer()
	c.cancelTimer = c.timer.After(c.timeout, c.TimerElapsed)
}

func (c *Controller) unsetTimer() {
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
}

func newPromptID() ulid.ULID {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return ulid.ULID{}
	}
	return id
}
