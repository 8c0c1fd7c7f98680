package prompt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg/orientprompt/internal/orientation"
)

type fakeWindow struct {
	visible bool
	shows   int
	hides   int
	anchors *orientation.Anchors
	screen  string
	single  bool
}

func (w *fakeWindow) Show() {
	w.visible = true
	w.shows++
}

func (w *fakeWindow) Hide() {
	w.visible = false
	w.hides++
}

func (w *fakeWindow) SetAnchors(a orientation.Anchors) {
	w.anchors = &a
}

func (w *fakeWindow) Screen() (string, bool) {
	return w.screen, w.single
}

type fakeSensor struct {
	value string
	ok    bool
}

func (s *fakeSensor) Orientation() (string, bool) {
	return s.value, s.ok
}

type rotation struct {
	output    string
	transform orientation.Transform
}

type fakeRotator struct {
	calls []rotation
	err   error
}

func (r *fakeRotator) SetTransform(_ context.Context, output string, transform orientation.Transform) error {
	r.calls = append(r.calls, rotation{output, transform})
	return r.err
}

type fakeTimer struct {
	armed     int
	cancelled int
	last      time.Duration
	fire      func()
}

func (t *fakeTimer) After(d time.Duration, fn func()) func() {
	t.armed++
	t.last = d
	t.fire = fn
	return func() {
		t.cancelled++
		t.fire = nil
	}
}

type fixture struct {
	window  *fakeWindow
	sensor  *fakeSensor
	rotator *fakeRotator
	timer   *fakeTimer
	ctrl    *Controller
}

func newFixture() *fixture {
	f := &fixture{
		window:  &fakeWindow{screen: "DSI-1", single: true},
		sensor:  &fakeSensor{},
		rotator: &fakeRotator{},
		timer:   &fakeTimer{},
	}
	f.ctrl = NewController(f.window, f.sensor, f.rotator, f.timer, 5*time.Second, nil)
	return f
}

func (f *fixture) orient(value string) {
	f.sensor.value, f.sensor.ok = value, value != ""
	f.ctrl.DeviceOriented(value)
}

func TestNewController_StartsNormal(t *testing.T) {
	f := newFixture()
	assert.Equal(t, orientation.Normal, f.ctrl.LastSet())
	assert.False(t, f.ctrl.Pending())
}

func TestDeviceOriented_ShowsPromptAndArmsTimer(t *testing.T) {
	f := newFixture()

	f.orient("left-up")

	assert.True(t, f.window.visible)
	assert.Equal(t, 1, f.timer.armed)
	assert.Equal(t, 5*time.Second, f.timer.last)
	assert.True(t, f.ctrl.Pending())
}

func TestDeviceOriented_EmptyIgnored(t *testing.T) {
	f := newFixture()

	f.ctrl.DeviceOriented("")

	assert.Zero(t, f.window.shows)
	assert.Zero(t, f.window.hides)
	assert.Zero(t, f.timer.armed)
}

func TestDeviceOriented_SameAsLastSetHides(t *testing.T) {
	f := newFixture()
	f.orient("right-up")
	require.True(t, f.window.visible)

	f.orient("normal")

	assert.False(t, f.window.visible)
	assert.Equal(t, 1, f.timer.cancelled)
	assert.False(t, f.ctrl.Pending())
}

func TestDeviceOriented_RearmsTimer(t *testing.T) {
	f := newFixture()

	f.orient("left-up")
	f.orient("bottom-up")

	assert.Equal(t, 2, f.timer.armed)
	assert.Equal(t, 1, f.timer.cancelled)
	assert.True(t, f.window.visible)
}

func TestDeviceOriented_WrongMonitorCount(t *testing.T) {
	f := newFixture()
	f.window.single = false

	f.orient("left-up")

	assert.False(t, f.window.visible)
	assert.Equal(t, 1, f.window.hides)
	assert.Zero(t, f.timer.armed)
}

func TestConfirm_RotatesAndAnchors(t *testing.T) {
	tests := []struct {
		orientation string
		transform   orientation.Transform
		anchors     orientation.Anchors
	}{
		{"normal", orientation.TransformNormal, orientation.Anchors{Right: true, Bottom: true}},
		{"right-up", orientation.Transform270, orientation.Anchors{Right: true, Top: true}},
		{"left-up", orientation.Transform90, orientation.Anchors{Left: true, Bottom: true}},
		{"bottom-up", orientation.Transform180, orientation.Anchors{Left: true, Top: true}},
	}

	for _, tt := range tests {
		t.Run(tt.orientation, func(t *testing.T) {
			f := newFixture()
			f.ctrl.SensorAppeared()
			f.orient(tt.orientation)

			f.ctrl.Confirm()

			require.Len(t, f.rotator.calls, 1)
			assert.Equal(t, rotation{"DSI-1", tt.transform}, f.rotator.calls[0])
			require.NotNil(t, f.window.anchors)
			assert.Equal(t, tt.anchors, *f.window.anchors)
			assert.Equal(t, orientation.Orientation(tt.orientation), f.ctrl.LastSet())
			assert.False(t, f.window.visible)
			assert.False(t, f.ctrl.Pending())
		})
	}
}

func TestConfirm_ThenSameOrientationStaysHidden(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.orient("left-up")
	f.ctrl.Confirm()
	shows := f.window.shows

	f.orient("left-up")

	assert.Equal(t, shows, f.window.shows)
	assert.False(t, f.window.visible)
}

func TestConfirm_WithoutSensorIgnored(t *testing.T) {
	f := newFixture()
	f.orient("left-up")

	f.ctrl.Confirm()

	assert.Empty(t, f.rotator.calls)
	assert.True(t, f.window.visible)
	assert.Equal(t, orientation.Normal, f.ctrl.LastSet())
}

func TestConfirm_WrongMonitorCountIgnored(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.orient("left-up")
	f.window.single = false

	f.ctrl.Confirm()

	assert.Empty(t, f.rotator.calls)
	assert.Equal(t, orientation.Normal, f.ctrl.LastSet())
}

func TestConfirm_UnknownOrientation(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.orient("undefined")

	f.ctrl.Confirm()

	assert.Empty(t, f.rotator.calls)
	assert.Nil(t, f.window.anchors)
	assert.False(t, f.window.visible)
	assert.Equal(t, orientation.Undefined, f.ctrl.LastSet())
}

func TestConfirm_RotationFailureKeepsAnchors(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.rotator.err = errors.New("wlr-randr: exit status 1")
	f.orient("bottom-up")

	f.ctrl.Confirm()

	require.Len(t, f.rotator.calls, 1)
	assert.Nil(t, f.window.anchors)
	assert.False(t, f.window.visible)
}

func TestConfirm_RotationFailureCallback(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.rotator.err = errors.New("wlr-randr: exit status 1")

	var gotOutput string
	var gotErr error
	f.ctrl.OnRotateFailed(func(output string, err error) {
		gotOutput = output
		gotErr = err
	})
	f.orient("left-up")

	f.ctrl.Confirm()

	assert.Equal(t, "DSI-1", gotOutput)
	assert.ErrorIs(t, gotErr, f.rotator.err)
}

func TestTimerElapsed_HidesPrompt(t *testing.T) {
	f := newFixture()
	f.orient("right-up")
	require.NotNil(t, f.timer.fire)

	f.timer.fire()

	assert.False(t, f.window.visible)
	assert.False(t, f.ctrl.Pending())
}

func TestSensorVanished_HidesAndDisablesConfirm(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	f.orient("left-up")

	f.ctrl.SensorVanished()
	assert.False(t, f.window.visible)
	assert.False(t, f.ctrl.Pending())

	f.ctrl.Confirm()
	assert.Empty(t, f.rotator.calls)
}

func TestSetRotator_UsedByNextConfirm(t *testing.T) {
	f := newFixture()
	f.ctrl.SensorAppeared()
	old := f.rotator
	replacement := &fakeRotator{}

	f.ctrl.SetRotator(replacement)
	f.orient("right-up")
	f.ctrl.Confirm()

	assert.Empty(t, old.calls)
	require.Len(t, replacement.calls, 1)
	assert.Equal(t, rotation{"DSI-1", orientation.Transform270}, replacement.calls[0])
	assert.Equal(t, orientation.RightUp, f.ctrl.LastSet())
}

func TestSetTimeout(t *testing.T) {
	f := newFixture()
	f.ctrl.SetTimeout(9 * time.Second)

	f.orient("left-up")

	assert.Equal(t, 9*time.Second, f.timer.last)
}
