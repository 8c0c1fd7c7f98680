package randr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg/orientprompt/internal/orientation"
)

const sampleJSON = `[
  {
    "name": "DSI-1",
    "description": "Unknown 0x0000 (DSI-1)",
    "make": "Unknown",
    "model": "0x0000",
    "serial": "",
    "physical_size": {"width": 155, "height": 259},
    "enabled": true,
    "modes": [
      {"width": 1200, "height": 1920, "refresh": 60.0, "preferred": true, "current": true}
    ],
    "position": {"x": 0, "y": 0},
    "transform": "270",
    "scale": 2.0,
    "adaptive_sync": false
  },
  {
    "name": "HDMI-A-1",
    "description": "Dell Inc. U2415",
    "make": "Dell Inc.",
    "model": "U2415",
    "serial": "XYZ",
    "physical_size": {"width": 520, "height": 320},
    "enabled": false,
    "modes": [
      {"width": 1920, "height": 1200, "refresh": 59.95, "preferred": true, "current": false}
    ],
    "position": {"x": 960, "y": 0},
    "transform": "normal",
    "scale": 1.0,
    "adaptive_sync": false
  }
]`

func TestParse(t *testing.T) {
	outputs, err := Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	dsi := outputs[0]
	assert.Equal(t, "DSI-1", dsi.Name)
	assert.True(t, dsi.Enabled)
	assert.Equal(t, "270", dsi.Transform)
	assert.Equal(t, 2.0, dsi.Scale)
	assert.Equal(t, 155, dsi.PhysicalSize.Width)

	mode, ok := dsi.CurrentMode()
	require.True(t, ok)
	assert.Equal(t, 1200, mode.Width)
	assert.Equal(t, 1920, mode.Height)

	_, ok = outputs[1].CurrentMode()
	assert.False(t, ok)
	assert.Equal(t, 960, outputs[1].Position.X)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestOutputsFindAndEnabled(t *testing.T) {
	outputs, err := Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	out, ok := outputs.Find("HDMI-A-1")
	require.True(t, ok)
	assert.Equal(t, "Dell Inc.", out.Make)

	_, ok = outputs.Find("eDP-1")
	assert.False(t, ok)

	enabled := outputs.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "DSI-1", enabled[0].Name)
}

func TestOutputsSingle(t *testing.T) {
	outputs, err := Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	out, err := outputs.Single()
	require.NoError(t, err)
	assert.Equal(t, "DSI-1", out.Name)

	_, err = Outputs{}.Single()
	assert.True(t, errors.Is(err, ErrNoOutput))

	both := Outputs{{Name: "DSI-1", Enabled: true}, {Name: "HDMI-A-1", Enabled: true}}
	_, err = both.Single()
	assert.True(t, errors.Is(err, ErrMultipleOutputs))
	assert.Contains(t, err.Error(), "2 outputs enabled")
}

func TestTransformArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--output", "DSI-1", "--transform", "90"},
		TransformArgs("DSI-1", orientation.Transform90))
}

func TestNewRunner_Defaults(t *testing.T) {
	assert.Equal(t, DefaultCommand, NewRunner("", 0).Command())
	assert.Equal(t, "/opt/wlr-randr", NewRunner("/opt/wlr-randr", time.Second).Command())
}

// writeScript creates an executable stand-in for wlr-randr.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wlr-randr")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestRunner_SetTransform(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	script := writeScript(t, `echo "$@" > `+argsFile)

	r := NewRunner(script, 5*time.Second)
	require.NoError(t, r.SetTransform(context.Background(), "DSI-1", orientation.Transform180))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "--output DSI-1 --transform 180", strings.TrimSpace(string(data)))
}

func TestRunner_SetTransformFailure(t *testing.T) {
	script := writeScript(t, `echo "unknown output" >&2; exit 1`)

	r := NewRunner(script, 5*time.Second)
	err := r.SetTransform(context.Background(), "DSI-9", orientation.TransformNormal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output")
	assert.Contains(t, err.Error(), "DSI-9")
}

func TestRunner_SetTransformEmptyOutput(t *testing.T) {
	r := NewRunner("/nonexistent/wlr-randr", time.Second)
	err := r.SetTransform(context.Background(), "", orientation.TransformNormal)
	assert.True(t, errors.Is(err, ErrNoOutput))
}

func TestRunner_Outputs(t *testing.T) {
	jsonFile := filepath.Join(t.TempDir(), "outputs.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(sampleJSON), 0644))
	script := writeScript(t, `[ "$1" = "--json" ] || exit 2
cat `+jsonFile)

	r := NewRunner(script, 5*time.Second)
	outputs, err := r.Outputs(context.Background())
	require.NoError(t, err)
	assert.Len(t, outputs, 2)
}

func TestRunner_MissingBinary(t *testing.T) {
	r := NewRunner("/nonexistent/wlr-randr", time.Second)
	_, err := r.Outputs(context.Background())
	assert.Error(t, err)
}
