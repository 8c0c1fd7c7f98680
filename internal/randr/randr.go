// Package randr drives wlr-randr to query outputs and apply display transforms.
package randr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trigg/orientprompt/internal/orientation"
)

// DefaultCommand is the wlr-randr binary looked up in PATH.
const DefaultCommand = "wlr-randr"

// ErrNoOutput is returned when the requested output is not connected.
var ErrNoOutput = errors.New("output not found")

// ErrMultipleOutputs is returned when an output is needed but more than
// one is enabled.
var ErrMultipleOutputs = errors.New("more than one output enabled")

// Output describes a wlr-randr output as printed by --json.
type Output struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Serial       string       `json:"serial"`
	PhysicalSize PhysicalSize `json:"physical_size"`
	Enabled      bool         `json:"enabled"`
	Modes        []Mode       `json:"modes"`
	Position     Position     `json:"position"`
	Transform    string       `json:"transform"`
	Scale        float64      `json:"scale"`
	AdaptiveSync bool         `json:"adaptive_sync"`
}

// PhysicalSize is the output size in millimetres.
type PhysicalSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Mode is a single video mode.
type Mode struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred"`
	Current   bool    `json:"current"`
}

// Position is the output's offset in the compositor layout.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CurrentMode returns the mode in use, if any.
func (o Output) CurrentMode() (Mode, bool) {
	for _, m := range o.Modes {
		if m.Current {
			return m, true
		}
	}
	return Mode{}, false
}

// Outputs composes multiple outputs.
type Outputs []Output

// Find finds the output with the given name.
func (o Outputs) Find(name string) (Output, bool) {
	for _, out := range o {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Enabled returns only the enabled outputs.
func (o Outputs) Enabled() Outputs {
	var enabled Outputs
	for _, out := range o {
		if out.Enabled {
			enabled = append(enabled, out)
		}
	}
	return enabled
}

// Single returns the only enabled output. Rotating is refused when more
// than one output is enabled.
func (o Outputs) Single() (Output, error) {
	enabled := o.Enabled()
	switch len(enabled) {
	case 0:
		return Output{}, ErrNoOutput
	case 1:
		return enabled[0], nil
	default:
		return Output{}, errors.Wrapf(ErrMultipleOutputs, "%d outputs enabled", len(enabled))
	}
}

// Parse decodes the output of wlr-randr --json.
func Parse(r io.Reader) (Outputs, error) {
	var outputs Outputs
	if err := json.NewDecoder(r).Decode(&outputs); err != nil {
		return nil, errors.Wrap(err, "cannot decode wlr-randr json")
	}
	return outputs, nil
}

// Runner invokes wlr-randr.
type Runner struct {
	command string
	timeout time.Duration
}

// NewRunner creates a Runner. An empty command means DefaultCommand and a
// zero timeout means no deadline beyond the caller's context.
func NewRunner(command string, timeout time.Duration) *Runner {
	if command == "" {
		command = DefaultCommand
	}
	return &Runner{
		command: command,
		timeout: timeout,
	}
}

// Command returns the binary this runner executes.
func (r *Runner) Command() string {
	return r.command
}

// SetTransform applies transform to the named output.
func (r *Runner) SetTransform(ctx context.Context, output string, transform orientation.Transform) error {
	if output == "" {
		return errors.Wrap(ErrNoOutput, "empty output name")
	}
	if _, err := r.run(ctx, TransformArgs(output, transform)...); err != nil {
		return errors.Wrapf(err, "cannot set transform %s on %s", transform, output)
	}
	return nil
}

// Outputs queries the current output configuration.
func (r *Runner) Outputs(ctx context.Context) (Outputs, error) {
	out, err := r.run(ctx, "--json")
	if err != nil {
		return nil, errors.Wrap(err, "cannot query outputs")
	}
	return Parse(bytes.NewReader(out))
}

// TransformArgs builds the wlr-randr arguments for a transform change.
func TransformArgs(output string, transform orientation.Transform) []string {
	return []string{"--output", output, "--transform", string(transform)}
}

func (r *Runner) run(ctx context.Context, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s: %s", r.command, msg)
		}
		return nil, errors.Wrap(err, r.command)
	}
	return out, nil
}
