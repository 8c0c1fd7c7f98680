package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trigg/orientprompt/internal/orientation"
	"github.com/trigg/orientprompt/internal/randr"
	"github.com/trigg/orientprompt/internal/sensor"
)

var statusOpts struct {
	format string
}

// StatusReport is what the status command prints.
type StatusReport struct {
	Sensor       sensor.Status  `json:"sensor" yaml:"sensor"`
	SensorError  string         `json:"sensor_error,omitempty" yaml:"sensor_error,omitempty"`
	Transform    string         `json:"transform,omitempty" yaml:"transform,omitempty"`
	Outputs      []OutputStatus `json:"outputs" yaml:"outputs"`
	OutputsError string         `json:"outputs_error,omitempty" yaml:"outputs_error,omitempty"`
}

// OutputStatus is the part of a wlr-randr output worth showing.
type OutputStatus struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Transform   string  `json:"transform" yaml:"transform"`
	Mode        string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Scale       float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sensor reading and display outputs",
	Long: `Query iio-sensor-proxy and wlr-randr once and print what they report.

The output includes:
  - whether the sensor proxy is running and has an accelerometer
  - the current orientation and the transform it maps to
  - each output with its current transform and mode

Formats: text (default), json, yaml.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "text",
		"Output format (text, json, yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var report StatusReport

	st, err := sensor.Query(ctx)
	if err != nil {
		logger.Debug("sensor query failed", "error", err)
		report.SensorError = err.Error()
	}

	runner := randr.NewRunner(cfg.Randr.Command, cfg.Randr.Timeout.Duration())
	outputs, err := runner.Outputs(ctx)
	if err != nil {
		logger.Debug("wlr-randr query failed", "error", err)
		report.OutputsError = err.Error()
	}

	report = buildStatusReport(report, st, outputs)
	return writeStatus(os.Stdout, report, statusOpts.format)
}

// buildStatusReport fills report from a sensor snapshot and output list.
func buildStatusReport(report StatusReport, st sensor.Status, outputs randr.Outputs) StatusReport {
	report.Sensor = st
	if t, ok := orientation.Orientation(st.Orientation).Transform(); ok {
		report.Transform = string(t)
	}

	report.Outputs = make([]OutputStatus, 0, len(outputs))
	for _, out := range outputs {
		entry := OutputStatus{
			Name:        out.Name,
			Description: out.Description,
			Enabled:     out.Enabled,
			Transform:   out.Transform,
			Scale:       out.Scale,
		}
		if mode, ok := out.CurrentMode(); ok {
			entry.Mode = fmt.Sprintf("%dx%d@%.2f", mode.Width, mode.Height, mode.Refresh)
		}
		report.Outputs = append(report.Outputs, entry)
	}
	return report
}

// writeStatus encodes report in the requested format.
func writeStatus(w io.Writer, report StatusReport, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		_, err := io.WriteString(w, renderStatusText(report))
		return err
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
	}
}

// renderStatusText renders report for a terminal.
func renderStatusText(report StatusReport) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	yesNo := func(v bool) string {
		if v {
			return okStyle.Render("yes")
		}
		return badStyle.Render("no")
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Sensor") + "\n")
	if report.SensorError != "" {
		b.WriteString("  " + badStyle.Render(report.SensorError) + "\n")
	} else {
		b.WriteString("  " + labelStyle.Render("Running:       ") + yesNo(report.Sensor.Present) + "\n")
		if report.Sensor.Present {
			b.WriteString("  " + labelStyle.Render("Accelerometer: ") + yesNo(report.Sensor.HasAccelerometer) + "\n")
		}
		if report.Sensor.Orientation != "" {
			b.WriteString("  " + labelStyle.Render("Orientation:   ") + report.Sensor.Orientation + "\n")
		}
		if report.Transform != "" {
			b.WriteString("  " + labelStyle.Render("Transform:     ") + report.Transform + "\n")
		}
	}

	b.WriteString("\n" + headerStyle.Render("Outputs") + "\n")
	if report.OutputsError != "" {
		b.WriteString("  " + badStyle.Render(report.OutputsError) + "\n")
	}
	for _, out := range report.Outputs {
		state := okStyle.Render("enabled")
		if !out.Enabled {
			state = badStyle.Render("disabled")
		}
		line := fmt.Sprintf("  %s %s %s %s",
			lipgloss.NewStyle().Bold(true).Render(out.Name),
			state,
			labelStyle.Render("transform")+" "+out.Transform,
			out.Mode,
		)
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	return b.String()
}
