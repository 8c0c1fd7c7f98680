package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trigg/orientprompt/internal/orientation"
	"github.com/trigg/orientprompt/internal/randr"
)

var rotateOpts struct {
	output string
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <orientation>",
	Short: "Rotate the display without prompting",
	Long: `Apply the transform for an orientation directly with wlr-randr.

Orientations:
  normal      transform normal
  left-up     transform 90
  bottom-up   transform 180
  right-up    transform 270

Without --output the single enabled output is used; with more than one
enabled output --output is required.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: orientationNames(),
	RunE:      runRotate,
}

func init() {
	rootCmd.AddCommand(rotateCmd)

	rotateCmd.Flags().StringVarP(&rotateOpts.output, "output", "o", "",
		"Output to rotate (default: the only enabled output)")
}

func runRotate(cmd *cobra.Command, args []string) error {
	transform, err := rotateTransform(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Randr.Timeout.Duration())
	defer cancel()

	runner := randr.NewRunner(cfg.Randr.Command, cfg.Randr.Timeout.Duration())

	output := rotateOpts.output
	if output == "" {
		outputs, err := runner.Outputs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list outputs: %w", err)
		}
		out, err := outputs.Single()
		if err != nil {
			return fmt.Errorf("cannot choose an output, use --output: %w", err)
		}
		output = out.Name
	}

	if err := runner.SetTransform(ctx, output, transform); err != nil {
		return err
	}

	logger.Info("display rotated", "output", output, "orientation", args[0], "transform", transform)
	return nil
}

// rotateTransform maps a command-line orientation to its transform.
func rotateTransform(arg string) (orientation.Transform, error) {
	o, err := orientation.Parse(arg)
	if err != nil {
		return "", err
	}
	transform, ok := o.Transform()
	if !ok {
		return "", fmt.Errorf("cannot rotate to %q: %w", arg, orientation.ErrUnknownOrientation)
	}
	return transform, nil
}

func orientationNames() []string {
	var names []string
	for _, o := range orientation.ValidOrientations() {
		names = append(names, o.String())
	}
	return names
}
