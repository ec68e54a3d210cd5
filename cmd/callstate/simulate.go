package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/callstate/internal/app"
	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/state"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

type simulateOptions struct {
	overrides config.Config
	steps     int
	format    string
	hangup    bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted session offline and print the resulting state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != formatYAML && opts.format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatYAML, formatJSON)
			}

			cfg, logger, err := root.load(cmd.ErrOrStderr(), opts.overrides)
			if err != nil {
				return err
			}

			a := app.New(cfg, logger)
			defer a.Close()

			ctx := cmd.Context()
			scenario, err := a.Connect(ctx)
			if err != nil {
				return err
			}
			if err := scenario.Setup(ctx); err != nil {
				return fmt.Errorf("setup scenario: %w", err)
			}
			for i := 0; i < opts.steps; i++ {
				if err := scenario.Step(ctx); err != nil {
					logger.Warn().Err(err).Int("step", i+1).Msg("scenario step failed")
				}
			}
			if opts.hangup {
				if err := scenario.Finish(ctx); err != nil {
					return fmt.Errorf("finish scenario: %w", err)
				}
			}

			return writeState(cmd.OutOrStdout(), opts.format, a.Client().State())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.steps, "steps", 10, "number of scripted events after setup")
	flags.StringVar(&opts.format, "format", formatYAML, "output format: yaml or json")
	flags.BoolVar(&opts.hangup, "hangup", false, "hang up every call before printing")
	flags.IntVar(&opts.overrides.Simulation.Calls, "calls", 0, "number of simulated calls")
	flags.IntVar(&opts.overrides.Simulation.ParticipantsPerCall, "participants", 0, "remote participants per simulated call")
	return cmd
}

func writeState(out io.Writer, format string, st state.State) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return err
	}
	return enc.Close()
}
