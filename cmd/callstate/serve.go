package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/callstate/internal/app"
	"github.com/vovakirdan/callstate/internal/config"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var overrides config.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulated session and serve its state over HTTP and websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd.ErrOrStderr(), overrides)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting callstate inspector")
			if err := app.New(cfg, logger).Run(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("inspector exited with error")
				return err
			}
			logger.Info().Msg("inspector stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&overrides.Simulation.Calls, "calls", 0, "number of simulated calls")
	flags.IntVar(&overrides.Simulation.ParticipantsPerCall, "participants", 0, "remote participants per simulated call")
	flags.DurationVar(&overrides.Simulation.Tick, "tick", time.Duration(0), "interval between simulated events")
	return cmd
}
