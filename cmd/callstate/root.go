package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "callstate",
		Short:         "Declarative call state over the calling SDK",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (default: ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSimulateCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// load resolves configuration and builds a logger writing to out.
func (o *rootOptions) load(out io.Writer, overrides config.Config) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.NewWithWriter(out, o.logLevel)
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if o.logLevel != "" {
		overrides.LogLevel = o.logLevel
	}
	cfg.UpdateFrom(overrides)

	logger := log.NewWithWriter(out, cfg.LogLevel)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}
