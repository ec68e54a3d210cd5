package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/credential"
	"github.com/vovakirdan/callstate/internal/declarative"
	"github.com/vovakirdan/callstate/internal/metrics"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
	"github.com/vovakirdan/callstate/internal/state"
	transporthttp "github.com/vovakirdan/callstate/internal/transport/http"
)

const metricsNamespace = "callstate"

// App wires the simulated SDK, the declarative client and the inspector.
type App struct {
	cfg             config.Config
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	sdk             *sdkfake.CallClient
	rawAgent        *sdkfake.CallAgent
	client          *declarative.CallClient
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	m := metrics.New(metricsNamespace)

	store := state.New(
		state.WithMaxCallHistory(cfg.MaxCallHistory),
		state.WithMaxIncomingCallHistory(cfg.MaxIncomingCallHistory),
		state.WithLogger(logger),
		state.WithObserver(m),
	)

	fake := sdkfake.NewCallClient(cfg.Credential.APISecret)
	client := declarative.NewCallClient(fake,
		declarative.WithStore(store),
		declarative.WithLogger(logger),
		declarative.WithMetrics(m),
		declarative.WithRendererFactory(sdkfake.NewRendererFactory()),
	)

	return &App{
		cfg:             cfg,
		server:          transporthttp.NewServer(client, cfg, m, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		sdk:             fake,
		client:          client,
		log:             logger,
	}
}

// Client returns the declarative client.
func (a *App) Client() *declarative.CallClient {
	return a.client
}

// Connect mints a token for the configured identity and creates the call
// agent through the declarative client. It returns a scenario bound to it.
func (a *App) Connect(ctx context.Context) (*Scenario, error) {
	token, err := credential.Mint(credential.MintConfig{
		APIKey:      a.cfg.Credential.APIKey,
		APISecret:   a.cfg.Credential.APISecret,
		Identity:    a.cfg.Credential.Identity,
		DisplayName: a.cfg.Credential.DisplayName,
		TTL:         a.cfg.Credential.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	a.rawAgent = sdkfake.NewCallAgent(a.cfg.Credential.DisplayName)
	a.sdk.UseAgent(a.rawAgent)
	agent, err := a.client.CreateCallAgent(ctx, credential.NewStatic(token), sdk.CallAgentOptions{
		DisplayName: a.cfg.Credential.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("create call agent: %w", err)
	}
	a.log.Info().Str("identity", a.cfg.Credential.Identity).Msg("call agent created")

	return NewScenario(a.client, agent, a.rawAgent, a.sdk.DeviceManager(), a.cfg.Simulation, a.log), nil
}

// Run starts the scenario and the HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	scenario, err := a.Connect(ctx)
	if err != nil {
		a.Close()
		return err
	}

	scenarioCtx, stopScenario := context.WithCancel(ctx)
	defer stopScenario()
	scenarioDone := make(chan struct{})
	go func() {
		defer close(scenarioDone)
		if err := scenario.Run(scenarioCtx); err != nil {
			a.log.Error().Err(err).Msg("scenario stopped")
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("state inspector listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopScenario()
		<-scenarioDone
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		shutdownErr := a.server.Shutdown(shutdownCtx)
		<-scenarioDone
		if err := scenario.Finish(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("failed to finish scenario")
		}
		a.Close()
		if shutdownErr != nil {
			return shutdownErr
		}
		return <-serverErr
	}
}

// Close disposes renderers and stops mirroring SDK events.
func (a *App) Close() {
	a.client.Close()
	a.log.Info().Msg("declarative client closed")
}
