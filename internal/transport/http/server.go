package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/metrics"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// StateClient is the part of the declarative client the inspector needs.
type StateClient interface {
	State() state.State
	OnStateChange(fn func(state.State)) func()
	StartRenderVideo(ctx context.Context, callID string, stream state.VideoStream, opts sdk.CreateViewOptions) error
	StopRenderVideo(callID string, stream state.VideoStream)
}

// NewServer builds the state inspector. m may be nil, in which case no
// metrics are recorded or exposed.
func NewServer(client StateClient, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	if m != nil {
		router.Use(MetricsMiddleware(m))
		router.GET("/metrics", MetricsHandler(m))
	}

	router.GET("/health", healthHandler)

	handlers := NewStateHandlers(client, logger)
	router.GET("/state", handlers.GetState)
	router.GET("/state/calls/:id", handlers.GetCall)

	router.GET("/ws", gin.WrapH(NewWSHandler(client, m, cfg.WSMessageLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
