package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/metrics"
	"github.com/vovakirdan/callstate/internal/proto"
	"github.com/vovakirdan/callstate/internal/state"
)

const outboundBuffer = 16

// WSHandler upgrades HTTP connections and streams state snapshots to them.
// Snapshots published while a write is in flight are coalesced: the client
// always receives the latest state, not every intermediate one.
type WSHandler struct {
	client  StateClient
	metrics *metrics.Metrics
	limit   int
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. m may be nil. limit caps the
// inbound messages a client may send per minute; zero disables it.
func NewWSHandler(client StateClient, m *metrics.Metrics, limit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{client: client, metrics: m, limit: limit, log: logger}
}

// wsConn is the per-connection plumbing between the store listener, the
// read loop and the write loop.
type wsConn struct {
	id     string
	conn   *websocket.Conn
	notify chan struct{}
	out    chan proto.Outbound
	seq    uint64
	rl     *rateLimiter
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	c := &wsConn{
		id:     uuid.NewString(),
		conn:   conn,
		notify: make(chan struct{}, 1),
		out:    make(chan proto.Outbound, outboundBuffer),
		rl:     newRateLimiter(h.limit, time.Minute),
	}
	if h.metrics != nil {
		h.metrics.WebSocketConnected()
		defer h.metrics.WebSocketDisconnected()
	}
	h.log.Debug().Str("client_id", c.id).Msg("ws client connected")

	// Runs on the mutating goroutine; must not block.
	off := h.client.OnStateChange(func(state.State) {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	})
	defer off()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, c)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, c)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", c.id).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", c.id).Msg("ws client disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, c *wsConn) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, c.conn, &inbound); err != nil {
			return err
		}

		if !c.rl.allow(time.Now()) {
			h.log.Warn().Str("client_id", c.id).Str("type", inbound.Type).Msg("ws message rate limited")
			if err := h.send(ctx, c, outboundError(&proto.Error{Code: proto.ErrCodeRateLimited, Msg: "too many messages"})); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			if err := h.send(ctx, c, outboundError(protoErr)); err != nil {
				return err
			}
			continue
		}

		if err := h.execute(ctx, c, cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) execute(ctx context.Context, c *wsConn, cmd *command) error {
	switch cmd.kind {
	case commandHello:
		return h.send(ctx, c, proto.Outbound{
			Type: proto.OutboundTypeWelcome,
			Data: proto.Welcome{ClientID: c.id, Protocol: proto.ProtocolVersion},
		})
	case commandStartRender:
		if err := h.client.StartRenderVideo(ctx, cmd.callID, cmd.stream, cmd.opts); err != nil {
			h.log.Warn().Err(err).Str("client_id", c.id).Str("call_id", cmd.callID).Msg("start render failed")
			return h.send(ctx, c, outboundError(&proto.Error{Code: proto.ErrCodeRenderFailed, Msg: err.Error()}))
		}
	case commandStopRender:
		h.client.StopRenderVideo(cmd.callID, cmd.stream)
	}
	return nil
}

func (h *WSHandler) send(ctx context.Context, c *wsConn, msg proto.Outbound) error {
	select {
	case c.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, c *wsConn) error {
	if err := h.writeSnapshot(ctx, c); err != nil {
		return err
	}
	for {
		select {
		case <-c.notify:
			if err := h.writeSnapshot(ctx, c); err != nil {
				return err
			}
		case msg := <-c.out:
			if err := wsjson.Write(ctx, c.conn, msg); err != nil {
				h.log.Error().Err(err).Str("client_id", c.id).Msg("write ws message")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeSnapshot(ctx context.Context, c *wsConn) error {
	c.seq++
	if err := wsjson.Write(ctx, c.conn, outboundSnapshot(c.seq, h.client.State())); err != nil {
		h.log.Error().Err(err).Str("client_id", c.id).Msg("write ws snapshot")
		return err
	}
	if h.metrics != nil {
		h.metrics.SnapshotSent()
	}
	return nil
}
