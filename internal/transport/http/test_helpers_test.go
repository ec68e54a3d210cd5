package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/credential"
	"github.com/vovakirdan/callstate/internal/declarative"
	"github.com/vovakirdan/callstate/internal/metrics"
	"github.com/vovakirdan/callstate/internal/proto"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
	"github.com/vovakirdan/callstate/internal/state"
)

type inspector struct {
	ts      *httptest.Server
	client  *declarative.CallClient
	agent   *sdkfake.CallAgent
	factory *sdkfake.RendererFactory
	metrics *metrics.Metrics
}

func newInspector(t *testing.T, tweaks ...func(*config.Config)) *inspector {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := sdkfake.NewCallClient("")
	agent := sdkfake.NewCallAgent("Local")
	fake.UseAgent(agent)
	factory := sdkfake.NewRendererFactory()
	m := metrics.New("test")

	client := declarative.NewCallClient(fake,
		declarative.WithRendererFactory(factory),
		declarative.WithMetrics(m),
	)
	t.Cleanup(client.Close)

	token, err := credential.Mint(credential.MintConfig{
		APIKey:    "devkey",
		APISecret: "devsecret-devsecret-devsecret-00",
		Identity:  "8:acs:local",
	})
	require.NoError(t, err)
	_, err = client.CreateCallAgent(context.Background(), credential.NewStatic(token), sdk.CallAgentOptions{})
	require.NoError(t, err)

	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}
	for _, tweak := range tweaks {
		tweak(&cfg)
	}
	server := NewServer(client, cfg, m, nil)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &inspector{ts: ts, client: client, agent: agent, factory: factory, metrics: m}
}

func (in *inspector) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(in.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data string) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: []byte(data)}))
}

// readUntil reads messages until one of type typ is accepted by match.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, match func(proto.Outbound) bool) proto.Outbound {
	t.Helper()
	for {
		var out proto.Outbound
		require.NoError(t, wsjson.Read(ctx, conn, &out))
		if out.Type == typ && (match == nil || match(out)) {
			return out
		}
	}
}

func readSnapshotUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, pred func(state.State) bool) proto.Snapshot {
	t.Helper()
	var snap proto.Snapshot
	readUntil(t, ctx, conn, proto.OutboundTypeSnapshot, func(out proto.Outbound) bool {
		var err error
		snap, err = proto.DecodeSnapshot(out)
		require.NoError(t, err)
		return pred(snap.State)
	})
	return snap
}

func callWithStream(id string, streamID int) *sdkfake.Call {
	call := sdkfake.NewCall(id, sdk.CallDirectionOutgoing)
	p := sdkfake.NewRemoteParticipant(sdk.CommunicationUser("alice"), "Alice")
	p.AddVideoStreams(sdkfake.NewRemoteVideoStream(streamID, sdk.MediaStreamTypeVideo, true))
	call.AddRemoteParticipants(p)
	return call
}

const aliceKey = "communicationUser_alice"
