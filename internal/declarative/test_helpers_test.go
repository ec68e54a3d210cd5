package declarative

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/credential"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
	"github.com/vovakirdan/callstate/internal/state"
)

type countingObserver struct {
	mu       sync.Mutex
	attached map[string]int
	detached map[string]int
	created  int
	disposed int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{attached: map[string]int{}, detached: map[string]int{}}
}

func (o *countingObserver) SubscriberAttached(kind string) {
	o.mu.Lock()
	o.attached[kind]++
	o.mu.Unlock()
}

func (o *countingObserver) SubscriberDetached(kind string) {
	o.mu.Lock()
	o.detached[kind]++
	o.mu.Unlock()
}

func (o *countingObserver) RendererCreated() {
	o.mu.Lock()
	o.created++
	o.mu.Unlock()
}

func (o *countingObserver) RendererDisposed() {
	o.mu.Lock()
	o.disposed++
	o.mu.Unlock()
}

// live returns attached minus detached subscribers of a kind.
func (o *countingObserver) live(kind string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attached[kind] - o.detached[kind]
}

type harness struct {
	client   *CallClient
	sdk      *sdkfake.CallClient
	agent    *sdkfake.CallAgent
	wrapped  *CallAgent
	observer *countingObserver
	factory  *sdkfake.RendererFactory
}

func testToken(t *testing.T, identity string) sdk.TokenCredential {
	t.Helper()
	token, err := credential.Mint(credential.MintConfig{
		APIKey:      "devkey",
		APISecret:   "devsecret-devsecret-devsecret-00",
		Identity:    identity,
		DisplayName: identity,
		TTL:         time.Hour,
	})
	require.NoError(t, err)
	return credential.NewStatic(token)
}

// newHarness wraps a fake agent that already holds existing.
func newHarness(t *testing.T, existing ...*sdkfake.Call) *harness {
	t.Helper()
	h := &harness{
		sdk:      sdkfake.NewCallClient(""),
		agent:    sdkfake.NewCallAgent("me", existing...),
		observer: newCountingObserver(),
		factory:  sdkfake.NewRendererFactory(),
	}
	h.client = NewCallClient(h.sdk, WithMetrics(h.observer), WithRendererFactory(h.factory))
	h.sdk.UseAgent(h.agent)

	agent, err := h.client.CreateCallAgent(context.Background(), testToken(t, "me"), sdk.CallAgentOptions{})
	require.NoError(t, err)
	h.wrapped = agent.(*CallAgent)
	t.Cleanup(h.client.Close)
	return h
}

func (h *harness) call(t *testing.T, id string) state.Call {
	t.Helper()
	c, ok := h.client.State().Calls[id]
	require.Truef(t, ok, "call %q not in state", id)
	return c
}

func newCallWithParticipant(id string, identity string, streams ...sdk.RemoteVideoStream) (*sdkfake.Call, *sdkfake.RemoteParticipant) {
	call := sdkfake.NewCall(id, sdk.CallDirectionOutgoing)
	p := sdkfake.NewRemoteParticipant(sdk.CommunicationUser(identity), identity)
	if len(streams) > 0 {
		p.AddVideoStreams(streams...)
	}
	call.AddRemoteParticipants(p)
	return call, p
}
