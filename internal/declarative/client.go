// Package declarative wraps the calling SDK so that its live, event-driven
// object graph is mirrored into an immutable state snapshot.
//
// Wrapped objects keep the SDK contract: every method that is not
// intercepted is forwarded unchanged, so a wrapper can be used wherever the
// SDK object was.
package declarative

import (
	"context"
	"fmt"
	"sync"

	"github.com/vovakirdan/callstate/internal/credential"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// CallClient wraps the SDK call client and owns the state store.
type CallClient struct {
	sdk.CallClient
	sess *session

	mu               sync.Mutex
	agent            *CallAgent
	deviceManager    *DeviceManager
	rawDeviceManager sdk.DeviceManager
}

// NewCallClient wraps client.
func NewCallClient(client sdk.CallClient, opts ...Option) *CallClient {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &CallClient{
		CallClient: client,
		sess:       newSession(o),
	}
}

// State returns the latest snapshot.
func (c *CallClient) State() state.State {
	return c.sess.store.Snapshot()
}

// OnStateChange registers fn for every new snapshot and returns a function
// that removes it. fn runs synchronously inside the mutation and must not
// call back into the client.
func (c *CallClient) OnStateChange(fn func(state.State)) func() {
	return c.sess.store.OnChange(fn)
}

// CreateCallAgent creates an agent through the SDK and wraps it. The
// identity in the credential becomes the snapshot's user id. A previously
// wrapped agent stops updating the store.
func (c *CallClient) CreateCallAgent(ctx context.Context, cred sdk.TokenCredential, opts sdk.CallAgentOptions) (sdk.CallAgent, error) {
	agent, err := c.CallClient.CreateCallAgent(ctx, cred, opts)
	if err != nil {
		return nil, err
	}

	if raw, err := cred.Token(ctx); err != nil {
		c.sess.logger.Warn().Err(err).Msg("read credential for user id")
	} else if token, err := credential.Parse(raw); err != nil {
		c.sess.logger.Warn().Err(err).Msg("parse credential for user id")
	} else {
		c.sess.store.SetUserID(token.Identifier())
	}

	c.mu.Lock()
	prev := c.agent
	c.agent = nil
	c.mu.Unlock()
	if prev != nil {
		prev.detach()
	}

	wrapped := newCallAgent(agent, c.sess)
	c.mu.Lock()
	c.agent = wrapped
	c.mu.Unlock()
	return wrapped, nil
}

// GetDeviceManager returns the wrapped device manager. The SDK must return
// the same instance every time; a different one yields
// ErrDeviceManagerChanged.
func (c *CallClient) GetDeviceManager(ctx context.Context) (sdk.DeviceManager, error) {
	dm, err := c.CallClient.GetDeviceManager(ctx)
	if err != nil {
		return nil, err
	}

	defer c.sess.store.Hold()()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deviceManager != nil {
		if c.rawDeviceManager != dm {
			c.sess.logger.Error().Msg("sdk returned a different device manager instance")
			return nil, fmt.Errorf("get device manager: %w", ErrDeviceManagerChanged)
		}
		return c.deviceManager, nil
	}

	c.rawDeviceManager = dm
	c.deviceManager = newDeviceManager(dm, c.sess)
	return c.deviceManager, nil
}

// StartRenderVideo renders a stream of a call. It does nothing when the
// stream is unknown or already rendered.
func (c *CallClient) StartRenderVideo(ctx context.Context, callID string, stream state.VideoStream, opts sdk.CreateViewOptions) error {
	return c.sess.startRenderVideo(ctx, callID, stream, opts)
}

// StopRenderVideo disposes the renderer of a stream, if any.
func (c *CallClient) StopRenderVideo(callID string, stream state.VideoStream) {
	c.sess.stopRenderVideo(callID, stream)
}

// StopRenderVideoAll disposes every renderer of a call.
func (c *CallClient) StopRenderVideoAll(callID string) {
	c.sess.stopRenderVideoAll(callID)
}

// StopRenderVideoAllCalls disposes every renderer.
func (c *CallClient) StopRenderVideoAllCalls() {
	c.sess.stopRenderVideoAllCalls()
}

// Close stops rendering and detaches the wrapped agent and device manager.
// The SDK objects themselves are not disposed.
func (c *CallClient) Close() {
	c.mu.Lock()
	agent := c.agent
	dm := c.deviceManager
	c.mu.Unlock()

	c.sess.stopRenderVideoAllCalls()
	if agent != nil {
		agent.detach()
	}
	if dm != nil {
		dm.close()
	}
}

var _ sdk.CallClient = (*CallClient)(nil)
