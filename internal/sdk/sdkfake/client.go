package sdkfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/vovakirdan/callstate/internal/credential"
	"github.com/vovakirdan/callstate/internal/sdk"
)

// CallClient is a fake sdk.CallClient.
type CallClient struct {
	mu            sync.Mutex
	secret        string
	agent         *CallAgent
	deviceManager *DeviceManager
	agents        int
}

// NewCallClient creates a client. When secret is non-empty, CreateCallAgent
// verifies token signatures with it.
func NewCallClient(secret string) *CallClient {
	return &CallClient{
		secret:        secret,
		deviceManager: NewDeviceManager(),
	}
}

// CreateCallAgent validates the credential and returns a fresh agent, or the
// agent installed with UseAgent.
func (c *CallClient) CreateCallAgent(ctx context.Context, cred sdk.TokenCredential, opts sdk.CallAgentOptions) (sdk.CallAgent, error) {
	raw, err := cred.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var token *credential.Token
	if c.secret != "" {
		token, err = credential.Verify(raw, c.secret)
	} else {
		token, err = credential.Parse(raw)
	}
	if err != nil {
		return nil, err
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = token.Name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents++
	if c.agent != nil {
		agent := c.agent
		c.agent = nil
		return agent, nil
	}
	return NewCallAgent(displayName), nil
}

// UseAgent makes the next CreateCallAgent return agent.
func (c *CallClient) UseAgent(agent *CallAgent) {
	c.mu.Lock()
	c.agent = agent
	c.mu.Unlock()
}

// AgentsCreated returns how many agents CreateCallAgent handed out.
func (c *CallClient) AgentsCreated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agents
}

// GetDeviceManager returns the current device manager.
func (c *CallClient) GetDeviceManager(ctx context.Context) (sdk.DeviceManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceManager, nil
}

// DeviceManager returns the concrete device manager for driving events.
func (c *CallClient) DeviceManager() *DeviceManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceManager
}

// ReplaceDeviceManager swaps the device manager, breaking the singleton
// guarantee of the real SDK.
func (c *CallClient) ReplaceDeviceManager(dm *DeviceManager) {
	c.mu.Lock()
	c.deviceManager = dm
	c.mu.Unlock()
}

var _ sdk.CallClient = (*CallClient)(nil)
