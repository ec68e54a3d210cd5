package declarative

import (
	"context"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// Call wraps a live call. Mute and Unmute also write the resulting mute flag
// into the store; everything else goes straight to the SDK call.
type Call struct {
	sdk.Call
	ref  *callIDRef
	sess *session
}

func newCall(call sdk.Call, ref *callIDRef, sess *session) *Call {
	return &Call{Call: call, ref: ref, sess: sess}
}

// Mute mutes the call and records the flag the SDK reports afterwards.
func (c *Call) Mute(ctx context.Context) error {
	if err := c.Call.Mute(ctx); err != nil {
		return err
	}
	c.syncMuted()
	return nil
}

// Unmute unmutes the call and records the flag the SDK reports afterwards.
func (c *Call) Unmute(ctx context.Context) error {
	if err := c.Call.Unmute(ctx); err != nil {
		return err
	}
	c.syncMuted()
	return nil
}

func (c *Call) syncMuted() {
	if c.ref == nil {
		c.sess.store.SetCallIsMuted(c.Call.ID(), c.Call.IsMuted())
		return
	}
	c.ref.with(func(callID string) {
		c.sess.store.SetCallIsMuted(callID, c.Call.IsMuted())
	})
}

// Unwrap returns the SDK call.
func (c *Call) Unwrap() sdk.Call {
	return c.Call
}

var _ sdk.Call = (*Call)(nil)
