package sdkfake

import (
	"context"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// RemoteVideoStream is a fake sdk.RemoteVideoStream.
type RemoteVideoStream struct {
	mu         sync.RWMutex
	id         int
	streamType sdk.MediaStreamType
	available  bool

	availableChanged signal
}

// NewRemoteVideoStream creates a remote stream.
func NewRemoteVideoStream(id int, streamType sdk.MediaStreamType, available bool) *RemoteVideoStream {
	return &RemoteVideoStream{id: id, streamType: streamType, available: available}
}

func (s *RemoteVideoStream) ID() int { return s.id }

func (s *RemoteVideoStream) MediaStreamType() sdk.MediaStreamType { return s.streamType }

func (s *RemoteVideoStream) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

func (s *RemoteVideoStream) OnIsAvailableChanged(fn func()) sdk.Off {
	return s.availableChanged.onSignal(fn)
}

// SetAvailable updates availability and fires isAvailableChanged.
func (s *RemoteVideoStream) SetAvailable(available bool) {
	s.mu.Lock()
	s.available = available
	s.mu.Unlock()
	s.availableChanged.fire()
}

// HandlerCount returns the number of registered handlers.
func (s *RemoteVideoStream) HandlerCount() int {
	return s.availableChanged.count()
}

// LocalVideoStream is a fake sdk.LocalVideoStream.
type LocalVideoStream struct {
	mu         sync.RWMutex
	source     sdk.VideoDeviceInfo
	streamType sdk.MediaStreamType
}

// NewLocalVideoStream creates a local camera stream.
func NewLocalVideoStream(source sdk.VideoDeviceInfo) *LocalVideoStream {
	return &LocalVideoStream{source: source, streamType: sdk.MediaStreamTypeVideo}
}

func (s *LocalVideoStream) MediaStreamType() sdk.MediaStreamType { return s.streamType }

func (s *LocalVideoStream) Source() sdk.VideoDeviceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *LocalVideoStream) SwitchSource(_ context.Context, source sdk.VideoDeviceInfo) error {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
	return nil
}

var (
	_ sdk.RemoteVideoStream = (*RemoteVideoStream)(nil)
	_ sdk.LocalVideoStream  = (*LocalVideoStream)(nil)
)
