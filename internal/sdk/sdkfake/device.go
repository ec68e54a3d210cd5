package sdkfake

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// ErrDeviceNotFound is returned when selecting an unknown device.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceManager is a fake sdk.DeviceManager.
type DeviceManager struct {
	mu                 sync.RWMutex
	speakerSelection   bool
	cameras            []sdk.VideoDeviceInfo
	microphones        []sdk.AudioDeviceInfo
	speakers           []sdk.AudioDeviceInfo
	selectedMicrophone *sdk.AudioDeviceInfo
	selectedSpeaker    *sdk.AudioDeviceInfo
	access             sdk.DeviceAccess
	failWith           error

	videoDevicesUpdated emitter[sdk.CollectionUpdate[sdk.VideoDeviceInfo]]
	audioDevicesUpdated emitter[sdk.CollectionUpdate[sdk.AudioDeviceInfo]]
	microphoneChanged   signal
	speakerChanged      signal
}

// NewDeviceManager creates a device manager with speaker selection enabled
// and every permission granted.
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{
		speakerSelection: true,
		access:           sdk.DeviceAccess{Audio: true, Video: true},
	}
}

func (d *DeviceManager) IsSpeakerSelectionAvailable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.speakerSelection
}

func (d *DeviceManager) SelectedMicrophone() *sdk.AudioDeviceInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selectedMicrophone
}

func (d *DeviceManager) SelectedSpeaker() *sdk.AudioDeviceInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selectedSpeaker
}

func (d *DeviceManager) GetCameras(_ context.Context) ([]sdk.VideoDeviceInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failWith != nil {
		return nil, d.failWith
	}
	return slices.Clone(d.cameras), nil
}

func (d *DeviceManager) GetMicrophones(_ context.Context) ([]sdk.AudioDeviceInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failWith != nil {
		return nil, d.failWith
	}
	return slices.Clone(d.microphones), nil
}

func (d *DeviceManager) GetSpeakers(_ context.Context) ([]sdk.AudioDeviceInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failWith != nil {
		return nil, d.failWith
	}
	return slices.Clone(d.speakers), nil
}

// SelectMicrophone selects a known microphone and fires selectedMicrophoneChanged.
func (d *DeviceManager) SelectMicrophone(_ context.Context, device sdk.AudioDeviceInfo) error {
	d.mu.Lock()
	if d.failWith != nil {
		err := d.failWith
		d.mu.Unlock()
		return err
	}
	if !slices.ContainsFunc(d.microphones, func(m sdk.AudioDeviceInfo) bool { return m.ID == device.ID }) {
		d.mu.Unlock()
		return ErrDeviceNotFound
	}
	d.selectedMicrophone = &device
	d.mu.Unlock()
	d.microphoneChanged.fire()
	return nil
}

// SelectSpeaker selects a known speaker and fires selectedSpeakerChanged.
func (d *DeviceManager) SelectSpeaker(_ context.Context, device sdk.AudioDeviceInfo) error {
	d.mu.Lock()
	if d.failWith != nil {
		err := d.failWith
		d.mu.Unlock()
		return err
	}
	if !slices.ContainsFunc(d.speakers, func(s sdk.AudioDeviceInfo) bool { return s.ID == device.ID }) {
		d.mu.Unlock()
		return ErrDeviceNotFound
	}
	d.selectedSpeaker = &device
	d.mu.Unlock()
	d.speakerChanged.fire()
	return nil
}

func (d *DeviceManager) AskDevicePermission(_ context.Context, constraints sdk.PermissionConstraints) (sdk.DeviceAccess, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failWith != nil {
		return sdk.DeviceAccess{}, d.failWith
	}
	return sdk.DeviceAccess{
		Audio: constraints.Audio && d.access.Audio,
		Video: constraints.Video && d.access.Video,
	}, nil
}

func (d *DeviceManager) OnVideoDevicesUpdated(fn func(sdk.CollectionUpdate[sdk.VideoDeviceInfo])) sdk.Off {
	return d.videoDevicesUpdated.on(fn)
}

func (d *DeviceManager) OnAudioDevicesUpdated(fn func(sdk.CollectionUpdate[sdk.AudioDeviceInfo])) sdk.Off {
	return d.audioDevicesUpdated.on(fn)
}

func (d *DeviceManager) OnSelectedMicrophoneChanged(fn func()) sdk.Off {
	return d.microphoneChanged.onSignal(fn)
}

func (d *DeviceManager) OnSelectedSpeakerChanged(fn func()) sdk.Off {
	return d.speakerChanged.onSignal(fn)
}

// SetSpeakerSelectionAvailable toggles speaker selection support.
func (d *DeviceManager) SetSpeakerSelectionAvailable(available bool) {
	d.mu.Lock()
	d.speakerSelection = available
	d.mu.Unlock()
}

// SetAccess sets the permissions AskDevicePermission grants.
func (d *DeviceManager) SetAccess(access sdk.DeviceAccess) {
	d.mu.Lock()
	d.access = access
	d.mu.Unlock()
}

// SetError makes every async method fail with err until cleared with nil.
func (d *DeviceManager) SetError(err error) {
	d.mu.Lock()
	d.failWith = err
	d.mu.Unlock()
}

// AddCameras plugs in cameras and fires videoDevicesUpdated.
func (d *DeviceManager) AddCameras(cameras ...sdk.VideoDeviceInfo) {
	d.mu.Lock()
	d.cameras = append(d.cameras, cameras...)
	d.mu.Unlock()
	d.videoDevicesUpdated.emit(sdk.CollectionUpdate[sdk.VideoDeviceInfo]{Added: cameras})
}

// RemoveCameras unplugs cameras by id and fires videoDevicesUpdated.
func (d *DeviceManager) RemoveCameras(cameras ...sdk.VideoDeviceInfo) {
	d.mu.Lock()
	d.cameras = slices.DeleteFunc(d.cameras, func(c sdk.VideoDeviceInfo) bool {
		return slices.ContainsFunc(cameras, func(r sdk.VideoDeviceInfo) bool { return r.ID == c.ID })
	})
	d.mu.Unlock()
	d.videoDevicesUpdated.emit(sdk.CollectionUpdate[sdk.VideoDeviceInfo]{Removed: cameras})
}

// AddAudioDevices plugs in microphones and speakers (by DeviceType) and fires
// audioDevicesUpdated.
func (d *DeviceManager) AddAudioDevices(devices ...sdk.AudioDeviceInfo) {
	d.mu.Lock()
	for _, dev := range devices {
		if dev.DeviceType == sdk.AudioDeviceTypeSpeaker {
			d.speakers = append(d.speakers, dev)
		} else {
			d.microphones = append(d.microphones, dev)
		}
	}
	d.mu.Unlock()
	d.audioDevicesUpdated.emit(sdk.CollectionUpdate[sdk.AudioDeviceInfo]{Added: devices})
}

// RemoveAudioDevices unplugs audio devices by id and fires audioDevicesUpdated.
func (d *DeviceManager) RemoveAudioDevices(devices ...sdk.AudioDeviceInfo) {
	match := func(a sdk.AudioDeviceInfo) bool {
		return slices.ContainsFunc(devices, func(r sdk.AudioDeviceInfo) bool { return r.ID == a.ID })
	}
	d.mu.Lock()
	d.microphones = slices.DeleteFunc(d.microphones, match)
	d.speakers = slices.DeleteFunc(d.speakers, match)
	d.mu.Unlock()
	d.audioDevicesUpdated.emit(sdk.CollectionUpdate[sdk.AudioDeviceInfo]{Removed: devices})
}

// HandlerCount returns the number of registered handlers across all events.
func (d *DeviceManager) HandlerCount() int {
	return d.videoDevicesUpdated.count() + d.audioDevicesUpdated.count() +
		d.microphoneChanged.count() + d.speakerChanged.count()
}

var _ sdk.DeviceManager = (*DeviceManager)(nil)
