package state

import (
	"slices"

	"github.com/vovakirdan/callstate/internal/sdk"
)

func (s *Store) SetDeviceManagerIsSpeakerSelectionAvailable(available bool) {
	s.updateDevices("SetDeviceManagerIsSpeakerSelectionAvailable", func(d *DeviceManagerState) bool {
		if d.IsSpeakerSelectionAvailable == available {
			return false
		}
		d.IsSpeakerSelectionAvailable = available
		return true
	})
}

func (s *Store) SetDeviceManagerSelectedMicrophone(device *sdk.AudioDeviceInfo) {
	s.updateDevices("SetDeviceManagerSelectedMicrophone", func(d *DeviceManagerState) bool {
		d.SelectedMicrophone = copyPtr(device)
		return true
	})
}

func (s *Store) SetDeviceManagerSelectedSpeaker(device *sdk.AudioDeviceInfo) {
	s.updateDevices("SetDeviceManagerSelectedSpeaker", func(d *DeviceManagerState) bool {
		d.SelectedSpeaker = copyPtr(device)
		return true
	})
}

func (s *Store) SetDeviceManagerCameras(cameras []sdk.VideoDeviceInfo) {
	s.updateDevices("SetDeviceManagerCameras", func(d *DeviceManagerState) bool {
		d.Cameras = slices.Clone(cameras)
		return true
	})
}

func (s *Store) SetDeviceManagerMicrophones(microphones []sdk.AudioDeviceInfo) {
	s.updateDevices("SetDeviceManagerMicrophones", func(d *DeviceManagerState) bool {
		d.Microphones = slices.Clone(microphones)
		return true
	})
}

func (s *Store) SetDeviceManagerSpeakers(speakers []sdk.AudioDeviceInfo) {
	s.updateDevices("SetDeviceManagerSpeakers", func(d *DeviceManagerState) bool {
		d.Speakers = slices.Clone(speakers)
		return true
	})
}

func (s *Store) SetDeviceManagerDeviceAccess(access sdk.DeviceAccess) {
	s.updateDevices("SetDeviceManagerDeviceAccess", func(d *DeviceManagerState) bool {
		d.DeviceAccess = &access
		return true
	})
}

// SetUserID records the identity of the local user.
func (s *Store) SetUserID(id sdk.Identifier) {
	s.mutate("SetUserID", func(next *State) bool {
		if next.UserID == id {
			return false
		}
		next.UserID = id
		return true
	})
}

// updateDevices works on a value copy; slices it replaces are never shared
// with the previous snapshot.
func (s *Store) updateDevices(op string, fn func(d *DeviceManagerState) bool) {
	s.mutate(op, func(next *State) bool {
		return fn(&next.DeviceManager)
	})
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
