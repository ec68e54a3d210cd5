package declarative

import (
	"context"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// DeviceManager wraps the SDK device manager. Device lists, selections and
// permissions it returns are also written into the store.
type DeviceManager struct {
	sdk.DeviceManager
	sess *session

	ctx    context.Context
	cancel context.CancelFunc
	offs   []sdk.Off
	once   sync.Once
}

func newDeviceManager(dm sdk.DeviceManager, sess *session) *DeviceManager {
	ctx, cancel := context.WithCancel(context.Background())
	d := &DeviceManager{
		DeviceManager: dm,
		sess:          sess,
		ctx:           ctx,
		cancel:        cancel,
	}
	d.offs = []sdk.Off{
		dm.OnVideoDevicesUpdated(d.videoDevicesUpdated),
		dm.OnAudioDevicesUpdated(d.audioDevicesUpdated),
		dm.OnSelectedMicrophoneChanged(d.selectedMicrophoneChanged),
		dm.OnSelectedSpeakerChanged(d.selectedSpeakerChanged),
	}

	sess.store.SetDeviceManagerIsSpeakerSelectionAvailable(dm.IsSpeakerSelectionAvailable())
	sess.store.SetDeviceManagerSelectedMicrophone(dm.SelectedMicrophone())
	sess.store.SetDeviceManagerSelectedSpeaker(dm.SelectedSpeaker())
	return d
}

func (d *DeviceManager) GetCameras(ctx context.Context) ([]sdk.VideoDeviceInfo, error) {
	cameras, err := d.DeviceManager.GetCameras(ctx)
	if err != nil {
		return nil, err
	}
	d.sess.store.SetDeviceManagerCameras(dedupe(cameras, func(c sdk.VideoDeviceInfo) string { return c.ID }))
	return cameras, nil
}

func (d *DeviceManager) GetMicrophones(ctx context.Context) ([]sdk.AudioDeviceInfo, error) {
	microphones, err := d.DeviceManager.GetMicrophones(ctx)
	if err != nil {
		return nil, err
	}
	d.sess.store.SetDeviceManagerMicrophones(dedupe(microphones, audioID))
	return microphones, nil
}

func (d *DeviceManager) GetSpeakers(ctx context.Context) ([]sdk.AudioDeviceInfo, error) {
	speakers, err := d.DeviceManager.GetSpeakers(ctx)
	if err != nil {
		return nil, err
	}
	d.sess.store.SetDeviceManagerSpeakers(dedupe(speakers, audioID))
	return speakers, nil
}

func (d *DeviceManager) SelectMicrophone(ctx context.Context, device sdk.AudioDeviceInfo) error {
	if err := d.DeviceManager.SelectMicrophone(ctx, device); err != nil {
		return err
	}
	d.sess.store.SetDeviceManagerSelectedMicrophone(&device)
	return nil
}

func (d *DeviceManager) SelectSpeaker(ctx context.Context, device sdk.AudioDeviceInfo) error {
	if err := d.DeviceManager.SelectSpeaker(ctx, device); err != nil {
		return err
	}
	d.sess.store.SetDeviceManagerSelectedSpeaker(&device)
	return nil
}

func (d *DeviceManager) AskDevicePermission(ctx context.Context, constraints sdk.PermissionConstraints) (sdk.DeviceAccess, error) {
	access, err := d.DeviceManager.AskDevicePermission(ctx, constraints)
	if err != nil {
		return sdk.DeviceAccess{}, err
	}
	d.sess.store.SetDeviceManagerDeviceAccess(access)
	return access, nil
}

// Unwrap returns the SDK device manager.
func (d *DeviceManager) Unwrap() sdk.DeviceManager {
	return d.DeviceManager
}

func (d *DeviceManager) videoDevicesUpdated(sdk.CollectionUpdate[sdk.VideoDeviceInfo]) {
	if _, err := d.GetCameras(d.ctx); err != nil {
		d.sess.logger.Warn().Err(err).Msg("refresh cameras failed")
	}
}

func (d *DeviceManager) audioDevicesUpdated(sdk.CollectionUpdate[sdk.AudioDeviceInfo]) {
	if _, err := d.GetMicrophones(d.ctx); err != nil {
		d.sess.logger.Warn().Err(err).Msg("refresh microphones failed")
	}
	if !d.DeviceManager.IsSpeakerSelectionAvailable() {
		return
	}
	if _, err := d.GetSpeakers(d.ctx); err != nil {
		d.sess.logger.Warn().Err(err).Msg("refresh speakers failed")
	}
}

func (d *DeviceManager) selectedMicrophoneChanged() {
	d.sess.store.SetDeviceManagerSelectedMicrophone(d.DeviceManager.SelectedMicrophone())
}

func (d *DeviceManager) selectedSpeakerChanged() {
	d.sess.store.SetDeviceManagerSelectedSpeaker(d.DeviceManager.SelectedSpeaker())
}

// close removes the listeners and cancels refreshes in flight.
func (d *DeviceManager) close() {
	d.once.Do(func() {
		d.cancel()
		for _, off := range d.offs {
			off()
		}
	})
}

func audioID(a sdk.AudioDeviceInfo) string { return a.ID }

// dedupe keeps the first device of each id, in order.
func dedupe[T any](devices []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(devices))
	out := make([]T, 0, len(devices))
	for _, dev := range devices {
		if _, ok := seen[id(dev)]; ok {
			continue
		}
		seen[id(dev)] = struct{}{}
		out = append(out, dev)
	}
	return out
}

var _ sdk.DeviceManager = (*DeviceManager)(nil)
