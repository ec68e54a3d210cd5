package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/declarative"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
	"github.com/vovakirdan/callstate/internal/state"
)

var errNotSimulated = errors.New("call is not backed by the simulated sdk")

var (
	frontCamera = sdk.VideoDeviceInfo{ID: "cam-front", Name: "Front Camera", DeviceType: "USBCamera"}
	backCamera  = sdk.VideoDeviceInfo{ID: "cam-back", Name: "Back Camera", DeviceType: "USBCamera"}
	builtinMic  = sdk.AudioDeviceInfo{ID: "mic-builtin", Name: "Built-in Microphone", DeviceType: sdk.AudioDeviceTypeMicrophone, IsSystemDefault: true}
	headsetMic  = sdk.AudioDeviceInfo{ID: "mic-headset", Name: "Headset Microphone", DeviceType: sdk.AudioDeviceTypeMicrophone}
	speakers    = sdk.AudioDeviceInfo{ID: "spk-builtin", Name: "Speakers", DeviceType: sdk.AudioDeviceTypeSpeaker, IsSystemDefault: true}
)

// Scenario drives a scripted session against the simulated SDK through the
// declarative client, so that every subscriber and proxy path produces
// state.
type Scenario struct {
	client *declarative.CallClient
	agent  sdk.CallAgent
	raw    *sdkfake.CallAgent
	dm     *sdkfake.DeviceManager
	cfg    config.Simulation
	log    *zerolog.Logger

	calls   []*simCall
	ringing *sdkfake.IncomingCall
	step    int
}

type simCall struct {
	call         sdk.Call
	raw          *sdkfake.Call
	participants []*sdkfake.RemoteParticipant
	streams      []*sdkfake.RemoteVideoStream
}

// NewScenario builds a scenario. agent is the wrapped agent returned by
// client.CreateCallAgent and raw the simulated agent behind it.
func NewScenario(client *declarative.CallClient, agent sdk.CallAgent, raw *sdkfake.CallAgent, dm *sdkfake.DeviceManager, cfg config.Simulation, logger *zerolog.Logger) *Scenario {
	return &Scenario{
		client: client,
		agent:  agent,
		raw:    raw,
		dm:     dm,
		cfg:    cfg,
		log:    logger,
	}
}

// Setup plugs in devices and starts the configured calls.
func (s *Scenario) Setup(ctx context.Context) error {
	s.dm.AddCameras(frontCamera, backCamera)
	s.dm.AddAudioDevices(builtinMic, headsetMic, speakers)

	dm, err := s.client.GetDeviceManager(ctx)
	if err != nil {
		return fmt.Errorf("get device manager: %w", err)
	}
	if _, err := dm.AskDevicePermission(ctx, sdk.PermissionConstraints{Audio: true, Video: true}); err != nil {
		return fmt.Errorf("ask device permission: %w", err)
	}
	if err := dm.SelectMicrophone(ctx, builtinMic); err != nil {
		return fmt.Errorf("select microphone: %w", err)
	}
	if dm.IsSpeakerSelectionAvailable() {
		if err := dm.SelectSpeaker(ctx, speakers); err != nil {
			return fmt.Errorf("select speaker: %w", err)
		}
	}

	for i := 0; i < s.cfg.Calls; i++ {
		if err := s.startCall(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) startCall(ctx context.Context, n int) error {
	ids := make([]sdk.Identifier, 0, s.cfg.ParticipantsPerCall)
	for j := 0; j < s.cfg.ParticipantsPerCall; j++ {
		ids = append(ids, sdk.CommunicationUser(fmt.Sprintf("8:acs:sim-%d-%d", n, j)))
	}

	call, err := s.agent.StartCall(ctx, ids, sdk.StartCallOptions{})
	if err != nil {
		return fmt.Errorf("start call: %w", err)
	}
	raw, ok := rawCall(call)
	if !ok {
		return errNotSimulated
	}
	sc := &simCall{call: call, raw: raw}
	raw.SetState(sdk.CallStateConnected)

	for j, rp := range raw.RemoteParticipants() {
		p, ok := rp.(*sdkfake.RemoteParticipant)
		if !ok {
			continue
		}
		p.SetDisplayName(fmt.Sprintf("Guest %d.%d", n, j))
		p.SetState(sdk.ParticipantStateConnected)
		stream := sdkfake.NewRemoteVideoStream(n*100+j+1, sdk.MediaStreamTypeVideo, true)
		p.AddVideoStreams(stream)
		sc.participants = append(sc.participants, p)
		sc.streams = append(sc.streams, stream)
	}

	if err := call.StartVideo(ctx, sdkfake.NewLocalVideoStream(frontCamera)); err != nil {
		return fmt.Errorf("start video: %w", err)
	}
	if err := s.client.StartRenderVideo(ctx, call.ID(), state.LocalVideoStream{}, sdk.CreateViewOptions{IsMirrored: true}); err != nil {
		return fmt.Errorf("render local video: %w", err)
	}
	if len(sc.streams) > 0 {
		target := state.RemoteVideoStream{ID: sc.streams[0].ID()}
		if err := s.client.StartRenderVideo(ctx, call.ID(), target, sdk.CreateViewOptions{ScalingMode: sdk.ScalingModeFit}); err != nil {
			return fmt.Errorf("render remote video: %w", err)
		}
	}

	s.calls = append(s.calls, sc)
	s.log.Info().Str("call_id", call.ID()).Int("participants", len(sc.participants)).Msg("simulated call started")
	return nil
}

// Step performs the next scripted event.
func (s *Scenario) Step(ctx context.Context) error {
	s.step++

	if s.step%7 == 3 || len(s.calls) == 0 {
		return s.toggleIncoming(ctx)
	}

	sc := s.calls[s.step%len(s.calls)]
	if sc.raw.State() == sdk.CallStateDisconnected {
		return nil
	}

	switch s.step % 7 {
	case 0:
		if p := pick(sc.participants, s.step); p != nil {
			p.SetMuted(!p.IsMuted())
		}
	case 1:
		if p := pick(sc.participants, s.step); p != nil {
			p.SetSpeaking(!p.IsSpeaking())
		}
	case 2:
		if stream := pick(sc.streams, s.step); stream != nil {
			stream.SetAvailable(!stream.IsAvailable())
		}
	case 4:
		sc.raw.SetScreenSharingOn(!sc.raw.IsScreenSharingOn())
	case 5:
		if sc.call.IsMuted() {
			return sc.call.Unmute(ctx)
		}
		return sc.call.Mute(ctx)
	case 6:
		if sc.call.State() == sdk.CallStateLocalHold {
			return sc.call.Resume(ctx)
		}
		return sc.call.Hold(ctx)
	}
	return nil
}

func (s *Scenario) toggleIncoming(ctx context.Context) error {
	if s.ringing != nil {
		err := s.ringing.Reject(ctx)
		s.ringing = nil
		return err
	}
	s.ringing = sdkfake.NewIncomingCall(uuid.NewString(), sdk.CallerInfo{
		Identifier:  sdk.PhoneNumber(fmt.Sprintf("+1555010%04d", s.step)),
		DisplayName: fmt.Sprintf("Caller %d", s.step),
	})
	s.raw.ReceiveIncomingCall(s.ringing)
	return nil
}

// Finish rejects a ringing call and hangs up every call.
func (s *Scenario) Finish(ctx context.Context) error {
	var errs []error
	if s.ringing != nil {
		errs = append(errs, s.ringing.Reject(ctx))
		s.ringing = nil
	}
	for _, sc := range s.calls {
		if sc.raw.State() == sdk.CallStateDisconnected {
			continue
		}
		errs = append(errs, sc.call.Hangup(ctx, sdk.HangUpOptions{}))
	}
	return errors.Join(errs...)
}

// Run sets the scenario up and steps it every tick until ctx is done.
func (s *Scenario) Run(ctx context.Context) error {
	if err := s.Setup(ctx); err != nil {
		return err
	}

	tick := s.cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				s.log.Warn().Err(err).Int("step", s.step).Msg("scenario step failed")
			}
		}
	}
}

func rawCall(call sdk.Call) (*sdkfake.Call, bool) {
	if w, ok := call.(interface{ Unwrap() sdk.Call }); ok {
		call = w.Unwrap()
	}
	raw, ok := call.(*sdkfake.Call)
	return raw, ok
}

func pick[T any](items []*T, n int) *T {
	if len(items) == 0 {
		return nil
	}
	return items[n%len(items)]
}
