package transport

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DatanoiseTV/linkbridge"
)

const ticksPerSecond = 1e9

func newTestBridge(t *testing.T) (*linkbridge.LocalSession, *Controller, *AudioThread) {
	t.Helper()
	session := linkbridge.NewLocalSession(120, linkbridge.NewManualClock(ticksPerSecond))
	ctrl, audio := NewBridge(session)
	return session, ctrl, audio
}

func appState(s *linkbridge.LocalSession) linkbridge.SessionState {
	state := s.NewSessionState()
	s.CaptureAppSessionState(state)
	return state
}

func TestBridge_InitialState(t *testing.T) {
	_, ctrl, audio := newTestBridge(t)

	assert.False(t, audio.IsPlaying())
	assert.False(t, ctrl.IsPlaying())
	assert.Equal(t, NoClick, audio.LastClickHostTime())
	assert.Equal(t, NoClick, ctrl.LastClickHostTime())
	assert.Equal(t, DefaultSampleRate, audio.SampleRate())
	assert.Equal(t, ticksPerSecond, audio.SecondsToHostTime())
	assert.Equal(t, DefaultQuantum, audio.LocalRequest().Quantum)

	_, ok := ctrl.Pending()
	assert.False(t, ok)
}

func TestBridge_TryAdopt_NothingPublished(t *testing.T) {
	_, _, audio := newTestBridge(t)
	assert.False(t, audio.TryAdoptPendingRequest())
}

func TestBridge_TryAdopt_AdoptsEachPublishOnce(t *testing.T) {
	_, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Tempo: 128, Quantum: 3, OutputLatency: 42})
	require.True(t, audio.TryAdoptPendingRequest())
	assert.False(t, audio.TryAdoptPendingRequest(), "same request is not adopted twice")

	assert.Equal(t, Request{Tempo: 128, Quantum: 3, OutputLatency: 42}, audio.LocalRequest())

	ctrl.Publish(Request{Tempo: 128, Quantum: 3, OutputLatency: 42})
	assert.True(t, audio.TryAdoptPendingRequest(), "an equal value published again is new")
}

func TestBridge_LastWriteWins(t *testing.T) {
	_, ctrl, audio := newTestBridge(t)

	r1 := Request{Tempo: 100, Quantum: 4, Start: true}
	r2 := Request{Tempo: 150, Quantum: 7}
	ctrl.Publish(r1)
	ctrl.Publish(r2)

	require.True(t, audio.TryAdoptPendingRequest())
	assert.Equal(t, r2, audio.LocalRequest())
	assert.False(t, audio.TryAdoptPendingRequest())
}

func TestBridge_NoTornReads(t *testing.T) {
	_, ctrl, audio := newTestBridge(t)

	const publishes = 20000
	var done atomic.Bool
	var torn, adopted atomic.Int64

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer done.Store(true)
		for i := 1; i <= publishes; i++ {
			n := int64(i % 500)
			ctrl.Publish(Request{
				OutputLatency: n,
				ResetBeat:     float64(n),
				Reset:         true,
				Tempo:         100 + float64(n),
				Quantum:       float64(1 + n%7),
			})
		}
	}()
	go func() {
		defer wg.Done()
		for !done.Load() {
			if !audio.TryAdoptPendingRequest() {
				continue
			}
			adopted.Add(1)
			r := audio.LocalRequest()
			n := r.OutputLatency
			if r.ResetBeat != float64(n) || r.Tempo != 100+float64(n) || r.Quantum != float64(1+n%7) || !r.Reset {
				torn.Add(1)
			}
		}
	}()
	wg.Wait()

	// Once publishing stops the latest request is the one adopted.
	if audio.TryAdoptPendingRequest() {
		adopted.Add(1)
	}
	assert.Zero(t, torn.Load(), "adopted a request mixing fields from two publishes")
	assert.Positive(t, adopted.Load())

	last, ok := ctrl.Pending()
	require.True(t, ok)
	assert.Equal(t, last, audio.LocalRequest())
}

func TestBridge_StartFromStopped(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Start: true, Tempo: 120, Quantum: 4})
	require.False(t, audio.IsPlaying())

	require.True(t, audio.TryAdoptPendingRequest())
	audio.ApplyLocalRequest(0)

	assert.True(t, audio.IsPlaying())
	assert.True(t, ctrl.IsPlaying())
	assert.False(t, audio.LocalRequest().Start)
	assert.True(t, appState(session).IsPlaying())

	for i := 1; i <= 3; i++ {
		assert.False(t, audio.TryAdoptPendingRequest())
		audio.ApplyLocalRequest(int64(i) * 1_000_000)
		assert.False(t, audio.LocalRequest().Start)
	}
}

func TestBridge_StartFlagIsConsumed(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Start: true})
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(0)
	require.True(t, audio.IsPlaying())

	// Another participant stops the session.
	state := appState(session)
	state.SetIsPlaying(false, 10)
	session.CommitAppSessionState(state)

	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(20)
	assert.False(t, audio.IsPlaying(), "the consumed start must not re-trigger")

	audio.ApplyLocalRequest(30)
	assert.False(t, audio.IsPlaying())
	assert.False(t, appState(session).IsPlaying())
}

func TestBridge_Stop(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Start: true})
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(0)
	require.True(t, audio.IsPlaying())

	ctrl.Publish(Request{Stop: true})
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(1_000)

	assert.False(t, audio.IsPlaying())
	assert.False(t, ctrl.IsPlaying())
	assert.False(t, audio.LocalRequest().Stop)
	assert.False(t, appState(session).IsPlaying())
	assert.Equal(t, int64(1_000), appState(session).TimeForIsPlaying())
}

func TestBridge_FollowsSessionTransport(t *testing.T) {
	session, _, audio := newTestBridge(t)

	state := appState(session)
	state.SetIsPlaying(true, 500_000_000)
	session.CommitAppSessionState(state)

	audio.ApplyLocalRequest(600_000_000)
	assert.True(t, audio.IsPlaying())
	assert.Equal(t, 0.0, appState(session).BeatAtTime(500_000_000, 4), "playback starts on the downbeat")
}

func TestBridge_StartAnchorsDownbeat(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Start: true})
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(250_000_000)

	state := appState(session)
	assert.Equal(t, 0.0, state.BeatAtTime(250_000_000, 4))
	assert.Equal(t, 1.0, state.BeatAtTime(750_000_000, 4))
}

func TestBridge_ResetBeat(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{}.WithReset(8))
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(1_000_000_000)

	assert.False(t, audio.LocalRequest().Reset)
	assert.Equal(t, 8.0, appState(session).BeatAtTime(1_000_000_000, 4))

	// Not applied again: the timeline keeps running from the reset.
	audio.ApplyLocalRequest(1_500_000_000)
	assert.Equal(t, 9.0, appState(session).BeatAtTime(1_500_000_000, 4))
}

func TestBridge_ProposesTempoEveryCycle(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Tempo: 140})
	audio.TryAdoptPendingRequest()
	audio.ApplyLocalRequest(1_000_000_000)

	state := appState(session)
	assert.Equal(t, 140.0, state.Tempo())
	assert.Equal(t, 2.0, state.BeatAtTime(1_000_000_000, 4), "beat kept across the change")

	// Someone else moves the tempo; the proposal is applied again.
	state.SetTempo(90, 1_000_000_000)
	session.CommitAppSessionState(state)
	audio.ApplyLocalRequest(2_000_000_000)
	assert.Equal(t, 140.0, appState(session).Tempo())
	assert.Equal(t, 140.0, audio.LocalRequest().Tempo)
}

func TestBridge_NoTempoProposal(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)

	ctrl.Publish(Request{Quantum: 4})
	audio.TryAdoptPendingRequest()

	state := appState(session)
	state.SetTempo(90, 0)
	session.CommitAppSessionState(state)

	audio.ApplyLocalRequest(1_000)
	assert.Equal(t, 90.0, appState(session).Tempo())
}

func TestBridge_PublishNormalizes(t *testing.T) {
	_, ctrl, _ := newTestBridge(t)

	ctrl.Publish(Request{Tempo: 5000, OutputLatency: -3})
	pending, ok := ctrl.Pending()
	require.True(t, ok)
	assert.Equal(t, linkbridge.MaxTempo, pending.Tempo)
	assert.Equal(t, DefaultQuantum, pending.Quantum)
	assert.Zero(t, pending.OutputLatency)

	ctrl.Publish(Request{Tempo: -1})
	pending, _ = ctrl.Pending()
	assert.Zero(t, pending.Tempo)
}

func TestBridge_ConfigureStatic(t *testing.T) {
	_, ctrl, audio := newTestBridge(t)

	assert.ErrorIs(t, ctrl.ConfigureStatic(0, 1e9), ErrInvalidSampleRate)
	assert.ErrorIs(t, ctrl.ConfigureStatic(44100, -1), ErrInvalidHostTimeFactor)
	assert.Equal(t, DefaultSampleRate, audio.SampleRate(), "rejected values are not stored")

	require.NoError(t, ctrl.ConfigureStatic(44100, 1e6))
	assert.Equal(t, 44100.0, audio.SampleRate())
	assert.Equal(t, 44100.0, ctrl.SampleRate())
	assert.Equal(t, 1e6, audio.SecondsToHostTime())
	assert.Equal(t, 1e6, ctrl.SecondsToHostTime())
	assert.InDelta(t, 1e6/44100, audio.HostTicksPerSample(), 1e-9)
}

func TestBridge_StaticFieldsConstantWhileRunning(t *testing.T) {
	session, ctrl, audio := newTestBridge(t)
	require.NoError(t, ctrl.ConfigureStatic(44100, ticksPerSecond))
	engine := NewEngine(audio, nil)

	run := func() (rates, factors map[float64]bool) {
		rates, factors = map[float64]bool{}, map[float64]bool{}
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 200; i++ {
				engine.Render(int64(i)*1_000_000, 64)
				rates[audio.SampleRate()] = true
				factors[audio.SecondsToHostTime()] = true
			}
		}()
		for i := 0; i < 200; i++ {
			ctrl.Publish(Request{Tempo: float64(100 + i)})
		}
		<-done
		return rates, factors
	}

	rates, factors := run()
	assert.Equal(t, map[float64]bool{44100: true}, rates)
	assert.Equal(t, map[float64]bool{ticksPerSecond: true}, factors)

	// Stopped: reconfiguration is allowed and seen by the next run.
	require.NoError(t, ctrl.ConfigureStatic(96000, ticksPerSecond))
	rates, _ = run()
	assert.Equal(t, map[float64]bool{96000: true}, rates)
	assert.Same(t, session, audio.Session())
}

// recordingState records which beat-mapping call the bridge makes.
type recordingState struct {
	linkbridge.Timeline
	calls []string
}

func (s *recordingState) RequestBeatAtTime(beat float64, time int64, quantum float64) {
	s.calls = append(s.calls, "request")
	s.Timeline.RequestBeatAtTime(beat, time, quantum)
}

func (s *recordingState) ForceBeatAtTime(beat float64, time int64, quantum float64) {
	s.calls = append(s.calls, "force")
	s.Timeline.ForceBeatAtTime(beat, time, quantum)
}

// recordingSession hands out recordingStates and ignores capture and commit.
type recordingSession struct {
	linkbridge.HostClock
	states []*recordingState
}

func (s *recordingSession) NewSessionState() linkbridge.SessionState {
	st := &recordingState{Timeline: linkbridge.NewTimeline(120, ticksPerSecond, 0)}
	s.states = append(s.states, st)
	return st
}

func (s *recordingSession) CaptureAudioSessionState(linkbridge.SessionState) {}
func (s *recordingSession) CommitAudioSessionState(linkbridge.SessionState) {}
func (s *recordingSession) CaptureAppSessionState(linkbridge.SessionState) {}
func (s *recordingSession) CommitAppSessionState(linkbridge.SessionState) {}
func (s *recordingSession) Enable(bool) {}
func (s *recordingSession) IsEnabled() bool { return true }

func TestBridge_ResetForcesBeat(t *testing.T) {
	session := &recordingSession{HostClock: linkbridge.NewManualClock(ticksPerSecond)}
	ctrl, audio := NewBridge(session)
	require.Len(t, session.states, 1)

	ctrl.Publish(Request{}.WithReset(2))
	require.True(t, audio.TryAdoptPendingRequest())
	audio.ApplyLocalRequest(1_000)

	state := session.states[0]
	assert.Equal(t, []string{"force"}, state.calls)
	assert.Equal(t, 2.0, state.BeatAtTime(1_000, 4))
	assert.False(t, audio.LocalRequest().Reset)
}
