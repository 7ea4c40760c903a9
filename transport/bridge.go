package transport

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/DatanoiseTV/linkbridge"
)

var (
	ErrInvalidSampleRate     = errors.New("sample rate must be positive")
	ErrInvalidHostTimeFactor = errors.New("seconds to host time factor must be positive")
)

// DefaultSampleRate is used until ConfigureStatic is called.
const DefaultSampleRate = 48000.0

// NoClick is the last click host time before any click was rendered.
const NoClick int64 = math.MinInt64

// bridgeState is shared by the two halves of a bridge.
type bridgeState struct {
	session linkbridge.Session

	// Written only while the engine is stopped.
	sampleRate        float64
	secondsToHostTime float64

	// Written by the control thread, read by the audio thread.
	shared atomic.Pointer[Request]

	// Status mirrored out of the audio thread for other readers.
	playing   atomic.Bool
	lastClick atomic.Int64
}

// Controller is the control-thread half of a bridge. It may block; it must
// not be used from the audio thread.
type Controller struct {
	b *bridgeState
}

// AudioThread is the audio-thread half of a bridge. None of its methods
// block. It must only be used from the audio render goroutine.
type AudioThread struct {
	b     *bridgeState
	state linkbridge.SessionState

	adopted           *Request
	local             Request
	isPlaying         bool
	lastClickHostTime int64
}

// NewBridge returns the two halves of a transport bridge over session.
// Allocation happens here so the audio half never allocates.
func NewBridge(session linkbridge.Session) (*Controller, *AudioThread) {
	b := &bridgeState{
		session:           session,
		sampleRate:        DefaultSampleRate,
		secondsToHostTime: session.SecondsToHostTime(),
	}
	b.lastClick.Store(NoClick)
	audio := &AudioThread{
		b:                 b,
		state:             session.NewSessionState(),
		local:             Request{}.normalize(),
		lastClickHostTime: NoClick,
	}
	return &Controller{b: b}, audio
}

// Publish replaces the pending request with r as a whole. The audio thread
// picks it up on its next adoption; intermediate requests may be skipped.
func (c *Controller) Publish(r Request) {
	r = r.normalize()
	c.b.shared.Store(&r)
}

// Pending returns the most recently published request.
func (c *Controller) Pending() (Request, bool) {
	p := c.b.shared.Load()
	if p == nil {
		return Request{}, false
	}
	return *p, true
}

// ConfigureStatic sets the sample rate and host time conversion. It must
// only be called while no render callback is running.
func (c *Controller) ConfigureStatic(sampleRate, secondsToHostTime float64) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if secondsToHostTime <= 0 {
		return ErrInvalidHostTimeFactor
	}
	c.b.sampleRate = sampleRate
	c.b.secondsToHostTime = secondsToHostTime
	return nil
}

// Session returns the session the bridge forwards to.
func (c *Controller) Session() linkbridge.Session { return c.b.session }

// SampleRate returns the configured sample rate.
func (c *Controller) SampleRate() float64 { return c.b.sampleRate }

// SecondsToHostTime returns the configured host ticks per second.
func (c *Controller) SecondsToHostTime() float64 { return c.b.secondsToHostTime }

// IsPlaying reports the audio thread's transport state as of its last
// render callback.
func (c *Controller) IsPlaying() bool { return c.b.playing.Load() }

// LastClickHostTime reports the host time of the last rendered click.
func (c *Controller) LastClickHostTime() int64 { return c.b.lastClick.Load() }

// TryAdoptPendingRequest copies the latest published request into the local
// working copy. It reports false when nothing new has been published since
// the last adoption, in which case the local copy is kept.
func (a *AudioThread) TryAdoptPendingRequest() bool {
	p := a.b.shared.Load()
	if p == nil || p == a.adopted {
		return false
	}
	a.adopted = p
	a.local = *p
	return true
}

// ApplyLocalRequest applies the local request to the session at hostTime
// and commits the result. One-shot flags are cleared once acted upon.
func (a *AudioThread) ApplyLocalRequest(hostTime int64) {
	state := a.state
	a.b.session.CaptureAudioSessionState(state)
	quantum := a.local.Quantum

	if a.local.Start {
		if !state.IsPlaying() {
			state.SetIsPlaying(true, hostTime)
		}
		a.local.Start = false
	}
	if a.local.Stop {
		if state.IsPlaying() {
			state.SetIsPlaying(false, hostTime)
		}
		a.local.Stop = false
	}

	switch {
	case !a.isPlaying && state.IsPlaying():
		// Begin playback on the downbeat.
		state.RequestBeatAtStartPlayingTime(0, quantum)
		a.setPlaying(true)
	case a.isPlaying && !state.IsPlaying():
		a.setPlaying(false)
	}

	if a.local.Reset {
		state.ForceBeatAtTime(a.local.ResetBeat, hostTime, quantum)
		a.local.Reset = false
	}
	if a.local.Tempo > 0 && state.Tempo() != a.local.Tempo {
		state.SetTempo(a.local.Tempo, hostTime)
	}

	a.b.session.CommitAudioSessionState(state)
}

func (a *AudioThread) setPlaying(playing bool) {
	a.isPlaying = playing
	a.b.playing.Store(playing)
}

func (a *AudioThread) markClick(hostTime int64) {
	a.lastClickHostTime = hostTime
	a.b.lastClick.Store(hostTime)
}

// LocalRequest returns the audio thread's working copy.
func (a *AudioThread) LocalRequest() Request { return a.local }

// IsPlaying returns the transport state owned by the audio thread.
func (a *AudioThread) IsPlaying() bool { return a.isPlaying }

// LastClickHostTime returns the host time of the last rendered click.
func (a *AudioThread) LastClickHostTime() int64 { return a.lastClickHostTime }

// Session returns the session the bridge forwards to.
func (a *AudioThread) Session() linkbridge.Session { return a.b.session }

// SampleRate returns the configured sample rate.
func (a *AudioThread) SampleRate() float64 { return a.b.sampleRate }

// SecondsToHostTime returns the configured host ticks per second.
func (a *AudioThread) SecondsToHostTime() float64 { return a.b.secondsToHostTime }

// HostTicksPerSample derives the duration of one sample in host ticks.
func (a *AudioThread) HostTicksPerSample() float64 {
	return a.b.secondsToHostTime / a.b.sampleRate
}
