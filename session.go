// Package linkbridge defines the tempo/transport session a real-time audio
// engine synchronizes against, along with an in-process single-peer session
// and the host clocks both sides share.
//
// The method set follows the Ableton Link C API (abl_link) so the cgo
// binding in package abletonlink and LocalSession are interchangeable.
package linkbridge

// HostClock is a monotonic tick counter used as the audio time base.
type HostClock interface {
	// HostTime returns the current host time in ticks.
	HostTime() int64
	// SecondsToHostTime returns the number of ticks per second.
	SecondsToHostTime() float64
}

// SessionState is a captured copy of a session's timeline and transport.
// Mutations only take effect once committed back to the session.
type SessionState interface {
	// Tempo returns the tempo in BPM
	Tempo() float64
	// SetTempo sets the tempo at the given host time
	SetTempo(bpm float64, atTime int64)
	// BeatAtTime returns the beat value at the given time for the given quantum
	BeatAtTime(time int64, quantum float64) float64
	// PhaseAtTime returns the phase in [0, quantum) at the given time
	PhaseAtTime(time int64, quantum float64) float64
	// TimeAtBeat returns the time at which the given beat occurs
	TimeAtBeat(beat float64, quantum float64) int64
	// RequestBeatAtTime attempts to map the given beat to the given time
	RequestBeatAtTime(beat float64, time int64, quantum float64)
	// ForceBeatAtTime forcibly maps the given beat to the given time
	ForceBeatAtTime(beat float64, time int64, quantum float64)
	// SetIsPlaying sets the transport playing state at the given time
	SetIsPlaying(isPlaying bool, time int64)
	// IsPlaying returns whether transport is currently playing
	IsPlaying() bool
	// TimeForIsPlaying returns the time at which transport start/stop occurs
	TimeForIsPlaying() int64
	// RequestBeatAtStartPlayingTime maps beat to the transport start time
	RequestBeatAtStartPlayingTime(beat float64, quantum float64)
}

// Session is a handle to a tempo-sync session.
//
// The Audio variants of capture and commit are realtime-safe and may only be
// called from the audio thread. The App variants may block and must not be
// called from the audio thread.
type Session interface {
	HostClock

	// NewSessionState allocates a state suitable for this session's
	// capture and commit calls. Allocate once, outside the audio thread.
	NewSessionState() SessionState

	CaptureAudioSessionState(state SessionState)
	CommitAudioSessionState(state SessionState)
	CaptureAppSessionState(state SessionState)
	CommitAppSessionState(state SessionState)

	Enable(enable bool)
	IsEnabled() bool
}

// Tempo limits accepted by Link sessions.
const (
	MinTempo = 20.0
	MaxTempo = 999.0
)

// ClampTempo limits bpm to [MinTempo, MaxTempo].
func ClampTempo(bpm float64) float64 {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}
