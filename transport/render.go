package transport

import "github.com/DatanoiseTV/linkbridge"

// SessionView is the read-only part of a captured session state.
type SessionView interface {
	Tempo() float64
	BeatAtTime(time int64, quantum float64) float64
	PhaseAtTime(time int64, quantum float64) float64
	TimeAtBeat(beat float64, quantum float64) int64
	IsPlaying() bool
	TimeForIsPlaying() int64
}

// RenderSnapshot is the view of time and session state for one render
// callback. All beat math during the callback goes through it rather than
// the live session.
//
// A snapshot shares its state with the buffer passed to Capture and is only
// valid until that buffer is captured into again.
type RenderSnapshot struct {
	BufferStartHostTime int64
	// RenderStartHostTime is the host time the first sample reaches the
	// output: buffer start plus output latency.
	RenderStartHostTime int64
	SecondsToHostTime   float64
	HostTicksPerSample  float64
	Quantum             float64

	session SessionView
}

// Capture copies the session's audio state into state and wraps it in a
// snapshot. state must come from session.NewSessionState.
func Capture(
	session linkbridge.Session,
	state linkbridge.SessionState,
	bufferStartHostTime int64,
	outputLatency int64,
	hostTicksPerSample float64,
	secondsToHostTime float64,
	quantum float64,
) RenderSnapshot {
	session.CaptureAudioSessionState(state)
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return RenderSnapshot{
		BufferStartHostTime: bufferStartHostTime,
		RenderStartHostTime: bufferStartHostTime + outputLatency,
		SecondsToHostTime:   secondsToHostTime,
		HostTicksPerSample:  hostTicksPerSample,
		Quantum:             quantum,
		session:             state,
	}
}

// Session returns the captured state.
func (s RenderSnapshot) Session() SessionView { return s.session }

// HostTimeAtSample maps a sample offset within the buffer to host time.
func (s RenderSnapshot) HostTimeAtSample(sampleOffset int) int64 {
	return s.RenderStartHostTime + int64(float64(sampleOffset)*s.HostTicksPerSample)
}

// BeatTimeAtSample returns the beat at a sample offset within the buffer.
// It is non-decreasing in sampleOffset.
func (s RenderSnapshot) BeatTimeAtSample(sampleOffset int) float64 {
	return s.session.BeatAtTime(s.HostTimeAtSample(sampleOffset), s.Quantum)
}

// PhaseAtSample returns the phase within the quantum at a sample offset.
func (s RenderSnapshot) PhaseAtSample(sampleOffset int) float64 {
	return s.session.PhaseAtTime(s.HostTimeAtSample(sampleOffset), s.Quantum)
}

// Tempo returns the captured tempo.
func (s RenderSnapshot) Tempo() float64 { return s.session.Tempo() }

// IsPlaying returns the captured transport state.
func (s RenderSnapshot) IsPlaying() bool { return s.session.IsPlaying() }

// Seconds converts a host time span to seconds.
func (s RenderSnapshot) Seconds(hostTicks int64) float64 {
	return float64(hostTicks) / s.SecondsToHostTime
}
