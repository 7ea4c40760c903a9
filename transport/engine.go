package transport

import (
	"math"
	"sync/atomic"

	"github.com/DatanoiseTV/linkbridge"
)

// Stats counts render activity. Safe to read from any goroutine.
type Stats struct {
	Callbacks uint64
	Adoptions uint64
	Clicks    uint64
}

// Engine runs the per-buffer transport work of an audio render callback:
// adopt the pending request, apply it to the session, capture a snapshot
// and emit a click for every beat the buffer crosses while playing.
type Engine struct {
	audio *AudioThread
	sink  ClickSink
	state linkbridge.SessionState

	callbacks atomic.Uint64
	adoptions atomic.Uint64
	clicks    atomic.Uint64
}

// NewEngine creates an engine driving audio. A nil sink discards clicks.
func NewEngine(audio *AudioThread, sink ClickSink) *Engine {
	if sink == nil {
		sink = discardSink{}
	}
	return &Engine{
		audio: audio,
		sink:  sink,
		state: audio.Session().NewSessionState(),
	}
}

// Audio returns the audio-thread half of the bridge the engine drives.
func (e *Engine) Audio() *AudioThread { return e.audio }

// Render is called once per audio buffer with the host time at which the
// buffer begins and its length in frames.
func (e *Engine) Render(hostTimeAtBufferBegin int64, frames int) RenderSnapshot {
	a := e.audio
	e.callbacks.Add(1)
	if a.TryAdoptPendingRequest() {
		e.adoptions.Add(1)
	}

	// Transport changes are anchored where the buffer becomes audible, so a
	// start lands its downbeat on the first sample heard.
	a.ApplyLocalRequest(hostTimeAtBufferBegin + a.local.OutputLatency)

	snap := Capture(
		a.Session(),
		e.state,
		hostTimeAtBufferBegin,
		a.local.OutputLatency,
		a.HostTicksPerSample(),
		a.SecondsToHostTime(),
		a.local.Quantum,
	)
	if a.isPlaying && frames > 0 {
		e.emitClicks(snap, frames)
	}
	return snap
}

func (e *Engine) emitClicks(snap RenderSnapshot, frames int) {
	a := e.audio
	from := snap.BeatTimeAtSample(-1)
	to := snap.BeatTimeAtSample(frames - 1)

	for beat := math.Floor(from) + 1; beat <= to; beat++ {
		if beat < 0 {
			continue
		}
		at := snap.Session().TimeAtBeat(beat, snap.Quantum)
		if at <= a.lastClickHostTime {
			continue
		}
		a.markClick(at)
		e.clicks.Add(1)
		e.sink.Click(Click{
			HostTime: at,
			Beat:     beat,
			Downbeat: math.Mod(beat, snap.Quantum) == 0,
		})
	}
}

// Stats returns the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Callbacks: e.callbacks.Load(),
		Adoptions: e.adoptions.Load(),
		Clicks:    e.clicks.Load(),
	}
}
