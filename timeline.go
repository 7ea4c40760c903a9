package linkbridge

import "math"

// Timeline is the SessionState of a LocalSession: a linear mapping between
// host time and beats plus the transport state. It is a plain value; copying
// it is how LocalSession captures and commits.
type Timeline struct {
	tempo          float64
	beatOrigin     float64
	timeOrigin     int64
	ticksPerSecond float64
	playing        bool
	playTime       int64

	// base is the published timeline this copy was captured from.
	base *Timeline
}

var _ SessionState = (*Timeline)(nil)

// NewTimeline returns a stopped timeline at bpm whose beat 0 falls on at.
func NewTimeline(bpm, ticksPerSecond float64, at int64) Timeline {
	return Timeline{
		tempo:          ClampTempo(bpm),
		timeOrigin:     at,
		ticksPerSecond: ticksPerSecond,
	}
}

func (t *Timeline) toBeats(time int64) float64 {
	seconds := float64(time-t.timeOrigin) / t.ticksPerSecond
	return t.beatOrigin + seconds*t.tempo/60
}

func (t *Timeline) fromBeats(beat float64) int64 {
	seconds := (beat - t.beatOrigin) * 60 / t.tempo
	return t.timeOrigin + int64(math.Round(seconds*t.ticksPerSecond))
}

// Tempo returns the tempo in BPM.
func (t *Timeline) Tempo() float64 {
	return t.tempo
}

// SetTempo changes the tempo while keeping the beat at atTime in place.
func (t *Timeline) SetTempo(bpm float64, atTime int64) {
	beat := t.toBeats(atTime)
	t.tempo = ClampTempo(bpm)
	t.beatOrigin = beat
	t.timeOrigin = atTime
}

// BeatAtTime returns the beat at time. A single peer owns the session
// timeline, so the quantum does not shift the result.
func (t *Timeline) BeatAtTime(time int64, quantum float64) float64 {
	return t.toBeats(time)
}

// PhaseAtTime returns the beat at time modulo quantum.
func (t *Timeline) PhaseAtTime(time int64, quantum float64) float64 {
	if quantum <= 0 {
		return 0
	}
	phase := math.Mod(t.toBeats(time), quantum)
	if phase < 0 {
		phase += quantum
	}
	return phase
}

// TimeAtBeat returns the host time at which beat occurs.
func (t *Timeline) TimeAtBeat(beat float64, quantum float64) int64 {
	return t.fromBeats(beat)
}

// RequestBeatAtTime behaves like ForceBeatAtTime: with no other peers there
// is nobody to negotiate the phase with.
func (t *Timeline) RequestBeatAtTime(beat float64, time int64, quantum float64) {
	t.ForceBeatAtTime(beat, time, quantum)
}

// ForceBeatAtTime re-anchors the timeline so that beat falls on time.
func (t *Timeline) ForceBeatAtTime(beat float64, time int64, quantum float64) {
	t.beatOrigin = beat
	t.timeOrigin = time
}

// SetIsPlaying sets the transport state effective at time.
func (t *Timeline) SetIsPlaying(isPlaying bool, time int64) {
	t.playing = isPlaying
	t.playTime = time
}

// IsPlaying returns the transport state.
func (t *Timeline) IsPlaying() bool {
	return t.playing
}

// TimeForIsPlaying returns the time of the last transport change.
func (t *Timeline) TimeForIsPlaying() int64 {
	return t.playTime
}

// RequestBeatAtStartPlayingTime maps beat to the transport start time. It is
// a no-op while stopped.
func (t *Timeline) RequestBeatAtStartPlayingTime(beat float64, quantum float64) {
	if t.playing {
		t.RequestBeatAtTime(beat, t.playTime, quantum)
	}
}
