package linkbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const nanos = 1e9

func TestTimeline_BeatAtTime(t *testing.T) {
	tl := NewTimeline(120, nanos, 0)

	assert.Equal(t, 0.0, tl.BeatAtTime(0, 4))
	assert.Equal(t, 1.0, tl.BeatAtTime(500_000_000, 4))
	assert.Equal(t, 2.0, tl.BeatAtTime(1_000_000_000, 4))
	assert.Equal(t, -1.0, tl.BeatAtTime(-500_000_000, 4))
}

func TestTimeline_TimeAtBeat_RoundTrip(t *testing.T) {
	tl := NewTimeline(133, nanos, 12345)

	for _, beat := range []float64{-3, 0, 0.25, 1, 7.5, 64} {
		at := tl.TimeAtBeat(beat, 4)
		assert.InDelta(t, beat, tl.BeatAtTime(at, 4), 1e-6, "beat %v", beat)
	}
	assert.Equal(t, int64(12345), tl.TimeAtBeat(0, 4))
}

func TestTimeline_PhaseAtTime(t *testing.T) {
	tl := NewTimeline(120, nanos, 0)

	assert.Equal(t, 1.0, tl.PhaseAtTime(2_500_000_000, 4), "beat 5 in a 4 beat bar")
	assert.Equal(t, 3.0, tl.PhaseAtTime(-500_000_000, 4), "negative beats wrap into the bar")
	assert.Equal(t, 0.0, tl.PhaseAtTime(2_500_000_000, 0), "no quantum, no phase")
}

func TestTimeline_SetTempo_KeepsBeatAtTime(t *testing.T) {
	tl := NewTimeline(120, nanos, 0)

	tl.SetTempo(60, 1_000_000_000)

	assert.Equal(t, 60.0, tl.Tempo())
	assert.Equal(t, 2.0, tl.BeatAtTime(1_000_000_000, 4))
	assert.Equal(t, 3.0, tl.BeatAtTime(2_000_000_000, 4))
}

func TestTimeline_TempoIsClamped(t *testing.T) {
	tl := NewTimeline(5, nanos, 0)
	assert.Equal(t, MinTempo, tl.Tempo())

	tl.SetTempo(5000, 0)
	assert.Equal(t, MaxTempo, tl.Tempo())
}

func TestTimeline_ForceBeatAtTime(t *testing.T) {
	tl := NewTimeline(120, nanos, 0)

	tl.ForceBeatAtTime(8, 1_000_000_000, 4)
	assert.Equal(t, 8.0, tl.BeatAtTime(1_000_000_000, 4))
	assert.Equal(t, 9.0, tl.BeatAtTime(1_500_000_000, 4))

	tl.RequestBeatAtTime(0, 2_000_000_000, 4)
	assert.Equal(t, 0.0, tl.BeatAtTime(2_000_000_000, 4), "a lone peer's request is a force")
}

func TestTimeline_Transport(t *testing.T) {
	tl := NewTimeline(120, nanos, 0)
	assert.False(t, tl.IsPlaying())

	// Stopped: no anchor to map against.
	tl.RequestBeatAtStartPlayingTime(0, 4)
	assert.Equal(t, 2.0, tl.BeatAtTime(1_000_000_000, 4))

	tl.SetIsPlaying(true, 1_000_000_000)
	assert.True(t, tl.IsPlaying())
	assert.Equal(t, int64(1_000_000_000), tl.TimeForIsPlaying())

	tl.RequestBeatAtStartPlayingTime(0, 4)
	assert.Equal(t, 0.0, tl.BeatAtTime(1_000_000_000, 4))
}

func TestClampTempo(t *testing.T) {
	assert.Equal(t, 20.0, ClampTempo(-1))
	assert.Equal(t, 120.0, ClampTempo(120))
	assert.Equal(t, 999.0, ClampTempo(1200))
}
