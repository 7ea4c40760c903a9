package transport

import "github.com/DatanoiseTV/linkbridge"

// DefaultQuantum is used when a Request carries no quantum.
const DefaultQuantum = 4.0

// Request is the control thread's transport intent. A published Request is
// never modified; the next Publish supersedes it.
type Request struct {
	// OutputLatency is the hardware output latency in host ticks.
	OutputLatency int64
	// ResetBeat is the beat to force the session to when Reset is set.
	ResetBeat float64
	Reset     bool
	// Start and Stop are one-shot: consumed by the first apply that sees them.
	Start bool
	Stop  bool
	// Tempo is the BPM to propose. Zero proposes nothing.
	Tempo float64
	// Quantum is the bar length in beats used for phase alignment.
	Quantum float64
}

// normalize clamps the tempo and fills in the default quantum.
func (r Request) normalize() Request {
	if r.Tempo > 0 {
		r.Tempo = linkbridge.ClampTempo(r.Tempo)
	} else {
		r.Tempo = 0
	}
	if r.Quantum <= 0 {
		r.Quantum = DefaultQuantum
	}
	if r.OutputLatency < 0 {
		r.OutputLatency = 0
	}
	return r
}

// WithReset returns a copy of r that forces the session to beat.
func (r Request) WithReset(beat float64) Request {
	r.Reset = true
	r.ResetBeat = beat
	return r
}
