package transport

import "sync/atomic"

// Click marks a rendered beat pulse.
type Click struct {
	// HostTime is when the click reaches the output.
	HostTime int64 `json:"host_time"`
	// Beat is the integer beat the click falls on.
	Beat float64 `json:"beat"`
	// Downbeat is set on the first beat of a quantum.
	Downbeat bool `json:"downbeat"`
}

// ClickSink receives clicks on the audio thread. Implementations must not
// block.
type ClickSink interface {
	Click(c Click)
}

// ClickSinkFunc adapts a function to ClickSink.
type ClickSinkFunc func(Click)

func (f ClickSinkFunc) Click(c Click) { f(c) }

// ChannelSink forwards clicks to a buffered channel, dropping them when the
// reader falls behind.
type ChannelSink struct {
	ch      chan Click
	dropped atomic.Uint64
}

// NewChannelSink creates a sink with room for size pending clicks.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Click, size)}
}

func (s *ChannelSink) Click(c Click) {
	select {
	case s.ch <- c:
	default:
		s.dropped.Add(1)
	}
}

// C returns the channel clicks are delivered on.
func (s *ChannelSink) C() <-chan Click { return s.ch }

// Dropped returns how many clicks were discarded.
func (s *ChannelSink) Dropped() uint64 { return s.dropped.Load() }

type discardSink struct{}

func (discardSink) Click(Click) {}

type multiSink []ClickSink

func (m multiSink) Click(c Click) {
	for _, s := range m {
		s.Click(c)
	}
}

// MultiSink delivers each click to every non-nil sink.
func MultiSink(sinks ...ClickSink) ClickSink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
