//go:build rtmidi

package abletonlink

import (
	"context"
	"fmt"

	"github.com/DatanoiseTV/linkbridge/transport"
)

// General MIDI percussion on channel 10.
const (
	clickNoteOn      = 0x99
	clickNoteOff     = 0x89
	clickNoteAccent  = 76 // hi wood block
	clickNoteRegular = 77 // low wood block
	clickVelocity    = 100
)

// MidiClickSink plays clicks as percussion notes. The audio thread only
// queues; Run sends the messages.
type MidiClickSink struct {
	out   *MidiOut
	queue *transport.ChannelSink
}

var _ transport.ClickSink = (*MidiClickSink)(nil)

// NewMidiClickSink opens port (or a virtual port named name when port < 0).
// The port number is checked against OutputPorts' numbering.
func NewMidiClickSink(port int, name string) (*MidiClickSink, error) {
	out, err := NewMidiOut()
	if err != nil {
		return nil, err
	}
	if port >= 0 {
		if _, err = out.PortName(port); err == nil {
			err = out.OpenPort(uint(port), name)
		}
	} else {
		err = out.OpenVirtualPort(name)
	}
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to open click output: %w", err)
	}
	return &MidiClickSink{out: out, queue: transport.NewChannelSink(64)}, nil
}

// Click queues c without blocking.
func (s *MidiClickSink) Click(c transport.Click) {
	s.queue.Click(c)
}

// Run sends queued clicks until ctx is done.
func (s *MidiClickSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-s.queue.C():
			note := byte(clickNoteRegular)
			if c.Downbeat {
				note = clickNoteAccent
			}
			if err := s.out.SendMessage([]byte{clickNoteOn, note, clickVelocity}); err != nil {
				return err
			}
			if err := s.out.SendMessage([]byte{clickNoteOff, note, 0}); err != nil {
				return err
			}
		}
	}
}

// Close releases the MIDI port.
func (s *MidiClickSink) Close() {
	s.out.Close()
}
