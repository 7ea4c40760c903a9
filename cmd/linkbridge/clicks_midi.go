//go:build rtmidi

package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/DatanoiseTV/linkbridge/abletonlink"
	"github.com/DatanoiseTV/linkbridge/transport"
)

const virtualPortName = "linkbridge click"

// openMidiClicks plays clicks on a MIDI output.
func openMidiClicks(ctx context.Context, cfg Config) (transport.ClickSink, func(), error) {
	sink, err := abletonlink.NewMidiClickSink(cfg.MidiPort, virtualPortName)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sink.Run(ctx); err != nil {
			logrus.Errorf("MIDI click output stopped: %v", err)
		}
	}()

	if cfg.MidiPort >= 0 {
		logrus.Infof("Clicks on MIDI port %d", cfg.MidiPort)
	} else {
		logrus.Infof("Clicks on virtual MIDI port %q", virtualPortName)
	}
	return sink, func() {
		cancel()
		<-done
		sink.Close()
	}, nil
}

// listMidiPorts returns the output port names indexed by port number.
func listMidiPorts() ([]string, error) {
	ports, err := abletonlink.OutputPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for _, p := range ports {
		names[p.Number] = p.Name
	}
	return names, nil
}
