//go:build !rtmidi

package main

import (
	"context"
	"errors"

	"github.com/DatanoiseTV/linkbridge/transport"
)

// openMidiClicks has nowhere to play without rtmidi; clicks are only
// logged.
func openMidiClicks(ctx context.Context, cfg Config) (transport.ClickSink, func(), error) {
	return nil, func() {}, nil
}

var errNoMidi = errors.New("built without MIDI support, rebuild with -tags rtmidi")

func listMidiPorts() ([]string, error) {
	return nil, errNoMidi
}
