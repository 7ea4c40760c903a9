package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewPortsCommand lists the MIDI outputs a --midi-port number can select.
func NewPortsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI output ports for click output",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := listMidiPorts()
			if err != nil {
				return fmt.Errorf("failed to list MIDI ports: %w", err)
			}
			return writePorts(cmd.OutOrStdout(), names, opts.Config.MidiPort)
		},
	}
}

// writePorts prints one port per line and marks the configured one.
func writePorts(w io.Writer, names []string, selected int) error {
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No MIDI output ports (clicks will use a virtual port)")
		return err
	}
	for i, name := range names {
		mark := " "
		if i == selected {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %2d  %s\n", mark, i, name); err != nil {
			return err
		}
	}
	return nil
}
