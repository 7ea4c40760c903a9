package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Config     Config
}

// NewRootCommand creates the root command for the linkbridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	var (
		tempo    float64
		quantum  float64
		rate     float64
		frames   int
		latency  time.Duration
		logLevel string
		realtime bool
		midiPort int
	)
	defaults := DefaultConfig()

	cmd := &cobra.Command{
		Use:          "linkbridge",
		Short:        "Link transport bridge for a real-time audio engine",
		Long:         "Publishes transport requests to a Link session from a control thread and renders beat clicks on a real-time audio thread.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}

			// Flags given on the command line override the file.
			flags := cmd.Flags()
			if flags.Changed("tempo") {
				cfg.Tempo = tempo
			}
			if flags.Changed("quantum") {
				cfg.Quantum = quantum
			}
			if flags.Changed("sample-rate") {
				cfg.SampleRate = rate
			}
			if flags.Changed("buffer-frames") {
				cfg.BufferFrames = frames
			}
			if flags.Changed("output-latency") {
				cfg.OutputLatency = Duration(latency)
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("realtime") {
				cfg.Realtime = realtime
			}
			if flags.Changed("midi-port") {
				cfg.MidiPort = midiPort
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			level, _ := logrus.ParseLevel(cfg.LogLevel)
			logrus.SetLevel(level)

			opts.Config = cfg
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	pf.Float64Var(&tempo, "tempo", defaults.Tempo, "initial tempo in BPM")
	pf.Float64Var(&quantum, "quantum", defaults.Quantum, "beats per bar for phase alignment")
	pf.Float64Var(&rate, "sample-rate", defaults.SampleRate, "audio sample rate in Hz")
	pf.IntVar(&frames, "buffer-frames", defaults.BufferFrames, "frames per render callback")
	pf.DurationVar(&latency, "output-latency", time.Duration(defaults.OutputLatency), "hardware output latency")
	pf.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	pf.BoolVar(&realtime, "realtime", defaults.Realtime, "request real-time priority for the audio thread")
	pf.IntVar(&midiPort, "midi-port", defaults.MidiPort, "MIDI output port for clicks (-1 for a virtual port)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewMonitorCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewPortsCommand(opts))

	return cmd
}
