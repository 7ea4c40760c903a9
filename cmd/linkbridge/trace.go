package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/DatanoiseTV/linkbridge"
	"github.com/DatanoiseTV/linkbridge/transport"
)

// traceTicksPerSecond is the resolution of the offline clock.
const traceTicksPerSecond = float64(time.Second)

// TraceOptions controls an offline render.
type TraceOptions struct {
	Duration time.Duration
	Format   string
	// TempoAt switches the proposed tempo at the given offset; zero disables.
	TempoAt   time.Duration
	TempoThen float64
}

// NewTraceCommand renders offline and prints the clicks.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	topts := TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Render offline on a manual clock and print the clicks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topts.Format != "text" && topts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", topts.Format)
			}
			clicks, err := Trace(opts.Config, topts)
			if err != nil {
				return err
			}
			return writeClicks(cmd.OutOrStdout(), topts.Format, clicks)
		},
	}

	cmd.Flags().DurationVarP(&topts.Duration, "duration", "d", 4*time.Second, "length of the render")
	cmd.Flags().StringVar(&topts.Format, "format", "text", "output format (text|json)")
	cmd.Flags().DurationVar(&topts.TempoAt, "tempo-at", 0, "offset at which to propose --tempo-then")
	cmd.Flags().Float64Var(&topts.TempoThen, "tempo-then", 0, "tempo proposed at --tempo-at")
	return cmd
}

// Trace starts the transport at time zero and renders topts.Duration worth
// of buffers, returning every click.
func Trace(cfg Config, topts TraceOptions) ([]transport.Click, error) {
	clock := linkbridge.NewManualClock(traceTicksPerSecond)
	session := linkbridge.NewLocalSession(cfg.Tempo, clock)

	var clicks []transport.Click
	bufferTicks := int64(float64(cfg.BufferFrames) / cfg.SampleRate * traceTicksPerSecond)
	if bufferTicks <= 0 {
		return nil, fmt.Errorf("%w: %d frames at %g Hz", ErrBufferTooShort, cfg.BufferFrames, cfg.SampleRate)
	}

	ctrl, audio := transport.NewBridge(session)
	engine := transport.NewEngine(audio, transport.ClickSinkFunc(func(c transport.Click) {
		clicks = append(clicks, c)
	}))
	if err := ctrl.ConfigureStatic(cfg.SampleRate, traceTicksPerSecond); err != nil {
		return nil, err
	}

	request := transport.Request{
		OutputLatency: cfg.LatencyTicks(traceTicksPerSecond),
		Start:         true,
		Tempo:         cfg.Tempo,
		Quantum:       cfg.Quantum,
	}
	ctrl.Publish(request)

	end := int64(topts.Duration)
	tempoAt := int64(topts.TempoAt)
	for now := clock.HostTime(); now < end; now = clock.Advance(bufferTicks) {
		if tempoAt > 0 && now >= tempoAt {
			request.Start = false
			request.Tempo = topts.TempoThen
			ctrl.Publish(request)
			tempoAt = 0
		}
		engine.Render(now, cfg.BufferFrames)
	}
	return clicks, nil
}

func writeClicks(w io.Writer, format string, clicks []transport.Click) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		for _, c := range clicks {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range clicks {
		mark := " "
		if c.Downbeat {
			mark = "*"
		}
		seconds := float64(c.HostTime) / traceTicksPerSecond
		if _, err := fmt.Fprintf(w, "%s beat %4.0f  %9.6fs\n", mark, c.Beat, seconds); err != nil {
			return err
		}
	}
	return nil
}
