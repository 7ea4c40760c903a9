package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DatanoiseTV/linkbridge/transport"
)

// NewRunCommand runs the bridge headless until interrupted.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var start bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge headless, logging clicks and transport changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, err := newBridgeApp(ctx, opts.Config)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.start(ctx); err != nil {
				return err
			}
			if start {
				app.startTransport()
			}

			logrus.Info("linkbridge running... Press Ctrl+C to stop")
			logClicks(ctx, app.clicks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&start, "start", false, "start the transport immediately")
	return cmd
}

// logClicks logs clicks until ctx is done.
func logClicks(ctx context.Context, clicks *transport.ChannelSink) {
	for {
		select {
		case <-ctx.Done():
			if n := clicks.Dropped(); n > 0 {
				logrus.Warnf("%d clicks dropped", n)
			}
			return
		case c := <-clicks.C():
			entry := logrus.WithFields(logrus.Fields{
				"beat":      c.Beat,
				"host_time": c.HostTime,
			})
			if c.Downbeat {
				entry.Info("Downbeat")
			} else {
				entry.Debug("Beat")
			}
		}
	}
}
