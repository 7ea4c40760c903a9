package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/DatanoiseTV/linkbridge"
	"github.com/DatanoiseTV/linkbridge/transport"
)

// bridgeApp wires a session, the transport bridge and the audio driver. Its
// methods run on control goroutines only.
type bridgeApp struct {
	cfg     Config
	session linkbridge.Session
	ctrl    *transport.Controller
	engine  *transport.Engine
	driver  *AudioDriver
	clicks  *transport.ChannelSink

	mu       sync.Mutex
	intent   transport.Request
	appState linkbridge.SessionState

	closers []func()
}

func newBridgeApp(ctx context.Context, cfg Config) (*bridgeApp, error) {
	session, closeSession, err := openSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	a := &bridgeApp{
		cfg:      cfg,
		session:  session,
		clicks:   transport.NewChannelSink(64),
		appState: session.NewSessionState(),
		closers:  []func(){closeSession},
	}

	midi, closeMidi, err := openMidiClicks(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup MIDI: %w", err)
	}
	a.closers = append(a.closers, closeMidi)

	ctrl, audio := transport.NewBridge(session)
	a.ctrl = ctrl
	a.engine = transport.NewEngine(audio, transport.MultiSink(a.clicks, midi))
	a.driver = NewAudioDriver(ctrl, a.engine, cfg)

	if err := a.driver.Configure(cfg.SampleRate, session.SecondsToHostTime()); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to configure audio driver: %w", err)
	}

	a.intent = transport.Request{
		OutputLatency: cfg.LatencyTicks(session.SecondsToHostTime()),
		Tempo:         cfg.Tempo,
		Quantum:       cfg.Quantum,
	}
	a.ctrl.Publish(a.intent)
	return a, nil
}

// start runs the audio driver.
func (a *bridgeApp) start(ctx context.Context) error {
	if err := a.driver.Start(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, a.driver.Stop)
	return nil
}

// close releases everything in reverse order of acquisition.
func (a *bridgeApp) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// publish sends the persistent intent plus any one-shot flags set by edit.
func (a *bridgeApp) publish(edit func(r *transport.Request)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.intent
	edit(&r)
	a.intent.Tempo = r.Tempo
	a.intent.Quantum = r.Quantum
	a.ctrl.Publish(r)
}

func (a *bridgeApp) startTransport() {
	a.publish(func(r *transport.Request) { r.Start = true })
	logrus.Info("Start requested")
}

func (a *bridgeApp) stopTransport() {
	a.publish(func(r *transport.Request) { r.Stop = true })
	logrus.Info("Stop requested")
}

func (a *bridgeApp) toggleTransport() {
	if a.ctrl.IsPlaying() {
		a.stopTransport()
	} else {
		a.startTransport()
	}
}

func (a *bridgeApp) resetBeat() {
	a.publish(func(r *transport.Request) { *r = r.WithReset(0) })
	logrus.Info("Beat reset to 0 requested")
}

// adjustTempo proposes the session's current tempo plus delta.
func (a *bridgeApp) adjustTempo(delta float64) {
	current := a.sessionTempo()
	next := linkbridge.ClampTempo(current + delta)
	a.publish(func(r *transport.Request) { r.Tempo = next })
	logrus.Infof("Tempo proposed: %.1f BPM", next)
}

func (a *bridgeApp) sessionTempo() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.CaptureAppSessionState(a.appState)
	return a.appState.Tempo()
}

// position is the app-side view of the timeline at the current host time.
type position struct {
	tempo   float64
	beat    float64
	phase   float64
	playing bool
}

func (a *bridgeApp) position() position {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.CaptureAppSessionState(a.appState)
	now := a.session.HostTime()
	quantum := a.intent.Quantum
	return position{
		tempo:   a.appState.Tempo(),
		beat:    a.appState.BeatAtTime(now, quantum),
		phase:   a.appState.PhaseAtTime(now, quantum),
		playing: a.ctrl.IsPlaying(),
	}
}

func playingStateString(isPlaying bool) string {
	if isPlaying {
		return "playing"
	}
	return "stopped"
}
