package main

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DatanoiseTV/linkbridge/internal/rtprio"
	"github.com/DatanoiseTV/linkbridge/transport"
)

var ErrDriverRunning = errors.New("audio driver is running")

// AudioDriver stands in for the hardware audio callback: it invokes the
// engine once per buffer period from a dedicated OS thread.
type AudioDriver struct {
	ctrl     *transport.Controller
	engine   *transport.Engine
	frames   int
	period   time.Duration
	realtime bool

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAudioDriver creates a stopped driver.
func NewAudioDriver(ctrl *transport.Controller, engine *transport.Engine, cfg Config) *AudioDriver {
	return &AudioDriver{
		ctrl:     ctrl,
		engine:   engine,
		frames:   cfg.BufferFrames,
		period:   cfg.BufferDuration(),
		realtime: cfg.Realtime,
	}
}

// Configure sets the static render parameters. It refuses while running.
func (d *AudioDriver) Configure(sampleRate, secondsToHostTime float64) error {
	if d.running.Load() {
		return ErrDriverRunning
	}
	return d.ctrl.ConfigureStatic(sampleRate, secondsToHostTime)
}

// Start launches the render goroutine.
func (d *AudioDriver) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrDriverRunning
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	ready := make(chan struct{})
	go d.loop(ctx, ready)
	<-ready

	logrus.Infof("Audio driver started: %d frames every %v", d.frames, d.period)
	return nil
}

// Stop halts the render goroutine and waits for it to exit.
func (d *AudioDriver) Stop() {
	if !d.running.Load() {
		return
	}
	d.cancel()
	<-d.done
	d.running.Store(false)
	logrus.Info("Audio driver stopped")
}

func (d *AudioDriver) loop(ctx context.Context, ready chan<- struct{}) {
	defer close(d.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Logging is fine until the first callback.
	if d.realtime {
		if err := rtprio.Set(); err != nil {
			logrus.Warnf("Failed to set real-time priority: %v", err)
			rtprio.LogHints(logrus.StandardLogger())
		} else {
			logrus.Info("Real-time priority enabled")
		}
	}
	close(ready)

	session := d.ctrl.Session()
	buffers := newBufferClock(float64(d.frames) * d.engine.Audio().HostTicksPerSample())
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.engine.Render(buffers.next(session.HostTime()), d.frames)
		}
	}
}

// resyncBuffers is how far, in buffers, the contiguous buffer time may
// drift from the host clock before it is reset.
const resyncBuffers = 4

// bufferClock yields back-to-back buffer start times so that no sample
// falls between two callbacks while the ticker jitters.
type bufferClock struct {
	bufferTicks float64
	origin      int64
	count       int64
	started     bool
}

func newBufferClock(bufferTicks float64) *bufferClock {
	return &bufferClock{bufferTicks: bufferTicks}
}

// next returns the start of the buffer following the previous one, or now
// if that has drifted too far from the host clock.
func (c *bufferClock) next(now int64) int64 {
	if c.started {
		start := c.origin + int64(float64(c.count)*c.bufferTicks)
		drift := math.Abs(float64(now - start))
		if drift <= resyncBuffers*c.bufferTicks {
			c.count++
			return start
		}
	}
	c.started = true
	c.origin = now
	c.count = 1
	return now
}
