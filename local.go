package linkbridge

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// sessionEvent is queued by commits and delivered to callbacks off the
// committing thread.
type sessionEvent struct {
	tempoChanged   bool
	tempo          float64
	playingChanged bool
	playing        bool
}

const eventQueueSize = 64

// LocalSession is an in-process, single-peer session. The current timeline
// is published through an atomic pointer so audio-thread capture and commit
// never take a lock.
type LocalSession struct {
	id    uuid.UUID
	clock HostClock

	current atomic.Pointer[Timeline]
	appMu   sync.Mutex // serializes CaptureAppSessionState/CommitAppSessionState

	mu                sync.Mutex
	tempoCallback     func(float64)
	startStopCallback func(bool)

	events   chan sessionEvent
	dropped  atomic.Uint64
	enableMu sync.Mutex
	enabled  atomic.Bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

var _ Session = (*LocalSession)(nil)

// NewLocalSession creates a session at bpm with beat 0 at the clock's
// current time.
func NewLocalSession(bpm float64, clock HostClock) *LocalSession {
	s := &LocalSession{
		id:     uuid.New(),
		clock:  clock,
		events: make(chan sessionEvent, eventQueueSize),
	}
	tl := NewTimeline(bpm, clock.SecondsToHostTime(), clock.HostTime())
	s.current.Store(&tl)
	return s
}

// ID identifies this session instance.
func (s *LocalSession) ID() uuid.UUID {
	return s.id
}

// HostTime returns the session clock's current time.
func (s *LocalSession) HostTime() int64 {
	return s.clock.HostTime()
}

// SecondsToHostTime returns the session clock's ticks per second.
func (s *LocalSession) SecondsToHostTime() float64 {
	return s.clock.SecondsToHostTime()
}

// NewSessionState returns a *Timeline.
func (s *LocalSession) NewSessionState() SessionState {
	tl := &Timeline{}
	s.capture(tl)
	return tl
}

// CaptureAudioSessionState copies the current timeline into state.
func (s *LocalSession) CaptureAudioSessionState(state SessionState) {
	s.capture(timelineOf(state))
}

// CommitAudioSessionState publishes state. Unchanged states are not
// republished, so a steady render loop does not allocate.
func (s *LocalSession) CommitAudioSessionState(state SessionState) {
	s.commit(timelineOf(state))
}

// CaptureAppSessionState captures the current session state for application thread use
func (s *LocalSession) CaptureAppSessionState(state SessionState) {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	s.capture(timelineOf(state))
}

// CommitAppSessionState commits session state changes from application thread
func (s *LocalSession) CommitAppSessionState(state SessionState) {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	s.commit(timelineOf(state))
}

func (s *LocalSession) capture(tl *Timeline) {
	cur := s.current.Load()
	*tl = *cur
	tl.base = cur
}

// commit publishes tl. If another commit landed since tl was captured, only
// the parts tl itself changed are applied on top of it.
func (s *LocalSession) commit(tl *Timeline) {
	for {
		cur := s.current.Load()
		next := *tl
		next.base = nil
		if tl.base != nil && tl.base != cur {
			next = mergeTimeline(cur, tl.base, &next)
		}
		if next == *cur {
			*tl = next
			tl.base = cur
			return
		}
		published := &next
		if !s.current.CompareAndSwap(cur, published) {
			continue
		}
		*tl = next
		tl.base = published
		s.notify(cur, published)
		return
	}
}

// mergeTimeline applies the changes edited made relative to base onto cur.
// The beat mapping and the transport are merged as separate units.
func mergeTimeline(cur, base, edited *Timeline) Timeline {
	merged := *cur
	if edited.tempo != base.tempo || edited.beatOrigin != base.beatOrigin || edited.timeOrigin != base.timeOrigin {
		merged.tempo = edited.tempo
		merged.beatOrigin = edited.beatOrigin
		merged.timeOrigin = edited.timeOrigin
	}
	if edited.playing != base.playing || edited.playTime != base.playTime {
		merged.playing = edited.playing
		merged.playTime = edited.playTime
	}
	merged.base = nil
	return merged
}

func (s *LocalSession) notify(prev, next *Timeline) {
	ev := sessionEvent{
		tempoChanged:   prev.tempo != next.tempo,
		tempo:          next.tempo,
		playingChanged: prev.playing != next.playing,
		playing:        next.playing,
	}
	if !ev.tempoChanged && !ev.playingChanged {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}

// DroppedEvents returns how many callback notifications were discarded
// because the queue was full.
func (s *LocalSession) DroppedEvents() uint64 {
	return s.dropped.Load()
}

// SetTempoCallback sets a callback to be called when the tempo changes
func (s *LocalSession) SetTempoCallback(callback func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempoCallback = callback
}

// SetStartStopCallback sets a callback to be called when start/stop state changes
func (s *LocalSession) SetStartStopCallback(callback func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startStopCallback = callback
}

// IsEnabled returns whether callbacks are being delivered.
func (s *LocalSession) IsEnabled() bool {
	return s.enabled.Load()
}

// Enable starts or stops callback delivery. Timeline capture and commit work
// either way.
func (s *LocalSession) Enable(enable bool) {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()

	if enable == s.enabled.Load() {
		return
	}
	if enable {
		s.stop = make(chan struct{})
		s.enabled.Store(true)
		s.wg.Add(1)
		go s.dispatch(s.stop)
		return
	}
	s.enabled.Store(false)
	close(s.stop)
	s.wg.Wait()
}

// Close disables the session and waits for the dispatcher to exit.
func (s *LocalSession) Close() {
	s.Enable(false)
}

func (s *LocalSession) dispatch(stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case ev := <-s.events:
			s.mu.Lock()
			tempoCallback := s.tempoCallback
			startStopCallback := s.startStopCallback
			s.mu.Unlock()

			if ev.tempoChanged && tempoCallback != nil {
				tempoCallback(ev.tempo)
			}
			if ev.playingChanged && startStopCallback != nil {
				startStopCallback(ev.playing)
			}
		}
	}
}

func timelineOf(state SessionState) *Timeline {
	tl, ok := state.(*Timeline)
	if !ok {
		panic(fmt.Sprintf("linkbridge: %T is not a LocalSession state", state))
	}
	return tl
}
