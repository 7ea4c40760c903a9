// Package transport carries transport intent from a control goroutine to a
// real-time audio render goroutine without ever blocking the latter.
//
// A bridge has two halves. The Controller publishes whole Request values
// through an atomic pointer; the AudioThread adopts the latest one at the
// start of each render callback, applies it to the session and owns the
// resulting playback state. Engine wraps that sequence together with a
// per-buffer RenderSnapshot used for beat math and click detection.
//
// Sample rate and host time conversion are set with ConfigureStatic and
// are read without synchronization, so they may only change while no
// render callback is running.
package transport
