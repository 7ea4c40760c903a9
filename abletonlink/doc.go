// Package abletonlink binds the Ableton Link C extension (abl_link) and
// RtMidi.
//
// Link is compiled with the abl_link build tag and needs the vendored Link
// sources built under vendor/link (go generate ./abletonlink). The MIDI
// click output is compiled with the rtmidi build tag and needs rtmidi
// visible to pkg-config.
package abletonlink

//go:generate go run generate.go
