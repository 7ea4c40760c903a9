//go:build !abl_link

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/DatanoiseTV/linkbridge"
)

// openSession starts an in-process session on the system clock. Build with
// the abl_link tag to join a Link network instead.
func openSession(cfg Config) (linkbridge.Session, func(), error) {
	session := linkbridge.NewLocalSession(cfg.Tempo, linkbridge.NewSystemClock())
	session.SetTempoCallback(func(tempo float64) {
		logrus.Infof("Tempo changed: %.2f BPM", tempo)
	})
	session.SetStartStopCallback(func(isPlaying bool) {
		logrus.Infof("Transport state changed: %s", playingStateString(isPlaying))
	})
	session.Enable(true)

	logrus.WithField("session", session.ID()).Info("Local session started")
	return session, session.Close, nil
}
