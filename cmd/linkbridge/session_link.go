//go:build abl_link

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/DatanoiseTV/linkbridge"
	"github.com/DatanoiseTV/linkbridge/abletonlink"
)

// openSession joins the Link network with start/stop sync enabled.
func openSession(cfg Config) (linkbridge.Session, func(), error) {
	link := abletonlink.NewLink(cfg.Tempo)

	link.SetNumPeersCallback(func(numPeers uint64) {
		logrus.Infof("Number of peers changed: %d", numPeers)
	})
	link.SetTempoCallback(func(tempo float64) {
		logrus.Infof("Tempo changed: %.2f BPM", tempo)
	})
	link.SetStartStopCallback(func(isPlaying bool) {
		logrus.Infof("Transport state changed: %s", playingStateString(isPlaying))
	})

	link.Enable(true)
	link.EnableStartStopSync(true)
	logrus.Info("Link enabled")

	closeFn := func() {
		link.Enable(false)
		link.Destroy()
	}
	return link, closeFn, nil
}
