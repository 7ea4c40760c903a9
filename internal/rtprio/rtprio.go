// Package rtprio raises the scheduling priority of the calling OS thread for
// audio rendering. Callers must hold the thread with runtime.LockOSThread.
package rtprio

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// Set raises the calling thread to real-time priority where the platform
// allows it.
func Set() error {
	return setRealtimePriority()
}

// LogHints logs what the platform usually needs for Set to succeed.
func LogHints(log logrus.FieldLogger) {
	switch runtime.GOOS {
	case "linux":
		log.Warn("Real-time priority on Linux needs rtprio limits: add your user to the 'audio' group " +
			"and set '@audio - rtprio 99' and '@audio - memlock unlimited' in /etc/security/limits.conf")
	case "darwin":
		log.Warn("Real-time priority on macOS may require running as root or with appropriate entitlements")
	case "windows":
		log.Warn("Real-time priority on Windows may require administrator privileges")
	}
}
