//go:build !linux && !windows && !(darwin && cgo)

package rtprio

import "errors"

// setRealtimePriority is not supported on this platform
func setRealtimePriority() error {
	return errors.New("real-time priority not supported on this platform")
}
