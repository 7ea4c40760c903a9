//go:build linux

package rtprio

import (
	"syscall"
	"unsafe"
)

const schedFIFO = 1

type schedParam struct {
	priority int32
}

// setRealtimePriority switches the calling thread to SCHED_FIFO.
func setRealtimePriority() error {
	param := schedParam{priority: 80}

	_, _, errno := syscall.Syscall(
		syscall.SYS_SCHED_SETSCHEDULER,
		uintptr(0), // calling thread
		uintptr(schedFIFO),
		uintptr(unsafe.Pointer(&param)),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
