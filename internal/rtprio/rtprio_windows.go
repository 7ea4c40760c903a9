//go:build windows

package rtprio

import (
	"fmt"
	"syscall"
)

const (
	threadPriorityTimeCritical = 15
	highPriorityClass          = 0x00000080
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	procGetCurrentProcess = kernel32.NewProc("GetCurrentProcess")
	procSetPriorityClass  = kernel32.NewProc("SetPriorityClass")
	procGetCurrentThread  = kernel32.NewProc("GetCurrentThread")
	procSetThreadPriority = kernel32.NewProc("SetThreadPriority")
)

// setRealtimePriority raises the process class and the calling thread.
func setRealtimePriority() error {
	process, _, _ := procGetCurrentProcess.Call()
	if ok, _, err := procSetPriorityClass.Call(process, uintptr(highPriorityClass)); ok == 0 {
		return fmt.Errorf("failed to set high priority class on Windows: %v", err)
	}

	thread, _, _ := procGetCurrentThread.Call()
	if ok, _, err := procSetThreadPriority.Call(thread, uintptr(threadPriorityTimeCritical)); ok == 0 {
		return fmt.Errorf("failed to set time critical thread priority on Windows: %v", err)
	}
	return nil
}
