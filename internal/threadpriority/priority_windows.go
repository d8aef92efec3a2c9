//go:build windows

package threadpriority

import (
	"fmt"
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	procGetCurrentThread  = kernel32.NewProc("GetCurrentThread")
	procSetThreadPriority = kernel32.NewProc("SetThreadPriority")
)

// threadPriorityTimeCritical matches the Win32 THREAD_PRIORITY_TIME_CRITICAL
// value used by the original engine's setCurrentThreadPriority for its
// Realtime priority level.
const threadPriorityTimeCritical = 15

// Elevate locks the calling goroutine to its OS thread and raises that
// thread to THREAD_PRIORITY_TIME_CRITICAL, the highest priority class
// ordinarily available to a media thread without entering the multimedia
// class scheduler service.
func Elevate() error {
	runtime.LockOSThread()

	handle, _, _ := procGetCurrentThread.Call()

	ok, _, callErr := procSetThreadPriority.Call(handle, uintptr(threadPriorityTimeCritical))
	if ok == 0 {
		return fmt.Errorf("threadpriority: SetThreadPriority: %w", callErr)
	}

	return nil
}
