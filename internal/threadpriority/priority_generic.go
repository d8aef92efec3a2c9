//go:build !linux && !darwin && !windows

package threadpriority

import "runtime"

// Elevate locks the calling goroutine to its OS thread. No priority
// elevation mechanism is wired for this platform.
func Elevate() error {
	runtime.LockOSThread()

	return nil
}
