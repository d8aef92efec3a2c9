//go:build linux || darwin

package threadpriority

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// niceRealtime is the lowest niceness ordinarily obtainable without an
// elevated capability (CAP_SYS_NICE on Linux, an equivalent entitlement on
// Darwin); more negative values require it.
const niceRealtime = -19

// Elevate locks the calling goroutine to its OS thread and lowers that
// thread's niceness. A caller without permission to renice still gets a
// locked, predictable OS thread; the error is returned for the caller to
// log rather than treated as fatal.
func Elevate() error {
	runtime.LockOSThread()

	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, niceRealtime); err != nil {
		return fmt.Errorf("threadpriority: setpriority: %w", err)
	}

	return nil
}
