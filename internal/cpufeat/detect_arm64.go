//go:build arm64

package cpufeat

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func detectImpl() Features {
	return Features{
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
	}
}
