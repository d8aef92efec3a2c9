//go:build amd64

package cpufeat

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func detectImpl() Features {
	return Features{
		HasSSE2:      cpu.X86.HasSSE2,
		HasAVX:       cpu.X86.HasAVX,
		HasAVX2:      cpu.X86.HasAVX2,
		Architecture: runtime.GOARCH,
	}
}
