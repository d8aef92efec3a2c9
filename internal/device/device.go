// Package device defines the capture/render endpoint abstractions the
// pipeline consumes, plus a stub backend usable in tests and on hosts
// without a real audio API binding.
package device

import (
	"context"
	"strings"
)

// Info describes one enumerable audio device.
type Info struct {
	Name string
	ID   string
}

// FrameCallback receives raw frames from a CaptureSource: samples_f32,
// frame count, sample rate, and channel count, matching the host audio
// callback signature the pipeline downmixes and resamples from.
type FrameCallback func(samples []float32, frames int, rate float64, channels int)

// CaptureSource is the capture-side collaborator: device enumeration,
// activation, and a frame callback registration. A real implementation
// wraps a host audio API; the pipeline only depends on this interface.
type CaptureSource interface {
	Enumerate(ctx context.Context) ([]Info, error)
	Init(id string) (sampleRate float64, channels int, err error)
	Start() error
	Stop() error
	OnFrames(cb FrameCallback)
}

// RenderSink is the render-side collaborator: device enumeration,
// activation, and a non-blocking write into the device's own buffering.
type RenderSink interface {
	Enumerate(ctx context.Context) ([]Info, error)
	Init(id string) (sampleRate float64, channels int, err error)
	Start() error
	Stop() error
	// Write pushes frames into the sink's internal ring (>= 2s of audio).
	// It MUST be non-blocking.
	Write(samples []float32) (frames int, err error)
}

// virtualDevicePriority lists the case-insensitive substrings the
// orchestrator matches against, in priority order, when no output device
// is explicitly configured.
var virtualDevicePriority = []string{
	"cable input",
	"vb-audio",
	"virtual speaker",
}

// SelectVirtualOutput returns the id of the first device in devices whose
// name matches virtualDevicePriority, trying each priority substring in
// order across the whole list before falling to the next substring. ok is
// false if nothing matches.
func SelectVirtualOutput(devices []Info) (id string, ok bool) {
	for _, substr := range virtualDevicePriority {
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name), substr) {
				return d.ID, true
			}
		}
	}

	return "", false
}
