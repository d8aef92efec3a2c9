package pipeline

import "errors"

// Error taxonomy. Initialization-phase errors (DeviceInitError,
// NoVirtualDeviceFound, ModelLoadError without a fallback) propagate to the
// caller and prevent Start from succeeding. Steady-state errors
// (CaptureOverrun, RenderUnderrun, ProtocolError) are counted, not
// terminal.
var (
	// ErrDeviceInit indicates capture/render endpoint activation failed.
	ErrDeviceInit = errors.New("pipeline: device init failed")

	// ErrNoVirtualDeviceFound indicates render device auto-selection found
	// no match and no explicit device id was configured.
	ErrNoVirtualDeviceFound = errors.New("pipeline: no virtual output device found")

	// ErrModelLoad indicates the configured AI backend failed to
	// initialize and no fallback backend was available.
	ErrModelLoad = errors.New("pipeline: AI model load failed")

	// ErrAlreadyRunning indicates Start was called on a running pipeline.
	ErrAlreadyRunning = errors.New("pipeline: already running")

	// ErrNotRunning indicates an operation requiring a running pipeline
	// was attempted while stopped.
	ErrNotRunning = errors.New("pipeline: not running")

	// ErrUnknownPreset indicates ApplyPreset was given a name outside the
	// required preset set.
	ErrUnknownPreset = errors.New("pipeline: unknown preset")
)
