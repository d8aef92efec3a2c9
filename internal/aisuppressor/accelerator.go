package aisuppressor

import "fmt"

// acceleratorBackend denoises using a named accelerator device (e.g. a GPU
// or NPU inference target). Model path and device selection are
// configuration; construction fails cleanly when the device is
// unavailable, so callers can fall back to the CPU backend without
// restarting the pipeline.
type acceleratorBackend struct {
	device    string
	modelPath string
	inner     Backend
}

// AvailableAccelerators lists device names this build knows how to open.
// A real build would populate this from a runtime device enumeration API;
// here it stands in for that discovery step.
var AvailableAccelerators = []string{}

// NewAcceleratorBackend opens an accelerator-backed denoiser on device,
// loading modelPath. It returns ErrAcceleratorUnavailable if device is not
// present in AvailableAccelerators, so the caller can fall back to the CPU
// backend.
func NewAcceleratorBackend(device, modelPath string) (Backend, error) {
	found := false
	for _, d := range AvailableAccelerators {
		if d == device {
			found = true
			break
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrAcceleratorUnavailable, device)
	}

	// A real backend would load modelPath onto the device here. Sharing
	// the CPU kernel keeps this build runnable while preserving the
	// interface contract and fallback behavior.
	return &acceleratorBackend{
		device:    device,
		modelPath: modelPath,
		inner:     NewCPUBackend(),
	}, nil
}

func (b *acceleratorBackend) Process(frame []float32) ([]float32, float32, error) {
	return b.inner.Process(frame)
}

func (b *acceleratorBackend) Reset() {
	b.inner.Reset()
}

func (b *acceleratorBackend) Close() error {
	return b.inner.Close()
}
