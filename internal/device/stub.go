package device

import (
	"context"
	"fmt"
	"sync"
)

// StubCapture is an in-memory CaptureSource used in tests and on hosts
// without a real audio API binding: PushFrames drives the registered
// callback directly, simulating a host audio thread.
type StubCapture struct {
	mu         sync.Mutex
	devices    []Info
	sampleRate float64
	channels   int
	running    bool
	cb         FrameCallback
}

// NewStubCapture creates a stub capture source listing devices.
func NewStubCapture(devices []Info) *StubCapture {
	return &StubCapture{devices: devices}
}

func (s *StubCapture) Enumerate(_ context.Context) ([]Info, error) {
	return s.devices, nil
}

func (s *StubCapture) Init(id string) (float64, int, error) {
	for _, d := range s.devices {
		if d.ID == id {
			s.sampleRate = 48000
			s.channels = 1

			return s.sampleRate, s.channels, nil
		}
	}

	return 0, 0, fmt.Errorf("device: capture device %q not found", id)
}

func (s *StubCapture) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true

	return nil
}

func (s *StubCapture) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false

	return nil
}

func (s *StubCapture) OnFrames(cb FrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cb = cb
}

// PushFrames simulates a host audio callback firing with samples at rate,
// with the given channel count.
func (s *StubCapture) PushFrames(samples []float32, rate float64, channels int) {
	s.mu.Lock()
	cb := s.cb
	running := s.running
	s.mu.Unlock()

	if !running || cb == nil {
		return
	}

	cb(samples, len(samples)/channels, rate, channels)
}

// StubRender is an in-memory RenderSink that accumulates written frames in
// a growable buffer for test inspection instead of touching real hardware.
type StubRender struct {
	mu         sync.Mutex
	devices    []Info
	sampleRate float64
	channels   int
	running    bool
	written    []float32
}

// NewStubRender creates a stub render sink listing devices.
func NewStubRender(devices []Info) *StubRender {
	return &StubRender{devices: devices}
}

func (s *StubRender) Enumerate(_ context.Context) ([]Info, error) {
	return s.devices, nil
}

func (s *StubRender) Init(id string) (float64, int, error) {
	for _, d := range s.devices {
		if d.ID == id {
			s.sampleRate = 48000
			s.channels = 1

			return s.sampleRate, s.channels, nil
		}
	}

	return 0, 0, fmt.Errorf("device: render device %q not found", id)
}

func (s *StubRender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true

	return nil
}

func (s *StubRender) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false

	return nil
}

func (s *StubRender) Write(samples []float32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written = append(s.written, samples...)

	return len(samples), nil
}

// Written returns a copy of every sample written so far, for test
// assertions.
func (s *StubRender) Written() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float32, len(s.written))
	copy(out, s.written)

	return out
}
