package aisuppressor

import (
	"testing"

	"github.com/clearvoice/voxengine/internal/testsignal"
)

func TestProcessIntroducesOneFrameLatencyForSubBlockCalls(t *testing.T) {
	s := New(NewCPUBackend())

	// Feed less than a full frame at a time; no output should appear until
	// enough input has accumulated to complete a frame.
	small := make([]float32, 100)

	out, err := s.Process(nil, small)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0 before a full frame accumulates", len(out))
	}
}

func TestProcessEmitsFullFrameOnceAccumulated(t *testing.T) {
	s := New(NewCPUBackend())

	g := testsignal.NewGenerator(48000)
	frame, err := g.Sine(300, 0.5, FrameSize)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}

	frame32 := make([]float32, len(frame))
	for i, v := range frame {
		frame32[i] = float32(v)
	}

	out, err := s.Process(nil, frame32)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != FrameSize {
		t.Fatalf("len(out) = %d, want %d", len(out), FrameSize)
	}
}

func TestProcessOnNonMultipleInputConsumesWholeFramesAndBuffersRemainder(t *testing.T) {
	s := New(NewCPUBackend())

	in := make([]float32, 1000)
	for i := range in {
		in[i] = 0.1
	}

	out, err := s.Process(nil, in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 1000 samples span 2 complete 480-sample frames (960 consumed) with 40
	// samples left buffered; output is delayed by one frame but only ever
	// holds as many samples as have been both produced and requested, so
	// exactly 960 samples come back on this call.
	if len(out) != 960 {
		t.Fatalf("len(out) = %d, want 960", len(out))
	}
	if len(s.inputAcc) != 40 {
		t.Fatalf("len(inputAcc) = %d, want 40 buffered remainder samples", len(s.inputAcc))
	}
}

func TestProcessRejectsBackendFrameSizeMismatchInternally(t *testing.T) {
	b := NewCPUBackend()

	_, _, err := b.Process(make([]float32, 10))
	if err != ErrWrongFrameSize {
		t.Fatalf("err = %v, want ErrWrongFrameSize", err)
	}
}

func TestResetClearsAccumulatorsAndVAD(t *testing.T) {
	s := New(NewCPUBackend())

	g := testsignal.NewGenerator(48000)
	frame, _ := g.Sine(300, 0.5, FrameSize)
	frame32 := make([]float32, len(frame))
	for i, v := range frame {
		frame32[i] = float32(v)
	}

	if _, err := s.Process(nil, frame32); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	s.Reset()

	if s.LastVAD() != 0 {
		t.Errorf("LastVAD() after Reset = %v, want 0", s.LastVAD())
	}

	out, err := s.Process(nil, make([]float32, 100))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) after Reset = %d, want 0 (accumulator cleared)", len(out))
	}
}

func TestTargetAttenuationAtZeroDBPassesInputThroughUnchanged(t *testing.T) {
	s := New(NewCPUBackend())
	s.SetTargetAttenuationDB(0)

	frame := make([]float32, FrameSize)
	for i := range frame {
		frame[i] = 0.25
	}

	out, err := s.Process(nil, frame)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	for i, v := range out {
		if v != frame[i] {
			t.Fatalf("out[%d] = %v, want dry passthrough %v at 0 dB attenuation", i, v, frame[i])
		}
	}
}

func TestTargetAttenuationAtMinimumUsesBackendOutputInFull(t *testing.T) {
	s := New(NewCPUBackend())
	s.SetTargetAttenuationDB(-60)

	frame := make([]float32, FrameSize)
	for i := range frame {
		frame[i] = 0.25
	}

	blended, err := s.Process(nil, frame)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	s.Reset()
	s.SetTargetAttenuationDB(0)

	backend := NewCPUBackend()
	direct, _, err := backend.Process(frame)
	if err != nil {
		t.Fatalf("backend.Process() error = %v", err)
	}

	for i := range blended {
		if blended[i] != direct[i] {
			t.Fatalf("blended[%d] = %v, want fully denoised %v at -60 dB attenuation", i, blended[i], direct[i])
		}
	}
}

func TestAcceleratorBackendUnavailableFallsBackToCPU(t *testing.T) {
	_, err := NewAcceleratorBackend("gpu0", "/models/denoise.bin")
	if err == nil {
		t.Fatal("expected error for unavailable accelerator device")
	}

	// The wrapper's fallback path: on error, construct a Suppressor with
	// the CPU backend instead, without needing to restart anything.
	s := New(NewCPUBackend())
	if s == nil {
		t.Fatal("fallback CPU-backed Suppressor construction failed")
	}
}

func TestSwitchBackendPreservesUsability(t *testing.T) {
	s := New(NewCPUBackend())

	if err := s.SwitchBackend(NewCPUBackend()); err != nil {
		t.Fatalf("SwitchBackend() error = %v", err)
	}

	out, err := s.Process(nil, make([]float32, FrameSize))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != FrameSize {
		t.Fatalf("len(out) = %d, want %d", len(out), FrameSize)
	}
}

func TestSilentFrameProducesLowVAD(t *testing.T) {
	s := New(NewCPUBackend())

	// Warm up the noise floor with several silent frames first.
	for i := 0; i < 20; i++ {
		if _, err := s.Process(nil, make([]float32, FrameSize)); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}

	if s.LastVAD() > 0.2 {
		t.Errorf("LastVAD() for silence = %v, want near 0", s.LastVAD())
	}
}
