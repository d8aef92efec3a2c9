package device

import "testing"

func TestSelectVirtualOutputPrefersHigherPriorityMatch(t *testing.T) {
	devices := []Info{
		{Name: "Realtek Speakers", ID: "realtek"},
		{Name: "VB-Audio Virtual Cable", ID: "vbaudio"},
		{Name: "CABLE Input (VB-Audio Virtual Cable)", ID: "cable-input"},
	}

	id, ok := SelectVirtualOutput(devices)
	if !ok {
		t.Fatal("expected a match")
	}
	if id != "cable-input" {
		t.Errorf("id = %q, want %q ('cable input' outranks 'vb-audio')", id, "cable-input")
	}
}

func TestSelectVirtualOutputCaseInsensitive(t *testing.T) {
	devices := []Info{{Name: "Virtual Speaker Pro", ID: "vspk"}}

	id, ok := SelectVirtualOutput(devices)
	if !ok || id != "vspk" {
		t.Errorf("SelectVirtualOutput() = (%q, %v), want (\"vspk\", true)", id, ok)
	}
}

func TestSelectVirtualOutputNoMatch(t *testing.T) {
	devices := []Info{{Name: "Built-in Speakers", ID: "builtin"}}

	_, ok := SelectVirtualOutput(devices)
	if ok {
		t.Error("expected no match for a non-virtual device list")
	}
}

func TestStubCapturePushFramesInvokesCallback(t *testing.T) {
	src := NewStubCapture([]Info{{Name: "Mic", ID: "mic"}})

	if _, _, err := src.Init("mic"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := src.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var got []float32
	src.OnFrames(func(samples []float32, frames int, rate float64, channels int) {
		got = samples
		if frames != len(samples)/channels {
			t.Errorf("frames = %d, want %d", frames, len(samples)/channels)
		}
	})

	src.PushFrames([]float32{0.1, 0.2, 0.3, 0.4}, 48000, 1)

	if len(got) != 4 {
		t.Fatalf("callback received %d samples, want 4", len(got))
	}
}

func TestStubRenderAccumulatesWrites(t *testing.T) {
	r := NewStubRender([]Info{{Name: "Out", ID: "out"}})

	if _, _, err := r.Init("out"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if _, err := r.Write([]float32{1, 2, 3}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := r.Write([]float32{4, 5}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := []float32{1, 2, 3, 4, 5}
	got := r.Written()

	if len(got) != len(want) {
		t.Fatalf("len(Written()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Written()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
