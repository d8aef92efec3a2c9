package dynamics

import (
	"math"
	"testing"
)

func TestCompressorNoReductionBelowThreshold(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	c.SetThreshold(-20)
	c.SetKnee(0)

	quiet := math.Pow(10, -40.0/20)

	var y float64
	for i := 0; i < 20000; i++ {
		y = c.ProcessSample(quiet)
	}

	if math.Abs(y-quiet) > 1e-6 {
		t.Errorf("steady-state below-threshold output = %v, want ~%v (no reduction)", y, quiet)
	}
}

func TestCompressorGainReductionIsNonNegative(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	c.SetThreshold(-18)
	c.SetRatio(4)
	c.SetKnee(0)
	c.SetAttack(10)
	c.SetRelease(100)

	loud := 0.5
	for i := 0; i < 20000; i++ {
		c.ProcessSample(loud)
	}

	if c.Metrics().GainReductionDB < 0 {
		t.Errorf("GainReductionDB = %v, want >= 0", c.Metrics().GainReductionDB)
	}
}

func TestCompressorSteadyStateGainReductionMatchesRatio(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	c.SetThreshold(-18)
	c.SetRatio(4)
	c.SetKnee(0)
	c.SetAttack(10)
	c.SetRelease(100)
	c.SetMakeupGain(0)

	// A constant-level input removes envelope-tracking transients, letting
	// the steady-state gain reduction be checked directly against the
	// static curve: 6 dB over threshold at ratio 4:1 reduces by 4.5 dB.
	amplitude := math.Pow(10, -12.0/20) // -12 dBFS, 6 dB above threshold

	for i := 0; i < 48000; i++ {
		c.ProcessSample(amplitude)
	}

	got := c.Metrics().GainReductionDB
	want := 4.5
	if math.Abs(got-want) > 0.1 {
		t.Errorf("steady-state GainReductionDB = %v, want ~%v", got, want)
	}
}

func TestCompressorSettersClamp(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	c.SetRatio(1000)
	if c.Ratio() != maxCompressorRatio {
		t.Errorf("Ratio() = %v, want clamped to %v", c.Ratio(), maxCompressorRatio)
	}

	c.SetKnee(-5)
	if c.Knee() != minCompressorKneeDB {
		t.Errorf("Knee() = %v, want clamped to %v", c.Knee(), minCompressorKneeDB)
	}
}

func TestCompressorDeterministicAfterReset(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	input := make([]float64, 480)
	for i := range input {
		input[i] = 0.3 * math.Sin(2*math.Pi*300*float64(i)/48000)
	}

	run := func() []float64 {
		c.Reset()
		out := make([]float64, len(input))
		copy(out, input)
		c.ProcessBlock(out)

		return out
	}

	first := run()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs across identical runs after Reset: %v vs %v", i, first[i], second[i])
		}
	}
}
