package eq

import (
	"math"
	"testing"
)

func TestDeEsserPassesQuietSibilanceUnattenuated(t *testing.T) {
	d, err := NewDeEsser(48000)
	if err != nil {
		t.Fatalf("NewDeEsser() error = %v", err)
	}

	d.SetThreshold(-10)

	sampleRate := 48000.0
	freq := d.Frequency()

	for i := 0; i < 10000; i++ {
		x := 0.01 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate) // -40 dBFS, well below threshold
		d.ProcessSample(x)
	}

	if d.Metrics().GainReductionDB > 0.5 {
		t.Errorf("GainReductionDB = %v, want ~0 for below-threshold sibilance", d.Metrics().GainReductionDB)
	}
}

func TestDeEsserReducesLoudSibilance(t *testing.T) {
	d, err := NewDeEsser(48000)
	if err != nil {
		t.Fatalf("NewDeEsser() error = %v", err)
	}

	d.SetThreshold(-20)
	d.SetRatio(4)

	sampleRate := 48000.0
	freq := d.Frequency()

	for i := 0; i < 10000; i++ {
		x := 0.8 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate) // well above threshold
		d.ProcessSample(x)
	}

	if d.Metrics().GainReductionDB <= 0 {
		t.Errorf("GainReductionDB = %v, want > 0 for above-threshold sibilance", d.Metrics().GainReductionDB)
	}
}

func TestDeEsserSettersClamp(t *testing.T) {
	d, err := NewDeEsser(48000)
	if err != nil {
		t.Fatalf("NewDeEsser() error = %v", err)
	}

	d.SetFrequency(50000)
	if d.Frequency() != maxDeEsserFreqHz {
		t.Errorf("Frequency() = %v, want clamped to %v", d.Frequency(), maxDeEsserFreqHz)
	}

	d.SetQ(0.01)
	if d.Q() != minDeEsserQ {
		t.Errorf("Q() = %v, want clamped to %v", d.Q(), minDeEsserQ)
	}
}

func TestDeEsserResetClearsEnvelopeAndFilters(t *testing.T) {
	d, err := NewDeEsser(48000)
	if err != nil {
		t.Fatalf("NewDeEsser() error = %v", err)
	}

	for i := 0; i < 1000; i++ {
		d.ProcessSample(0.9)
	}

	d.Reset()

	if d.envelope != 0 {
		t.Errorf("envelope after Reset = %v, want 0", d.envelope)
	}
	if d.Metrics().GainReductionDB != 0 {
		t.Errorf("GainReductionDB after Reset = %v, want 0", d.Metrics().GainReductionDB)
	}
}

func TestDeEsserOnlyAttenuatesNotBoosts(t *testing.T) {
	d, err := NewDeEsser(48000)
	if err != nil {
		t.Fatalf("NewDeEsser() error = %v", err)
	}

	d.SetThreshold(-20)
	d.SetRatio(10)

	sampleRate := 48000.0
	freq := d.Frequency()

	maxIn, maxOut := 0.0, 0.0
	for i := 0; i < 20000; i++ {
		x := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		y := d.ProcessSample(x)

		if a := math.Abs(x); a > maxIn {
			maxIn = a
		}
		if a := math.Abs(y); a > maxOut {
			maxOut = a
		}
	}

	if maxOut > maxIn+1e-9 {
		t.Errorf("output peak %v exceeds input peak %v; de-esser must not boost", maxOut, maxIn)
	}
}
