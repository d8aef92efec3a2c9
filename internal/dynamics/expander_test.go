package dynamics

import (
	"math"
	"testing"
)

func TestExpanderPassesLoudSignalUnattenuated(t *testing.T) {
	e, err := NewExpander(48000)
	if err != nil {
		t.Fatalf("NewExpander() error = %v", err)
	}

	e.SetThreshold(-45)

	var y float64
	for i := 0; i < 2000; i++ {
		y = e.ProcessSample(0.5) // well above -45 dBFS
	}

	if math.Abs(y-0.5) > 1e-6 {
		t.Errorf("steady-state loud signal = %v, want ~0.5 (unity gain)", y)
	}
}

func TestExpanderAttenuatesQuietSignal(t *testing.T) {
	e, err := NewExpander(48000)
	if err != nil {
		t.Fatalf("NewExpander() error = %v", err)
	}

	e.SetThreshold(-45)
	e.SetRatio(4)

	quiet := 0.0001 // well below -45 dBFS

	var y float64
	for i := 0; i < 20000; i++ {
		y = e.ProcessSample(quiet)
	}

	if math.Abs(y) >= math.Abs(quiet) {
		t.Errorf("steady-state quiet signal = %v, want attenuated below input %v", y, quiet)
	}
}

func TestExpanderHysteresisPreventsChatter(t *testing.T) {
	e, err := NewExpander(48000)
	if err != nil {
		t.Fatalf("NewExpander() error = %v", err)
	}

	e.SetThreshold(-45)
	e.SetHysteresis(6)

	// Drive it open.
	for i := 0; i < 5000; i++ {
		e.ProcessSample(0.5)
	}
	if !e.Metrics().Open {
		t.Fatal("expander should be open after sustained loud input")
	}

	// A dip that stays above threshold-hysteresis should not close the gate.
	dip := dbToLinearForTest(-48) // between threshold (-45) and threshold-hysteresis (-51)
	for i := 0; i < 500; i++ {
		e.ProcessSample(dip)
	}

	if !e.Metrics().Open {
		t.Error("gate closed despite envelope staying within the hysteresis band")
	}
}

func TestExpanderResetClearsState(t *testing.T) {
	e, err := NewExpander(48000)
	if err != nil {
		t.Fatalf("NewExpander() error = %v", err)
	}

	for i := 0; i < 100; i++ {
		e.ProcessSample(0.8)
	}

	e.Reset()

	if e.Metrics().Open {
		t.Error("Open should be false immediately after Reset")
	}
}

func TestExpanderSettersClamp(t *testing.T) {
	e, err := NewExpander(48000)
	if err != nil {
		t.Fatalf("NewExpander() error = %v", err)
	}

	e.SetThreshold(100)
	if e.Threshold() != maxExpanderThresholdDB {
		t.Errorf("Threshold() = %v, want clamped to %v", e.Threshold(), maxExpanderThresholdDB)
	}

	e.SetRatio(-5)
	if e.Ratio() != minExpanderRatio {
		t.Errorf("Ratio() = %v, want clamped to %v", e.Ratio(), minExpanderRatio)
	}
}

func dbToLinearForTest(db float64) float64 {
	return math.Pow(10, db/20)
}
