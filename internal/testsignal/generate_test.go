package testsignal

import (
	"math"
	"testing"
)

func TestSineAmplitudeAndLength(t *testing.T) {
	g := NewGenerator(48000)

	samples, err := g.Sine(1000, 0.5, 480)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}

	if len(samples) != 480 {
		t.Fatalf("len(samples) = %d, want 480", len(samples))
	}

	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if math.Abs(peak-0.5) > 1e-6 {
		t.Errorf("peak = %v, want ~0.5", peak)
	}
}

func TestWhiteNoiseIsDeterministic(t *testing.T) {
	g := NewGenerator(48000)

	a, err := g.WhiteNoise(1.0, 1000)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	b, err := g.WhiteNoise(1.0, 1000)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs across identically-seeded generators: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWithSeedChangesSequence(t *testing.T) {
	g1 := NewGenerator(48000)
	g2 := g1.WithSeed(2)

	a, _ := g1.WhiteNoise(1.0, 1000)
	b, _ := g2.WhiteNoise(1.0, 1000)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}

	if same {
		t.Error("different seeds produced identical noise sequences")
	}
}

func TestStepProducesConstantAmplitude(t *testing.T) {
	g := NewGenerator(48000)

	s := g.Step(0.3, 100)
	for i, v := range s {
		if v != 0.3 {
			t.Fatalf("sample %d = %v, want 0.3", i, v)
		}
	}
}

func TestNormalizeScalesToTargetPeak(t *testing.T) {
	data := []float64{0.1, -0.4, 0.2}

	out, err := Normalize(data, 1.0)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	peak := 0.0
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if math.Abs(peak-1.0) > 1e-9 {
		t.Errorf("peak after normalize = %v, want 1.0", peak)
	}
}
