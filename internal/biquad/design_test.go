package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

// response evaluates the section's magnitude response in dB at freq Hz.
func response(c Coefficients, sampleRate, freq float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z := cmplx.Exp(complex(0, -w))
	z2 := z * z

	num := complex(c.B0, 0) + complex(c.B1, 0)*z + complex(c.B2, 0)*z2
	den := complex(1, 0) + complex(c.A1, 0)*z + complex(c.A2, 0)*z2

	h := num / den

	return 20 * math.Log10(cmplx.Abs(h))
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	c := Lowpass(48000, 1000, 0.707)

	passband := response(c, 48000, 100)
	stopband := response(c, 48000, 10000)

	if passband < -1 {
		t.Errorf("passband response at 100Hz = %v dB, want near 0", passband)
	}

	if stopband > -20 {
		t.Errorf("stopband response at 10kHz = %v dB, want strongly attenuated", stopband)
	}
}

func TestHighpassAttenuatesBelowCutoff(t *testing.T) {
	c := Highpass(48000, 80, 0.7)

	dc := response(c, 48000, 1)
	passband := response(c, 48000, 5000)

	if dc > -20 {
		t.Errorf("near-DC response = %v dB, want strongly attenuated", dc)
	}

	if passband < -1 {
		t.Errorf("passband response at 5kHz = %v dB, want near 0", passband)
	}
}

func TestHighpassAt20HzMeetsDefaultAttenuation(t *testing.T) {
	// Default HPF: 80 Hz, Q=0.7 must attenuate 20 Hz DC-ish content by at
	// least 40 dB.
	c := Highpass(48000, 80, 0.7)

	got := response(c, 48000, 20)
	if got > -40 {
		t.Errorf("response at 20Hz = %v dB, want <= -40 dB", got)
	}
}

func TestPeakBoostsAtCenterFrequency(t *testing.T) {
	c := Peak(48000, 3000, 1.0, 6)

	center := response(c, 48000, 3000)
	if math.Abs(center-6) > 0.5 {
		t.Errorf("response at center freq = %v dB, want ~6 dB", center)
	}

	farAway := response(c, 48000, 50)
	if math.Abs(farAway) > 0.5 {
		t.Errorf("response far from center = %v dB, want ~0 dB", farAway)
	}
}

func TestLowShelfBoostsBelowCorner(t *testing.T) {
	c := LowShelf(48000, 200, 1.0, 6)

	low := response(c, 48000, 20)
	high := response(c, 48000, 15000)

	if math.Abs(low-6) > 1.0 {
		t.Errorf("low-shelf response at 20Hz = %v dB, want ~6 dB", low)
	}

	if math.Abs(high) > 1.0 {
		t.Errorf("low-shelf response at 15kHz = %v dB, want ~0 dB", high)
	}
}

func TestHighShelfBoostsAboveCorner(t *testing.T) {
	c := HighShelf(48000, 8000, 1.0, 3)

	low := response(c, 48000, 100)
	high := response(c, 48000, 20000)

	if math.Abs(low) > 1.0 {
		t.Errorf("high-shelf response at 100Hz = %v dB, want ~0 dB", low)
	}

	if math.Abs(high-3) > 1.0 {
		t.Errorf("high-shelf response at 20kHz = %v dB, want ~3 dB", high)
	}
}

func TestNotchRejectsCenterFrequency(t *testing.T) {
	c := Notch(48000, 1000, 4)

	center := response(c, 48000, 1000)
	if center > -20 {
		t.Errorf("notch response at center = %v dB, want strongly attenuated", center)
	}
}

func TestBandpassPassesCenterFrequency(t *testing.T) {
	c := Bandpass(48000, 3000, 4)

	center := response(c, 48000, 3000)
	farAway := response(c, 48000, 100)

	if farAway >= center {
		t.Errorf("bandpass should attenuate far from center more than at center: center=%v far=%v", center, farAway)
	}
}

func TestFreqClampedNearNyquist(t *testing.T) {
	// Must not produce NaN/Inf coefficients when freq >= Nyquist.
	c := Lowpass(48000, 30000, 0.7)

	for _, v := range []float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("coefficient is NaN/Inf: %+v", c)
		}
	}
}
