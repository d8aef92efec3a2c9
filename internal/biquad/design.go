package biquad

import "math"

// Design produces Coefficients for the standard second-order filter shapes
// using the Audio-EQ-Cookbook formulas (Robert Bristow-Johnson). All angular
// values are derived from sampleRate and freq; a0 is normalized to 1 and
// folded into the returned coefficients.

// Lowpass designs a resonant low-pass section.
func Lowpass(sampleRate, freq, q float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	alpha := sinW0 / (2 * normalizedQ(q))

	b0 := (1 - cosW0) / 2
	b1 := 1 - cosW0
	b2 := (1 - cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// Highpass designs a resonant high-pass section.
func Highpass(sampleRate, freq, q float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	alpha := sinW0 / (2 * normalizedQ(q))

	b0 := (1 + cosW0) / 2
	b1 := -(1 + cosW0)
	b2 := (1 + cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// Bandpass designs a constant skirt gain band-pass section (peak gain = Q).
func Bandpass(sampleRate, freq, q float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	alpha := sinW0 / (2 * normalizedQ(q))

	b0 := sinW0 / 2
	b1 := 0.0
	b2 := -sinW0 / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// Notch designs a band-reject section.
func Notch(sampleRate, freq, q float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	alpha := sinW0 / (2 * normalizedQ(q))

	b0 := 1.0
	b1 := -2 * cosW0
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// Peak designs a parametric peaking EQ section with gain in dB.
func Peak(sampleRate, freq, q, gainDB float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	a := math.Pow(10, gainDB/40)
	alpha := sinW0 / (2 * normalizedQ(q))

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	return normalize(b0, b1, b2, a0, a1, a2)
}

// LowShelf designs a low-shelf section with gain in dB and shelf slope
// controlled by q (1.0 is Butterworth-flat).
func LowShelf(sampleRate, freq, q, gainDB float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	a := math.Pow(10, gainDB/40)
	alpha := sinW0 / 2 * math.Sqrt((a+1/a)*(1/normalizedQ(q)-1)+2)
	twoSqrtAAlpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cosW0 + twoSqrtAAlpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW0)
	b2 := a * ((a + 1) - (a-1)*cosW0 - twoSqrtAAlpha)
	a0 := (a + 1) + (a-1)*cosW0 + twoSqrtAAlpha
	a1 := -2 * ((a - 1) + (a+1)*cosW0)
	a2 := (a + 1) + (a-1)*cosW0 - twoSqrtAAlpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// HighShelf designs a high-shelf section with gain in dB and shelf slope
// controlled by q (1.0 is Butterworth-flat).
func HighShelf(sampleRate, freq, q, gainDB float64) Coefficients {
	_, sinW0, cosW0 := angular(sampleRate, freq)
	a := math.Pow(10, gainDB/40)
	alpha := sinW0 / 2 * math.Sqrt((a+1/a)*(1/normalizedQ(q)-1)+2)
	twoSqrtAAlpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cosW0 + twoSqrtAAlpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW0)
	b2 := a * ((a + 1) + (a-1)*cosW0 - twoSqrtAAlpha)
	a0 := (a + 1) - (a-1)*cosW0 + twoSqrtAAlpha
	a1 := 2 * ((a - 1) - (a+1)*cosW0)
	a2 := (a + 1) - (a-1)*cosW0 - twoSqrtAAlpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// angular returns w0 (rad/sample) and its sine/cosine for freq at sampleRate,
// with freq clamped just below Nyquist to keep the design numerically valid.
func angular(sampleRate, freq float64) (w0, sinW0, cosW0 float64) {
	nyquist := sampleRate / 2
	if freq >= nyquist {
		freq = nyquist * 0.999
	}

	if freq <= 0 {
		freq = 1
	}

	w0 = 2 * math.Pi * freq / sampleRate

	return w0, math.Sin(w0), math.Cos(w0)
}

// normalizedQ guards against a zero or negative Q collapsing alpha to
// infinity or destabilizing the section.
func normalizedQ(q float64) float64 {
	const minQ = 0.01
	if q < minQ {
		return minQ
	}

	return q
}

// normalize divides through by a0 so the returned Coefficients match the
// Section's implicit a0=1 convention.
func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
