// Package testsignal generates deterministic synthetic waveforms for tests
// across the module: sine tones, white noise, and DC steps, used to drive
// filters, dynamics processors, and the pipeline without depending on
// recorded fixtures.
package testsignal

import (
	"fmt"
	"math"
	"math/rand"
)

// Generator creates deterministic signals at a fixed sample rate.
type Generator struct {
	sampleRate float64
	seed       int64
}

// NewGenerator creates a generator at sampleRate with a fixed default seed
// so noise fixtures are reproducible across test runs.
func NewGenerator(sampleRate float64) *Generator {
	return &Generator{sampleRate: sampleRate, seed: 1}
}

// WithSeed returns a copy of g using the given deterministic noise seed.
func (g *Generator) WithSeed(seed int64) *Generator {
	return &Generator{sampleRate: g.sampleRate, seed: seed}
}

// Sine generates a sine wave at freqHz and amplitude.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("testsignal: sine samples must be > 0: %d", samples)
	}
	if g.sampleRate <= 0 {
		return nil, fmt.Errorf("testsignal: sine sample rate must be > 0: %f", g.sampleRate)
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("testsignal: noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("testsignal: noise amplitude must be >= 0: %f", amplitude)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out, nil
}

// Step generates a constant-amplitude signal, useful for driving envelope
// followers to a known steady state.
func (g *Generator) Step(amplitude float64, samples int) []float64 {
	out := make([]float64, samples)
	for i := range out {
		out[i] = amplitude
	}

	return out
}

// Normalize scales data to a target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("testsignal: normalize target peak must be >= 0: %f", targetPeak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("testsignal: normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		if av := math.Abs(v); av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}

	return out, nil
}
