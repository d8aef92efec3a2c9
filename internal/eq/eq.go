// Package eq implements the voice equalizer chain: a high-pass filter,
// low-shelf, presence peak, high-shelf, and an optional de-esser side-chain,
// composed in series over second-order sections from internal/biquad.
package eq

import (
	"fmt"
	"math"
)

func validateSampleRate(sr float64) error {
	if sr <= 0 || math.IsNaN(sr) || math.IsInf(sr, 0) {
		return fmt.Errorf("sample rate must be positive and finite: %v", sr)
	}

	return nil
}

// attackReleaseCoeffs converts one-pole attack/release times in
// milliseconds into per-sample smoothing coefficients at the given sample
// rate, using the same time-to-half-life formula as the dynamics package.
func attackReleaseCoeffs(attackMs, releaseMs, sampleRate float64) (attack, release float64) {
	attack = 1.0 - math.Exp(-math.Ln2/(attackMs*0.001*sampleRate))
	release = math.Exp(-math.Ln2 / (releaseMs * 0.001 * sampleRate))

	return attack, release
}
