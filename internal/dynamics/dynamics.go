// Package dynamics implements the feed-forward dynamics processors that sit
// between the equalizer and the render path: a downward expander with
// hysteresis, a soft-knee compressor, and a brickwall look-ahead limiter.
//
// Every processor is mono, real-time safe (no allocation on ProcessSample or
// ProcessBlock after construction), and not safe for concurrent use — the
// pipeline orchestrator serializes setter calls to block boundaries.
package dynamics

import (
	"fmt"
	"math"
)

func validateSampleRate(sr float64) error {
	if sr <= 0 || math.IsNaN(sr) || math.IsInf(sr, 0) {
		return fmt.Errorf("sample rate must be positive and finite: %f", sr)
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// attackReleaseCoeffs derives one-pole envelope follower coefficients from
// attack/release times in milliseconds, using the standard -3dB time
// constant convention shared by every processor in this package.
func attackReleaseCoeffs(attackMs, releaseMs, sampleRate float64) (attack, release float64) {
	attack = 1.0 - math.Exp(-math.Ln2/(attackMs*0.001*sampleRate))
	release = math.Exp(-math.Ln2 / (releaseMs * 0.001 * sampleRate))

	return attack, release
}
