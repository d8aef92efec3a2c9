package dynamics

import (
	"fmt"
	"math"

	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	defaultLimiterCeilingDB   = -1.0
	defaultLimiterReleaseMs   = 50.0
	defaultLimiterLookaheadMs = 5.0

	minLimiterCeilingDB   = -6.0
	maxLimiterCeilingDB   = 0.0
	minLimiterReleaseMs   = 10.0
	maxLimiterReleaseMs   = 500.0
	minLimiterLookaheadMs = 0.0
	maxLimiterLookaheadMs = 10.0
)

// LimiterMetrics reports the limiter's most recent gain reduction.
type LimiterMetrics struct {
	GainReductionDB float64
}

// Limiter is a brickwall limiter with optional look-ahead. With zero
// look-ahead it snaps the gain down instantly on any sample above the
// ceiling and releases exponentially; with look-ahead it delays the program
// signal and derives gain from the peak within the look-ahead window. The
// gain drops at once to the value that peak needs as soon as the peak
// enters the window, so it is already down when the peak is emitted; the
// attack is not smoothed across the window. Release is exponential in both
// modes, and look-ahead adds latency equal to the window.
type Limiter struct {
	ceilingDB   float64
	releaseMs   float64
	lookaheadMs float64

	sampleRate float64

	ceilingLin float64
	gain       float64

	releaseCoeff float64

	delayBuf    []float64
	writePos    int
	lookaheadN  int

	metrics LimiterMetrics
}

// NewLimiter creates a limiter with the pipeline's default ceiling/release.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("limiter: %w", err)
	}

	l := &Limiter{
		ceilingDB:   defaultLimiterCeilingDB,
		releaseMs:   defaultLimiterReleaseMs,
		lookaheadMs: defaultLimiterLookaheadMs,
		sampleRate:  sampleRate,
		gain:        1.0,
	}

	l.ceilingLin = dspmath.DBToLinear(l.ceilingDB)
	l.updateReleaseCoeff()
	l.rebuildDelayBuffer()

	return l, nil
}

// SetCeiling sets the brickwall ceiling in dBFS, clamped to [-6, 0].
func (l *Limiter) SetCeiling(dB float64) {
	l.ceilingDB = dspmath.Clamp(dB, minLimiterCeilingDB, maxLimiterCeilingDB)
	l.ceilingLin = dspmath.DBToLinear(l.ceilingDB)
}

// SetRelease sets the release time in milliseconds, clamped to [10, 500].
func (l *Limiter) SetRelease(ms float64) {
	l.releaseMs = dspmath.Clamp(ms, minLimiterReleaseMs, maxLimiterReleaseMs)
	l.updateReleaseCoeff()
}

// SetLookahead sets the look-ahead time in milliseconds, clamped to [0, 10].
// A value of zero degenerates to the instant-attack, no-delay branch.
func (l *Limiter) SetLookahead(ms float64) {
	l.lookaheadMs = dspmath.Clamp(ms, minLimiterLookaheadMs, maxLimiterLookaheadMs)
	l.rebuildDelayBuffer()
}

// SetSampleRate updates the sample rate and rebuilds derived state.
func (l *Limiter) SetSampleRate(sr float64) error {
	if err := validateSampleRate(sr); err != nil {
		return fmt.Errorf("limiter: %w", err)
	}

	l.sampleRate = sr
	l.updateReleaseCoeff()
	l.rebuildDelayBuffer()

	return nil
}

// Ceiling returns the current ceiling in dBFS.
func (l *Limiter) Ceiling() float64 { return l.ceilingDB }

// Release returns the current release time in milliseconds.
func (l *Limiter) Release() float64 { return l.releaseMs }

// Lookahead returns the current look-ahead time in milliseconds.
func (l *Limiter) Lookahead() float64 { return l.lookaheadMs }

// ProcessSample runs one sample through the limiter.
func (l *Limiter) ProcessSample(x float64) float64 {
	if l.lookaheadN == 0 {
		return l.processNoLookahead(x)
	}

	return l.processLookahead(x)
}

// ProcessBlock runs a block through the limiter in place.
func (l *Limiter) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = l.ProcessSample(x)
	}
}

// Reset clears gain state and the look-ahead delay line.
func (l *Limiter) Reset() {
	l.gain = 1.0
	l.writePos = 0

	for i := range l.delayBuf {
		l.delayBuf[i] = 0
	}

	l.metrics = LimiterMetrics{}
}

// Metrics returns the most recent gain reduction in dB.
func (l *Limiter) Metrics() LimiterMetrics {
	return l.metrics
}

// processNoLookahead implements instant attack with exponential release:
// the gain snaps down the moment a sample exceeds the ceiling, then relaxes
// back toward unity between peaks.
func (l *Limiter) processNoLookahead(x float64) float64 {
	level := math.Abs(x)

	targetGain := 1.0
	if level > l.ceilingLin {
		targetGain = l.ceilingLin / level
	}

	if targetGain < l.gain {
		l.gain = targetGain
	} else {
		l.gain = targetGain + (l.gain-targetGain)*l.releaseCoeff
	}

	l.updateMetrics()

	return x * l.gain
}

// processLookahead delays the program signal by the look-ahead window and
// derives the gain from the peak observed within that window, so the attack
// is fully informed before the corresponding sample is emitted.
func (l *Limiter) processLookahead(x float64) float64 {
	l.delayBuf[l.writePos] = x

	peak := 0.0
	for _, v := range l.delayBuf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	targetGain := 1.0
	if peak > l.ceilingLin {
		targetGain = l.ceilingLin / peak
	}

	if targetGain < l.gain {
		l.gain = targetGain
	} else {
		l.gain = targetGain + (l.gain-targetGain)*l.releaseCoeff
	}

	readPos := l.writePos + 1
	if readPos >= len(l.delayBuf) {
		readPos = 0
	}

	delayed := l.delayBuf[readPos]
	l.writePos = readPos

	l.updateMetrics()

	return delayed * l.gain
}

func (l *Limiter) updateMetrics() {
	l.metrics.GainReductionDB = -dspmath.LinearToDB(l.gain)
	if l.metrics.GainReductionDB < 0 {
		l.metrics.GainReductionDB = 0
	}
}

func (l *Limiter) updateReleaseCoeff() {
	l.releaseCoeff = math.Exp(-math.Ln2 / (l.releaseMs * 0.001 * l.sampleRate))
}

func (l *Limiter) rebuildDelayBuffer() {
	l.lookaheadN = int(math.Round(l.lookaheadMs * l.sampleRate / 1000.0))
	if l.lookaheadN < 0 {
		l.lookaheadN = 0
	}

	if l.lookaheadN == 0 {
		l.delayBuf = nil
		l.writePos = 0

		return
	}

	l.delayBuf = make([]float64, l.lookaheadN+1)
	l.writePos = 0
}
