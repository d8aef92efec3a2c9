package dynamics

import (
	"fmt"
	"math"

	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	defaultCompressorThresholdDB = -20.0
	defaultCompressorRatio       = 4.0
	defaultCompressorKneeDB      = 6.0
	defaultCompressorAttackMs    = 10.0
	defaultCompressorReleaseMs   = 100.0
	defaultCompressorMakeupDB    = 0.0

	minCompressorThresholdDB = -60.0
	maxCompressorThresholdDB = 0.0
	minCompressorRatio       = 1.0
	maxCompressorRatio       = 20.0
	minCompressorKneeDB      = 0.0
	maxCompressorKneeDB      = 12.0
	minCompressorAttackMs    = 0.1
	maxCompressorAttackMs    = 1000.0
	minCompressorReleaseMs   = 1.0
	maxCompressorReleaseMs   = 5000.0
	minCompressorMakeupDB    = 0.0
	maxCompressorMakeupDB    = 24.0

	// outputSmoothingRetention is the one-pole retention factor applied to
	// the gain-reduction signal itself (not the envelope) to avoid zipper
	// noise on the reported/applied gain when the envelope is choppy.
	outputSmoothingRetention = 0.99
)

// CompressorMetrics reports the compressor's most recent behavior.
type CompressorMetrics struct {
	// GainReductionDB is always >= 0; it never reports makeup gain.
	GainReductionDB float64
}

// Compressor is a feed-forward soft-knee compressor operating entirely in
// the dB domain, with a one-pole output smoothing stage to suppress zipper
// noise from a choppy envelope.
type Compressor struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	attackMs    float64
	releaseMs   float64
	makeupDB    float64

	sampleRate float64

	envelope     float64
	smoothedGain float64

	attackCoeff  float64
	releaseCoeff float64

	metrics CompressorMetrics
}

// NewCompressor creates a compressor with the pipeline's default settings.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}

	c := &Compressor{
		thresholdDB:  defaultCompressorThresholdDB,
		ratio:        defaultCompressorRatio,
		kneeDB:       defaultCompressorKneeDB,
		attackMs:     defaultCompressorAttackMs,
		releaseMs:    defaultCompressorReleaseMs,
		makeupDB:     defaultCompressorMakeupDB,
		sampleRate:   sampleRate,
		smoothedGain: 1.0,
	}

	c.updateTimeConstants()

	return c, nil
}

// SetThreshold sets the compression threshold in dBFS, clamped to range.
func (c *Compressor) SetThreshold(dB float64) {
	c.thresholdDB = dspmath.Clamp(dB, minCompressorThresholdDB, maxCompressorThresholdDB)
}

// SetRatio sets the compression ratio, clamped to [1, 20].
func (c *Compressor) SetRatio(ratio float64) {
	c.ratio = dspmath.Clamp(ratio, minCompressorRatio, maxCompressorRatio)
}

// SetKnee sets the soft-knee width in dB, clamped to [0, 12].
func (c *Compressor) SetKnee(kneeDB float64) {
	c.kneeDB = dspmath.Clamp(kneeDB, minCompressorKneeDB, maxCompressorKneeDB)
}

// SetAttack sets the envelope attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) {
	c.attackMs = dspmath.Clamp(ms, minCompressorAttackMs, maxCompressorAttackMs)
	c.updateTimeConstants()
}

// SetRelease sets the envelope release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) {
	c.releaseMs = dspmath.Clamp(ms, minCompressorReleaseMs, maxCompressorReleaseMs)
	c.updateTimeConstants()
}

// SetMakeupGain sets the static makeup gain in dB, clamped to [0, 24].
func (c *Compressor) SetMakeupGain(dB float64) {
	c.makeupDB = dspmath.Clamp(dB, minCompressorMakeupDB, maxCompressorMakeupDB)
}

// SetSampleRate updates the sample rate and time constants.
func (c *Compressor) SetSampleRate(sr float64) error {
	if err := validateSampleRate(sr); err != nil {
		return fmt.Errorf("compressor: %w", err)
	}

	c.sampleRate = sr
	c.updateTimeConstants()

	return nil
}

// Threshold returns the current threshold in dBFS.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the current compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Knee returns the current knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB }

// Attack returns the current attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the current release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// MakeupGain returns the current makeup gain in dB.
func (c *Compressor) MakeupGain() float64 { return c.makeupDB }

// ProcessSample runs one sample through the compressor.
func (c *Compressor) ProcessSample(x float64) float64 {
	level := math.Abs(x)

	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}

	targetGainDB := c.staticCurveDB(dspmath.DBFloor(dspmath.LinearToDB(c.envelope), -96))
	targetGain := dspmath.DBToLinear(targetGainDB)

	c.smoothedGain = targetGain + (c.smoothedGain-targetGain)*outputSmoothingRetention

	c.metrics.GainReductionDB = -targetGainDB
	if c.metrics.GainReductionDB < 0 {
		c.metrics.GainReductionDB = 0
	}

	return x * c.smoothedGain * dspmath.DBToLinear(c.makeupDB)
}

// ProcessBlock runs a block through the compressor in place.
func (c *Compressor) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = c.ProcessSample(x)
	}
}

// Reset clears envelope, smoothed gain, and metrics.
func (c *Compressor) Reset() {
	c.envelope = 0
	c.smoothedGain = 1.0
	c.metrics = CompressorMetrics{}
}

// Metrics returns the most recent gain reduction in dB (always >= 0).
func (c *Compressor) Metrics() CompressorMetrics {
	return c.metrics
}

// staticCurveDB implements the compressor's static input/output curve in the
// dB domain: below the lower knee point there is no gain change; above the
// upper knee point the gain follows the ratio slope; inside the knee, a
// quadratic interpolation smooths the transition.
func (c *Compressor) staticCurveDB(inputDB float64) float64 {
	overshoot := inputDB - c.thresholdDB
	halfKnee := c.kneeDB / 2

	switch {
	case c.kneeDB <= 0:
		if overshoot <= 0 {
			return 0
		}

		return (1/c.ratio - 1) * overshoot

	case overshoot < -halfKnee:
		return 0

	case overshoot > halfKnee:
		return (1/c.ratio - 1) * overshoot

	default:
		slope := (1/c.ratio - 1) / (2 * c.kneeDB)
		lowerKnee := overshoot + halfKnee

		return slope * lowerKnee * lowerKnee
	}
}

func (c *Compressor) updateTimeConstants() {
	c.attackCoeff, c.releaseCoeff = attackReleaseCoeffs(c.attackMs, c.releaseMs, c.sampleRate)
}
