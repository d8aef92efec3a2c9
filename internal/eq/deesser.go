package eq

import (
	"fmt"
	"math"

	"github.com/clearvoice/voxengine/internal/biquad"
	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	defaultDeEsserFreqHz    = 6000.0
	defaultDeEsserQ         = 4.0
	defaultDeEsserThreshDB  = -20.0
	defaultDeEsserRatio     = 4.0
	defaultDeEsserAttackMs  = 0.5
	defaultDeEsserReleaseMs = 20.0

	minDeEsserFreqHz   = 1000.0
	maxDeEsserFreqHz   = 16000.0
	minDeEsserQ        = 1.0
	maxDeEsserQ        = 10.0
	minDeEsserThreshDB = -60.0
	maxDeEsserThreshDB = 0.0
	minDeEsserRatio    = 1.0
	maxDeEsserRatio    = 20.0
	minDeEsserAttackMs = 0.05
	maxDeEsserAttackMs = 20.0
	minDeEsserRelease  = 1.0
	maxDeEsserRelease  = 200.0
)

// DeEsserMetrics reports the de-esser's most recent gain reduction.
type DeEsserMetrics struct {
	GainReductionDB float64
}

// DeEsser taps a narrow band-pass sibilance detector and attenuates only
// that band out of the through-signal: target - signal = reduction * band.
// This is the split-band mode described for the voice equalizer's optional
// de-essing stage.
type DeEsser struct {
	freqHz    float64
	q         float64
	threshDB  float64
	ratio     float64
	attackMs  float64
	releaseMs float64

	sampleRate float64

	detect *biquad.Section
	band   *biquad.Section

	envelope     float64
	attackCoeff  float64
	releaseCoeff float64

	metrics DeEsserMetrics
}

// NewDeEsser creates a de-esser tapping the 6 kHz sibilance band by default.
func NewDeEsser(sampleRate float64) (*DeEsser, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("deesser: %w", err)
	}

	d := &DeEsser{
		freqHz:     defaultDeEsserFreqHz,
		q:          defaultDeEsserQ,
		threshDB:   defaultDeEsserThreshDB,
		ratio:      defaultDeEsserRatio,
		attackMs:   defaultDeEsserAttackMs,
		releaseMs:  defaultDeEsserReleaseMs,
		sampleRate: sampleRate,
	}

	d.rebuildFilters()
	d.updateTimeConstants()

	return d, nil
}

// SetFrequency sets the sibilance detection frequency in Hz, clamped to
// [1000, 16000].
func (d *DeEsser) SetFrequency(hz float64) {
	d.freqHz = dspmath.Clamp(hz, minDeEsserFreqHz, maxDeEsserFreqHz)
	d.rebuildFilters()
}

// SetQ sets the detection band-pass Q, clamped to [1, 10].
func (d *DeEsser) SetQ(q float64) {
	d.q = dspmath.Clamp(q, minDeEsserQ, maxDeEsserQ)
	d.rebuildFilters()
}

// SetThreshold sets the detection threshold in dBFS, clamped to [-60, 0].
func (d *DeEsser) SetThreshold(dB float64) {
	d.threshDB = dspmath.Clamp(dB, minDeEsserThreshDB, maxDeEsserThreshDB)
}

// SetRatio sets the sibilance compression ratio, clamped to [1, 20].
func (d *DeEsser) SetRatio(ratio float64) {
	d.ratio = dspmath.Clamp(ratio, minDeEsserRatio, maxDeEsserRatio)
}

// SetAttack sets the detector envelope attack time in ms.
func (d *DeEsser) SetAttack(ms float64) {
	d.attackMs = dspmath.Clamp(ms, minDeEsserAttackMs, maxDeEsserAttackMs)
	d.updateTimeConstants()
}

// SetRelease sets the detector envelope release time in ms.
func (d *DeEsser) SetRelease(ms float64) {
	d.releaseMs = dspmath.Clamp(ms, minDeEsserRelease, maxDeEsserRelease)
	d.updateTimeConstants()
}

// Frequency returns the current detection frequency in Hz.
func (d *DeEsser) Frequency() float64 { return d.freqHz }

// Q returns the current detection Q.
func (d *DeEsser) Q() float64 { return d.q }

// Threshold returns the current detection threshold in dBFS.
func (d *DeEsser) Threshold() float64 { return d.threshDB }

// Ratio returns the current compression ratio.
func (d *DeEsser) Ratio() float64 { return d.ratio }

// SetSampleRate updates the sample rate and redesigns the detection filter.
func (d *DeEsser) SetSampleRate(sr float64) error {
	if err := validateSampleRate(sr); err != nil {
		return fmt.Errorf("deesser: %w", err)
	}

	d.sampleRate = sr
	d.rebuildFilters()
	d.updateTimeConstants()

	return nil
}

// ProcessSample runs one sample through the de-esser.
func (d *DeEsser) ProcessSample(x float64) float64 {
	detected := d.detect.ProcessSample(x)

	level := math.Abs(detected)
	if level > d.envelope {
		d.envelope += (level - d.envelope) * d.attackCoeff
	} else {
		d.envelope = level + (d.envelope-level)*d.releaseCoeff
	}

	envDB := dspmath.DBFloor(dspmath.LinearToDB(d.envelope), -96)
	overshoot := envDB - d.threshDB

	reduction := 0.0
	if overshoot > 0 {
		reduction = overshoot * (1 - 1/d.ratio)
	}

	d.metrics.GainReductionDB = reduction

	// The band-pass design has a peak gain of Q; dividing by q brings the
	// band tap to unity gain at the centre frequency.
	band := d.band.ProcessSample(x) / d.q

	// Attenuate only the sibilance band out of the through-signal:
	// output = input + band*(gain-1), where gain is the sibilance band's
	// own attenuation factor.
	gain := dspmath.DBToLinear(-reduction)

	return x + band*(gain-1)
}

// ProcessBlock runs a block through the de-esser in place.
func (d *DeEsser) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(x)
	}
}

// Reset clears filter and envelope state.
func (d *DeEsser) Reset() {
	d.detect.Reset()
	d.band.Reset()
	d.envelope = 0
	d.metrics = DeEsserMetrics{}
}

// Metrics returns the most recent gain reduction applied to the sibilance
// band, in dB.
func (d *DeEsser) Metrics() DeEsserMetrics {
	return d.metrics
}

func (d *DeEsser) rebuildFilters() {
	coeffs := biquad.Bandpass(d.sampleRate, d.freqHz, d.q)
	d.detect = biquad.NewSection(coeffs)
	d.band = biquad.NewSection(coeffs)
}

func (d *DeEsser) updateTimeConstants() {
	d.attackCoeff, d.releaseCoeff = attackReleaseCoeffs(d.attackMs, d.releaseMs, d.sampleRate)
}
