package dynamics

import (
	"fmt"
	"math"

	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	defaultExpanderThresholdDB = -45.0
	defaultExpanderRatio       = 2.5
	defaultExpanderAttackMs    = 5.0
	defaultExpanderReleaseMs   = 100.0
	defaultExpanderHysteresis  = 3.0

	minExpanderThresholdDB = -60.0
	maxExpanderThresholdDB = 0.0
	minExpanderRatio       = 1.0
	maxExpanderRatio       = 10.0
	minExpanderAttackMs    = 0.1
	maxExpanderAttackMs    = 100.0
	minExpanderReleaseMs   = 10.0
	maxExpanderReleaseMs   = 1000.0
	minExpanderHysteresis  = 0.0
	maxExpanderHysteresis  = 10.0
)

// ExpanderMetrics holds metering information about the expander's behavior.
type ExpanderMetrics struct {
	GainReductionDB float64
	Open            bool
}

// Expander is a downward expander/gate with hysteresis between its open and
// closed states, preventing chatter for envelopes that hover near threshold.
type Expander struct {
	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64
	hysteresis  float64

	sampleRate float64

	envelope float64
	open     bool

	attackCoeff  float64
	releaseCoeff float64

	metrics ExpanderMetrics
}

// NewExpander creates an expander with the pipeline's default voice-gate
// settings.
func NewExpander(sampleRate float64) (*Expander, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("expander: %w", err)
	}

	e := &Expander{
		thresholdDB: defaultExpanderThresholdDB,
		ratio:       defaultExpanderRatio,
		attackMs:    defaultExpanderAttackMs,
		releaseMs:   defaultExpanderReleaseMs,
		hysteresis:  defaultExpanderHysteresis,
		sampleRate:  sampleRate,
	}

	e.updateTimeConstants()

	return e, nil
}

// SetThreshold sets the expansion threshold in dBFS. Out-of-range values are
// silently clamped to the valid interval.
func (e *Expander) SetThreshold(dB float64) {
	e.thresholdDB = dspmath.Clamp(dB, minExpanderThresholdDB, maxExpanderThresholdDB)
}

// SetRatio sets the downward expansion ratio.
func (e *Expander) SetRatio(ratio float64) {
	e.ratio = dspmath.Clamp(ratio, minExpanderRatio, maxExpanderRatio)
}

// SetAttack sets the envelope attack time in milliseconds.
func (e *Expander) SetAttack(ms float64) {
	e.attackMs = dspmath.Clamp(ms, minExpanderAttackMs, maxExpanderAttackMs)
	e.updateTimeConstants()
}

// SetRelease sets the envelope release time in milliseconds.
func (e *Expander) SetRelease(ms float64) {
	e.releaseMs = dspmath.Clamp(ms, minExpanderReleaseMs, maxExpanderReleaseMs)
	e.updateTimeConstants()
}

// SetHysteresis sets the dB gap between the open and closed thresholds.
func (e *Expander) SetHysteresis(dB float64) {
	e.hysteresis = dspmath.Clamp(dB, minExpanderHysteresis, maxExpanderHysteresis)
}

// SetSampleRate updates the sample rate and recomputes time constants.
func (e *Expander) SetSampleRate(sr float64) error {
	if err := validateSampleRate(sr); err != nil {
		return fmt.Errorf("expander: %w", err)
	}

	e.sampleRate = sr
	e.updateTimeConstants()

	return nil
}

// Threshold returns the current threshold in dBFS.
func (e *Expander) Threshold() float64 { return e.thresholdDB }

// Ratio returns the current expansion ratio.
func (e *Expander) Ratio() float64 { return e.ratio }

// Attack returns the current attack time in milliseconds.
func (e *Expander) Attack() float64 { return e.attackMs }

// Release returns the current release time in milliseconds.
func (e *Expander) Release() float64 { return e.releaseMs }

// Hysteresis returns the current hysteresis gap in dB.
func (e *Expander) Hysteresis() float64 { return e.hysteresis }

// ProcessSample runs one sample through the expander.
func (e *Expander) ProcessSample(x float64) float64 {
	level := math.Abs(x)

	if level > e.envelope {
		e.envelope += (level - e.envelope) * e.attackCoeff
	} else {
		e.envelope = level + (e.envelope-level)*e.releaseCoeff
	}

	envDB := dspmath.DBFloor(dspmath.LinearToDB(e.envelope), -96)

	// The open state closes only once the envelope falls below the
	// threshold lowered by the hysteresis; the closed state reopens when the
	// envelope climbs back to the plain threshold.
	// The gap between the two is the hysteresis band that absorbs chatter
	// for an envelope hovering near the boundary.
	if e.open {
		if envDB < e.thresholdDB-e.hysteresis {
			e.open = false
		}
	} else {
		if envDB >= e.thresholdDB {
			e.open = true
		}
	}

	var gainDB float64
	if e.open {
		gainDB = 0
	} else {
		gainDB = -(e.thresholdDB - envDB) * (e.ratio - 1)
	}

	e.metrics.GainReductionDB = -gainDB
	e.metrics.Open = e.open

	return x * dspmath.DBToLinear(gainDB)
}

// ProcessBlock runs a block through the expander in place.
func (e *Expander) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = e.ProcessSample(x)
	}
}

// Reset clears envelope and gate state.
func (e *Expander) Reset() {
	e.envelope = 0
	e.open = false
	e.metrics = ExpanderMetrics{}
}

// Metrics returns the most recent gain reduction and gate state.
func (e *Expander) Metrics() ExpanderMetrics {
	return e.metrics
}

func (e *Expander) updateTimeConstants() {
	e.attackCoeff, e.releaseCoeff = attackReleaseCoeffs(e.attackMs, e.releaseMs, e.sampleRate)
}
