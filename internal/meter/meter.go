// Package meter implements per-block peak, RMS, and indicative loudness
// metering, adapted from the windowed running-sum accumulator idiom of a
// BS.1770 loudness meter but stripped of K-weighting and gating: this meter
// is explicitly not certified to BS.1770.
package meter

import (
	"fmt"
	"math"

	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	rmsWindowMs       = 300.0
	loudnessWindowSec = 3.0
	peakDecayMs       = 300.0

	peakFloorDB     = -96.0
	loudnessFloorDB = -70.0
)

// Snapshot reports the meter's peak, RMS, and indicative-loudness readings.
// Gain reduction is not tracked here; it is reported by the dynamics
// processors and composed into the pipeline-level meter snapshot.
type Snapshot struct {
	PeakDBFS     float64
	RMSDBFS      float64
	LoudnessDBFS float64
}

// Meter tracks decaying peak, windowed RMS, and rolling indicative loudness
// for a single mono channel. It is not thread-safe; callers serialize
// access to it the same way they serialize access to a single processor.
type Meter struct {
	sampleRate float64

	peak           float64
	peakDecayCoeff float64

	rmsWindowSamples int
	rmsSumSq         float64
	rmsCount         int
	currentRMS       float64

	loudnessWindowSamples int
	loudnessHistory       []float64
	loudnessWriteIdx      int
	loudnessSum           float64
	loudnessFilled        int
}

// New creates a meter at the given sample rate with a 300 ms peak decay
// time constant, a 300 ms RMS window, and a 3 s indicative-loudness window.
func New(sampleRate float64) (*Meter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("meter: sample rate must be positive and finite: %v", sampleRate)
	}

	m := &Meter{sampleRate: sampleRate}
	m.reconfigure()

	return m, nil
}

// ProcessBlock updates peak, RMS, and loudness state from one block of
// samples and returns the resulting snapshot.
func (m *Meter) ProcessBlock(buf []float64) Snapshot {
	blockPeak := 0.0
	for _, x := range buf {
		if a := math.Abs(x); a > blockPeak {
			blockPeak = a
		}
	}

	// Peak decays by exp(-n/tau) across the whole block in a single step,
	// rather than sample-by-sample, so large blocks don't need n
	// multiplications; the decay is applied once per ProcessBlock call
	// regardless of block length.
	decayed := m.peak * math.Pow(m.peakDecayCoeff, float64(len(buf)))
	if blockPeak > decayed {
		m.peak = blockPeak
	} else {
		m.peak = decayed
	}

	for _, x := range buf {
		m.accumulateRMS(x * x)
		m.accumulateLoudness(x * x)
	}

	return m.Snapshot()
}

// Snapshot returns the meter's current readings without processing new
// samples.
func (m *Meter) Snapshot() Snapshot {
	return Snapshot{
		PeakDBFS:     dspmath.DBFloor(dspmath.LinearToDB(math.Max(m.peak, 1e-10)), peakFloorDB),
		RMSDBFS:      dspmath.DBFloor(dspmath.LinearToDB(math.Sqrt(math.Max(m.currentRMS, 0))), peakFloorDB),
		LoudnessDBFS: m.loudnessDBFS(),
	}
}

// Reset clears all accumulator state.
func (m *Meter) Reset() {
	m.peak = 0
	m.rmsSumSq = 0
	m.rmsCount = 0
	m.currentRMS = 0

	for i := range m.loudnessHistory {
		m.loudnessHistory[i] = 0
	}
	m.loudnessWriteIdx = 0
	m.loudnessSum = 0
	m.loudnessFilled = 0
}

// SetSampleRate updates the sample rate and rebuilds window sizes,
// discarding accumulated state (a rate change invalidates window lengths).
func (m *Meter) SetSampleRate(sr float64) error {
	if sr <= 0 || math.IsNaN(sr) || math.IsInf(sr, 0) {
		return fmt.Errorf("meter: sample rate must be positive and finite: %v", sr)
	}

	m.sampleRate = sr
	m.reconfigure()

	return nil
}

// accumulateRMS implements the 300 ms window with overlapping reset: once
// the window fills, the RMS is latched into currentRMS and the accumulator
// restarts, seeded by the samples that overshot the window boundary within
// the same block.
func (m *Meter) accumulateRMS(sq float64) {
	m.rmsSumSq += sq
	m.rmsCount++

	if m.rmsCount >= m.rmsWindowSamples {
		m.currentRMS = m.rmsSumSq / float64(m.rmsCount)
		m.rmsSumSq = 0
		m.rmsCount = 0
	}
}

// accumulateLoudness maintains a 3 s rolling sum of squares using a
// circular history buffer, the same running-sum sliding-window idiom used
// for momentary/short-term integration windows.
func (m *Meter) accumulateLoudness(sq float64) {
	old := m.loudnessHistory[m.loudnessWriteIdx]
	m.loudnessHistory[m.loudnessWriteIdx] = sq

	m.loudnessSum += sq - old
	if m.loudnessSum < 0 {
		m.loudnessSum = 0
	}

	m.loudnessWriteIdx++
	if m.loudnessWriteIdx >= len(m.loudnessHistory) {
		m.loudnessWriteIdx = 0
	}

	if m.loudnessFilled < len(m.loudnessHistory) {
		m.loudnessFilled++
	}
}

func (m *Meter) loudnessDBFS() float64 {
	if m.loudnessFilled == 0 {
		return loudnessFloorDB
	}

	meanSquare := m.loudnessSum / float64(m.loudnessFilled)
	if meanSquare <= 0 {
		return loudnessFloorDB
	}

	return dspmath.DBFloor(-0.691+10*math.Log10(meanSquare), loudnessFloorDB)
}

func (m *Meter) reconfigure() {
	m.rmsWindowSamples = int(math.Round(rmsWindowMs * 0.001 * m.sampleRate))
	if m.rmsWindowSamples < 1 {
		m.rmsWindowSamples = 1
	}

	m.loudnessWindowSamples = int(math.Round(loudnessWindowSec * m.sampleRate))
	if m.loudnessWindowSamples < 1 {
		m.loudnessWindowSamples = 1
	}

	m.loudnessHistory = make([]float64, m.loudnessWindowSamples)

	tau := peakDecayMs * 0.001 * m.sampleRate
	m.peakDecayCoeff = math.Exp(-1.0 / tau)

	m.Reset()
}
