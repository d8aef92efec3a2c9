package eq

import (
	"fmt"

	"github.com/clearvoice/voxengine/internal/biquad"
	"github.com/clearvoice/voxengine/internal/dspmath"
)

const (
	defaultHighpassHz = 80.0
	minHighpassHz     = 20.0
	maxHighpassHz     = 300.0
	defaultHighpassQ  = 0.7

	defaultLowShelfHz    = 200.0
	minLowShelfHz        = 60.0
	maxLowShelfHz        = 500.0
	defaultLowShelfGain  = 0.0
	minLowShelfGainDB    = -12.0
	maxLowShelfGainDB    = 12.0
	defaultLowShelfQ     = 0.7

	defaultPresenceHz   = 3000.0
	minPresenceHz       = 1000.0
	maxPresenceHz       = 8000.0
	defaultPresenceGain = 0.0
	minPresenceGainDB   = -12.0
	maxPresenceGainDB   = 12.0
	defaultPresenceQ    = 1.0
	minPresenceQ        = 0.3
	maxPresenceQ        = 5.0

	defaultHighShelfHz   = 8000.0
	minHighShelfHz       = 2000.0
	maxHighShelfHz       = 16000.0
	defaultHighShelfGain = 0.0
	minHighShelfGainDB   = -12.0
	maxHighShelfGainDB   = 12.0
	defaultHighShelfQ    = 0.7
)

// Equalizer is the voice EQ chain: a high-pass filter, a low-shelf, a
// presence peak, a high-shelf, and an optional de-esser side-chain, run in
// that order on every sample.
type Equalizer struct {
	sampleRate float64

	highpassHz float64
	highpassQ  float64
	highpass   *biquad.Section

	lowShelfHz     float64
	lowShelfQ      float64
	lowShelfGainDB float64
	lowShelf       *biquad.Section

	presenceHz     float64
	presenceQ      float64
	presenceGainDB float64
	presence       *biquad.Section

	highShelfHz     float64
	highShelfQ      float64
	highShelfGainDB float64
	highShelf       *biquad.Section

	deEsserEnabled bool
	deEsser        *DeEsser
}

// New creates an equalizer with a flat response: a fixed 80 Hz DC-blocking
// high-pass and unity-gain shelves/peak, de-esser disabled.
func New(sampleRate float64) (*Equalizer, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("equalizer: %w", err)
	}

	deEsser, err := NewDeEsser(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("equalizer: %w", err)
	}

	e := &Equalizer{
		sampleRate: sampleRate,

		highpassHz: defaultHighpassHz,
		highpassQ:  defaultHighpassQ,

		lowShelfHz:     defaultLowShelfHz,
		lowShelfQ:      defaultLowShelfQ,
		lowShelfGainDB: defaultLowShelfGain,

		presenceHz:     defaultPresenceHz,
		presenceQ:      defaultPresenceQ,
		presenceGainDB: defaultPresenceGain,

		highShelfHz:     defaultHighShelfHz,
		highShelfQ:      defaultHighShelfQ,
		highShelfGainDB: defaultHighShelfGain,

		deEsser: deEsser,
	}

	e.rebuildAll()

	return e, nil
}

// SetHighpass sets the DC-blocking high-pass cutoff in Hz, clamped to
// [20, 300].
func (e *Equalizer) SetHighpass(hz float64) {
	e.highpassHz = dspmath.Clamp(hz, minHighpassHz, maxHighpassHz)
	e.highpass = biquad.NewSection(biquad.Highpass(e.sampleRate, e.highpassHz, e.highpassQ))
}

// SetLowShelf sets the low-shelf corner frequency in Hz and gain in dB,
// clamped to [60, 500] Hz and [-12, 12] dB.
func (e *Equalizer) SetLowShelf(hz, gainDB float64) {
	e.lowShelfHz = dspmath.Clamp(hz, minLowShelfHz, maxLowShelfHz)
	e.lowShelfGainDB = dspmath.Clamp(gainDB, minLowShelfGainDB, maxLowShelfGainDB)
	e.lowShelf = biquad.NewSection(biquad.LowShelf(e.sampleRate, e.lowShelfHz, e.lowShelfQ, e.lowShelfGainDB))
}

// SetPresence sets the presence peak's center frequency, Q, and gain in dB,
// clamped to [1000, 8000] Hz, [0.3, 5], and [-12, 12] dB.
func (e *Equalizer) SetPresence(hz, q, gainDB float64) {
	e.presenceHz = dspmath.Clamp(hz, minPresenceHz, maxPresenceHz)
	e.presenceQ = dspmath.Clamp(q, minPresenceQ, maxPresenceQ)
	e.presenceGainDB = dspmath.Clamp(gainDB, minPresenceGainDB, maxPresenceGainDB)
	e.presence = biquad.NewSection(biquad.Peak(e.sampleRate, e.presenceHz, e.presenceQ, e.presenceGainDB))
}

// SetHighShelf sets the high-shelf corner frequency in Hz and gain in dB,
// clamped to [2000, 16000] Hz and [-12, 12] dB.
func (e *Equalizer) SetHighShelf(hz, gainDB float64) {
	e.highShelfHz = dspmath.Clamp(hz, minHighShelfHz, maxHighShelfHz)
	e.highShelfGainDB = dspmath.Clamp(gainDB, minHighShelfGainDB, maxHighShelfGainDB)
	e.highShelf = biquad.NewSection(biquad.HighShelf(e.sampleRate, e.highShelfHz, e.highShelfQ, e.highShelfGainDB))
}

// SetDeEsserEnabled toggles the de-esser side-chain stage.
func (e *Equalizer) SetDeEsserEnabled(enabled bool) {
	e.deEsserEnabled = enabled
}

// DeEsser returns the de-esser for direct parameter access.
func (e *Equalizer) DeEsser() *DeEsser { return e.deEsser }

// SetSampleRate updates the sample rate and redesigns every section.
func (e *Equalizer) SetSampleRate(sr float64) error {
	if err := validateSampleRate(sr); err != nil {
		return fmt.Errorf("equalizer: %w", err)
	}

	e.sampleRate = sr
	e.rebuildAll()

	if err := e.deEsser.SetSampleRate(sr); err != nil {
		return fmt.Errorf("equalizer: %w", err)
	}

	return nil
}

// ProcessSample runs one sample through the full EQ chain.
func (e *Equalizer) ProcessSample(x float64) float64 {
	y := e.highpass.ProcessSample(x)
	y = e.lowShelf.ProcessSample(y)
	y = e.presence.ProcessSample(y)
	y = e.highShelf.ProcessSample(y)

	if e.deEsserEnabled {
		y = e.deEsser.ProcessSample(y)
	}

	return y
}

// ProcessBlock runs a block through the EQ chain in place.
func (e *Equalizer) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = e.ProcessSample(x)
	}
}

// Reset clears every section's delay-line and the de-esser's state.
func (e *Equalizer) Reset() {
	e.highpass.Reset()
	e.lowShelf.Reset()
	e.presence.Reset()
	e.highShelf.Reset()
	e.deEsser.Reset()
}

func (e *Equalizer) rebuildAll() {
	e.highpass = biquad.NewSection(biquad.Highpass(e.sampleRate, e.highpassHz, e.highpassQ))
	e.lowShelf = biquad.NewSection(biquad.LowShelf(e.sampleRate, e.lowShelfHz, e.lowShelfQ, e.lowShelfGainDB))
	e.presence = biquad.NewSection(biquad.Peak(e.sampleRate, e.presenceHz, e.presenceQ, e.presenceGainDB))
	e.highShelf = biquad.NewSection(biquad.HighShelf(e.sampleRate, e.highShelfHz, e.highShelfQ, e.highShelfGainDB))
}
