package pipeline

import (
	"fmt"

	"github.com/clearvoice/voxengine/dsp/buffer"
	"github.com/clearvoice/voxengine/internal/aisuppressor"
	"github.com/clearvoice/voxengine/internal/dynamics"
	"github.com/clearvoice/voxengine/internal/eq"
	"github.com/clearvoice/voxengine/internal/meter"
)

// processors holds every DSP stage the orchestrator owns and drives in
// process_block order. It is created once at pipeline construction and
// lives for the process's lifetime; only its internal state is reset, and
// only when the pipeline starts. Bypass transitions and device changes do
// not reset processor state.
type processors struct {
	suppressor *aisuppressor.Suppressor
	expander   *dynamics.Expander
	equalizer  *eq.Equalizer
	compressor *dynamics.Compressor
	limiter    *dynamics.Limiter

	inputMeter  *meter.Meter
	outputMeter *meter.Meter

	// scratch is the sole per-block float64 working buffer; it is sized
	// once at construction and reused for every ProcessBlock call so the
	// processing thread never allocates on the hot path after warmup.
	scratch *buffer.Buffer

	// suppressorScratch is the reused dst argument to Suppressor.Process;
	// it is allocated with capacity BlockSize at construction and reused
	// for every block.
	suppressorScratch []float32
}

func newProcessors(sampleRate float64) (*processors, error) {
	suppressor := aisuppressor.New(aisuppressor.NewCPUBackend())

	expander, err := dynamics.NewExpander(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: expander: %w", err)
	}

	equalizer, err := eq.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: equalizer: %w", err)
	}

	compressor, err := dynamics.NewCompressor(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compressor: %w", err)
	}

	limiter, err := dynamics.NewLimiter(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: limiter: %w", err)
	}

	inputMeter, err := meter.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: input meter: %w", err)
	}

	outputMeter, err := meter.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: output meter: %w", err)
	}

	return &processors{
		suppressor:        suppressor,
		expander:          expander,
		equalizer:         equalizer,
		compressor:        compressor,
		limiter:           limiter,
		inputMeter:        inputMeter,
		outputMeter:       outputMeter,
		scratch:           buffer.New(BlockSize),
		suppressorScratch: make([]float32, 0, BlockSize),
	}, nil
}

// apply pushes a DspParams snapshot into every processor's setters. Safe to
// call while the processing thread is between blocks: setters only
// recompute coefficients, never allocate or block.
func (p *processors) apply(params DspParams) {
	e := params.Expander
	p.expander.SetThreshold(e.ThresholdDB)
	p.expander.SetRatio(e.Ratio)
	p.expander.SetAttack(e.AttackMs)
	p.expander.SetRelease(e.ReleaseMs)
	p.expander.SetHysteresis(e.HysteresisDB)

	c := params.Compressor
	p.compressor.SetThreshold(c.ThresholdDB)
	p.compressor.SetRatio(c.Ratio)
	p.compressor.SetKnee(c.KneeDB)
	p.compressor.SetAttack(c.AttackMs)
	p.compressor.SetRelease(c.ReleaseMs)
	p.compressor.SetMakeupGain(c.MakeupDB)

	l := params.Limiter
	p.limiter.SetCeiling(l.CeilingDB)
	p.limiter.SetRelease(l.ReleaseMs)
	p.limiter.SetLookahead(l.LookaheadMs)

	eqp := params.Eq
	p.equalizer.SetHighpass(eqp.Highpass.FreqHz)
	p.equalizer.SetLowShelf(eqp.LowShelf.FreqHz, eqp.LowShelf.GainDB)
	p.equalizer.SetPresence(eqp.Presence.FreqHz, eqp.Presence.Q, eqp.Presence.GainDB)
	p.equalizer.SetHighShelf(eqp.HighShelf.FreqHz, eqp.HighShelf.GainDB)
	p.equalizer.SetDeEsserEnabled(eqp.DeEsser.Enabled)
	p.equalizer.DeEsser().SetFrequency(eqp.DeEsser.FreqHz)
	p.equalizer.DeEsser().SetThreshold(eqp.DeEsser.ThresholdDB)

	p.suppressor.SetTargetAttenuationDB(params.AiSettings.AttenuationDB)
}

// reset clears every processor's internal state: envelopes, filter memory,
// look-ahead buffers, suppressor accumulators, and meter accumulators.
func (p *processors) reset() {
	p.suppressor.Reset()
	p.expander.Reset()
	p.equalizer.Reset()
	p.compressor.Reset()
	p.limiter.Reset()
	p.inputMeter.Reset()
	p.outputMeter.Reset()
	p.scratch.Zero()
	p.suppressorScratch = p.suppressorScratch[:0]
}

// Snapshot is the wire-level meter reading pushed to a MeterSink once per
// processed block.
type Snapshot struct {
	PeakDBFS        float64
	RMSDBFS         float64
	GainReductionDB float64
}

// processBlock runs buf (exactly BlockSize samples) through every enabled
// DSP stage in the contractual order and returns the resulting meter
// snapshot. If params.Bypass is set, only the input and output meters run
// and buf is
// left unmodified — process_block becomes the identity function.
func (p *processors) processBlock(buf []float32, params DspParams) Snapshot {
	work := p.scratch.Samples()[:len(buf)]

	inSnap := p.inputMeter.ProcessBlock(f32to64(work, buf))

	if params.Bypass {
		outSnap := p.outputMeter.ProcessBlock(f32to64(work, buf))

		return Snapshot{PeakDBFS: outSnap.PeakDBFS, RMSDBFS: outSnap.RMSDBFS}
	}

	_ = inSnap

	p.suppressorScratch = p.suppressorScratch[:0]

	denoised, err := p.suppressor.Process(p.suppressorScratch, buf)
	if err == nil && len(denoised) == len(buf) {
		copy(buf, denoised)
	}

	p.suppressorScratch = denoised

	f32to64(work, buf)

	if params.Expander.Enabled {
		p.expander.ProcessBlock(work)
	}

	if params.Eq.Enabled {
		p.equalizer.ProcessBlock(work)
	}

	gainReduction := 0.0

	if params.Compressor.Enabled {
		p.compressor.ProcessBlock(work)
		gainReduction = p.compressor.Metrics().GainReductionDB
	}

	if params.Limiter.Enabled {
		p.limiter.ProcessBlock(work)
		if r := p.limiter.Metrics().GainReductionDB; r > gainReduction {
			gainReduction = r
		}
	}

	f64to32(buf, work)

	outSnap := p.outputMeter.ProcessBlock(work)

	return Snapshot{
		PeakDBFS:        outSnap.PeakDBFS,
		RMSDBFS:         outSnap.RMSDBFS,
		GainReductionDB: gainReduction,
	}
}

func f32to64(dst []float64, src []float32) []float64 {
	for i, v := range src {
		dst[i] = float64(v)
	}

	return dst
}

func f64to32(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}
