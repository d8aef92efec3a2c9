package aisuppressor

import "math"

const (
	// pcmScale mirrors the int16-PCM amplitude convention real frame-based
	// denoisers expect (RNNoise and similar models operate on that scale
	// even when the host format is float): samples are scaled up before
	// hitting the model and scaled back down on the way out.
	pcmScale = 32768.0

	// noiseFloorAttack/Decay control how quickly the running noise-floor
	// estimate reacts: it rises slowly (assume sustained energy is likely
	// speech, not a jump in noise) and falls quickly (recover fast when
	// speech stops so the residual noise floor is re-learned).
	noiseFloorAttack = 0.01
	noiseFloorDecay  = 0.5

	// vadFloorDB/vadCeilDB bound the SNR range mapped to a VAD probability.
	vadFloorDB = 0.0
	vadCeilDB  = 30.0

	minGain = 0.05
)

// cpuBackend is a deterministic, allocation-free spectral-subtraction-
// flavored denoiser implemented entirely in the time domain: it tracks a
// slow-moving noise-floor estimate from frame energy and applies a
// per-frame Wiener-style gain, without requiring an FFT.
type cpuBackend struct {
	noiseFloor float64 // running estimate of noise energy (mean square)
	scratch    [FrameSize]float32
}

// NewCPUBackend creates the always-available CPU denoiser backend.
func NewCPUBackend() Backend {
	return &cpuBackend{}
}

func (b *cpuBackend) Process(frame []float32) ([]float32, float32, error) {
	if len(frame) != FrameSize {
		return nil, 0, ErrWrongFrameSize
	}

	energy := 0.0
	for _, x := range frame {
		v := float64(x) * pcmScale
		energy += v * v
	}
	energy /= FrameSize

	if energy < b.noiseFloor {
		b.noiseFloor += (energy - b.noiseFloor) * noiseFloorDecay
	} else {
		b.noiseFloor += (energy - b.noiseFloor) * noiseFloorAttack
	}

	snrLinear := 1.0
	if b.noiseFloor > 0 {
		snrLinear = energy / b.noiseFloor
	}

	// Wiener-style gain: attenuate proportional to how much of the frame's
	// energy is explained by the noise floor, floored so voiced frames at
	// low SNR aren't muted entirely.
	gain := 1.0 - 1.0/math.Max(snrLinear, 1.0)
	if gain < minGain {
		gain = minGain
	}

	for i, x := range frame {
		b.scratch[i] = float32(float64(x) * gain)
	}

	snrDB := 10 * math.Log10(math.Max(snrLinear, 1e-6))
	vad := (snrDB - vadFloorDB) / (vadCeilDB - vadFloorDB)
	if vad < 0 {
		vad = 0
	} else if vad > 1 {
		vad = 1
	}

	return b.scratch[:], float32(vad), nil
}

func (b *cpuBackend) Reset() {
	b.noiseFloor = 0
	for i := range b.scratch {
		b.scratch[i] = 0
	}
}

func (b *cpuBackend) Close() error { return nil }
