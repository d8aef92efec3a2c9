// Package resample performs mono sample-rate conversion between an arbitrary
// device rate and the pipeline's internal 48 kHz rate using a polyphase FIR
// designed from a Kaiser-windowed sinc prototype.
//
// The fractional phase and filter history are carried across calls to
// Process so streaming a signal in arbitrary-sized chunks produces the same
// output as processing it in one call, with no boundary artifacts.
package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRatio indicates a non-positive up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates a non-positive or non-finite sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality selects the anti-aliasing filter's tap count and stopband target.
type Quality int

const (
	// QualityFast favors low CPU cost over stopband attenuation.
	QualityFast Quality = iota
	// QualityBalanced is the default trade-off, adequate for speech.
	QualityBalanced
	// QualityBest favors stopband attenuation and passband flatness.
	QualityBest
)

// profile holds the derived filter design parameters for a quality mode.
type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func qualityProfile(q Quality) profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

// Resampler converts a mono float32 stream between two sample rates. The
// zero value is not usable; construct with New.
type Resampler struct {
	identity bool
	srcHz    float64
	dstHz    float64

	up   int
	down int

	taps       []float64
	phases     [][]float64
	maxPhaseLn int

	phase      int
	inputIndex int
	totalIn    int
	history    []float64

	// work is Process's scratch concatenation of history and input,
	// allocated on the first Process call and grown (never shrunk) as needed
	// so the steady-state processing thread never allocates after warmup.
	work []float64
}

// New creates a resampler converting from srcHz to dstHz. If the rates are
// equal, Process becomes an identity passthrough with no filtering delay.
func New(srcHz, dstHz float64, quality Quality) (*Resampler, error) {
	if srcHz <= 0 || dstHz <= 0 || math.IsNaN(srcHz) || math.IsNaN(dstHz) {
		return nil, ErrInvalidRate
	}

	r := &Resampler{srcHz: srcHz, dstHz: dstHz}

	if srcHz == dstHz {
		r.identity = true
		return r, nil
	}

	up, down := approximateRatio(dstHz/srcHz, 4096)

	prof := qualityProfile(quality)

	taps, phases, maxPhaseLn, err := designPolyphaseFIR(up, down, prof)
	if err != nil {
		return nil, err
	}

	r.up = up
	r.down = down
	r.taps = taps
	r.phases = phases
	r.maxPhaseLn = maxPhaseLn
	r.history = make([]float64, 0, maxInt(0, maxPhaseLn-1))

	return r, nil
}

// Reset clears the carried fractional phase and filter history. Does not
// change the configured rates.
func (r *Resampler) Reset() {
	if r.identity {
		return
	}

	r.phase = 0
	r.inputIndex = 0
	r.totalIn = 0
	r.history = r.history[:0]
}

// Ratio returns the reduced up/down conversion factors. For an identity
// resampler this is 1/1.
func (r *Resampler) Ratio() (up, down int) {
	if r.identity {
		return 1, 1
	}

	return r.up, r.down
}

// PredictOutputLen estimates how many samples the next Process call will
// produce for an input of the given length, without mutating state.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	if r.identity {
		return inputLen
	}

	lastAvail := r.totalIn + inputLen - 1
	i := r.inputIndex
	phase := r.phase

	count := 0
	for i <= lastAvail {
		count++
		phase += r.down
		i += phase / r.up
		phase %= r.up
	}

	return count
}

// Process converts a block of input samples, appending output into dst
// (which may be nil) and returning the extended slice. Internal state
// carries across calls so blocks can be streamed at any size.
func (r *Resampler) Process(dst []float32, input []float32) []float32 {
	if len(input) == 0 {
		return dst
	}

	if r.identity {
		return append(dst, input...)
	}

	needed := len(r.history) + len(input)
	if cap(r.work) < needed {
		r.work = make([]float64, needed)
	} else {
		r.work = r.work[:needed]
	}

	work := r.work
	copy(work, r.history)

	for i, v := range input {
		work[len(r.history)+i] = float64(v)
	}

	baseIndex := r.totalIn - len(r.history)
	lastAvail := r.totalIn + len(input) - 1

	for r.inputIndex <= lastAvail {
		taps := r.phases[r.phase]

		var y float64

		for k, c := range taps {
			idx := r.inputIndex - k
			if idx < baseIndex || idx > lastAvail {
				continue
			}

			y += c * work[idx-baseIndex]
		}

		dst = append(dst, float32(y))

		r.phase += r.down
		r.inputIndex += r.phase / r.up
		r.phase %= r.up
	}

	r.totalIn += len(input)

	keep := maxInt(0, r.maxPhaseLn-1)
	if keep > len(work) {
		keep = len(work)
	}

	r.history = append(r.history[:0], work[len(work)-keep:]...)

	return dst
}

func designPolyphaseFIR(up, down int, prof profile) ([]float64, [][]float64, int, error) {
	if up <= 0 || down <= 0 {
		return nil, nil, 0, ErrInvalidRatio
	}

	nTaps := prof.tapsPerPhase * up

	fc := (0.5 / float64(maxInt(up, down))) * prof.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, nil, 0, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	taps := make([]float64, nTaps)

	center := 0.5 * float64(nTaps-1)
	for n := 0; n < nTaps; n++ {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiserWindow(n, nTaps, prof.kaiserBeta)
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}

	if sum == 0 {
		return nil, nil, 0, errors.New("resample: designed zero-sum filter")
	}

	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases := make([][]float64, up)
	maxPhaseLn := 0

	for p := 0; p < up; p++ {
		phase := make([]float64, 0, (nTaps-p+up-1)/up)
		for i := p; i < nTaps; i += up {
			phase = append(phase, taps[i])
		}

		if len(phase) > maxPhaseLn {
			maxPhaseLn = len(phase)
		}

		phases[p] = phase
	}

	return taps, phases, maxPhaseLn, nil
}

func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	a0 := math.Floor(v)
	p0, q0 := 1.0, 0.0
	p1, q1 := a0, 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)
		p2 := a*p1 + p0
		q2 := a*q1 + q0

		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))

	den = int(math.Round(q1))
	if den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))

	return besselI0(beta*a) / besselI0(beta)
}

func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
