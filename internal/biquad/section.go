// Package biquad implements Direct Form II Transposed second-order IIR
// sections, the building block for every filter in the voice equalizer
// (HPF, shelves, presence peak, de-esser sidechain band-pass).
package biquad

import (
	"sync"

	"github.com/clearvoice/voxengine/internal/biquad/internal/kernel/registry"
	"github.com/clearvoice/voxengine/internal/cpufeat"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section. a0 is normalized to 1 and not stored.
//
// Sign convention, Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section is a single biquad filter with coefficients and delay-line state.
type Section struct {
	Coefficients

	d0, d1 float64
}

var (
	processBlockImpl     registry.ProcessBlockFn
	processBlockInitOnce sync.Once
)

// NewSection returns a Section initialized with c and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in-place using the fastest kernel
// the current CPU supports. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	processBlockInitOnce.Do(initProcessBlockKernel)

	coeffs := registry.Coefficients{
		B0: s.B0, B1: s.B1, B2: s.B2,
		A1: s.A1, A2: s.A2,
	}

	s.d0, s.d1 = processBlockImpl(coeffs, s.d0, s.d1, buf)
}

func initProcessBlockKernel() {
	entry := registry.Global.Lookup(cpufeat.Detect())
	if entry == nil {
		panic("biquad: no ProcessBlock kernel registered (missing generic fallback?)")
	}

	processBlockImpl = entry.ProcessBlock
}

// ProcessBlockTo filters src into dst without mutating src. Both slices must
// have equal length.
func (s *Section) ProcessBlockTo(dst, src []float64) {
	_ = dst[len(src)-1]

	for i, x := range src {
		y := s.B0*x + s.d0
		s.d0 = s.B1*x - s.A1*y + s.d1
		s.d1 = s.B2*x - s.A2*y
		dst[i] = y
	}
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// State returns the current delay-line state [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a previously saved delay-line state.
func (s *Section) SetState(state [2]float64) {
	s.d0 = state[0]
	s.d1 = state[1]
}
