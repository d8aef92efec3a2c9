//go:build arm64

// Package arm64neon registers a 2x-unrolled biquad kernel selected on
// NEON-capable arm64 CPUs.
package arm64neon

import (
	"github.com/clearvoice/voxengine/internal/biquad/internal/kernel/registry"
	"github.com/clearvoice/voxengine/internal/cpufeat"
)

func init() {
	registry.Global.Register(registry.Entry{
		Name:         "arm64neon",
		SIMDLevel:    cpufeat.SIMDNEON,
		Priority:     15,
		ProcessBlock: processBlock,
	})
}

// TODO: replace with a hand-written NEON kernel; this is a pure Go unrolled
// scalar loop selected only when NEON is present.
func processBlock(c registry.Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	i := 0

	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		d0n := b1*x0 - a1*y0 + d1
		d1n := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + d0n
		d0 = b1*x1 - a1*y1 + d1n
		d1 = b2*x1 - a2*y1

		buf[i] = y0
		buf[i+1] = y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	return d0, d1
}
