// Package cpufeat detects SIMD instruction set extensions available on the
// current processor so the biquad kernel registry can pick the fastest
// compatible block-processing routine.
//
// Detection runs lazily on the first call to Detect and is cached for the
// life of the process.
package cpufeat

import "sync"

// SIMDLevel names a SIMD instruction set extension level. Levels are not
// comparable across architectures (AVX2 vs NEON); they are only ordered by
// registration priority within one architecture's kernel set.
type SIMDLevel int

const (
	// SIMDNone selects the pure Go scalar fallback.
	SIMDNone SIMDLevel = iota
	// SIMDSSE2 is the amd64 baseline.
	SIMDSSE2
	// SIMDAVX is x86-64 Advanced Vector Extensions.
	SIMDAVX
	// SIMDAVX2 is x86-64 256-bit integer/float operations.
	SIMDAVX2
	// SIMDNEON is ARM Advanced SIMD.
	SIMDNEON
)

// String returns a human-readable SIMD level name.
func (s SIMDLevel) String() string {
	switch s {
	case SIMDNone:
		return "none"
	case SIMDSSE2:
		return "sse2"
	case SIMDAVX:
		return "avx"
	case SIMDAVX2:
		return "avx2"
	case SIMDNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// Features describes CPU capabilities relevant to kernel selection.
type Features struct {
	HasSSE2 bool
	HasAVX  bool
	HasAVX2 bool
	HasNEON bool

	// ForceGeneric disables all SIMD-flavored kernels, used by tests to
	// exercise the scalar path deterministically regardless of host CPU.
	ForceGeneric bool

	Architecture string
}

var (
	detected   Features
	detectOnce sync.Once
	detectMu   sync.Mutex

	forced   *Features
	forcedMu sync.RWMutex
)

// Detect returns the CPU features available on the current system, computing
// and caching them on first call.
func Detect() Features {
	forcedMu.RLock()
	f := forced
	forcedMu.RUnlock()

	if f != nil {
		return *f
	}

	detectMu.Lock()
	detectOnce.Do(func() {
		detected = detectImpl()
	})
	out := detected
	detectMu.Unlock()

	return out
}

// SetForced overrides detection with fixed features, for tests that need to
// exercise a specific kernel regardless of the host CPU.
func SetForced(f Features) {
	forcedMu.Lock()
	ff := f
	forced = &ff
	forcedMu.Unlock()
}

// ResetForced clears any override installed by SetForced and the detection
// cache, forcing re-detection on the next call to Detect.
func ResetForced() {
	forcedMu.Lock()
	forced = nil
	forcedMu.Unlock()

	detectMu.Lock()
	detectOnce = sync.Once{}
	detected = Features{}
	detectMu.Unlock()
}

// Supports reports whether features satisfies the given SIMD level.
func Supports(features Features, level SIMDLevel) bool {
	if features.ForceGeneric {
		return level == SIMDNone
	}

	switch level {
	case SIMDNone:
		return true
	case SIMDSSE2:
		return features.HasSSE2
	case SIMDAVX:
		return features.HasAVX
	case SIMDAVX2:
		return features.HasAVX2
	case SIMDNEON:
		return features.HasNEON
	default:
		return false
	}
}
