// Package registry holds the priority-ordered set of biquad block-processing
// kernels available on the current architecture, keyed by the SIMD level
// each one requires.
package registry

import (
	"sync"

	"github.com/clearvoice/voxengine/internal/cpufeat"
)

// Coefficients are biquad transfer coefficients (a0 normalized to 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// ProcessBlockFn processes buf in-place through one biquad section.
type ProcessBlockFn func(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64)

// Entry is one registered kernel implementation.
type Entry struct {
	Name         string
	SIMDLevel    cpufeat.SIMDLevel
	Priority     int
	ProcessBlock ProcessBlockFn
}

// Registry stores available kernel implementations, sorted by descending
// priority on first lookup.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	sorted  bool
}

// Global is the process-wide biquad kernel registry populated by each
// architecture's init function.
var Global = &Registry{}

// Register adds an implementation entry.
func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features,
// or nil if none is registered (never true once the generic fallback has
// registered itself via its package import).
func (r *Registry) Lookup(features cpufeat.Features) *Entry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpufeat.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *Registry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of registered entries, for diagnostics and tests.
func (r *Registry) ListEntries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

// Reset clears all entries. Intended for tests only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}
