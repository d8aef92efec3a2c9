// Package ring implements a lock-free single-producer/single-consumer float32
// ring buffer used to hand audio between the capture, processing, and render
// threads without allocation, locking, or syscalls on the hot path.
//
// The write and read cursors are monotonically increasing uint64 counters
// rather than modulo-wrapped indices; the buffer position is derived by
// masking against capacity, which must be a power of two. Cursors are
// published with atomic acquire/release semantics so the producer and
// consumer never observe a torn view of each other's progress.
package ring

import "sync/atomic"

// OverflowPolicy selects what a ring does when a writer would exceed
// capacity.
type OverflowPolicy int

const (
	// DropAtHead refuses writes that would overtake unread data; Write
	// returns fewer samples than requested and the caller is expected to
	// count the shortfall as an overrun.
	DropAtHead OverflowPolicy = iota
	// OverwriteOldest silently advances the read cursor to admit the new
	// data, discarding the oldest unread samples.
	OverwriteOldest
)

// Ring is a fixed-capacity circular buffer of float32 samples shared between
// exactly one producer goroutine and one consumer goroutine.
type Ring struct {
	buf      []float32
	mask     uint64
	policy   OverflowPolicy
	overrun  atomic.Uint64
	underrun atomic.Uint64

	// writeCursor is advanced only by the producer; readCursor only by the
	// consumer. Each side reads the other's cursor with Load, which pairs
	// with the writer/reader's own Store to form the acquire/release edge.
	writeCursor atomic.Uint64
	readCursor  atomic.Uint64
}

// New creates a ring of the given capacity, rounded up to the next power of
// two, using policy to resolve writes that would overflow.
func New(capacity int, policy OverflowPolicy) *Ring {
	if capacity < 1 {
		capacity = 1
	}

	cap64 := nextPowerOfTwo(uint64(capacity))

	return &Ring{
		buf:    make([]float32, cap64),
		mask:   cap64 - 1,
		policy: policy,
	}
}

// NewCaptureRing constructs a ring sized for the capture side, which must
// never silently drop unread data: it uses DropAtHead so overruns are
// observable and countable instead of corrupting the stream.
func NewCaptureRing(capacity int) *Ring {
	return New(capacity, DropAtHead)
}

// NewRenderRing constructs a ring sized for the render side, which must
// never stall the caller: it uses OverwriteOldest so a slow consumer cannot
// deadlock the render callback.
func NewRenderRing(capacity int) *Ring {
	return New(capacity, OverwriteOldest)
}

// Capacity returns the usable capacity in samples.
func (r *Ring) Capacity() int {
	return len(r.buf)
}

// AvailableRead returns a consistent snapshot of how many samples are ready
// to be read. Safe to call from the consumer or from a status query.
func (r *Ring) AvailableRead() int {
	w := r.writeCursor.Load()
	rd := r.readCursor.Load()

	return int(w - rd)
}

// AvailableWrite returns a consistent snapshot of free capacity.
func (r *Ring) AvailableWrite() int {
	return len(r.buf) - r.AvailableRead()
}

// Overruns returns the number of samples lost to a full ring: samples
// refused under DropAtHead, or unread samples discarded under
// OverwriteOldest.
func (r *Ring) Overruns() uint64 {
	return r.overrun.Load()
}

// Underruns returns the number of samples the consumer requested but the
// ring could not supply, substituted with silence by the caller.
func (r *Ring) Underruns() uint64 {
	return r.underrun.Load()
}

// Reset zeros the buffer and both cursors. Must only be called while neither
// the producer nor the consumer is concurrently active (pipeline stop/start).
func (r *Ring) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}

	r.writeCursor.Store(0)
	r.readCursor.Store(0)
	r.overrun.Store(0)
	r.underrun.Store(0)
}

// Write copies up to len(src) samples into the ring, returning the count
// actually written. Called only by the producer.
func (r *Ring) Write(src []float32) int {
	if len(src) == 0 {
		return 0
	}

	free := r.AvailableWrite()

	n := len(src)
	if n > free {
		switch r.policy {
		case OverwriteOldest:
			overtake := uint64(n - free)
			r.readCursor.Add(overtake)
			r.overrun.Add(overtake)
		default:
			dropped := uint64(n - free)
			r.overrun.Add(dropped)
			n = free
		}
	}

	w := r.writeCursor.Load()
	for i := 0; i < n; i++ {
		r.buf[(w+uint64(i))&r.mask] = src[i]
	}

	r.writeCursor.Store(w + uint64(n))

	return n
}

// Read copies up to len(dst) samples out of the ring, returning the count
// actually read. Called only by the consumer.
func (r *Ring) Read(dst []float32) int {
	if len(dst) == 0 {
		return 0
	}

	avail := r.AvailableRead()

	n := len(dst)
	if n > avail {
		r.underrun.Add(uint64(n - avail))
		n = avail
	}

	rd := r.readCursor.Load()
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(rd+uint64(i))&r.mask]
	}

	r.readCursor.Store(rd + uint64(n))

	return n
}

// Peek copies up to len(dst) samples without advancing the read cursor,
// for callers and tests that need to inspect pending data.
func (r *Ring) Peek(dst []float32) int {
	avail := r.AvailableRead()

	n := len(dst)
	if n > avail {
		n = avail
	}

	rd := r.readCursor.Load()
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(rd+uint64(i))&r.mask]
	}

	return n
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}

	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++

	return v
}
