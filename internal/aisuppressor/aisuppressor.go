// Package aisuppressor wraps a fixed-frame denoiser behind a framing
// adapter so callers can feed and receive arbitrary-length buffers while
// the underlying model only ever sees exactly 480 samples at 48 kHz, the
// contract shared by real frame-based denoisers such as RNNoise.
package aisuppressor

import (
	"errors"
	"fmt"
	"math"
)

// FrameSize is the fixed frame length required by every Backend, matching
// the 10 ms block size used throughout the processing chain.
const FrameSize = 480

// nativeSampleRate is the sample rate every Backend operates at internally.
const nativeSampleRate = 48000

// Backend performs denoising on exactly FrameSize samples per call.
type Backend interface {
	// Process denoises one FrameSize-length frame and returns the denoised
	// frame plus a voice-activity probability in [0, 1].
	Process(frame []float32) (out []float32, vad float32, err error)
	// Reset clears any internal filter/model state.
	Reset()
	// Close releases backend resources (device handles, model memory).
	Close() error
}

var (
	// ErrWrongFrameSize is returned by a Backend given a frame that is not
	// exactly FrameSize samples long.
	ErrWrongFrameSize = errors.New("aisuppressor: frame must be exactly 480 samples")

	// ErrAcceleratorUnavailable is returned by NewAcceleratorBackend when
	// the requested device cannot be opened.
	ErrAcceleratorUnavailable = errors.New("aisuppressor: accelerator device unavailable")
)

// Suppressor accumulates arbitrary-length input into fixed frames, runs
// each completed frame through a Backend, and re-emits arbitrary-length
// output. It introduces exactly one frame (10 ms at 48 kHz) of latency:
// the first FrameSize samples of output are only available once the first
// frame's worth of input has been accumulated and processed.
type Suppressor struct {
	backend Backend

	targetAttenuationDB float64

	// inputAcc collects incoming samples until a full frame is ready.
	inputAcc []float32

	// outputAcc holds denoised samples not yet returned to the caller.
	// It is always kept at least FrameSize long once the first frame has
	// been processed, satisfying arbitrary-length Process calls.
	outputAcc []float32

	lastVAD float32
}

// New creates a Suppressor around backend. The Suppressor takes ownership
// of backend and closes it when Close is called.
func New(backend Backend) *Suppressor {
	return &Suppressor{
		backend:  backend,
		inputAcc: make([]float32, 0, FrameSize),
	}
}

// TargetAttenuationDB returns the configured blend target between
// passthrough (0 dB) and fully-denoised output (-60 dB).
func (s *Suppressor) TargetAttenuationDB() float64 {
	return s.targetAttenuationDB
}

// SetTargetAttenuationDB stores the blend target in dB. 0 dB passes the
// dry signal through unchanged; -60 dB uses the backend's output
// unattenuated. Values are clamped to [-60, 0] at blend time.
func (s *Suppressor) SetTargetAttenuationDB(db float64) {
	s.targetAttenuationDB = db
}

// attenuationGain converts a target attenuation in dB into the linear dry
// blend weight: 0 dB yields 1.0 (untouched passthrough) and -60 dB yields
// 0.0 (the backend's output applied in full).
func attenuationGain(db float64) float64 {
	if db > 0 {
		db = 0
	}

	if db <= -60 {
		return 0
	}

	return math.Pow(10, db/20)
}

// LastVAD returns the voice-activity probability from the most recently
// completed frame, in [0, 1].
func (s *Suppressor) LastVAD() float32 {
	return s.lastVAD
}

// Process denoises buf, blends it against the dry input by
// targetAttenuationDB, and appends the result to dst, returning the
// extended slice. Output is delayed by one frame relative to the
// corresponding input. Callers reuse dst across calls the same way
// resample.Resampler.Process's dst argument is reused, so the processing
// thread never allocates once dst's backing array has grown to cover a
// block.
func (s *Suppressor) Process(dst []float32, buf []float32) ([]float32, error) {
	s.inputAcc = append(s.inputAcc, buf...)

	for len(s.inputAcc) >= FrameSize {
		frame := s.inputAcc[:FrameSize]

		out, vad, err := s.backend.Process(frame)
		if err != nil {
			return dst, fmt.Errorf("aisuppressor: backend process: %w", err)
		}

		s.lastVAD = vad

		dry := attenuationGain(s.targetAttenuationDB)
		for i := range out {
			out[i] = out[i]*float32(1-dry) + frame[i]*float32(dry)
		}

		s.outputAcc = append(s.outputAcc, out...)

		remaining := len(s.inputAcc) - FrameSize
		copy(s.inputAcc, s.inputAcc[FrameSize:])
		s.inputAcc = s.inputAcc[:remaining]
	}

	n := len(buf)
	if n > len(s.outputAcc) {
		n = len(s.outputAcc)
	}

	dst = append(dst, s.outputAcc[:n]...)

	remaining := len(s.outputAcc) - n
	copy(s.outputAcc, s.outputAcc[n:])
	s.outputAcc = s.outputAcc[:remaining]

	return dst, nil
}

// Reset recreates the backend's internal state and clears both
// accumulators, discarding any buffered but not-yet-emitted output.
func (s *Suppressor) Reset() {
	s.backend.Reset()
	s.inputAcc = s.inputAcc[:0]
	s.outputAcc = s.outputAcc[:0]
	s.lastVAD = 0
}

// Close releases the underlying backend's resources.
func (s *Suppressor) Close() error {
	return s.backend.Close()
}

// SwitchBackend replaces the active backend, closing the previous one. Used
// to fall back from an unavailable accelerator backend to the CPU backend
// without restarting the pipeline.
func (s *Suppressor) SwitchBackend(backend Backend) error {
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("aisuppressor: closing previous backend: %w", err)
	}

	s.backend = backend
	s.inputAcc = s.inputAcc[:0]
	s.outputAcc = s.outputAcc[:0]
	s.lastVAD = 0

	return nil
}
