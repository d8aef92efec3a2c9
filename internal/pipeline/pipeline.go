package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clearvoice/voxengine/internal/device"
	"github.com/clearvoice/voxengine/internal/resample"
	"github.com/clearvoice/voxengine/internal/ring"
	"github.com/clearvoice/voxengine/internal/threadpriority"
)

// BlockSize is the internal processing block, in samples at InternalRate.
// It matches the AI suppressor's native frame size so the suppressor never
// has to buffer partial frames across process_block boundaries.
const BlockSize = 480

// InternalRate is the sample rate every DSP stage runs at. Capture and
// render devices are bridged to it by a resample.Resampler on each side.
const InternalRate = 48000.0

// captureRingCapacity is sized generously above BlockSize so a scheduling
// hiccup on the capture thread doesn't immediately overrun; it is rounded
// up to a power of two by ring.New.
const captureRingCapacity = BlockSize * 32

// renderRingCapacity mirrors the capture side: generous headroom above one
// processing block so a burst of freshly processed audio never overtakes
// the render thread's own pacing.
const renderRingCapacity = BlockSize * 32

// MeterSink receives one Snapshot per processed block. Implementations must
// not block; the processing thread calls it synchronously.
type MeterSink interface {
	PublishMeters(Snapshot)
}

// Pipeline owns the capture and render endpoints, the rings that bridge
// them to the processing thread, the resamplers that bridge device rates to
// InternalRate, and the DSP stages themselves. It is safe for one goroutine
// to call the control methods (Start, Stop, ApplyPreset, SetParams, device
// switches) while the processing goroutine runs concurrently; the two
// communicate only through the atomic params pointer and the rings.
type Pipeline struct {
	mu sync.Mutex

	capture device.CaptureSource
	render  device.RenderSink

	captureID string
	renderID  string

	captureRate  float64
	captureChans int
	renderRate   float64
	renderChans  int

	captureRing *ring.Ring
	renderRing  *ring.Ring

	inResampler  *resample.Resampler
	outResampler *resample.Resampler

	procs *processors

	params atomic.Pointer[DspParams]

	meterSink MeterSink

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger *logrus.Entry

	// downmixScratch and internal accumulation buffers below are allocated
	// once at Start and reused for the pipeline's lifetime; the processing
	// loop performs no allocation on its hot path after warmup.
	downmixScratch  []float32
	resampleScratch []float32
	internalAcc     []float32
	outputScratch   []float32
}

// New constructs a Pipeline bound to the given capture and render
// collaborators. Call Start to activate devices and begin processing.
func New(capture device.CaptureSource, render device.RenderSink, logger *logrus.Entry) (*Pipeline, error) {
	procs, err := newProcessors(InternalRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	p := &Pipeline{
		capture: capture,
		render:  render,
		procs:   procs,
		logger:  logger,
	}

	p.params.Store(paramsPtr(Default()))

	return p, nil
}

func paramsPtr(p DspParams) *DspParams { return &p }

// Params returns the currently active DSP parameter snapshot.
func (p *Pipeline) Params() DspParams {
	return *p.params.Load()
}

// IsRunning reports whether the processing thread is active.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// DeviceStatus reports the currently selected devices and their negotiated
// rates and channel counts, for status queries over the control port.
type DeviceStatus struct {
	CaptureID       string
	CaptureRate     float64
	CaptureChannels int
	RenderID        string
	RenderRate      float64
	RenderChannels  int
}

// Devices returns a snapshot of the currently selected capture and render
// endpoints.
func (p *Pipeline) Devices() DeviceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return DeviceStatus{
		CaptureID:       p.captureID,
		CaptureRate:     p.captureRate,
		CaptureChannels: p.captureChans,
		RenderID:        p.renderID,
		RenderRate:      p.renderRate,
		RenderChannels:  p.renderChans,
	}
}

// CaptureOverruns returns the number of samples dropped at the head of the
// capture ring because the processing thread fell behind the capture
// callback. Zero before Start has ever been called.
func (p *Pipeline) CaptureOverruns() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.captureRing == nil {
		return 0
	}

	return p.captureRing.Overruns()
}

// RenderUnderruns returns the number of samples the render thread
// substituted with silence because the render ring could not supply a
// full chunk. Zero before Start has ever been called.
func (p *Pipeline) RenderUnderruns() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.renderRing == nil {
		return 0
	}

	return p.renderRing.Underruns()
}

// SetParams atomically swaps the active DSP parameter snapshot. The
// processing thread observes the new snapshot at the next block boundary.
func (p *Pipeline) SetParams(params DspParams) {
	p.params.Store(paramsPtr(params))
	p.procs.apply(params)
}

// ApplyPreset looks up name among the required presets and installs it. It
// preserves the caller's current bypass state and AI model selection rather
// than overwriting them from the preset table.
func (p *Pipeline) ApplyPreset(name string) error {
	preset, ok := PresetByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	current := p.Params()
	preset.Bypass = current.Bypass
	preset.AiModel = current.AiModel
	preset.AiSettings = current.AiSettings

	p.SetParams(preset)

	return nil
}

// SetMeterSink installs the collaborator that receives one Snapshot per
// processed block. Pass nil to stop publishing.
func (p *Pipeline) SetMeterSink(sink MeterSink) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.meterSink = sink
}

// SetInputDevice stops capture (if running), reinitializes it against the
// new device id, rebuilds the input resampler for the new device rate, and
// restarts capture if the pipeline was running. It does not touch the
// render side or the queued render ring contents.
func (p *Pipeline) SetInputDevice(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasRunning := p.running

	if wasRunning {
		if err := p.capture.Stop(); err != nil {
			return fmt.Errorf("pipeline: stop capture: %w", err)
		}
	}

	rate, chans, err := p.capture.Init(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	p.captureID = id
	p.captureRate = rate
	p.captureChans = chans

	inResampler, err := resample.New(rate, InternalRate, resample.QualityBalanced)
	if err != nil {
		return fmt.Errorf("pipeline: input resampler: %w", err)
	}

	p.inResampler = inResampler
	p.capture.OnFrames(p.onCaptureFrames)

	if wasRunning {
		if err := p.capture.Start(); err != nil {
			return fmt.Errorf("pipeline: restart capture: %w", err)
		}
	}

	p.logger.WithField("device", id).WithField("rate", rate).WithField("channels", chans).Info("input device switched")

	return nil
}

// SetOutputDevice stops render (if running), reinitializes it against the
// new device id, rebuilds the output resampler for the new device rate, and
// restarts render if the pipeline was running. Queued but not-yet-rendered
// audio in the render ring is preserved across the switch.
func (p *Pipeline) SetOutputDevice(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasRunning := p.running

	if wasRunning {
		if err := p.render.Stop(); err != nil {
			return fmt.Errorf("pipeline: stop render: %w", err)
		}
	}

	rate, chans, err := p.render.Init(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	p.renderID = id
	p.renderRate = rate
	p.renderChans = chans

	outResampler, err := resample.New(InternalRate, rate, resample.QualityBalanced)
	if err != nil {
		return fmt.Errorf("pipeline: output resampler: %w", err)
	}

	p.outResampler = outResampler

	if wasRunning {
		if err := p.render.Start(); err != nil {
			return fmt.Errorf("pipeline: restart render: %w", err)
		}
	}

	p.logger.WithField("device", id).WithField("rate", rate).WithField("channels", chans).Info("output device switched")

	return nil
}

// AutoSelectOutputDevice enumerates render devices and installs the
// highest-priority virtual audio device found, per device.SelectVirtualOutput.
func (p *Pipeline) AutoSelectOutputDevice(ctx context.Context) error {
	devices, err := p.render.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	id, ok := device.SelectVirtualOutput(devices)
	if !ok {
		return ErrNoVirtualDeviceFound
	}

	return p.SetOutputDevice(id)
}

// Start activates both devices (if not already selected, the capture side
// must have been initialized via SetInputDevice/SetOutputDevice first),
// sizes the rings and scratch buffers, and launches the processing thread.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	if p.captureRate == 0 || p.renderRate == 0 {
		return fmt.Errorf("%w: input and output devices must be selected before Start", ErrDeviceInit)
	}

	p.captureRing = ring.NewCaptureRing(captureRingCapacity)
	p.renderRing = ring.NewRenderRing(renderRingCapacity)

	p.downmixScratch = make([]float32, 4096)
	p.resampleScratch = make([]float32, 8192)
	p.internalAcc = make([]float32, 0, BlockSize*4)
	p.outputScratch = make([]float32, 0, 8192)

	p.procs.reset()

	if err := p.capture.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	if err := p.render.Start(); err != nil {
		_ = p.capture.Stop()

		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	p.stopCh = make(chan struct{})
	p.running = true

	p.wg.Add(2)
	go p.processingLoop()
	go p.renderLoop()

	p.logger.Info("pipeline started")

	return nil
}

// Stop halts the processing thread and both devices. It blocks until the
// processing goroutine has exited.
func (p *Pipeline) Stop() error {
	p.mu.Lock()

	if !p.running {
		p.mu.Unlock()

		return ErrNotRunning
	}

	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()

	if err := p.capture.Stop(); err != nil {
		return fmt.Errorf("pipeline: stop capture: %w", err)
	}

	if err := p.render.Stop(); err != nil {
		return fmt.Errorf("pipeline: stop render: %w", err)
	}

	p.logger.Info("pipeline stopped")

	return nil
}

// onCaptureFrames is registered with the capture device and runs on
// whatever thread the host audio API drives it from. It downmixes to mono
// and pushes the result into the capture ring; it must never block.
func (p *Pipeline) onCaptureFrames(samples []float32, frames int, rate float64, channels int) {
	if channels <= 1 {
		p.captureRing.Write(samples[:frames])

		return
	}

	if cap(p.downmixScratch) < frames {
		p.downmixScratch = make([]float32, frames)
	}

	mono := p.downmixScratch[:frames]
	downmix(mono, samples, channels)

	p.captureRing.Write(mono)
}

// downmix folds an interleaved multichannel buffer to mono by averaging
// each frame's channels, matching the pipeline's 0.5*(L+R) two-channel
// convention generalized to N channels.
func downmix(dst []float32, src []float32, channels int) {
	for i := range dst {
		var sum float32

		base := i * channels
		for c := 0; c < channels; c++ {
			sum += src[base+c]
		}

		dst[i] = sum / float32(channels)
	}
}

// processingLoop is the pipeline's single processing thread: it drains the
// capture ring, resamples to InternalRate, runs full blocks through the DSP
// stages, resamples to the render rate, and writes to the render sink.
func (p *Pipeline) processingLoop() {
	defer p.wg.Done()

	if err := threadpriority.Elevate(); err != nil {
		p.logger.WithError(err).Warn("could not elevate processing thread priority")
	}

	readBuf := make([]float32, BlockSize*4)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		avail := p.captureRing.AvailableRead()
		if avail == 0 {
			time.Sleep(time.Millisecond)

			continue
		}

		if avail > len(readBuf) {
			avail = len(readBuf)
		}

		n := p.captureRing.Read(readBuf[:avail])

		p.resampleScratch = p.inResampler.Process(p.resampleScratch[:0], readBuf[:n])
		p.internalAcc = append(p.internalAcc, p.resampleScratch...)

		for len(p.internalAcc) >= BlockSize {
			block := p.internalAcc[:BlockSize]

			snap := p.procs.processBlock(block, p.Params())

			p.outputScratch = p.outResampler.Process(p.outputScratch[:0], block)
			p.renderRing.Write(p.outputScratch)

			if p.meterSink != nil {
				p.meterSink.PublishMeters(snap)
			}

			p.internalAcc = p.internalAcc[BlockSize:]
		}

		// Slicing the consumed prefix off the front shrinks this slice's
		// capacity within the backing array on every iteration; once it
		// can no longer hold a fresh append, Go reallocates and the cycle
		// resets. That occasional reallocation is cheaper than an
		// unconditional compacting copy on every block.
	}
}

// renderLoop stands in for the render thread a real host audio API would
// drive via its own callback: it pulls fixed-size chunks from the render
// ring at the render device's own pace and hands them to RenderSink.Write.
// If the ring can't supply a full chunk, ring.Ring.Read counts the
// shortfall as a render underrun and the rest of the chunk is filled with
// silence here.
func (p *Pipeline) renderLoop() {
	defer p.wg.Done()

	chunk := make([]float32, BlockSize)
	period := time.Duration(float64(BlockSize) / p.renderRate * float64(time.Second))

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
		}

		n := p.renderRing.Read(chunk)
		for i := n; i < len(chunk); i++ {
			chunk[i] = 0
		}

		p.render.Write(chunk)
	}
}
