// Package control defines the pipeline's inbound command queue and outbound
// meter feed: a tagged Command union carried over a buffered Go channel,
// and a coalescing MeterSink that drops stale snapshots under backpressure
// instead of blocking the processing thread.
package control

import (
	"github.com/clearvoice/voxengine/internal/pipeline"
)

// CommandKind tags which field of Command is meaningful.
type CommandKind int

const (
	CmdSetBypass CommandKind = iota
	CmdApplyPreset
	CmdSetInputDevice
	CmdSetOutputDevice
	CmdSetExpander
	CmdSetCompressor
	CmdSetLimiter
	CmdSetEq
	CmdSetAiModel
	CmdSetConfig
	CmdPing
	CmdQueryStatus
)

// Command is the tagged union of every operation the control port accepts.
// Only the field matching Kind is populated, except for CmdSetConfig, which
// fills Expander, Compressor, Limiter, Eq and AiModel together; Reply, when
// non-nil, receives
// exactly one result and is then never touched again.
type Command struct {
	Kind CommandKind

	Bypass     bool
	PresetName string
	DeviceID   string
	Expander   pipeline.ExpanderParams
	Compressor pipeline.CompressorParams
	Limiter    pipeline.LimiterParams
	Eq         pipeline.EqParams
	AiModel    pipeline.AiModel

	Reply chan Result
}

// Result is delivered on a Command's Reply channel once the command has
// been applied (or has failed).
type Result struct {
	Err    error
	Status StatusSnapshot
}

// StatusSnapshot is the payload behind GET_STATUS/QueryStatus: enough state
// for a controller to render a status view without querying the pipeline
// object directly.
type StatusSnapshot struct {
	Running         bool
	Bypass          bool
	PresetName      string
	AiModel         pipeline.AiModel
	Devices         pipeline.DeviceStatus
	CaptureOverruns uint64
	RenderUnderruns uint64
	ProtocolErrors  uint64
}

// Port is a buffered command queue between a control-plane goroutine (the
// IPC listener, or a CLI one-shot invocation) and the goroutine that owns
// the Pipeline. Commands are served strictly in order.
type Port struct {
	commands chan Command
}

// NewPort creates a command port with the given queue depth.
func NewPort(depth int) *Port {
	if depth < 1 {
		depth = 1
	}

	return &Port{commands: make(chan Command, depth)}
}

// Send enqueues a command. It blocks only if the queue is full, which a
// well-behaved controller should never produce under normal operation.
func (p *Port) Send(cmd Command) {
	p.commands <- cmd
}

// Commands returns the receive side of the queue for the servicing
// goroutine's select loop.
func (p *Port) Commands() <-chan Command {
	return p.commands
}

// meterSinkDepth is 1: the sink coalesces to "latest wins" so a slow
// transport never makes the processing thread wait on a full channel.
const meterSinkDepth = 1

// MeterSink is a coalescing outbound feed of pipeline.Snapshot values. A
// full channel is drained and replaced rather than blocked on, so Publish
// never stalls the processing thread that calls it.
type MeterSink struct {
	ch chan pipeline.Snapshot
}

// NewMeterSink creates a coalescing meter sink.
func NewMeterSink() *MeterSink {
	return &MeterSink{ch: make(chan pipeline.Snapshot, meterSinkDepth)}
}

// PublishMeters implements pipeline.MeterSink. It never blocks: if the
// single-slot buffer is already full, the stale snapshot is discarded and
// replaced.
func (s *MeterSink) PublishMeters(snap pipeline.Snapshot) {
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}

		select {
		case s.ch <- snap:
		default:
		}
	}
}

// Snapshots returns the receive side for a transport goroutine to drain and
// forward as METERS: lines.
func (s *MeterSink) Snapshots() <-chan pipeline.Snapshot {
	return s.ch
}
