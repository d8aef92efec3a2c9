package control

import (
	"context"
	"sync/atomic"

	"github.com/clearvoice/voxengine/internal/pipeline"
)

// Service binds a Port to a live Pipeline and applies each Command as it
// arrives. Run it in its own goroutine; cancelling the context passed to
// Run ends its select loop.
type Service struct {
	pipe *pipeline.Pipeline
	port *Port

	protocolErrors atomic.Uint64
}

// NewService creates a command servicer for pipe, reading from port.
func NewService(pipe *pipeline.Pipeline, port *Port) *Service {
	return &Service{pipe: pipe, port: port}
}

// CountProtocolError increments the protocol-error counter surfaced by
// QueryStatus. The connection handler in cmd/voxengine calls it when
// ipc.Codec.ReadCommand returns ipc.ErrProtocol for a malformed line.
func (s *Service) CountProtocolError() {
	s.protocolErrors.Add(1)
}

// Run services commands from the port until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.port.Commands():
			s.apply(cmd)
		}
	}
}

func (s *Service) apply(cmd Command) {
	var result Result

	switch cmd.Kind {
	case CmdSetBypass:
		params := s.pipe.Params()
		params.Bypass = cmd.Bypass
		s.pipe.SetParams(params)

	case CmdApplyPreset:
		result.Err = s.pipe.ApplyPreset(cmd.PresetName)

	case CmdSetInputDevice:
		result.Err = s.pipe.SetInputDevice(cmd.DeviceID)

	case CmdSetOutputDevice:
		result.Err = s.pipe.SetOutputDevice(cmd.DeviceID)

	case CmdSetExpander:
		params := s.pipe.Params()
		params.Expander = cmd.Expander
		s.pipe.SetParams(params)

	case CmdSetCompressor:
		params := s.pipe.Params()
		params.Compressor = cmd.Compressor
		s.pipe.SetParams(params)

	case CmdSetLimiter:
		params := s.pipe.Params()
		params.Limiter = cmd.Limiter
		s.pipe.SetParams(params)

	case CmdSetEq:
		params := s.pipe.Params()
		params.Eq = cmd.Eq
		s.pipe.SetParams(params)

	case CmdSetAiModel:
		params := s.pipe.Params()
		params.AiModel = cmd.AiModel
		s.pipe.SetParams(params)

	case CmdSetConfig:
		params := s.pipe.Params()
		params.Expander = cmd.Expander
		params.Compressor = cmd.Compressor
		params.Limiter = cmd.Limiter
		params.Eq = cmd.Eq
		params.AiModel = cmd.AiModel
		s.pipe.SetParams(params)

	case CmdPing:
		// no-op; the reply alone acknowledges the ping.

	case CmdQueryStatus:
		result.Status = s.status()
	}

	if cmd.Reply != nil {
		cmd.Reply <- result
	}
}

func (s *Service) status() StatusSnapshot {
	params := s.pipe.Params()

	return StatusSnapshot{
		Running:         s.pipe.IsRunning(),
		Bypass:          params.Bypass,
		PresetName:      params.PresetName,
		AiModel:         params.AiModel,
		Devices:         s.pipe.Devices(),
		CaptureOverruns: s.pipe.CaptureOverruns(),
		RenderUnderruns: s.pipe.RenderUnderruns(),
		ProtocolErrors:  s.protocolErrors.Load(),
	}
}
