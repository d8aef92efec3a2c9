// Package ipc implements the control port's line-framed wire protocol:
// `COMMAND[:DATA]` ASCII lines over any io.ReadWriter, translated to and
// from control.Command values.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clearvoice/voxengine/internal/config"
	"github.com/clearvoice/voxengine/internal/control"
	"github.com/clearvoice/voxengine/internal/pipeline"
)

// ErrProtocol is returned for a line that does not parse as a known
// command. The connection is not closed; the caller counts it and moves on
// to the next line, matching the ProtocolError taxonomy entry.
var ErrProtocol = errors.New("ipc: protocol error")

// configPayload is the JSON body of a CONFIG: line, layered directly on
// top of config.Config so a controller can push the exact same document
// that main.go persists to disk.
type configPayload = config.Config

// Codec reads COMMAND[:DATA] lines from a connection and writes responses
// and meter pushes back to it. One Codec serves one connection.
type Codec struct {
	r *bufio.Reader
	w io.Writer
}

// NewCodec wraps rw as a line-framed command connection.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{r: bufio.NewReader(rw), w: rw}
}

// ReadCommand blocks for the next line and parses it into a control.Command.
// io.EOF propagates unchanged so the caller can distinguish a closed
// connection from a protocol error.
func (c *Codec) ReadCommand() (control.Command, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return control.Command{}, err
	}

	line = strings.TrimRight(line, "\r\n")

	return parseLine(line)
}

func parseLine(line string) (control.Command, error) {
	name, data, _ := strings.Cut(line, ":")
	name = strings.ToUpper(strings.TrimSpace(name))

	switch name {
	case "PING":
		return control.Command{Kind: control.CmdPing}, nil

	case "GET_STATUS":
		return control.Command{Kind: control.CmdQueryStatus}, nil

	case "BYPASS":
		on, err := parseBinary(data)
		if err != nil {
			return control.Command{}, fmt.Errorf("%w: BYPASS: %v", ErrProtocol, err)
		}

		return control.Command{Kind: control.CmdSetBypass, Bypass: on}, nil

	case "PRESET":
		if strings.TrimSpace(data) == "" {
			return control.Command{}, fmt.Errorf("%w: PRESET requires a name", ErrProtocol)
		}

		return control.Command{Kind: control.CmdApplyPreset, PresetName: strings.TrimSpace(data)}, nil

	case "CONFIG":
		var payload configPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return control.Command{}, fmt.Errorf("%w: CONFIG: %v", ErrProtocol, err)
		}

		params := payload.ToDspParams()

		return control.Command{
			Kind:       control.CmdSetConfig,
			Eq:         params.Eq,
			Expander:   params.Expander,
			Compressor: params.Compressor,
			Limiter:    params.Limiter,
			AiModel:    params.AiModel,
		}, nil

	default:
		return control.Command{}, fmt.Errorf("%w: unrecognized command %q", ErrProtocol, name)
	}
}

func parseBinary(data string) (bool, error) {
	switch strings.TrimSpace(data) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("expected 0 or 1, got %q", data)
	}
}

// WritePong writes the PONG response to PING.
func (c *Codec) WritePong() error {
	return c.writeLine("PONG")
}

// WriteStatus formats a STATUS:<payload> line from a status snapshot,
// encoding the payload as JSON.
func (c *Codec) WriteStatus(status control.StatusSnapshot) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("ipc: marshal status: %w", err)
	}

	return c.writeLine("STATUS:" + string(payload))
}

// WriteMeters formats a METERS:<peak>,<rms>,<gr> line from a meter
// snapshot.
func (c *Codec) WriteMeters(snap pipeline.Snapshot) error {
	line := "METERS:" +
		formatDB(snap.PeakDBFS) + "," +
		formatDB(snap.RMSDBFS) + "," +
		formatDB(snap.GainReductionDB)

	return c.writeLine(line)
}

func formatDB(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (c *Codec) writeLine(s string) error {
	_, err := io.WriteString(c.w, s+"\n")
	if err != nil {
		return fmt.Errorf("ipc: write: %w", err)
	}

	return nil
}
