// Command voxengine runs the capture-enhance-dynamics-render pipeline as a
// standalone process: it selects capture/render devices, loads persisted
// configuration, and serves the line-framed control/meter protocol over a
// TCP listener until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clearvoice/voxengine/internal/config"
	"github.com/clearvoice/voxengine/internal/control"
	"github.com/clearvoice/voxengine/internal/device"
	"github.com/clearvoice/voxengine/internal/ipc"
	"github.com/clearvoice/voxengine/internal/pipeline"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version     bool   `short:"v" help:"Show version information"`
	Config      string `short:"c" type:"path" default:"voxengine.json" help:"Path to the JSON configuration file"`
	Background  bool   `help:"Suppress the console logger sink; structured logging still goes to the log file"`
	ListDevices bool   `help:"List capture and render devices and exit"`
	Listen      string `default:"127.0.0.1:8973" help:"Address the control/meter port listens on"`
	LogFile     string `type:"path" default:"voxengine.log" help:"Path to the structured log file"`
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("voxengine"),
		kong.Description("Realtime voice processing engine: capture, AI noise suppression, dynamics, and EQ over a virtual output device"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if cli.Version {
		fmt.Println("voxengine", version)

		return 0
	}

	logger, closeLog := newLogger(cli)
	defer closeLog()

	capture, render := defaultDevices()

	if cli.ListDevices {
		printDevices(capture, render)

		return 0
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		logger.WithField("path", cli.Config).WithError(err).Warn("using default configuration")
	}

	pipe, err := pipeline.New(capture, render, logger.WithField("component", "pipeline"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxengine:", err)

		return 1
	}

	if cfg.Devices.InputDevice == "" {
		devices, _ := capture.Enumerate(context.Background())
		if len(devices) > 0 {
			cfg.Devices.InputDevice = devices[0].ID
		}
	}

	if err := pipe.SetInputDevice(cfg.Devices.InputDevice); err != nil {
		fmt.Fprintln(os.Stderr, "voxengine:", err)

		return 1
	}

	if cfg.Devices.OutputDevice == "" {
		if err := pipe.AutoSelectOutputDevice(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "voxengine:", err)

			return 1
		}
	} else if err := pipe.SetOutputDevice(cfg.Devices.OutputDevice); err != nil {
		fmt.Fprintln(os.Stderr, "voxengine:", err)

		return 1
	}

	pipe.SetParams(cfg.ToDspParams())

	if err := pipe.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "voxengine:", err)

		return 1
	}
	defer pipe.Stop()

	port := control.NewPort(16)
	svc := control.NewService(pipe, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go svc.Run(ctx)

	listener, err := net.Listen("tcp", cli.Listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxengine:", err)

		return 1
	}
	defer listener.Close()

	logger.WithField("addr", cli.Listen).Info("control port listening")

	conns := newConnTracker()
	go acceptLoop(ctx, listener, conns, port, svc, pipe, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutdown requested")
	conns.closeAll()

	devices := pipe.Devices()
	saved := config.FromDspParams(pipe.Params(), config.Devices{
		InputDevice:  devices.CaptureID,
		OutputDevice: devices.RenderID,
	})

	if err := config.Save(cli.Config, saved); err != nil {
		logger.WithError(err).Warn("failed to persist configuration on shutdown")
	}

	return 0
}

// defaultDevices returns the capture/render backends this process drives.
// Real host audio API bindings are an external collaborator per this
// pipeline's boundary; the stub backends below stand in for them, exposing
// the same CaptureSource/RenderSink interfaces a native binding would.
func defaultDevices() (*device.StubCapture, *device.StubRender) {
	capture := device.NewStubCapture([]device.Info{
		{Name: "Default Microphone", ID: "default-input"},
	})

	render := device.NewStubRender([]device.Info{
		{Name: "Default Speakers", ID: "default-output"},
		{Name: "CABLE Input (VB-Audio Virtual Cable)", ID: "cable-input"},
	})

	return capture, render
}

func printDevices(capture device.CaptureSource, render device.RenderSink) {
	ctx := context.Background()

	fmt.Println("capture devices:")

	inputs, _ := capture.Enumerate(ctx)
	for _, d := range inputs {
		fmt.Printf("  %s\t%s\n", d.ID, d.Name)
	}

	fmt.Println("render devices:")

	outputs, _ := render.Enumerate(ctx)
	for _, d := range outputs {
		fmt.Printf("  %s\t%s\n", d.ID, d.Name)
	}
}

// newLogger builds the control-plane logger: a file sink always, plus a
// console sink unless --background suppresses it, matching the teacher
// pack's logrus.WithFields idiom (opd-ai-toxcore's LoggerHelper).
func newLogger(cli *CLI) (*logrus.Entry, func()) {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	closeFn := func() {}

	f, err := os.OpenFile(cli.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		closeFn = func() { _ = f.Close() }

		if cli.Background {
			base.SetOutput(f)
		} else {
			base.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	} else if cli.Background {
		base.SetOutput(io.Discard)
	}

	return logrus.NewEntry(base), closeFn
}

// connTracker closes every live connection on shutdown so serveConn's
// blocking ReadCommand calls unblock promptly instead of waiting on process
// exit to tear down the sockets.
type connTracker struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func newConnTracker() *connTracker {
	return &connTracker{conns: make(map[net.Conn]struct{})}
}

func (t *connTracker) add(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conns[c] = struct{}{}
}

func (t *connTracker) remove(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.conns, c)
}

func (t *connTracker) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for c := range t.conns {
		_ = c.Close()
	}
}

// acceptLoop serves control/meter connections concurrently: each connection
// runs in its own goroutine and installs its own coalescing MeterSink on
// the pipeline for its lifetime.
func acceptLoop(ctx context.Context, listener net.Listener, conns *connTracker, port *control.Port, svc *control.Service, pipe *pipeline.Pipeline, logger *logrus.Entry) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.WithError(err).Warn("accept failed")

				continue
			}
		}

		conns.add(conn)

		id := uuid.New().String()
		connLogger := logger.WithField("conn", id)
		connLogger.Info("controller connected")

		go func() {
			serveConn(ctx, conn, port, svc, pipe, connLogger)
			conns.remove(conn)
			connLogger.Info("controller disconnected")
		}()
	}
}

// serveConn installs this connection's coalescing meter sink on the
// pipeline for its lifetime. pipeline.Pipeline holds a single active
// MeterSink, so with more than one concurrent controller connected, the
// most recently (dis)connected one determines which connection's meters
// get forwarded.
func serveConn(ctx context.Context, conn net.Conn, port *control.Port, svc *control.Service, pipe *pipeline.Pipeline, logger *logrus.Entry) {
	defer conn.Close()

	codec := ipc.NewCodec(conn)

	sink := control.NewMeterSink()
	pipe.SetMeterSink(sink)
	defer pipe.SetMeterSink(nil)

	meterDone := make(chan struct{})
	go pushMeters(ctx, codec, sink, meterDone, logger)
	defer func() { <-meterDone }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cmd, err := codec.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}

			if errors.Is(err, ipc.ErrProtocol) {
				svc.CountProtocolError()
				logger.WithError(err).Warn("protocol error")

				continue
			}

			logger.WithError(err).Warn("connection read failed")

			return
		}

		cmd.Reply = make(chan control.Result, 1)
		port.Send(cmd)
		result := <-cmd.Reply

		if err := respond(codec, cmd, result); err != nil {
			logger.WithError(err).Warn("write failed")

			return
		}
	}
}

func respond(codec *ipc.Codec, cmd control.Command, result control.Result) error {
	switch cmd.Kind {
	case control.CmdPing:
		return codec.WritePong()
	case control.CmdQueryStatus:
		return codec.WriteStatus(result.Status)
	default:
		return nil
	}
}

func pushMeters(ctx context.Context, codec *ipc.Codec, sink *control.MeterSink, done chan struct{}, logger *logrus.Entry) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sink.Snapshots():
			if !ok {
				return
			}

			if err := codec.WriteMeters(snap); err != nil {
				logger.WithError(err).Debug("meter push stopped")

				return
			}
		}
	}
}
