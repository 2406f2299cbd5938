package device

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/model"
)

// View server commands.
const (
	CmdDumpAll  = "DUMP -1"
	CmdDump     = "DUMP"
	CmdList     = "LIST"
	CmdGetFocus = "GET_FOCUS"
)

// ViewServerOptions configures a ViewServer.
type ViewServerOptions struct {
	Address    string
	LocalPort  int
	RemotePort int
	// Settle is how long to wait after starting or stopping the service.
	Settle  time.Duration
	Timeout time.Duration
}

// ViewServer talks to the window manager's view server. Every query opens
// a new connection, sends one command and reads until the device closes
// the socket. Failures are returned as they happen; a dump is a
// point-in-time snapshot and is never silently retried.
type ViewServer struct {
	transport Transport
	clock     clock.Clock
	logger    *slog.Logger
	opts      ViewServerOptions
}

// NewViewServer returns a ViewServer. A nil clock uses real time and a nil
// logger discards.
func NewViewServer(t Transport, opts ViewServerOptions, clk clock.Clock, logger *slog.Logger) *ViewServer {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ViewServer{transport: t, clock: clk, logger: logger, opts: opts}
}

// Open restarts the service on the device and forwards its port.
func (v *ViewServer) Open(ctx context.Context) error {
	if err := v.stop(ctx); err != nil {
		return err
	}
	if err := v.start(ctx); err != nil {
		return err
	}
	if err := v.transport.ForwardPort(ctx, v.opts.LocalPort, v.opts.RemotePort); err != nil {
		return &TransportError{Service: "viewserver", Op: "forward port", Attempts: 1, Err: err}
	}
	return nil
}

// Close stops the service on the device.
func (v *ViewServer) Close(ctx context.Context) error {
	return v.stop(ctx)
}

func (v *ViewServer) start(ctx context.Context) error {
	v.logger.Info("starting view server", "port", v.opts.RemotePort)
	return v.serviceCall(ctx, "start", "1", "i32", strconv.Itoa(v.opts.RemotePort))
}

func (v *ViewServer) stop(ctx context.Context) error {
	return v.serviceCall(ctx, "stop", "2")
}

func (v *ViewServer) serviceCall(ctx context.Context, op string, args ...string) error {
	argv := append([]string{"service", "call", "window"}, args...)
	out, err := v.transport.Shell(ctx, argv...)
	if err != nil {
		return &TransportError{Service: "viewserver", Op: op, Attempts: 1, Err: err}
	}
	v.logger.Debug("view server service call", "op", op, "result", strings.TrimSpace(out))
	v.clock.Sleep(v.opts.Settle)
	return nil
}

// Send issues one command on a fresh connection and returns the whole
// response with surrounding whitespace removed.
func (v *ViewServer) Send(ctx context.Context, command string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &TransportError{Service: "viewserver", Op: fmt.Sprintf("send %q", command), Attempts: 1, Err: err}
	}

	conn, err := dial(ctx, v.opts.Address, v.opts.LocalPort, v.opts.Timeout)
	if err != nil {
		return fail(err)
	}
	defer conn.Close()

	setDeadline(conn, v.opts.Timeout)
	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return fail(err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return fail(err)
	}
	return strings.TrimSpace(string(data)), nil
}

// DumpAll returns the dump of every window.
func (v *ViewServer) DumpAll(ctx context.Context) (string, error) {
	return v.Send(ctx, CmdDumpAll)
}

// Dump returns the dump of the window with the given hash-code.
func (v *ViewServer) Dump(ctx context.Context, hash string) (string, error) {
	return v.Send(ctx, CmdDump+" "+hash)
}

// List returns the windows known to the window manager.
func (v *ViewServer) List(ctx context.Context) ([]model.Window, error) {
	data, err := v.Send(ctx, CmdList)
	if err != nil {
		return nil, err
	}
	return parseWindowList(data), nil
}

func parseWindowList(data string) []model.Window {
	lines := strings.Split(data, "\n")
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "DONE" {
		lines = lines[:n-1]
	}
	windows := make([]model.Window, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		hash, class, _ := strings.Cut(l, " ")
		windows = append(windows, model.Window{Hash: hash, Class: class})
	}
	return windows
}

// Focus returns the focused window as reported by GET_FOCUS. The class is
// usually "<package>/<activity>".
func (v *ViewServer) Focus(ctx context.Context) (model.Window, error) {
	data, err := v.Send(ctx, CmdGetFocus)
	if err != nil {
		return model.Window{}, err
	}
	fields := strings.Fields(data)
	var w model.Window
	if len(fields) > 0 {
		w.Hash = fields[0]
	}
	if len(fields) > 1 {
		w.Class = fields[1]
	}
	return w, nil
}

// FocusedActivity returns the activity part of the focused window's name,
// or "" when nothing is focused.
func (v *ViewServer) FocusedActivity(ctx context.Context) (string, error) {
	w, err := v.Focus(ctx)
	if err != nil {
		return "", err
	}
	return activityName(w.Class), nil
}

func activityName(class string) string {
	if _, act, ok := strings.Cut(class, "/"); ok {
		return act
	}
	return class
}
