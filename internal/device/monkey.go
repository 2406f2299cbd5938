package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
)

// State is the lifecycle state of a Monkey session.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "closed"
	}
}

// MonkeyOptions configures a Monkey session. The same port number is used
// on the host and on the device.
type MonkeyOptions struct {
	Address     string
	Port        int
	MaxAttempts int
	// ProcessCheckDelay is how long to wait before checking that the
	// service process survived startup.
	ProcessCheckDelay time.Duration
	// StartDelay is how long to give the service to start listening.
	StartDelay   time.Duration
	Timeout      time.Duration
	DragSteps    int
	DragDuration time.Duration
}

// DefaultMonkeyOptions returns the options for a local emulator.
func DefaultMonkeyOptions() MonkeyOptions {
	return MonkeyOptions{
		Address:           "127.0.0.1",
		Port:              12345,
		MaxAttempts:       3,
		ProcessCheckDelay: time.Second,
		StartDelay:        3 * time.Second,
		Timeout:           10 * time.Second,
		DragSteps:         10,
		DragDuration:      500 * time.Millisecond,
	}
}

// Monkey is a persistent session with the on-device monkey service. A
// failed command tears the service down, starts it again and retries, up
// to MaxAttempts in total.
//
// A Monkey is not safe for concurrent use.
type Monkey struct {
	transport Transport
	clock     clock.Clock
	logger    *slog.Logger
	opts      MonkeyOptions

	state    State
	attempts int
	proc     Process
	conn     net.Conn
	reader   *bufio.Reader

	displayW, displayH int
}

// NewMonkey returns a closed session. A nil clock uses real time and a nil
// logger discards.
func NewMonkey(t Transport, opts MonkeyOptions, clk clock.Clock, logger *slog.Logger) *Monkey {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Monkey{transport: t, clock: clk, logger: logger, opts: opts}
}

// State returns the session state.
func (m *Monkey) State() State { return m.state }

// Attempts returns how many attempts the last Send needed.
func (m *Monkey) Attempts() int { return m.attempts }

// Open starts the service, forwards its port and connects.
func (m *Monkey) Open(ctx context.Context) error {
	if m.state != StateClosed {
		return nil
	}
	if err := m.start(ctx); err != nil {
		m.teardown()
		return err
	}
	m.state = StateOpen
	return nil
}

func (m *Monkey) start(ctx context.Context) error {
	fail := func(op string, err error) error {
		return &TransportError{Service: "monkey", Op: op, Attempts: 1, Err: err}
	}

	m.logger.Info("starting monkey service", "port", m.opts.Port)
	proc, err := m.transport.StartService(ctx, "monkey", "--port", strconv.Itoa(m.opts.Port))
	if err != nil {
		return fail("start service", err)
	}
	m.proc = proc

	m.clock.Sleep(m.opts.ProcessCheckDelay)
	if proc.Exited() {
		return fail("start service", errors.New("service exited during startup"))
	}
	m.clock.Sleep(m.opts.StartDelay)

	if err := m.transport.ForwardPort(ctx, m.opts.Port, m.opts.Port); err != nil {
		return fail("forward port", err)
	}
	if err := m.connect(ctx); err != nil {
		return fail("connect", err)
	}
	return nil
}

func (m *Monkey) connect(ctx context.Context) error {
	m.logger.Debug("connecting to monkey", "address", m.opts.Address, "port", m.opts.Port)
	conn, err := dial(ctx, m.opts.Address, m.opts.Port, m.opts.Timeout)
	if err != nil {
		return err
	}
	m.conn = conn
	m.reader = bufio.NewReader(conn)
	return nil
}

// Send writes one command and returns the response line without its
// line terminator. Transport failures are retried after restarting the
// service; once every attempt has failed the session is Closed and a
// *TransportError is returned.
func (m *Monkey) Send(ctx context.Context, command string) (string, error) {
	if m.state == StateClosed {
		return "", fmt.Errorf("monkey: send %q: %w", command, ErrSessionClosed)
	}

	var lastErr error
	attempt := 1
	for ; ; attempt++ {
		m.attempts = attempt
		resp, err := m.roundTrip(ctx, command)
		if err == nil {
			m.state = StateOpen
			return resp, nil
		}
		lastErr = err
		m.logger.Warn("monkey command failed", "command", command, "attempt", attempt, "error", err)

		if attempt >= m.opts.MaxAttempts || ctx.Err() != nil {
			break
		}
		m.state = StateReconnecting
		if err := m.restart(ctx); err != nil {
			m.logger.Warn("monkey restart failed", "attempt", attempt, "error", err)
		}
	}

	m.teardown()
	m.state = StateClosed
	return "", &TransportError{Service: "monkey", Op: fmt.Sprintf("send %q", command), Attempts: attempt, Err: lastErr}
}

func (m *Monkey) roundTrip(ctx context.Context, command string) (string, error) {
	if m.conn == nil {
		if err := m.connect(ctx); err != nil {
			return "", err
		}
	}
	setDeadline(m.conn, m.opts.Timeout)
	if _, err := io.WriteString(m.conn, command+"\n"); err != nil {
		return "", err
	}
	line, err := m.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (m *Monkey) restart(ctx context.Context) error {
	m.logger.Info("restarting monkey service")
	m.teardown()
	return m.start(ctx)
}

// teardown releases the socket and the service process. Failures are
// logged and otherwise ignored.
func (m *Monkey) teardown() {
	m.closeConn()
	if m.proc != nil {
		if err := m.proc.Terminate(); err != nil {
			m.logger.Debug("terminating monkey service", "error", err)
		}
		m.proc = nil
	}
}

func (m *Monkey) closeConn() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil && !isExpectedCloseError(err) {
		m.logger.Debug("closing monkey connection", "error", err)
	}
	m.conn = nil
	m.reader = nil
}

// Close asks the service to quit, then releases the socket and the
// process regardless of the outcome. It always returns nil and is safe to
// call on a session in any state.
func (m *Monkey) Close() error {
	if m.conn != nil {
		setDeadline(m.conn, time.Second)
		if _, err := io.WriteString(m.conn, "quit\n"); err != nil {
			m.logger.Debug("sending quit", "error", err)
		}
	}
	m.teardown()
	m.state = StateClosed
	return nil
}

// Done ends the current client connection while leaving the service
// running. The next Send reconnects without restarting the service.
func (m *Monkey) Done() error {
	if m.conn == nil {
		return nil
	}
	setDeadline(m.conn, m.opts.Timeout)
	_, err := io.WriteString(m.conn, "done\n")
	m.closeConn()
	if err != nil && !isExpectedCloseError(err) {
		return &TransportError{Service: "monkey", Op: "done", Attempts: 1, Err: err}
	}
	return nil
}

// GetVar returns the value of a monkey variable such as display.width.
func (m *Monkey) GetVar(ctx context.Context, name string) (string, error) {
	command := "getvar " + name
	resp, err := m.Send(ctx, command)
	if err != nil {
		return "", err
	}
	resp = strings.TrimSpace(resp)
	if strings.Contains(resp, "ERROR") {
		return "", &ProtocolError{Service: "monkey", Command: command, Response: resp, Err: ErrVariableNotFound}
	}
	return strings.TrimPrefix(resp, "OK:"), nil
}

// ListVars returns the names of every variable GetVar accepts.
func (m *Monkey) ListVars(ctx context.Context) ([]string, error) {
	resp, err := m.Send(ctx, "listvar")
	if err != nil {
		return nil, err
	}
	resp = strings.TrimSpace(resp)
	if !strings.HasPrefix(resp, "OK") {
		return nil, &ProtocolError{Service: "monkey", Command: "listvar", Response: resp}
	}
	return strings.Fields(strings.TrimPrefix(resp, "OK:")), nil
}

func (m *Monkey) getInt(ctx context.Context, name string) (int, error) {
	v, err := m.GetVar(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ProtocolError{Service: "monkey", Command: "getvar " + name, Response: v, Err: err}
	}
	return n, nil
}

// DisplaySize returns the screen size in pixels. The value is cached for
// the life of the session.
func (m *Monkey) DisplaySize(ctx context.Context) (width, height int, err error) {
	if m.displayW > 0 && m.displayH > 0 {
		return m.displayW, m.displayH, nil
	}
	if width, err = m.getInt(ctx, "display.width"); err != nil {
		return 0, 0, err
	}
	if height, err = m.getInt(ctx, "display.height"); err != nil {
		return 0, 0, err
	}
	m.displayW, m.displayH = width, height
	return width, height, nil
}

// APILevel returns the device's SDK version.
func (m *Monkey) APILevel(ctx context.Context) (int, error) {
	return m.getInt(ctx, "build.version.sdk")
}

// exec sends a command that is expected to answer OK.
func (m *Monkey) exec(ctx context.Context, command string) error {
	resp, err := m.Send(ctx, command)
	if err != nil {
		return err
	}
	if strings.HasPrefix(resp, "ERROR") {
		return &ProtocolError{Service: "monkey", Command: command, Response: resp}
	}
	return nil
}

// Tap taps the screen at x,y.
func (m *Monkey) Tap(ctx context.Context, x, y int) error {
	return m.exec(ctx, fmt.Sprintf("tap %d %d", x, y))
}

// Press presses and releases a named key, e.g. "home" or "back".
func (m *Monkey) Press(ctx context.Context, key string) error {
	return m.exec(ctx, "press "+key)
}

// Wake wakes the device.
func (m *Monkey) Wake(ctx context.Context) error {
	return m.exec(ctx, "wake")
}

// KeyDown sends a key-down event for an Android keycode.
func (m *Monkey) KeyDown(ctx context.Context, code int) error {
	return m.exec(ctx, "key down "+strconv.Itoa(code))
}

func (m *Monkey) TouchDown(ctx context.Context, x, y int) error {
	return m.exec(ctx, fmt.Sprintf("touch down %d %d", x, y))
}

func (m *Monkey) TouchMove(ctx context.Context, x, y int) error {
	return m.exec(ctx, fmt.Sprintf("touch move %d %d", x, y))
}

func (m *Monkey) TouchUp(ctx context.Context, x, y int) error {
	return m.exec(ctx, fmt.Sprintf("touch up %d %d", x, y))
}
