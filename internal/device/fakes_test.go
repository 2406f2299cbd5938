package device

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeProcess struct {
	mu         sync.Mutex
	exited     bool
	terminated bool
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated = true
	p.exited = true
	return nil
}

func (p *fakeProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// fakeTransport records every call made through the Transport interface.
type fakeTransport struct {
	mu          sync.Mutex
	started     [][]string
	forwards    [][2]int
	shells      [][]string
	procs       []*fakeProcess
	exitOnStart bool
	startErr    error
	forwardErr  error
	shellOut    string
}

func (f *fakeTransport) StartService(_ context.Context, argv ...string) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, argv)
	if f.startErr != nil {
		return nil, f.startErr
	}
	p := &fakeProcess{exited: f.exitOnStart}
	f.procs = append(f.procs, p)
	return p, nil
}

func (f *fakeTransport) ForwardPort(_ context.Context, local, remote int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, [2]int{local, remote})
	return f.forwardErr
}

func (f *fakeTransport) Shell(_ context.Context, argv ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shells = append(f.shells, argv)
	return f.shellOut, nil
}

func (f *fakeTransport) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

// fakeMonkey is a loopback monkey service. The first drop connections are
// closed as soon as they are accepted.
type fakeMonkey struct {
	ln   net.Listener
	drop int
	vars map[string]string

	mu       sync.Mutex
	conns    int
	received []string
}

func newFakeMonkey(t *testing.T, drop int) *fakeMonkey {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeMonkey{ln: ln, drop: drop, vars: map[string]string{}}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeMonkey) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeMonkey) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns++
		drop := f.conns <= f.drop
		f.mu.Unlock()
		go f.handle(conn, drop)
	}
}

func (f *fakeMonkey) handle(conn net.Conn, drop bool) {
	defer conn.Close()
	if drop {
		return
	}
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		f.mu.Lock()
		f.received = append(f.received, cmd)
		f.mu.Unlock()

		var resp string
		switch {
		case cmd == "quit" || cmd == "done":
			return
		case strings.HasPrefix(cmd, "getvar "):
			if v, ok := f.vars[strings.TrimPrefix(cmd, "getvar ")]; ok {
				resp = "OK:" + v
			} else {
				resp = "ERROR: no such var"
			}
		case cmd == "listvar":
			names := make([]string, 0, len(f.vars))
			for name := range f.vars {
				names = append(names, name)
			}
			sort.Strings(names)
			resp = "OK:" + strings.Join(names, " ")
		case strings.HasPrefix(cmd, "press bogus"):
			resp = "ERROR: unknown key"
		default:
			resp = "OK"
		}
		if _, err := conn.Write([]byte(resp + "\n")); err != nil {
			return
		}
	}
}

func (f *fakeMonkey) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func (f *fakeMonkey) connCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns
}

// fakeViewServer answers each connection's single command from a table
// and then closes it.
type fakeViewServer struct {
	ln        net.Listener
	responses map[string]string

	mu       sync.Mutex
	received []string
}

func newFakeViewServer(t *testing.T, responses map[string]string) *fakeViewServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeViewServer{ln: ln, responses: responses}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.handle(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeViewServer) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeViewServer) handle(conn net.Conn) {
	defer conn.Close()
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	cmd := strings.TrimSpace(line)
	f.mu.Lock()
	f.received = append(f.received, cmd)
	f.mu.Unlock()
	conn.Write([]byte(f.responses[cmd]))
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// eventually polls cond in real time for up to two seconds.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

var errBoom = errors.New("boom")
