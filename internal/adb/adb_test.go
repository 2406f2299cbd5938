package adb

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
)

// fakeADB is a stand-in adb that echoes its arguments. The serial is
// always passed, so the subcommand is $3.
const fakeADB = `#!/bin/sh
case "$3" in
forward)
	if [ "$5" = "tcp:9999" ]; then echo "cannot bind to 9999" >&2; exit 1; fi
	;;
shell)
	case "$4" in
	monkey) exec sleep 30 ;;
	stubborn) trap '' TERM; while :; do sleep 1; done ;;
	am)
		echo "Starting: Intent { cmp=$8 }"
		if [ "$8" != "com.bad/.Main" ]; then echo "Complete"; fi
		;;
	*) shift 3; echo "$@" ;;
	esac
	;;
exec-out) printf 'PNGDATA' ;;
install)
	if [ "$5" = "broken.apk" ]; then echo "Failure [INSTALL_FAILED_INVALID_APK]"; else echo "Success"; fi
	;;
pull)
	if [ "$4" = "/missing" ]; then echo "remote object '/missing' does not exist" >&2; exit 1; fi
	;;
*) echo "$@" ;;
esac
`

func newFakeClient(t *testing.T) *Client {
	t.Helper()
	return newFakeClientWithClock(t, nil)
}

func newFakeClientWithClock(t *testing.T, clk clock.Clock) *Client {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake adb is a shell script")
	}
	path := filepath.Join(t.TempDir(), "adb")
	if err := os.WriteFile(path, []byte(fakeADB), 0o755); err != nil {
		t.Fatal(err)
	}
	return New(path, "emulator-5554", clk, nil)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("ANDROID_HOME", "/opt/android")
	if got, want := DefaultPath(), filepath.Join("/opt/android", "platform-tools", "adb"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	t.Setenv("ANDROID_HOME", "")
	if got := DefaultPath(); got != "adb" {
		t.Errorf("got %q, want adb", got)
	}
}

func TestClient_Args(t *testing.T) {
	c := New("adb", "emulator-5554", nil, nil)
	if got, want := c.args("devices"), []string{"-s", "emulator-5554", "devices"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	c = New("adb", "", nil, nil)
	if got, want := c.args("devices"), []string{"devices"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClient_CommandDropsProxyEnv(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("DROID_TEST_VAR", "kept")
	cmd := New("adb", "", nil, nil).command(context.Background(), "devices")
	var sawKept bool
	for _, e := range cmd.Env {
		if strings.HasPrefix(e, "HTTPS_PROXY=") {
			t.Error("proxy variable should be removed")
		}
		if e == "DROID_TEST_VAR=kept" {
			sawKept = true
		}
	}
	if !sawKept {
		t.Error("other variables should be kept")
	}
}

func TestClient_Shell(t *testing.T) {
	c := newFakeClient(t)
	out, err := c.Shell(context.Background(), "service", "call", "window", "2")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != "service call window 2" {
		t.Errorf("got %q", got)
	}
}

func TestClient_ForwardPort(t *testing.T) {
	c := newFakeClient(t)
	if err := c.ForwardPort(context.Background(), 4939, 4939); err != nil {
		t.Errorf("forward: %v", err)
	}
	err := c.ForwardPort(context.Background(), 9999, 4939)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "cannot bind") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestClient_StartActivity(t *testing.T) {
	c := newFakeClient(t)
	if err := c.StartActivity(context.Background(), "com.example", ".Main"); err != nil {
		t.Errorf("start: %v", err)
	}
	if err := c.StartActivity(context.Background(), "com.bad", ".Main"); err == nil {
		t.Error("expected error when am does not report Complete")
	}
}

func TestClient_Install(t *testing.T) {
	c := newFakeClient(t)
	if err := c.Install(context.Background(), "app.apk"); err != nil {
		t.Errorf("install: %v", err)
	}
	if err := c.Install(context.Background(), "broken.apk"); err == nil {
		t.Error("expected install failure")
	}
}

func TestClient_PushPull(t *testing.T) {
	c := newFakeClient(t)
	if err := c.Push(context.Background(), "local.txt", "/sdcard/local.txt"); err != nil {
		t.Errorf("push: %v", err)
	}
	if err := c.Pull(context.Background(), "/sdcard/log.txt", "log.txt"); err != nil {
		t.Errorf("pull: %v", err)
	}
	err := c.Pull(context.Background(), "/missing", "x")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("got %v, want error carrying adb stderr", err)
	}
}

func TestClient_Screencap(t *testing.T) {
	c := newFakeClient(t)
	data, err := c.Screencap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("got %q", data)
	}
}

func TestClient_StartServiceTerminate(t *testing.T) {
	c := newFakeClient(t)
	p, err := c.StartService(context.Background(), "monkey", "--port", "12345")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if p.Exited() {
		t.Fatal("service exited immediately")
	}
	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if !p.Exited() {
		t.Error("process should have exited after Terminate")
	}
	if err := p.Terminate(); err != nil {
		t.Errorf("second terminate: %v", err)
	}
}

func TestClient_TerminateKillsAfterGrace(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newFakeClientWithClock(t, clk)
	p, err := c.StartService(context.Background(), "stubborn")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if !p.Exited() {
		t.Error("process ignoring SIGTERM should be killed")
	}
	if got, want := clk.Sleeps(), []time.Duration{terminateGrace}; !reflect.DeepEqual(got, want) {
		t.Errorf("got waits %v, want %v", got, want)
	}
}

func TestClient_StartServiceOutlivesContext(t *testing.T) {
	c := newFakeClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := c.StartService(ctx, "monkey", "--port", "12345")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Terminate()
	cancel()
	time.Sleep(50 * time.Millisecond)
	if p.Exited() {
		t.Error("cancelling the start context should not stop the service")
	}
}
