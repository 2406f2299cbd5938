package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Serial != "emulator-5554" {
		t.Errorf("expected serial=emulator-5554, got %s", cfg.Device.Serial)
	}
	if cfg.ViewServer.LocalPort != 4939 || cfg.ViewServer.RemotePort != 4939 {
		t.Errorf("expected view server ports 4939, got %d/%d", cfg.ViewServer.LocalPort, cfg.ViewServer.RemotePort)
	}
	if cfg.Monkey.Port != 12345 {
		t.Errorf("expected monkey port 12345, got %d", cfg.Monkey.Port)
	}
	if cfg.Monkey.MaxAttempts != 3 {
		t.Errorf("expected max_attempts=3, got %d", cfg.Monkey.MaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefault_NotShared(t *testing.T) {
	a := Default()
	a.Monkey.Port = 1
	if b := Default(); b.Monkey.Port != 12345 {
		t.Error("Default must return an independent value each call")
	}
}

func TestLoad_NoPath(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Monkey.Port != 12345 {
		t.Errorf("expected defaults, got monkey port %d", cfg.Monkey.Port)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "device:\n  serial: emulator-5556\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device.Serial != "emulator-5556" {
		t.Errorf("expected serial from env config, got %s", cfg.Device.Serial)
	}
}

func TestLoadFile_OverridesAndDurations(t *testing.T) {
	path := writeConfig(t, `
device:
  serial: 0123456789ABCDEF
  adb: /opt/android/platform-tools/adb
view_server:
  local_port: 5939
monkey:
  port: 1080
  start_delay: 5s
  drag_duration: 250ms
wait:
  timeout: 30s
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device.Serial != "0123456789ABCDEF" {
		t.Errorf("serial: got %s", cfg.Device.Serial)
	}
	if cfg.Device.Address != "127.0.0.1" {
		t.Errorf("unset fields should keep defaults, got address %q", cfg.Device.Address)
	}
	if cfg.ViewServer.LocalPort != 5939 || cfg.ViewServer.RemotePort != 4939 {
		t.Errorf("view server ports: got %d/%d", cfg.ViewServer.LocalPort, cfg.ViewServer.RemotePort)
	}
	if cfg.Monkey.StartDelay != 5*time.Second {
		t.Errorf("start_delay: got %s", cfg.Monkey.StartDelay)
	}
	if cfg.Monkey.DragDuration != 250*time.Millisecond {
		t.Errorf("drag_duration: got %s", cfg.Monkey.DragDuration)
	}
	if cfg.Wait.Timeout != 30*time.Second {
		t.Errorf("wait timeout: got %s", cfg.Wait.Timeout)
	}

	opts := cfg.MonkeyOptions()
	if opts.Port != 1080 || opts.Address != "127.0.0.1" || opts.StartDelay != 5*time.Second {
		t.Errorf("monkey options: got %+v", opts)
	}
	vs := cfg.ViewServerOptions()
	if vs.LocalPort != 5939 || vs.RemotePort != 4939 {
		t.Errorf("view server options: got %+v", vs)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeConfig(t, "monkey:\n  port: 0\n  max_attempts: -1\n")
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"monkey.port", "monkey.max_attempts"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	path := writeConfig(t, "monkey: [unclosed\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "droid-cli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSessionOptions(t *testing.T) {
	cfg := Default()
	cfg.Device.Address = "10.0.0.2"
	cfg.Wait.Timeout = 5 * time.Second

	m := cfg.MonkeyOptions()
	if m.Address != "10.0.0.2" || m.Port != 12345 || m.MaxAttempts != 3 {
		t.Errorf("monkey options: got %+v", m)
	}
	v := cfg.ViewServerOptions()
	if v.Address != "10.0.0.2" || v.LocalPort != 4939 {
		t.Errorf("view server options: got %+v", v)
	}
	p := cfg.PilotOptions()
	if p.WaitTimeout != 5*time.Second || p.WaitInterval != 500*time.Millisecond {
		t.Errorf("pilot options: got %+v", p)
	}
	if p.CloseRetryDelay != time.Second {
		t.Errorf("close retry delay: got %v, want 1s", p.CloseRetryDelay)
	}
}
