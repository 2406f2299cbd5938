// Package config loads droid-cli configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or the DROID_CLI_CONFIG environment variable. Without either, Default
// is used. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/pilot"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "DROID_CLI_CONFIG"

// Config is the complete droid-cli configuration.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	ViewServer ViewServerConfig `yaml:"view_server"`
	Monkey     MonkeyConfig     `yaml:"monkey"`
	Wait       WaitConfig       `yaml:"wait"`
}

// DeviceConfig selects the device and how to reach it.
type DeviceConfig struct {
	// Serial is passed to adb -s.
	Serial string `yaml:"serial"`

	// Address is the host the forwarded ports listen on.
	Address string `yaml:"address"`

	// ADB is the adb binary. Empty means $ANDROID_HOME/platform-tools/adb,
	// then adb on PATH.
	ADB string `yaml:"adb"`
}

// ViewServerConfig configures the view server session.
type ViewServerConfig struct {
	LocalPort  int           `yaml:"local_port"`
	RemotePort int           `yaml:"remote_port"`
	Settle     time.Duration `yaml:"settle"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MonkeyConfig configures the monkey session.
type MonkeyConfig struct {
	Port              int           `yaml:"port"`
	MaxAttempts       int           `yaml:"max_attempts"`
	StartDelay        time.Duration `yaml:"start_delay"`
	ProcessCheckDelay time.Duration `yaml:"process_check_delay"`
	Timeout           time.Duration `yaml:"timeout"`
	DragSteps         int           `yaml:"drag_steps"`
	DragDuration      time.Duration `yaml:"drag_duration"`
}

// WaitConfig holds the defaults for wait operations.
type WaitConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns a fresh configuration for a local emulator.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Serial:  "emulator-5554",
			Address: "127.0.0.1",
		},
		ViewServer: ViewServerConfig{
			LocalPort:  4939,
			RemotePort: 4939,
			Settle:     500 * time.Millisecond,
			Timeout:    10 * time.Second,
		},
		Monkey: MonkeyConfig{
			Port:              12345,
			MaxAttempts:       3,
			StartDelay:        3 * time.Second,
			ProcessCheckDelay: time.Second,
			Timeout:           10 * time.Second,
			DragSteps:         10,
			DragDuration:      500 * time.Millisecond,
		},
		Wait: WaitConfig{
			Timeout:  120 * time.Second,
			Interval: 500 * time.Millisecond,
		},
	}
}

// Load loads the file at path, or the file named by DROID_CLI_CONFIG when
// path is empty. With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML file over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Address == "" {
		errs = append(errs, errors.New("device.address is required"))
	}
	for name, port := range map[string]int{
		"view_server.local_port":  c.ViewServer.LocalPort,
		"view_server.remote_port": c.ViewServer.RemotePort,
		"monkey.port":             c.Monkey.Port,
	} {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", name, port))
		}
	}
	if c.Monkey.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("monkey.max_attempts must be positive, got %d", c.Monkey.MaxAttempts))
	}
	if c.Monkey.DragSteps <= 0 {
		errs = append(errs, fmt.Errorf("monkey.drag_steps must be positive, got %d", c.Monkey.DragSteps))
	}
	if c.Wait.Interval <= 0 {
		errs = append(errs, fmt.Errorf("wait.interval must be positive, got %s", c.Wait.Interval))
	}
	if c.Wait.Timeout < 0 {
		errs = append(errs, fmt.Errorf("wait.timeout must not be negative, got %s", c.Wait.Timeout))
	}

	return errors.Join(errs...)
}

// MonkeyOptions returns the session options for the monkey.
func (c *Config) MonkeyOptions() device.MonkeyOptions {
	return device.MonkeyOptions{
		Address:           c.Device.Address,
		Port:              c.Monkey.Port,
		MaxAttempts:       c.Monkey.MaxAttempts,
		ProcessCheckDelay: c.Monkey.ProcessCheckDelay,
		StartDelay:        c.Monkey.StartDelay,
		Timeout:           c.Monkey.Timeout,
		DragSteps:         c.Monkey.DragSteps,
		DragDuration:      c.Monkey.DragDuration,
	}
}

// ViewServerOptions returns the session options for the view server.
func (c *Config) ViewServerOptions() device.ViewServerOptions {
	return device.ViewServerOptions{
		Address:    c.Device.Address,
		LocalPort:  c.ViewServer.LocalPort,
		RemotePort: c.ViewServer.RemotePort,
		Settle:     c.ViewServer.Settle,
		Timeout:    c.ViewServer.Timeout,
	}
}

// PilotOptions returns the wait timing for the pilot.
func (c *Config) PilotOptions() pilot.Options {
	opts := pilot.DefaultOptions()
	opts.WaitTimeout = c.Wait.Timeout
	opts.WaitInterval = c.Wait.Interval
	return opts
}
