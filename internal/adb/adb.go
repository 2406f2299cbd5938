// Package adb runs the Android Debug Bridge to control a single device.
// Client implements device.Transport.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
)

var _ device.Transport = (*Client)(nil)

// proxyVars are removed from the adb environment; an adb server started
// with a proxy configured cannot reach local emulators.
var proxyVars = []string{"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "all_proxy", "no_proxy"}

// DefaultPath returns $ANDROID_HOME/platform-tools/adb when ANDROID_HOME
// is set and "adb" otherwise.
func DefaultPath() string {
	if home := os.Getenv("ANDROID_HOME"); home != "" {
		return filepath.Join(home, "platform-tools", "adb")
	}
	return "adb"
}

// Client runs adb commands against one device.
type Client struct {
	path   string
	serial string
	clock  clock.Clock
	logger *slog.Logger
}

// New returns a Client. An empty path uses DefaultPath; an empty serial
// lets adb pick the only attached device. clk times the grace period
// of Terminate on started services.
func New(path, serial string, clk clock.Clock, logger *slog.Logger) *Client {
	if path == "" {
		path = DefaultPath()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{path: path, serial: serial, clock: clk, logger: logger}
}

// Serial returns the device serial the client targets.
func (c *Client) Serial() string { return c.serial }

// args prepends the -s flag when a serial is set.
func (c *Client) args(args ...string) []string {
	if c.serial == "" {
		return args
	}
	return append([]string{"-s", c.serial}, args...)
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.path, c.args(args...)...)
	env := os.Environ()
	clean := make([]string, 0, len(env))
	for _, e := range env {
		if !isProxyVar(e) {
			clean = append(clean, e)
		}
	}
	cmd.Env = clean
	return cmd
}

func isProxyVar(entry string) bool {
	for _, v := range proxyVars {
		if strings.HasPrefix(entry, v+"=") {
			return true
		}
	}
	return false
}

// Run executes adb with args and returns stdout.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	out, err := c.run(ctx, args...)
	return string(out), err
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("running adb", "args", args)
	cmd := c.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("adb %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Shell runs a command on the device and returns its stdout.
func (c *Client) Shell(ctx context.Context, argv ...string) (string, error) {
	return c.Run(ctx, append([]string{"shell"}, argv...)...)
}

// ForwardPort forwards host port local to device port remote.
func (c *Client) ForwardPort(ctx context.Context, local, remote int) error {
	_, err := c.run(ctx, "forward", "tcp:"+strconv.Itoa(local), "tcp:"+strconv.Itoa(remote))
	return err
}

// Install installs or reinstalls an APK.
func (c *Client) Install(ctx context.Context, apk string) error {
	out, err := c.Run(ctx, "install", "-r", apk)
	if err != nil {
		return err
	}
	if strings.Contains(out, "Failure") {
		return fmt.Errorf("adb install %s: %s", apk, strings.TrimSpace(out))
	}
	c.logger.Info("package installed", "apk", apk)
	return nil
}

// Push copies a local file to the device.
func (c *Client) Push(ctx context.Context, src, dst string) error {
	_, err := c.run(ctx, "push", src, dst)
	return err
}

// Pull copies a device file to the host.
func (c *Client) Pull(ctx context.Context, src, dst string) error {
	_, err := c.run(ctx, "pull", src, dst)
	return err
}

// Screencap returns a PNG of the current screen.
func (c *Client) Screencap(ctx context.Context) ([]byte, error) {
	return c.run(ctx, "exec-out", "screencap", "-p")
}

// StartActivity starts pkg/activity and waits for it to launch.
func (c *Client) StartActivity(ctx context.Context, pkg, activity string) error {
	component := pkg + "/" + activity
	out, err := c.Shell(ctx, "am", "start", "-W", "-n", component)
	if err != nil {
		return err
	}
	if !strings.Contains(out, "Complete") {
		return fmt.Errorf("activity %s not started: %s", component, strings.TrimSpace(out))
	}
	c.logger.Debug("activity started", "component", component)
	return nil
}

// logcatSilenced are tags too chatty to be useful in a test log.
var logcatSilenced = []string{"Choreographer:S", "WindowManager:S", "MonkeyStub:S", "ViewServer:S", "dalvikvm:S"}

// Logcat returns the current device log in brief format.
func (c *Client) Logcat(ctx context.Context) (string, error) {
	args := append([]string{"logcat", "-d", "-v", "brief"}, logcatSilenced...)
	return c.Run(ctx, args...)
}
