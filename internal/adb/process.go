package adb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
)

// terminateGrace is how long Terminate waits after SIGTERM before killing.
const terminateGrace = 2 * time.Second

type process struct {
	cmd   *exec.Cmd
	clock clock.Clock
	done  chan struct{}
	err   error
}

// StartService runs "adb shell argv..." in the background. The process
// outlives ctx; stop it with Terminate.
func (c *Client) StartService(ctx context.Context, argv ...string) (device.Process, error) {
	cmd := c.command(context.WithoutCancel(ctx), append([]string{"shell"}, argv...)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("adb shell %v: %w", argv, err)
	}
	c.logger.Debug("service started", "argv", argv, "pid", cmd.Process.Pid)

	p := &process{cmd: cmd, clock: c.clock, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *process) Terminate() error {
	if p.Exited() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return err
	}
	select {
	case <-p.done:
		return nil
	case <-p.clock.After(terminateGrace):
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
