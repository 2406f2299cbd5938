package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/droid-cli/internal/adb"
	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/pilot"
)

func adbClient() *adb.Client {
	return adb.New(cfg.Device.ADB, cfg.Device.Serial, clock.Real(), logger)
}

// withViews opens a view server session for the duration of fn. The
// service is stopped even when ctx has been cancelled.
func withViews(ctx context.Context, fn func(*device.ViewServer) error) error {
	vs := device.NewViewServer(adbClient(), cfg.ViewServerOptions(), clock.Real(), logger)
	if err := vs.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := vs.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to stop view server", "error", err)
		}
	}()
	return fn(vs)
}

// withMonkey opens a monkey session for the duration of fn.
func withMonkey(ctx context.Context, fn func(*device.Monkey) error) error {
	m := device.NewMonkey(adbClient(), cfg.MonkeyOptions(), clock.Real(), logger)
	if err := m.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("failed to close monkey", "error", err)
		}
	}()
	return fn(m)
}

// withPilot opens both sessions behind a pilot for the duration of fn.
func withPilot(ctx context.Context, fn func(*pilot.Pilot) error) error {
	client := adbClient()
	clk := clock.Real()
	p := pilot.New(
		device.NewViewServer(client, cfg.ViewServerOptions(), clk, logger),
		device.NewMonkey(client, cfg.MonkeyOptions(), clk, logger),
		client,
		cfg.PilotOptions(),
		clk,
		logger,
	)
	if err := p.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := p.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close device sessions", "error", err)
		}
	}()
	return fn(p)
}

// elapsed formats the time since start the way every command reports it.
func elapsed(start time.Time) string {
	return fmt.Sprintf("%.1fs", time.Since(start).Seconds())
}

// secondsFlag converts a whole-seconds flag value; zero or less means the
// configured default.
func secondsFlag(sec int) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
