package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/pilot"
	"github.com/mj1618/droid-cli/internal/server"
	"github.com/mj1618/droid-cli/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing droid-cli tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes droid-cli
commands as tools. The device sessions stay open for the life of the
server, so agents avoid the start-up cost of each command.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  droid-cli serve
  droid-cli serve --transport streamable-http --port 8080
  droid-cli serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "View tree cache TTL in milliseconds (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	scfg := server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
		Version:   version.Version,
	}

	// Tool calls carry their own contexts; the sessions live as long as
	// the server.
	ctx := context.Background()
	return withPilot(ctx, func(p *pilot.Pilot) error {
		srv := server.New(p, cfg.Device.Serial, scfg, clock.Real(), logger)
		return srv.Serve(scfg)
	})
}
