// Package server exposes a pilot as Model Context Protocol tools so
// agents can inspect and drive a device without shelling out.
package server

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/pilot"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	Version   string
}

// Server wraps the MCP server with the pilot and tree cache.
type Server struct {
	pilot  *pilot.Pilot
	serial string
	cache  *TreeCache
	clock  clock.Clock
	logger *slog.Logger

	// pilotMu serializes tool calls; the device sessions take one
	// command at a time.
	pilotMu sync.Mutex
	mcp     *mcpserver.MCPServer
}

// New creates and configures an MCP server with all droid-cli tools.
func New(p *pilot.Pilot, serial string, cfg Config, clk clock.Clock, logger *slog.Logger) *Server {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		pilot:  p,
		serial: serial,
		cache:  NewTreeCache(cfg.CacheTTL, clk),
		clock:  clk,
		logger: logger,
	}
	s.mcp = mcpserver.NewMCPServer("droid-cli", version)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport. It blocks
// until the transport shuts down.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		s.logger.Info("serving MCP over streamable-http", "port", cfg.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("dump",
			mcp.WithDescription("Dump the view tree of every window, or of one window by hash. Elements carry hash, class, id, text and absolute bounds [x, y, w, h]."),
			mcp.WithString("window", mcp.Description("Window hash from list (default: all windows)")),
			mcp.WithBoolean("flat", mcp.Description("Return a flat list with path breadcrumbs instead of a tree")),
			mcp.WithBoolean("shown-only", mcp.Description("Drop views that are not shown")),
			mcp.WithString("text", mcp.Description("Keep only views whose text or id contains this (and their ancestors)")),
		),
		s.handleDump,
	)

	s.mcp.AddTool(
		mcp.NewTool("list",
			mcp.WithDescription("List the windows known to the window manager as hash/class pairs"),
		),
		s.handleList,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus",
			mcp.WithDescription("Report the focused activity"),
		),
		s.handleFocus,
	)

	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Find shown views by text or id"),
			mcp.WithString("text", mcp.Description("Text or id to search for"), mcp.Required()),
			mcp.WithBoolean("exact", mcp.Description("Require the whole text or id to match")),
		),
		s.handleFind,
	)

	s.mcp.AddTool(
		mcp.NewTool("tap",
			mcp.WithDescription("Tap a view by id or text, or screen coordinates"),
			mcp.WithString("id", mcp.Description("View id without the 'id/' prefix")),
			mcp.WithString("text", mcp.Description("View text")),
			mcp.WithBoolean("exact", mcp.Description("Require exact text match")),
			mcp.WithNumber("x", mcp.Description("Tap at X coordinate")),
			mcp.WithNumber("y", mcp.Description("Tap at Y coordinate")),
		),
		s.handleTap,
	)

	s.mcp.AddTool(
		mcp.NewTool("drag",
			mcp.WithDescription("Drag between two screen points"),
			mcp.WithString("from", mcp.Description("Start point 'x,y'"), mcp.Required()),
			mcp.WithString("to", mcp.Description("End point 'x,y'"), mcp.Required()),
			mcp.WithNumber("steps", mcp.Description("Intermediate move events (default: 10)")),
			mcp.WithNumber("duration", mcp.Description("Total duration in ms (default: 500)")),
		),
		s.handleDrag,
	)

	s.mcp.AddTool(
		mcp.NewTool("swipe",
			mcp.WithDescription("Swipe across the whole screen"),
			mcp.WithString("direction", mcp.Description("left, right, up or down"), mcp.Required()),
		),
		s.handleSwipe,
	)

	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Type text into the focused input"),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
		),
		s.handleType,
	)

	s.mcp.AddTool(
		mcp.NewTool("press",
			mcp.WithDescription("Press a named key (home, back, menu, enter, ...)"),
			mcp.WithString("key", mcp.Description("Key name"), mcp.Required()),
		),
		s.handlePress,
	)

	s.mcp.AddTool(
		mcp.NewTool("getvar",
			mcp.WithDescription("Read a monkey variable such as display.width or build.version.sdk"),
			mcp.WithString("name", mcp.Description("Variable name"), mcp.Required()),
		),
		s.handleGetVar,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait for a view or activity to appear (or disappear with gone)"),
			mcp.WithString("for-text", mcp.Description("Wait for a shown view containing this text")),
			mcp.WithString("for-id", mcp.Description("Wait for a shown view with this id")),
			mcp.WithString("for-activity", mcp.Description("Wait for this activity to be focused")),
			mcp.WithBoolean("gone", mcp.Description("Wait until the view is NO LONGER shown")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: 30)")),
		),
		s.handleWait,
	)

	s.mcp.AddTool(
		mcp.NewTool("notifications",
			mcp.WithDescription("List the notifications in the status bar"),
		),
		s.handleNotifications,
	)

	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture the device screen as PNG"),
		),
		s.handleScreenshot,
	)
}
