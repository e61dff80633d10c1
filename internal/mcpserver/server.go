// Package mcpserver exposes the flow registry over MCP so agents and scripts
// can list flows, inspect their step order, validate answers and drive a flow
// to submission without the terminal host.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/service"
)

// HistorySource replays accepted submissions.
type HistorySource interface {
	History(ctx context.Context, flow string) ([]service.Record, error)
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address; empty picks a random local port.
	Addr string
	// Env is handed to every headless run.
	Env flows.Env
	// History backs the submission-history tool. Optional.
	History HistorySource
}

// Server manages an embedded MCP HTTP server exposing the flow tools.
type Server struct {
	registry   *flows.Registry
	opts       Options
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	stdServer  *http.Server
	port       int
	mu         sync.Mutex
}

// New creates a server over registry. It is not started until Start is
// called.
func New(registry *flows.Registry, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	s := &Server{registry: registry, opts: opts}
	s.mcpServer = server.NewMCPServer(
		"stepguard-flows",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("flow-list",
			mcp.WithDescription("List the available flows with their kind and step order"),
		),
		s.handleFlowList,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("flow-steps",
			mcp.WithDescription("Show the navigable steps of a flow, their fields and which steps need identity verification"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Flow id, e.g. enrollment")),
		),
		s.handleFlowSteps,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("flow-check",
			mcp.WithDescription("Validate answers against every step of a flow without submitting"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Flow id")),
			mcp.WithObject("answers", mcp.Required(), mcp.Description("Field values keyed by step id, then field key")),
		),
		s.handleFlowCheck,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("flow-submit",
			mcp.WithDescription("Walk a flow from its first step to submission with the given answers. "+
				"Verification steps take a 'code' and optional 'method' (text or email)."),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Flow id")),
			mcp.WithObject("answers", mcp.Required(), mcp.Description("Field values keyed by step id, then field key")),
		),
		s.handleFlowSubmit,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("submission-history",
			mcp.WithDescription("List accepted submissions, oldest first"),
			mcp.WithString("flow", mcp.Description("Only this flow's submissions")),
		),
		s.handleHistory,
	)
}

// Start starts the MCP HTTP server. It returns the bound port.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mcpHandler := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)
	mux.Handle("/mcp", mcpHandler)

	s.stdServer = &http.Server{Handler: mux}
	s.httpServer = mcpHandler

	// Capture stdServer so Stop cannot race the goroutine.
	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop stops the MCP HTTP server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}

	logger.Debug("Stopping MCP server")
	if err := s.stdServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.stdServer = nil
	return nil
}

// URL returns the HTTP URL for the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
