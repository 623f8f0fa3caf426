// Package mcp provides an MCP (Model Context Protocol) server for demes.
package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and provides demes-specific tools.
type Server struct {
	server *sdk.Server
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "demes")
	Version string // Server version
}

// NewServer creates a new MCP server with demes tools.
func NewServer(cfg *Config) (*Server, error) {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	s := &Server{server: mcpServer}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// registerTools registers all demes MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "demes_validate",
		Description: "Validate a demes demographic model given as YAML text or a file path",
	}, s.handleValidate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "demes_describe",
		Description: "Describe a demographic model: demes, epochs, pulses, and migrations",
	}, s.handleDescribe)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "demes_size",
		Description: "Evaluate a deme's population size at a backwards time",
	}, s.handleSize)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "demes_forward",
		Description: "Run a model forward in time and summarize the run",
	}, s.handleForward)
}
