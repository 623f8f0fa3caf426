package main

import (
	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run the MCP (Model Context Protocol) server over stdio.

The server exposes demes tools to MCP clients: model validation,
description, size queries, and forward-run summaries. It blocks until
the client disconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcp.NewServer(&mcp.Config{
				Name:    "demes",
				Version: version,
			})
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}
