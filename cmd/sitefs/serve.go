package main

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [ROOT]",
		Short: "Serve the file operations as MCP tools over stdio",
		Long: `serve runs a Model Context Protocol (MCP) server on stdin and stdout.
Every tool takes paths relative to ROOT (default: the current directory)
and refuses paths that resolve outside it.`,
		Example: "sitefs serve ./site",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServer(cmd, args)
		},
	}
}

func (a *app) runServer(cmd *cobra.Command, args []string) error {
	var root string
	if len(args) > 0 {
		root = args[0]
	} else {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	server := newServer(&handlers{svc: a.service(root)})
	a.logger.Verbose("serving %s over stdio", root)

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}

func newServer(h *handlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sitefs",
		Version: version,
	}, nil)
	registerTools(server, h)
	return server
}
