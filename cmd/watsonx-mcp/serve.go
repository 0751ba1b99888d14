package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/mcp"
)

// serveCmd runs the MCP server on stdio.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Serve the Model Context Protocol over stdin/stdout. Clients list and
invoke the generate_text, list_models and embed_text tools; all logging
goes to stderr so the protocol stream stays clean.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		return mcp.NewServer(client).Run(ctx, os.Stdin, os.Stdout)
	},
}
