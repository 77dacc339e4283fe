package cmd

import (
	"context"
	"log/slog"
	"os/signal"

	"github.com/spf13/cobra"

	mcpsrv "github.com/joescharf/discissue/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client generate issues from conversation text and
browse previously generated issues. Configure it with:

  {
    "mcpServers": {
      "discissue": { "command": "discissue", "args": ["mcp"] }
    }
  }

Available tools: discissue_generate_issue, discissue_list_issues,
discissue_get_issue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	gen, err := newGenerator(s, slog.Default())
	if err != nil {
		// Listing still works without a key.
		ui.Warning("%v", err)
		gen = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	return mcpsrv.NewServer(s, gen, buildVersion).ServeStdio(ctx)
}
