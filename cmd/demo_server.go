package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/mcpchat/internal/demoserver"
)

var demoServerCmd = &cobra.Command{
	Use:   "demo-server",
	Short: "Run the bundled demo MCP server on stdio",
	Long: "Runs a small MCP server with one tool (get_today_sentence) and one resource\n" +
		"template (greeting://{name}). It is meant to be launched by mcpchat itself.",
	RunE: func(*cobra.Command, []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return demoserver.Run(ctx)
	},
}
