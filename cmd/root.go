// Package cmd implements the mcpchat CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	flagConfig       string
	flagEnvFile      string
	flagModel        string
	flagProvider     string
	flagAllowNoTools bool
	flagLogs         bool
	flagMetricsAddr  string
)

// rootCmd is the base command. Run with no subcommand it starts the chat.
var rootCmd = &cobra.Command{
	Use:   "mcpchat",
	Short: "Chat with an LLM that can call tools on MCP servers",
	Long: "mcpchat launches the MCP servers listed in its config, gathers their tools and\n" +
		"lets an LLM pick the right one for each thing you type.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		setupLogging(flagLogs)
	},
	RunE: runChat,
}

// Execute runs the root command and exits on error. Cobra is silenced so
// the error is printed once, here.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Server registry file (default mcp_config.json)")
	pf.StringVar(&flagEnvFile, "env-file", "", "Secrets file (default .env, optional)")
	pf.StringVarP(&flagModel, "model", "m", "", "LLM model, overrides assistant.model")
	pf.StringVar(&flagProvider, "provider", "", "LLM provider name, overrides assistant.provider")
	pf.BoolVar(&flagLogs, "logs", false, "Show debug logs on stderr")

	rootCmd.Flags().BoolVar(&flagAllowNoTools, "allow-no-tools", false, "Keep chatting when no MCP server connects")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(demoServerCmd)
}

// setupLogging sends structured logs to stderr so they never mix with the
// conversation on stdout.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
