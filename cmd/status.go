package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/mcpchat/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mcpchat configuration status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := config.ConfigPath(flagConfig)
	env, required := envPath()

	fmt.Fprintf(out, "mcpchat %s status\n\n", version)
	fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, mark(cfgPath))
	fmt.Fprintf(out, "Env file:  %s %s\n", env, mark(env))

	if _, err := config.LoadSecrets(env, required); err != nil {
		fmt.Fprintf(out, "  (could not load env file: %v)\n", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(out, "  (could not load config: %v)\n", err)
		return nil
	}
	applyOverrides(cfg)

	match := cfg.MatchProvider("")
	fmt.Fprintf(out, "Model:     %s\n", cfg.Assistant.Model)
	keyMark := "✗ (no API key)"
	switch {
	case match.Spec != nil && match.Spec.IsLocal:
		keyMark = "✓ " + match.APIBase()
	case match.APIKey() != "":
		keyMark = "✓"
	case cfg.ProviderByName(match.Name) != nil && match.Spec != nil && match.Spec.EnvKey == "":
		keyMark = "✓ (configured)"
	}
	label := match.Name
	if match.Spec != nil {
		label = match.Spec.Label()
	}
	fmt.Fprintf(out, "Provider:  %s %s\n\n", label, keyMark)

	fmt.Fprintf(out, "MCP servers (%d):\n", len(cfg.MCPServers))
	for _, name := range cfg.ServerNames() {
		s := cfg.MCPServers[name]
		fmt.Fprintf(out, "  %-20s %s %v\n", name, s.Command, s.Args)
	}
	for _, r := range cfg.Rejected {
		fmt.Fprintf(out, "  %-20s ✗ %s\n", r.Name, r.Reason)
	}
	if cfg.Assistant.AllowNoTools {
		fmt.Fprintln(out, "\nTool-less chat is allowed when no server connects.")
	}
	return nil
}

func mark(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "✓"
	}
	return "✗"
}
