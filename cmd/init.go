package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/mcpchat/internal/config"
	"github.com/crystaldolphin/mcpchat/internal/config/tool"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config and .env template",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := envPath()
		return writeStarterFiles(cmd.OutOrStdout(), config.ConfigPath(flagConfig), path, initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
}

const envTemplate = `# mcpchat secrets. Set the key for the provider you use.
OPENAI_API_KEY=
# ANTHROPIC_API_KEY=
# OPENROUTER_API_KEY=
# DEEPSEEK_API_KEY=
# GROQ_API_KEY=
# GEMINI_API_KEY=
`

// writeStarterFiles writes a config that launches the bundled demo server
// and an .env template. An existing .env is never touched.
func writeStarterFiles(w io.Writer, cfgPath, envFile string, force bool) error {
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(w, "Config already exists at %s (use --force to overwrite)\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		cfg.MCPServers["demo"] = tool.MCPServerConfig{
			Command: selfPath(),
			Args:    []string{"demo-server"},
		}
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Created config at %s\n", cfgPath)
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		if err := os.WriteFile(envFile, []byte(envTemplate), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", envFile, err)
		}
		fmt.Fprintf(w, "✓ Created %s\n", envFile)
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Add your API key to %s\n", envFile)
	fmt.Fprintf(w, "  2. Add your MCP servers to %s\n", cfgPath)
	fmt.Fprintln(w, "  3. Chat: mcpchat")
	return nil
}

func selfPath() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return "mcpchat"
}
