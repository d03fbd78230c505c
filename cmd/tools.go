package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/mcpchat/internal/dependency"
	"github.com/crystaldolphin/mcpchat/internal/mcp"
	"github.com/crystaldolphin/mcpchat/internal/shared/llmutils"
	"github.com/crystaldolphin/mcpchat/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Connect to every configured server and list its tools",
	RunE:  runTools,
}

func runTools(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.NewTools(ctx, cfg, dependency.WithVersion(version))
	if err != nil {
		return err
	}
	defer container.Close()

	out := cmd.OutOrStdout()
	printRegistry(out, container.Registry())
	printFailures(out, container.Manager().Failures())
	for _, r := range cfg.Rejected {
		fmt.Fprintf(out, "  ✗ %-20s skipped: %s\n", r.Name, r.Reason)
	}
	return nil
}

func printRegistry(w io.Writer, reg *tools.Registry) {
	fmt.Fprintf(w, "%d tools\n\n", reg.Len())
	for _, t := range reg.Describe() {
		server := ""
		if owned, ok := t.(interface{ Server() string }); ok {
			server = owned.Server()
		}
		fmt.Fprintf(w, "%s  [%s]\n", t.Name(), server)
		if d := strings.TrimSpace(t.Description()); d != "" {
			fmt.Fprintf(w, "    %s\n", llmutils.Truncate(firstLine(d), 100))
		}
		if params := paramSummary(t.Parameters()); params != "" {
			fmt.Fprintf(w, "    params: %s\n", params)
		}
	}
}

func printFailures(w io.Writer, failures []*mcp.ConnectionError) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nUnavailable servers:")
	for _, f := range failures {
		fmt.Fprintf(w, "  ✗ %-20s %v\n", f.Server, f.Err)
	}
}

// paramSummary lists property names, marking required ones with "*".
func paramSummary(raw json.RawMessage) string {
	var s struct {
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		if required[name] {
			name += "*"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
