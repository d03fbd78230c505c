package llmutils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n characters, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return strings.TrimSpace(reThink.ReplaceAllString(s, ""))
}

// ToolHint generates a short hint string for a tool call, e.g. `weather_forecast("London")`.
func ToolHint(tc schema.ToolCallRequest) string {
	var firstVal string
	for _, v := range tc.Arguments {
		if s, ok := v.(string); ok {
			firstVal = s
		}
		break
	}
	if firstVal == "" {
		return tc.Name
	}
	if len(firstVal) > 40 {
		firstVal = firstVal[:40] + "…"
	}
	return fmt.Sprintf("%s(%q)", tc.Name, firstVal)
}

// ArgsForLog renders tool arguments as compact JSON for a log line.
func ArgsForLog(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return Truncate(string(b), 200)
}
