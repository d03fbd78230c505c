package assistant

import "fmt"

const selectionPrompt = "Analyze the user's request and *all* available tools (functions). " +
	"Select the *most relevant* tool based on the specific intent. " +
	"If multiple tools seem applicable, choose the one that best fits the context. " +
	"Ensure your choice is the most appropriate. " +
	"If no tool fits the request, answer without calling one."

func formatPrompt(input, tool, result string, failed bool) string {
	if failed {
		return fmt.Sprintf("User asked: '%s'. Tool '%s' reported an error: %s. "+
			"Explain the problem to the user in a friendly way.", input, tool, result)
	}
	return fmt.Sprintf("User asked: '%s'. Tool '%s' returned: %s. Respond with a friendly answer.",
		input, tool, result)
}
