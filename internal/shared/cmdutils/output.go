package cmdutils

import (
	"fmt"
	"io"
)

const (
	PromptPrefix = "You: "
	ReplyPrefix  = "Assistant: "
)

func PrintPrompt(w io.Writer) {
	fmt.Fprint(w, PromptPrefix)
}

func PrintReply(w io.Writer, text string) {
	fmt.Fprintf(w, "%s%s\n", ReplyPrefix, text)
}

// PrintError reports a turn-level failure on the console, not the log.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}
