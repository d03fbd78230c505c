package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/crystaldolphin/mcpchat/internal/shared/cmdutils"
)

const banner = "Type 'exit' or 'quit' to stop."

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// IsExitCommand reports whether line asks to end the session.
func IsExitCommand(line string) bool {
	return exitCommands[strings.ToLower(strings.TrimSpace(line))]
}

// Responder answers one user message.
type Responder interface {
	Respond(ctx context.Context, input string) (*Turn, error)
}

// Run reads lines from in and answers each on out until an exit command,
// end of input or ctx cancellation. A failing turn is reported and the loop
// continues. Run returns nil on every clean exit.
func Run(ctx context.Context, r Responder, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go scanLines(ctx, in, lines, readErr)

	fmt.Fprintln(out, banner)
	for {
		cmdutils.PrintPrompt(out)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case err := <-readErr:
			fmt.Fprintln(out, "\nGoodbye!")
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsExitCommand(line) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		turn, err := r.Respond(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			slog.Warn("Turn failed", "turn", turnID(turn), "err", err)
			cmdutils.PrintError(out, err)
			continue
		}
		cmdutils.PrintReply(out, turn.Reply)
	}
}

// scanLines feeds lines until EOF, then reports the scanner error (nil on
// EOF). It stops early when ctx is done.
func scanLines(ctx context.Context, in io.Reader, lines chan<- string, done chan<- error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	done <- scanner.Err()
}

func turnID(t *Turn) string {
	if t == nil {
		return ""
	}
	return t.ID
}
