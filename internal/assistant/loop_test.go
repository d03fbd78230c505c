package assistant

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResponder replies "re: <input>" and fails on inputs listed in failOn.
type fakeResponder struct {
	inputs []string
	failOn map[string]bool
}

func (f *fakeResponder) Respond(_ context.Context, input string) (*Turn, error) {
	f.inputs = append(f.inputs, input)
	turn := &Turn{ID: "abcd1234", Input: input}
	if f.failOn[input] {
		return turn, &ToolCallError{Tool: "srv_echo", Err: errors.New("broken pipe")}
	}
	turn.Reply = "re: " + input
	return turn, nil
}

func runLoop(t *testing.T, r Responder, input string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), r, strings.NewReader(input), &out))
	return out.String()
}

func TestRun_ExitKeywordStopsProcessing(t *testing.T) {
	r := &fakeResponder{}
	out := runLoop(t, r, "hello\nQUIT\nnever seen\n")

	assert.Equal(t, []string{"hello"}, r.inputs)
	assert.True(t, strings.HasPrefix(out, banner+"\n"))
	assert.Contains(t, out, "You: Assistant: re: hello\n")
	assert.NotContains(t, out, "never seen")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestRun_EndOfInput(t *testing.T) {
	r := &fakeResponder{}
	out := runLoop(t, r, "one\ntwo")

	assert.Equal(t, []string{"one", "two"}, r.inputs)
	assert.Contains(t, out, "Assistant: re: two\n")
}

func TestRun_SkipsBlankLines(t *testing.T) {
	r := &fakeResponder{}
	runLoop(t, r, "\n   \nhi\n\n")

	assert.Equal(t, []string{"hi"}, r.inputs)
}

func TestRun_FailedTurnDoesNotStopLoop(t *testing.T) {
	r := &fakeResponder{failOn: map[string]bool{"bad": true}}
	out := runLoop(t, r, "bad\ngood\nexit\n")

	assert.Equal(t, []string{"bad", "good"}, r.inputs)
	assert.Contains(t, out, `Error: tool "srv_echo" failed: broken pipe`)
	assert.Contains(t, out, "Assistant: re: good\n")
}

func TestRun_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := &fakeResponder{}
	go func() { done <- Run(ctx, r, pr, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	assert.Empty(t, r.inputs)
}

func TestIsExitCommand(t *testing.T) {
	for _, in := range []string{"exit", "quit", "EXIT", " Quit ", "/exit", "/quit", ":q"} {
		assert.True(t, IsExitCommand(in), in)
	}
	for _, in := range []string{"", "exiting", "q", "please quit"} {
		assert.False(t, IsExitCommand(in), in)
	}
}
