package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/mcpchat/internal/config"
	toolcfg "github.com/crystaldolphin/mcpchat/internal/config/tool"
	"github.com/crystaldolphin/mcpchat/internal/demoserver"
	"github.com/crystaldolphin/mcpchat/internal/dependency"
	"github.com/crystaldolphin/mcpchat/internal/schema"
)

type echoProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *echoProvider) Chat(context.Context, schema.Messages, []map[string]any, schema.ChatOptions) (schema.LLMResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	reply := "hello back"
	return schema.LLMResponse{Content: &reply, FinishReason: "stop"}, nil
}

func (*echoProvider) DefaultModel() string { return "stub" }

// countingSession records how often the chat closes the container.
type countingSession struct {
	*dependency.Container
	closes atomic.Int32
}

func (s *countingSession) Close() error {
	s.closes.Add(1)
	return s.Container.Close()
}

func TestChat_ExitClosesSessionOnce(t *testing.T) {
	var ended atomic.Int32
	transport := func(string, toolcfg.MCPServerConfig) (sdk.Transport, error) {
		clientT, serverT := sdk.NewInMemoryTransports()
		ss, err := demoserver.New().Connect(context.Background(), serverT, nil)
		if err != nil {
			return nil, err
		}
		go func() {
			_ = ss.Wait()
			ended.Add(1)
		}()
		return clientT, nil
	}

	cfg := config.DefaultConfig()
	cfg.Assistant.ConnectTimeoutSeconds = 5
	cfg.MCPServers["demo"] = toolcfg.MCPServerConfig{Command: "demo"}

	p := &echoProvider{}
	c, err := dependency.New(context.Background(), &cfg,
		dependency.WithProvider(p),
		dependency.WithTransport(transport))
	require.NoError(t, err)
	require.Len(t, c.Manager().Sessions(), 1)
	assert.Zero(t, ended.Load())

	s := &countingSession{Container: c}
	var out bytes.Buffer
	err = chat(context.Background(), s, strings.NewReader("hello\nexit\nnever read\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Assistant: hello back")
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
	assert.NotContains(t, out.String(), "never read")
	p.mu.Lock()
	assert.Equal(t, 2, p.calls, "one select and one format call")
	p.mu.Unlock()

	assert.EqualValues(t, 1, s.closes.Load())
	assert.Empty(t, c.Manager().Sessions())
	assert.Eventually(t, func() bool { return ended.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	// A later close is a no-op and the server sees no second disconnect.
	require.NoError(t, c.Close())
	assert.EqualValues(t, 1, ended.Load())
}
