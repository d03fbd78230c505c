package dependency

import (
	"context"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/mcpchat/internal/config"
	toolcfg "github.com/crystaldolphin/mcpchat/internal/config/tool"
	"github.com/crystaldolphin/mcpchat/internal/demoserver"
	"github.com/crystaldolphin/mcpchat/internal/mcp"
	"github.com/crystaldolphin/mcpchat/internal/schema"
)

type stubProvider struct{ reply string }

func (p stubProvider) Chat(context.Context, schema.Messages, []map[string]any, schema.ChatOptions) (schema.LLMResponse, error) {
	reply := p.reply
	return schema.LLMResponse{Content: &reply}, nil
}

func (stubProvider) DefaultModel() string { return "stub" }

// demoTransport serves the demo server in-process for every name listed in
// inProcess and launches a real command for the rest.
func demoTransport(t *testing.T, inProcess ...string) mcp.TransportFunc {
	t.Helper()
	served := map[string]bool{}
	for _, n := range inProcess {
		served[n] = true
	}
	return func(name string, cfg toolcfg.MCPServerConfig) (sdk.Transport, error) {
		if !served[name] {
			return mcp.CommandTransport(name, cfg)
		}
		clientT, serverT := sdk.NewInMemoryTransports()
		ss, err := demoserver.New().Connect(context.Background(), serverT, nil)
		if err != nil {
			return nil, err
		}
		t.Cleanup(func() { _ = ss.Close() })
		return clientT, nil
	}
}

func testConfig(servers ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Assistant.ConnectTimeoutSeconds = 5
	for _, s := range servers {
		cfg.MCPServers[s] = toolcfg.MCPServerConfig{Command: s}
	}
	return &cfg
}

func TestNew_BuildsRegistryFromConnectedServers(t *testing.T) {
	cfg := testConfig("demo")

	c, err := New(context.Background(), cfg,
		WithProvider(stubProvider{reply: "hi"}),
		WithTransport(demoTransport(t, "demo")))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, c.Registry().Len())
	_, ok := c.Registry().Resolve("demo_get_today_sentence")
	assert.True(t, ok)
	assert.Len(t, c.Manager().Sessions(), 1)
	assert.NotNil(t, c.Assistant())
	assert.NotNil(t, c.Metrics().GetRegistry())
}

func TestNew_AssistantCallsThroughToServer(t *testing.T) {
	p := &toolPicker{tool: "demo_get_today_sentence"}
	c, err := New(context.Background(), testConfig("demo"),
		WithProvider(p),
		WithTransport(demoTransport(t, "demo")))
	require.NoError(t, err)
	defer c.Close()

	turn, err := c.Assistant().Respond(context.Background(), "what's today's sentence?")
	require.NoError(t, err)
	assert.Equal(t, demoserver.TodaySentence, turn.Result)
	assert.Contains(t, p.formatPrompt, demoserver.TodaySentence)
}

func TestNew_OneFailingServerIsSkipped(t *testing.T) {
	cfg := testConfig("demo")
	cfg.MCPServers["broken"] = toolcfg.MCPServerConfig{Command: "/nonexistent/mcpchat-test-server"}

	c, err := New(context.Background(), cfg,
		WithProvider(stubProvider{}),
		WithTransport(demoTransport(t, "demo")))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, c.Registry().Len())
	require.Len(t, c.Manager().Failures(), 1)
	assert.Equal(t, "broken", c.Manager().Failures()[0].Server)
}

func TestNew_NoServersIsFatal(t *testing.T) {
	_, err := New(context.Background(), testConfig(), WithProvider(stubProvider{}))
	assert.ErrorIs(t, err, ErrNoServers)
}

func TestNew_AllServersFailingIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.MCPServers["broken"] = toolcfg.MCPServerConfig{Command: "/nonexistent/mcpchat-test-server"}

	_, err := New(context.Background(), cfg, WithProvider(stubProvider{}))
	assert.ErrorIs(t, err, ErrNoServers)
}

func TestNew_AllowNoTools(t *testing.T) {
	cfg := testConfig()
	cfg.Assistant.AllowNoTools = true

	c, err := New(context.Background(), cfg, WithProvider(stubProvider{reply: "plain answer"}))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 0, c.Registry().Len())
	turn, err := c.Assistant().Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", turn.Reply)
}

func TestNew_MissingAPIKey(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY",
		"DEEPSEEK_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg := testConfig()
	cfg.Assistant.Model = "gpt-4o"
	cfg.Assistant.AllowNoTools = true

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestContainer_CloseIsIdempotent(t *testing.T) {
	c, err := New(context.Background(), testConfig("demo"),
		WithProvider(stubProvider{}),
		WithTransport(demoTransport(t, "demo")))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}

// toolPicker selects tool on the first call and records the prompt of the
// second one.
type toolPicker struct {
	tool         string
	calls        int
	formatPrompt string
}

func (p *toolPicker) Chat(_ context.Context, msgs schema.Messages, _ []map[string]any, _ schema.ChatOptions) (schema.LLMResponse, error) {
	p.calls++
	if p.calls == 1 {
		return schema.LLMResponse{ToolCalls: []schema.ToolCallRequest{{Name: p.tool, Arguments: map[string]any{}}}}, nil
	}
	p.formatPrompt = msgs.System()
	done := "done"
	return schema.LLMResponse{Content: &done}, nil
}

func (*toolPicker) DefaultModel() string { return "stub" }

func TestNewTools_NeedsNoProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := testConfig("demo")
	cfg.Assistant.Model = "gpt-4o"

	c, err := NewTools(context.Background(), cfg, WithTransport(demoTransport(t, "demo")))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Provider())
	assert.Nil(t, c.Assistant())
	assert.Equal(t, []string{"demo_get_today_sentence"}, c.Registry().Names())
	assert.False(t, cfg.Assistant.AllowNoTools)
}

func TestNewTools_ZeroServersIsNotFatal(t *testing.T) {
	c, err := NewTools(context.Background(), testConfig())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 0, c.Registry().Len())
}
