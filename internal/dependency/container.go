// Package dependency wires core mcpchat services using go.uber.org/dig.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/dig"

	"github.com/crystaldolphin/mcpchat/internal/assistant"
	"github.com/crystaldolphin/mcpchat/internal/config"
	"github.com/crystaldolphin/mcpchat/internal/mcp"
	"github.com/crystaldolphin/mcpchat/internal/metrics"
	"github.com/crystaldolphin/mcpchat/internal/providers"
	"github.com/crystaldolphin/mcpchat/internal/schema"
	"github.com/crystaldolphin/mcpchat/internal/tools"
)

// ErrNoServers is returned by New when no MCP server connected and the
// configuration does not allow a tool-less chat.
var ErrNoServers = errors.New("no MCP server connected")

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	provider  schema.LLMProvider
	manager   *mcp.Manager
	registry  *tools.Registry
	metrics   metrics.Metrics
	assistant *assistant.Assistant
}

func (c *Container) Provider() schema.LLMProvider    { return c.provider }
func (c *Container) Manager() *mcp.Manager           { return c.manager }
func (c *Container) Registry() *tools.Registry       { return c.registry }
func (c *Container) Metrics() metrics.Metrics        { return c.metrics }
func (c *Container) Assistant() *assistant.Assistant { return c.assistant }

// Close shuts down every MCP session. Safe to call more than once.
func (c *Container) Close() error {
	if c == nil || c.manager == nil {
		return nil
	}
	return c.manager.Close()
}

// Option customises New. Tests use it to swap the LLM and the transport.
type Option func(*options)

type options struct {
	version   string
	provider  schema.LLMProvider
	transport mcp.TransportFunc
}

// WithVersion sets the client version reported to servers and metrics.
func WithVersion(v string) Option { return func(o *options) { o.version = v } }

// WithProvider uses p instead of building one from the configuration.
func WithProvider(p schema.LLMProvider) Option { return func(o *options) { o.provider = p } }

// WithTransport replaces the subprocess transport used to reach servers.
func WithTransport(f mcp.TransportFunc) Option { return func(o *options) { o.transport = f } }

// startup carries the context used while bringing services up, so dig can
// inject it without confusing it with other values.
type startup struct{ ctx context.Context }

// New builds and wires all core services from cfg. It connects to every
// configured MCP server before returning. On error any session that did
// come up is already closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	return build(ctx, cfg, true, opts)
}

// NewTools connects the servers and builds the tool registry without an
// LLM provider. Zero connected servers is not an error here.
func NewTools(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	toolsOnly := *cfg
	toolsOnly.Assistant.AllowNoTools = true
	return build(ctx, &toolsOnly, false, opts)
}

func build(ctx context.Context, cfg *config.Config, withAssistant bool, opts []Option) (*Container, error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	d := dig.New()
	var manager *mcp.Manager

	provides := []any{
		func() *config.Config { return cfg },
		func() startup { return startup{ctx: ctx} },
		func() options { return o },
		newProvider,
		newMetrics,
		func(cfg *config.Config, o options) *mcp.Manager {
			manager = newManager(cfg, o)
			return manager
		},
		newToolRegistry,
		newAssistant,
	}
	for _, p := range provides {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	// dig builds lazily: the provider is resolved first so a missing API
	// key fails before any server is started, and not at all for NewTools.
	result := &Container{}
	var err error
	if withAssistant {
		err = d.Invoke(func(p schema.LLMProvider) { result.provider = p })
	}
	if err == nil {
		err = d.Invoke(func(mgr *mcp.Manager, registry *tools.Registry, m metrics.Metrics) {
			result.manager, result.registry, result.metrics = mgr, registry, m
		})
	}
	if err == nil && withAssistant {
		err = d.Invoke(func(a *assistant.Assistant) { result.assistant = a })
	}
	if err != nil {
		if manager != nil {
			_ = manager.Close()
		}
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newProvider(s startup, cfg *config.Config, o options) (schema.LLMProvider, error) {
	if o.provider != nil {
		return o.provider, nil
	}

	model := cfg.Assistant.Model
	match := cfg.MatchProvider(model)
	slog.Debug("LLM provider selected", "provider", match.Name, "model", model)

	p, err := providers.New(s.ctx, providers.Params{
		APIKey:       match.APIKey(),
		APIBase:      match.APIBase(),
		APISecret:    match.Provider.APISecret,
		Region:       match.Provider.Region,
		ExtraHeaders: match.Provider.ExtraHeaders,
		DefaultModel: model,
		ProviderName: match.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", match.Name, err)
	}
	return p, nil
}

func newMetrics(o options) metrics.Metrics {
	return metrics.NewMetrics(o.version)
}

func newManager(cfg *config.Config, o options) *mcp.Manager {
	m := mcp.NewManager(cfg.MCPServers, mcp.Options{
		ClientName:     "mcpchat",
		ClientVersion:  o.version,
		ConnectTimeout: cfg.Assistant.ConnectTimeout(),
		MaxParallel:    cfg.Assistant.MaxParallelConnects,
	})
	if o.transport != nil {
		m.WithTransport(o.transport)
	}
	return m
}

// newToolRegistry connects every server and merges their tools. With no
// live session it fails unless tool-less chat is allowed.
func newToolRegistry(s startup, cfg *config.Config, mgr *mcp.Manager, m metrics.Metrics) (*tools.Registry, error) {
	sessions := mgr.Connect(s.ctx)
	failures := mgr.Failures()
	m.SetConnectedServers(len(sessions))
	m.SetFailedServers(len(failures) + len(cfg.Rejected))

	if len(sessions) == 0 {
		if !cfg.Assistant.AllowNoTools {
			return nil, fmt.Errorf("%w (%d configured, %d failed)", ErrNoServers, len(cfg.MCPServers), len(failures))
		}
		slog.Warn("No MCP server connected, continuing without tools")
	}

	b := tools.NewRegistryBuilder()
	for _, t := range mgr.Tools() {
		b.WithTool(t)
	}
	registry := b.Build()
	m.SetRegisteredTools(registry.Len())

	slog.Info("Tool registry ready", "servers", len(sessions), "tools", registry.Len(), "rejected", len(b.Rejected()))
	return registry, nil
}

func newAssistant(p schema.LLMProvider, registry *tools.Registry, cfg *config.Config, m metrics.Metrics) *assistant.Assistant {
	return assistant.New(p, registry, assistant.Settings{
		Model:       cfg.Assistant.Model,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
	}, m)
}
