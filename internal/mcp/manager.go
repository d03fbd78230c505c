package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	toolcfg "github.com/crystaldolphin/mcpchat/internal/config/tool"
)

// Options tunes how servers are brought up.
type Options struct {
	ClientName     string
	ClientVersion  string
	ConnectTimeout time.Duration // per server: handshake plus tool listing
	MaxParallel    int           // concurrent connection attempts
}

// Manager owns the lifecycle of all MCP server connections.
type Manager struct {
	servers   map[string]toolcfg.MCPServerConfig
	opts      Options
	transport TransportFunc
	client    *mcp.Client

	connectOnce sync.Once
	closeOnce   sync.Once
	closeErr    error

	mu       sync.Mutex
	sessions []*Session
	failures []*ConnectionError
}

// NewManager returns a Manager for the given servers. Subprocesses are not
// started until Connect.
func NewManager(servers map[string]toolcfg.MCPServerConfig, opts Options) *Manager {
	if opts.ClientName == "" {
		opts.ClientName = "mcpchat"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "dev"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	return &Manager{
		servers:   servers,
		opts:      opts,
		transport: CommandTransport,
		client: mcp.NewClient(&mcp.Implementation{
			Name:    opts.ClientName,
			Version: opts.ClientVersion,
		}, nil),
	}
}

// WithTransport replaces how servers are reached. Used by tests to serve
// tools in-process.
func (m *Manager) WithTransport(f TransportFunc) *Manager {
	m.transport = f
	return m
}

// Connect starts every configured server, performs the handshake and lists
// its tools. Servers are brought up concurrently and independently; one that
// fails is logged, recorded in Failures and left out. Connect runs at most
// once and returns the connected sessions sorted by name.
func (m *Manager) Connect(ctx context.Context) []*Session {
	m.connectOnce.Do(func() {
		var g errgroup.Group
		g.SetLimit(m.opts.MaxParallel)

		for name, cfg := range m.servers {
			g.Go(func() error {
				s, err := m.connectOne(ctx, name, cfg)

				m.mu.Lock()
				defer m.mu.Unlock()
				if err != nil {
					slog.Error("MCP server connect failed", "server", name, "err", err)
					var ce *ConnectionError
					if !errors.As(err, &ce) {
						ce = &ConnectionError{Server: name, Stage: StageStart, Err: err}
					}
					m.failures = append(m.failures, ce)
					return nil
				}
				slog.Info("MCP server connected", "server", name, "tools", s.ToolCount())
				m.sessions = append(m.sessions, s)
				return nil
			})
		}
		_ = g.Wait()

		m.mu.Lock()
		sort.Slice(m.sessions, func(i, j int) bool { return m.sessions[i].name < m.sessions[j].name })
		sort.Slice(m.failures, func(i, j int) bool { return m.failures[i].Server < m.failures[j].Server })
		m.mu.Unlock()
	})
	return m.Sessions()
}

func (m *Manager) connectOne(ctx context.Context, name string, cfg toolcfg.MCPServerConfig) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()

	t, err := m.transport(name, cfg)
	if err != nil {
		return nil, &ConnectionError{Server: name, Stage: StageStart, Err: err}
	}

	cs, err := m.client.Connect(ctx, t, nil)
	if err != nil {
		return nil, &ConnectionError{Server: name, Stage: StageInitialize, Err: err}
	}

	var tools []*mcp.Tool
	for tool, err := range cs.Tools(ctx, nil) {
		if err != nil {
			_ = cs.Close()
			return nil, &ConnectionError{Server: name, Stage: StageListTools, Err: err}
		}
		if tool == nil || tool.Name == "" {
			continue
		}
		slog.Debug("MCP tool discovered", "server", name, "tool", tool.Name)
		tools = append(tools, tool)
	}

	return &Session{name: name, session: cs, tools: tools}, nil
}

// Sessions returns the connected sessions sorted by server name.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Failures returns the servers that could not be connected.
func (m *Manager) Failures() []*ConnectionError {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ConnectionError, len(m.failures))
	copy(out, m.failures)
	return out
}

// Tools returns the tools of every connected server, in server order.
func (m *Manager) Tools() []*Tool {
	var out []*Tool
	for _, s := range m.Sessions() {
		out = append(out, s.Tools()...)
	}
	return out
}

// Close ends every session and terminates every server subprocess. Only the
// first call does any work; later calls return the first result.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		// Waits out an in-flight Connect, or stops a later one from starting.
		m.connectOnce.Do(func() {})

		m.mu.Lock()
		sessions := m.sessions
		m.sessions = nil
		m.mu.Unlock()

		var errs []error
		for _, s := range sessions {
			if err := s.Close(); err != nil {
				slog.Warn("MCP server close failed", "server", s.name, "err", err)
				errs = append(errs, err)
				continue
			}
			slog.Debug("MCP server closed", "server", s.name)
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
