package mcp

import (
	"bytes"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	toolcfg "github.com/crystaldolphin/mcpchat/internal/config/tool"
)

// TransportFunc builds the transport used to reach one configured server.
type TransportFunc func(name string, cfg toolcfg.MCPServerConfig) (mcp.Transport, error)

// CommandTransport launches cfg as a subprocess speaking MCP over stdio.
// The child inherits the parent environment with cfg.Env applied on top.
// Its stderr is forwarded to the debug log.
func CommandTransport(name string, cfg toolcfg.MCPServerConfig) (mcp.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = cfg.Environ()
	cmd.Stderr = &stderrLog{server: name}
	return &mcp.CommandTransport{Command: cmd}, nil
}

// stderrLog turns a server's stderr into one debug record per line.
type stderrLog struct {
	server string
	mu     sync.Mutex
	buf    []byte
}

func (w *stderrLog) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:i], "\r")
		if len(line) > 0 {
			slog.Debug("MCP server stderr", "server", w.server, "line", string(line))
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
