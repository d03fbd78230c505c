package config

import "github.com/crystaldolphin/mcpchat/internal/config/tool"

func mcpServer(command string, args ...string) tool.MCPServerConfig {
	return tool.MCPServerConfig{Command: command, Args: args}
}
