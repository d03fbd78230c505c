package cmd

import (
	"fmt"

	"github.com/crystaldolphin/mcpchat/internal/config"
)

// envPath returns the secrets file to read and whether it must exist.
func envPath() (string, bool) {
	if flagEnvFile == "" {
		return config.DefaultEnvPath, false
	}
	return flagEnvFile, true
}

// loadConfig reads secrets first so ${VAR} references in the config can
// see them, then the config itself, then applies flag overrides.
func loadConfig() (*config.Config, error) {
	path, required := envPath()
	if _, err := config.LoadSecrets(path, required); err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.ConfigPath(flagConfig))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg)
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if flagModel != "" {
		cfg.Assistant.Model = flagModel
	}
	if flagProvider != "" {
		cfg.Assistant.Provider = flagProvider
	}
	if flagAllowNoTools {
		cfg.Assistant.AllowNoTools = true
	}
}
