package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

var (
	loaded   *Config
	loadOnce sync.Once
	loadErr  error
	loadedMu sync.RWMutex
)

// Load loads the configuration from the YAML file once and caches it
// globally. Subsequent calls return the cached instance.
func Load(path string) (*Config, error) {
	loadOnce.Do(func() {
		cfg, err := Parse(path)
		if err != nil {
			loadErr = err
			return
		}
		loadedMu.Lock()
		loaded = cfg
		loadedMu.Unlock()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	loadedMu.RLock()
	defer loadedMu.RUnlock()
	return loaded, nil
}

// Parse parses a YAML config file without touching the global cache.
func Parse(path string) (*Config, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts.
	resolved, _ := filepath.EvalSymlinks(path)
	if resolved == "" {
		resolved = path
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEngineDefaults(&cfg.Engine)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	observability.Debugf("Loaded config from %s (global timeout %dms)", resolved, cfg.Engine.GlobalTimeoutMs)
	return cfg, nil
}

// Default returns a configuration with every engine value at its
// shipped default. Provider endpoints are left empty.
func Default() *Config {
	cfg := &Config{}
	applyEngineDefaults(&cfg.Engine)
	return cfg
}
