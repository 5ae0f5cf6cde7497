package config

import (
	"fmt"
	"sync"
)

// ChangeFunc is called after a successful reload with the previous and the
// new configuration. Callbacks must not block.
type ChangeFunc func(previous, current *Config)

var (
	// globalConfig holds the process-wide configuration.
	globalConfig *Config

	// globalPath is the file the configuration was initialized from.
	globalPath string

	configMutex sync.RWMutex
	initOnce    sync.Once

	subscribers   []ChangeFunc
	subscribersMu sync.Mutex
)

// Initialize loads configuration from path with environment overrides and
// stores it as the global configuration. Only the first call has an effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the global configuration, or nil before Initialize.
//
// Prefer passing an explicit *Config in tests.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the global configuration. Intended for tests.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// MustGetConfig returns the global configuration and panics if it has not
// been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// ReloadConfig reloads configuration from path. The global instance is only
// replaced when loading and validation succeed; subscribers are then
// notified in registration order. An empty path reuses the path given to
// Initialize.
func ReloadConfig(path string) error {
	configMutex.RLock()
	if path == "" {
		path = globalPath
	}
	configMutex.RUnlock()

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	previous := globalConfig
	globalConfig = cfg
	globalPath = path
	configMutex.Unlock()

	subscribersMu.Lock()
	fns := append([]ChangeFunc(nil), subscribers...)
	subscribersMu.Unlock()

	for _, fn := range fns {
		fn(previous, cfg)
	}

	return nil
}

// Subscribe registers fn to be called after every successful ReloadConfig.
func Subscribe(fn ChangeFunc) {
	subscribersMu.Lock()
	defer subscribersMu.Unlock()
	subscribers = append(subscribers, fn)
}
