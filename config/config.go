// Package config provides the engine's ambient configuration surface: a
// hot-swappable, YAML-backed configuration value behind an atomic pointer.
package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"gopkg.in/yaml.v3"
)

// Config is the engine-wide configuration. It governs only ambient concerns
// left to the embedder: the handler-discovery namespace label and where the
// sqlite persistence backend keeps its dump.
type Config struct {
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// DiscoveryConfig names the annotation-driven discovery namespace used by
// engine.Builder.Discover's caller-supplied registry (a label only; Go has
// no package reflection to walk automatically, see engine/builder.go).
type DiscoveryConfig struct {
	Namespace string `yaml:"namespace"`
}

// PersistenceConfig configures the sqlite-backed Dump store.
type PersistenceConfig struct {
	Path string `yaml:"path"`
	ID   string `yaml:"id"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Discovery:   DiscoveryConfig{Namespace: "default"},
		Persistence: PersistenceConfig{Path: "qgraph.db", ID: "default"},
	}
}

// Manager holds a hot-swappable Config, reloadable from a YAML file without
// disrupting readers. Readers call Current(); writers call Reload() or Set().
type Manager struct {
	configPtr unsafe.Pointer
	path      string
	watchers  []func(Config)
}

// NewManager creates a Manager seeded with cfg.
func NewManager(cfg Config) *Manager {
	m := &Manager{}
	m.store(cfg)
	return m
}

// LoadFile reads path as YAML into a new Manager.
func LoadFile(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	m := NewManager(cfg)
	m.path = path
	return m, nil
}

// Current returns the live configuration. Safe for concurrent use.
func (m *Manager) Current() Config {
	p := atomic.LoadPointer(&m.configPtr)
	return *(*Config)(p)
}

// Set swaps in a new configuration and notifies watchers.
func (m *Manager) Set(cfg Config) {
	m.store(cfg)
	for _, w := range m.watchers {
		w(cfg)
	}
}

// Reload re-reads the file the Manager was loaded from.
func (m *Manager) Reload() error {
	if m.path == "" {
		return fmt.Errorf("config: no source file to reload")
	}
	reloaded, err := LoadFile(m.path)
	if err != nil {
		return err
	}
	m.Set(reloaded.Current())
	return nil
}

// OnChange registers a callback invoked whenever the configuration changes.
func (m *Manager) OnChange(fn func(Config)) {
	m.watchers = append(m.watchers, fn)
}

func (m *Manager) store(cfg Config) {
	atomic.StorePointer(&m.configPtr, unsafe.Pointer(&cfg))
}
