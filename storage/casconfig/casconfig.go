// Package casconfig opens the archive's storage backends from configuration.
package casconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

// Write policies.
const (
	// WriteFirst writes only to the first backend; reads fall back in order.
	WriteFirst = "first"
	// WriteAll writes to all backends and requires CID equality (see storage.ReplicatingCAS).
	WriteAll = "all"
)

// Config describes how to open one or more CAS backends via casregistry.
// Callers still need to link desired backends via blank imports.
//
// Example (YAML, as found under archive.storage in setcli.yaml):
//
//	write_policy: all
//	backends:
//	  - name: bolt
//	    config: {path: /var/lib/set/archive.db}
//	  - name: localfs
//	    id: mirror
//	    config: {dir: /mnt/mirror/archive}
type Config struct {
	WritePolicy string          `mapstructure:"write_policy" json:"write_policy,omitempty" yaml:"write_policy,omitempty"`
	Backends    []BackendConfig `mapstructure:"backends" json:"backends" yaml:"backends"`
}

type BackendConfig struct {
	// Name is the casregistry backend name to open (e.g. "bolt", "localfs", "grpc").
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	// ID is an optional stable alias used in logs and per-backend CID maps.
	// If empty, Name is used.
	ID     string            `mapstructure:"id" json:"id,omitempty" yaml:"id,omitempty"`
	Config map[string]string `mapstructure:"config" json:"config,omitempty" yaml:"config,omitempty"`
}

// LoadFile reads a standalone storage configuration (YAML, JSON or TOML by extension).
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("casconfig: empty config path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("casconfig: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("casconfig: decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("casconfig: backend name is required")
		}
		if _, ok := seen[b.id()]; ok {
			return fmt.Errorf("casconfig: duplicate backend id %q", b.id())
		}
		seen[b.id()] = struct{}{}
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
		return nil
	default:
		return fmt.Errorf("casconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens a CAS per config and returns it with a function closing every backend.
//
// If preferredBackend is non-empty, backends are reordered so preferredBackend
// is first (and thus used for writes when WritePolicy is "first").
func (c Config) Open(ctx context.Context, usage casregistry.Usage, preferredBackend string) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferredBackend != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferredBackend || ordered[i].ID == preferredBackend {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("casconfig: preferred backend %q not found in config", preferredBackend)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]storage.NamedCAS, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range ordered {
		cas, closeFn, err := casregistry.Open(ctx, b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("casconfig: backend %q: %w", b.id(), err)
		}
		named = append(named, storage.NamedCAS{Name: b.id(), CAS: cas})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].CAS, closeAll, nil
	}

	switch c.WritePolicy {
	case "", WriteFirst:
		adapters := make([]storage.CAS, 0, len(named))
		for _, n := range named {
			adapters = append(adapters, n.CAS)
		}
		return storage.MultiCAS{Adapters: adapters}, closeAll, nil
	default:
		return storage.ReplicatingCAS{Backends: named}, closeAll, nil
	}
}
