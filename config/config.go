// Package config loads setcli and set-archived settings from a file, the
// SETCLI_* environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/archive"
	"fastset.xyz/setcore/proxy"
	"fastset.xyz/setcore/storage/casconfig"
	"fastset.xyz/setcore/types"
)

// EnvPrefix prefixes environment overrides, e.g. SETCLI_PROXY_URL.
const EnvPrefix = "SETCLI"

// FileName is the config file looked up when no path is given.
const FileName = "setcli"

type Config struct {
	Proxy    ProxyConfig    `mapstructure:"proxy"`
	Keystore KeystoreConfig `mapstructure:"keystore"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Log      LogConfig      `mapstructure:"log"`
}

type ProxyConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type KeystoreConfig struct {
	// Dir defaults to ~/.setcli/keys.
	Dir string `mapstructure:"dir"`
}

type ArchiveConfig struct {
	Storage casconfig.Config `mapstructure:"storage"`
	// Index is the settlement index database. Empty keeps the index next to the
	// first configured storage backend.
	Index     string   `mapstructure:"index"`
	Quorum    uint64   `mapstructure:"quorum"`
	Committee []string `mapstructure:"committee"`
	// AllowAnyValidator accepts signatures from keys outside Committee. The
	// archive refuses to start with an empty committee unless it is set.
	AllowAnyValidator bool `mapstructure:"allow_any_validator"`
	AllowNonArchival  bool `mapstructure:"allow_non_archival"`
}

type DaemonConfig struct {
	GRPCListen    string `mapstructure:"grpc_listen"`
	MetricsListen string `mapstructure:"metrics_listen"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy.url", proxy.DefaultURL)
	v.SetDefault("proxy.timeout", 30*time.Second)
	v.SetDefault("proxy.retries", 2)
	v.SetDefault("keystore.dir", "")
	v.SetDefault("archive.index", "")
	v.SetDefault("archive.quorum", 1)
	v.SetDefault("archive.allow_any_validator", false)
	v.SetDefault("archive.allow_non_archival", false)
	v.SetDefault("daemon.grpc_listen", "127.0.0.1:7450")
	v.SetDefault("daemon.metrics_listen", "127.0.0.1:9450")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. path may be empty, in which case setcli.{yaml,json,toml}
// is searched in the working directory and ~/.setcli; a missing file is not an
// error. Flags whose names match keys (e.g. "proxy.url") override everything.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var cfg Config
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".setcli"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, pkgerrors.WithMessage(err, "read config")
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return cfg, pkgerrors.WithMessage(err, "bind flags")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, pkgerrors.WithMessage(err, "decode config")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Proxy.Timeout < 0 {
		return fmt.Errorf("config: proxy.timeout must not be negative")
	}
	if c.Proxy.Retries < 0 {
		return fmt.Errorf("config: proxy.retries must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.Archive.CommitteeAddresses(); err != nil {
		return err
	}
	return nil
}

// CommitteeAddresses parses the configured committee.
func (a ArchiveConfig) CommitteeAddresses() ([]address.ValidatorName, error) {
	out := make([]address.ValidatorName, 0, len(a.Committee))
	for _, s := range a.Committee {
		v, err := address.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, pkgerrors.WithMessagef(err, "config: archive.committee entry %q", s)
		}
		out = append(out, v)
	}
	return out, nil
}

// ArchiveSettings converts the archive section into archive.Config.
func (a ArchiveConfig) ArchiveSettings() (archive.Config, error) {
	committee, err := a.CommitteeAddresses()
	if err != nil {
		return archive.Config{}, err
	}
	return archive.Config{
		Quorum:            types.Quorum(a.Quorum),
		Committee:         committee,
		AllowAnyValidator: a.AllowAnyValidator,
		AllowNonArchival:  a.AllowNonArchival,
	}, nil
}

// ProxyOptions converts the proxy section into proxy client options.
func (p ProxyConfig) ProxyOptions(logger *slog.Logger) proxy.Options {
	return proxy.Options{Timeout: p.Timeout, RetryCount: p.Retries, Logger: logger}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log.level %q", s)
	}
	return l, nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
