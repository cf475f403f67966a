package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvAddr       = "BANDITD_ADDR"
	EnvLogLevel   = "BANDITD_LOG_LEVEL"
	EnvStore      = "BANDITD_STORE"
	EnvSQLitePath = "BANDITD_SQLITE_PATH"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Registry  RegistryConfig  `yaml:"registry"`
	Bandit    BanditConfig    `yaml:"bandit"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// StoreConfig selects the journal backend. The memory backend keeps at most
// MemoryMaxEvents per instance and MemoryMaxInstances instance ids.
type StoreConfig struct {
	Kind               string `yaml:"kind"`
	SQLitePath         string `yaml:"sqlite_path"`
	MemoryMaxEvents    int    `yaml:"memory_max_events"`
	MemoryMaxInstances int    `yaml:"memory_max_instances"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RegistryConfig controls idle eviction. An IdleTTL of zero keeps instances
// until they are removed explicitly.
type RegistryConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type BanditConfig struct {
	TrackerWindow      int `yaml:"tracker_window"`
	MaxArms            int `yaml:"max_arms"`
	MaxNormalizeWindow int `yaml:"max_normalize_window"`
}

type OptimizerConfig struct {
	InitialStep float64 `yaml:"initial_step"`
	MinStep     float64 `yaml:"min_step"`
	Grow        float64 `yaml:"grow"`
	Shrink      float64 `yaml:"shrink"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Kind:               "memory",
			SQLitePath:         "banditd.db",
			MemoryMaxEvents:    1000,
			MemoryMaxInstances: 10000,
		},
		Registry: RegistryConfig{
			SweepInterval: time.Minute,
		},
		Bandit: BanditConfig{
			TrackerWindow:      50,
			MaxArms:            1 << 16,
			MaxNormalizeWindow: 1 << 20,
		},
		Optimizer: OptimizerConfig{
			InitialStep: 1.0,
			MinStep:     1e-3,
			Grow:        1.2,
			Shrink:      0.8,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvStore); ok && v != "" {
		c.Store.Kind = v
	}
	if v, ok := lookup(EnvSQLitePath); ok && v != "" {
		c.Store.SQLitePath = v
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	switch c.Store.Kind {
	case "memory":
		if c.Store.MemoryMaxEvents <= 0 || c.Store.MemoryMaxInstances <= 0 {
			errs = append(errs, errors.New("store.memory_max_events and store.memory_max_instances must be positive"))
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store.kind %q", c.Store.Kind))
	}
	if c.Registry.IdleTTL < 0 {
		errs = append(errs, errors.New("registry.idle_ttl must not be negative"))
	}
	if c.Registry.IdleTTL > 0 && c.Registry.SweepInterval <= 0 {
		errs = append(errs, errors.New("registry.sweep_interval must be positive when idle_ttl is set"))
	}
	if c.Bandit.TrackerWindow <= 0 {
		errs = append(errs, errors.New("bandit.tracker_window must be positive"))
	}
	if c.Bandit.MaxArms <= 0 {
		errs = append(errs, errors.New("bandit.max_arms must be positive"))
	}
	if c.Bandit.MaxNormalizeWindow <= 0 {
		errs = append(errs, errors.New("bandit.max_normalize_window must be positive"))
	}
	o := c.Optimizer
	if !(o.InitialStep > 0) {
		errs = append(errs, errors.New("optimizer.initial_step must be positive"))
	}
	if !(o.MinStep > 0) || o.MinStep > o.InitialStep {
		errs = append(errs, errors.New("optimizer.min_step must be positive and at most initial_step"))
	}
	if !(o.Grow > 1) {
		errs = append(errs, errors.New("optimizer.grow must be greater than 1"))
	}
	if !(o.Shrink > 0 && o.Shrink < 1) {
		errs = append(errs, errors.New("optimizer.shrink must be in (0, 1)"))
	}
	return errors.Join(errs...)
}

func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
