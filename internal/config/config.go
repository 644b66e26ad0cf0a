// Package config loads teamdir configuration from YAML and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
)

// Config is the complete teamdir configuration.
type Config struct {
	Source    source.Kind     `yaml:"source"`
	Remote    RemoteConfig    `yaml:"remote"`
	Simulated SimulatedConfig `yaml:"simulated"`
	Directory DirectoryConfig `yaml:"directory"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// RemoteConfig configures the paged-query service client.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SimulatedConfig configures the in-memory source.
type SimulatedConfig struct {
	DatasetSize int           `yaml:"dataset_size"`
	Delay       time.Duration `yaml:"delay"`
}

// DirectoryConfig configures directory sessions.
type DirectoryConfig struct {
	PageSize            int           `yaml:"page_size"`
	MaxSearchLength     int           `yaml:"max_search_length"`
	RequestWarningAfter time.Duration `yaml:"request_warning_after"`
}

// ServerConfig configures the paged-query server and its database.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Seed     int    `yaml:"seed"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables read by ApplyEnv.
const (
	EnvUseMockAPI     = "TEAMDIR_USE_MOCK_API"
	EnvRemoteEndpoint = "TEAMDIR_REMOTE_ENDPOINT"
	EnvDatabase       = "TEAMDIR_DB"
	EnvServerAddr     = "TEAMDIR_ADDR"
	EnvLogLevel       = "TEAMDIR_LOG_LEVEL"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Source: source.KindSimulated,
		Remote: RemoteConfig{
			Endpoint: "http://127.0.0.1:8080/api/team-members",
			Timeout:  source.DefaultTimeout,
		},
		Simulated: SimulatedConfig{
			DatasetSize: roster.DefaultDatasetSize,
			Delay:       source.DefaultDelay,
		},
		Directory: DirectoryConfig{
			PageSize:            roster.DefaultPageSize,
			MaxSearchLength:     roster.MaxSearchLength,
			RequestWarningAfter: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8080",
			Database: "teamdir.db",
			Seed:     roster.DefaultDatasetSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and applies the process environment.
// An empty path skips the file. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. It neither applies the
// environment nor validates.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// decode rejects unknown fields so typos fail loudly.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// TEAMDIR_USE_MOCK_API selects the simulated source unless it is "false".
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvUseMockAPI); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && !b {
			c.Source = source.KindRemote
		} else {
			c.Source = source.KindSimulated
		}
	}
	if v, ok := lookup(EnvRemoteEndpoint); ok && v != "" {
		c.Remote.Endpoint = v
	}
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Server.Database = v
	}
	if v, ok := lookup(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks all fields and reports every problem at once.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := source.ParseKind(string(c.Source)); err != nil {
		add("source: %v", err)
	}
	if c.Source == source.KindRemote {
		u, err := url.Parse(c.Remote.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("remote.endpoint: %q is not an absolute http(s) URL", c.Remote.Endpoint)
		}
	}
	if c.Remote.Timeout <= 0 {
		add("remote.timeout: must be positive")
	}
	if c.Simulated.DatasetSize < 0 {
		add("simulated.dataset_size: must not be negative")
	}
	if c.Simulated.Delay < 0 {
		add("simulated.delay: must not be negative")
	}
	if c.Directory.PageSize <= 0 {
		add("directory.page_size: must be positive")
	}
	if c.Directory.MaxSearchLength <= 0 {
		add("directory.max_search_length: must be positive")
	}
	if c.Directory.RequestWarningAfter < 0 {
		add("directory.request_warning_after: must not be negative")
	}
	if c.Server.Seed < 0 {
		add("server.seed: must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		add("log.level: %v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log.format: %q must be text or json", c.Log.Format)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Encode renders c as YAML.
func (c Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
