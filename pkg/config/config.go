package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory
const DefaultFile = "cross-streets.toml"

// EnvPrefix prefixes environment overrides, e.g. CROSS_STREETS_PORT=9090
const EnvPrefix = "CROSS_STREETS_"

// Config holds all configuration for the application
type Config struct {
	Data        string   `koanf:"data"`
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port"`
	Route       string   `koanf:"route"` // Initial shareable selection
	Watch       bool     `koanf:"watch"`
	OpenBrowser bool     `koanf:"open"`
	Verbosity   string   `koanf:"verbosity"`
	VerboseCnt  int      `koanf:"verbose"`
	LogFormat   string   `koanf:"log-format"`
	CORSOrigins []string `koanf:"cors-origins"`
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks values that no layer can be trusted to get right
func (c *Config) Validate() error {
	if c.Data == "" {
		return errors.New("data path must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.LogFormat {
	case "compact", "json":
	default:
		return fmt.Errorf("unknown log format %q (want compact or json)", c.LogFormat)
	}
	return nil
}

// Load loads configuration from defaults, DefaultFile, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, DefaultFile)
}

// LoadFile is Load with an explicit config file path. A missing file is not an error.
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"data":         "routes.json",
		"host":         "localhost",
		"port":         8080,
		"route":        "",
		"watch":        false,
		"open":         false,
		"verbosity":    "",
		"verbose":      0,
		"log-format":   "compact",
		"cors-origins": []string{},
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional)
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// CROSS_STREETS_LOG_FORMAT=json sets log-format
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func envValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", "-")
	if key == "cors-origins" {
		if value == "" {
			return key, []string{}
		}
		return key, strings.Split(value, ",")
	}
	return key, value
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
