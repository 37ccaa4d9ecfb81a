package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration. Values come from defaults, then an
// optional YAML file, then POCKETCAL_* environment variables.
type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is text or json.
	LogFormat string `yaml:"log_format"`

	// StorageQuotaBytes caps the persisted data size. Zero means unlimited.
	StorageQuotaBytes int64 `yaml:"storage_quota_bytes"`

	// TrustedProxies are addresses or CIDR prefixes of reverse proxies
	// whose X-Forwarded-For header is believed.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

func Default() Config {
	return Config{
		Port:      "8080",
		DBPath:    "pocketcal.db",
		LogLevel:  "info",
		LogFormat: "text",
		// Roughly what a browser grants a single origin.
		StorageQuotaBytes: 5 << 20,
	}
}

// Load builds a Config. An empty path falls back to $POCKETCAL_CONFIG; a
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("POCKETCAL_CONFIG")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("POCKETCAL_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("POCKETCAL_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("POCKETCAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("POCKETCAL_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("POCKETCAL_STORAGE_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("POCKETCAL_STORAGE_QUOTA_BYTES: %w", err)
		}
		c.StorageQuotaBytes = n
	}
	if v := os.Getenv("POCKETCAL_TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = strings.Split(v, ",")
	}
	return nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.StorageQuotaBytes < 0 {
		return fmt.Errorf("storage_quota_bytes must not be negative, got %d", c.StorageQuotaBytes)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	for _, p := range c.TrustedProxies {
		p = strings.TrimSpace(p)
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("invalid trusted proxy %q", p)
		}
	}
	return nil
}
