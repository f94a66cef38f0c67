package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWSURL          = "wss://ws.battlemetrics.com"
	DefaultAPIURL         = "https://api.battlemetrics.com"
	DefaultReconnectDelay = 5 * time.Second
	DefaultAcksNeeded     = 3
	DefaultPageSize       = 100
	DefaultRedisStream    = "feedwatch:joins"
)

type Config struct {
	Token          string        `env:"FEEDWATCH_TOKEN"`
	WSURL          string        `env:"FEEDWATCH_WS_URL"`
	APIURL         string        `env:"FEEDWATCH_API_URL"`
	ReconnectDelay time.Duration `env:"FEEDWATCH_RECONNECT_DELAY"`
	AcksNeeded     int           `env:"FEEDWATCH_ACKS_NEEDED"`
	PageSize       int           `env:"FEEDWATCH_PAGE_SIZE"`
	HTTPTimeout    time.Duration `env:"FEEDWATCH_HTTP_TIMEOUT"`
	PingInterval   time.Duration `env:"FEEDWATCH_PING_INTERVAL"`
	ReadTimeout    time.Duration `env:"FEEDWATCH_READ_TIMEOUT"`
	MetricsAddr    string        `env:"FEEDWATCH_METRICS_ADDR"`
	RedisAddr      string        `env:"FEEDWATCH_REDIS_ADDR"`
	RedisDB        int           `env:"FEEDWATCH_REDIS_DB"`
	RedisStream    string        `env:"FEEDWATCH_REDIS_STREAM"`
	LogLevel       string        `env:"FEEDWATCH_LOG_LEVEL"`
}

// fileConfig is the on-disk shape. "token" and "ws" match the legacy config.json.
type fileConfig struct {
	Token          string `json:"token" toml:"token" yaml:"token"`
	WS             string `json:"ws" toml:"ws" yaml:"ws"`
	API            string `json:"api" toml:"api" yaml:"api"`
	ReconnectDelay string `json:"reconnect_delay" toml:"reconnect_delay" yaml:"reconnect_delay"`
	AcksNeeded     int    `json:"acks_needed" toml:"acks_needed" yaml:"acks_needed"`
	PageSize       int    `json:"page_size" toml:"page_size" yaml:"page_size"`
	HTTPTimeout    string `json:"http_timeout" toml:"http_timeout" yaml:"http_timeout"`
	PingInterval   string `json:"ping_interval" toml:"ping_interval" yaml:"ping_interval"`
	ReadTimeout    string `json:"read_timeout" toml:"read_timeout" yaml:"read_timeout"`
	MetricsAddr    string `json:"metrics_addr" toml:"metrics_addr" yaml:"metrics_addr"`
	RedisAddr      string `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr"`
	RedisDB        int    `json:"redis_db" toml:"redis_db" yaml:"redis_db"`
	RedisStream    string `json:"redis_stream" toml:"redis_stream" yaml:"redis_stream"`
	LogLevel       string `json:"log_level" toml:"log_level" yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		WSURL:          DefaultWSURL,
		APIURL:         DefaultAPIURL,
		ReconnectDelay: DefaultReconnectDelay,
		AcksNeeded:     DefaultAcksNeeded,
		PageSize:       DefaultPageSize,
		HTTPTimeout:    15 * time.Second,
		PingInterval:   30 * time.Second,
		ReadTimeout:    90 * time.Second,
		RedisStream:    DefaultRedisStream,
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, then the file at path (if any), then
// the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return c.apply(fc)
}

func (c *Config) apply(fc fileConfig) error {
	setString(&c.Token, fc.Token)
	setString(&c.WSURL, fc.WS)
	setString(&c.APIURL, fc.API)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisStream, fc.RedisStream)
	setString(&c.LogLevel, fc.LogLevel)
	setInt(&c.AcksNeeded, fc.AcksNeeded)
	setInt(&c.PageSize, fc.PageSize)
	setInt(&c.RedisDB, fc.RedisDB)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"reconnect_delay", fc.ReconnectDelay, &c.ReconnectDelay},
		{"http_timeout", fc.HTTPTimeout, &c.HTTPTimeout},
		{"ping_interval", fc.PingInterval, &c.PingInterval},
		{"read_timeout", fc.ReadTimeout, &c.ReadTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("config: token is required (FEEDWATCH_TOKEN)")
	}
	if err := checkURL("ws url", c.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if err := checkURL("api url", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("config: reconnect delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.AcksNeeded < 1 {
		return fmt.Errorf("config: acks needed must be at least 1, got %d", c.AcksNeeded)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("config: page size must be within 1..100, got %d", c.PageSize)
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("config: %s %q must use %s", name, raw, strings.Join(schemes, " or "))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
