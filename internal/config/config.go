package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kalshiradar/radar/internal/kalshi"
	"github.com/kalshiradar/radar/internal/radar"
)

// Config is the complete service configuration: YAML file first, then
// environment overrides, then Validate.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Kalshi KalshiConfig `yaml:"kalshi"`
	Caps   radar.Caps   `yaml:"caps"`
}

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	ReadTimeoutSec    int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int    `yaml:"write_timeout_sec"`
	IdleTimeoutSec    int    `yaml:"idle_timeout_sec"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

// KalshiConfig holds upstream gateway settings. Credentials come from the
// environment only, never from the file:
//
//	KALSHI_EMAIL + KALSHI_API_KEY          session-token auth (the key
//	                                       variable carries the password)
//	KALSHI_PRIVATE_KEY + KALSHI_API_KEY    signature auth (the key variable
//	                                       carries the public key id)
//
// A present private key selects signature auth.
type KalshiConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitRPS      float64 `yaml:"rate_limit_rps"`
	RateLimitBurst    int     `yaml:"rate_limit_burst"`

	Email         string `yaml:"-"`
	Password      string `yaml:"-"`
	APIKeyID      string `yaml:"-"`
	PrivateKeyPEM string `yaml:"-"`
}

// SignatureAuth reports whether the signature strategy is configured.
func (k KalshiConfig) SignatureAuth() bool {
	return k.PrivateKeyPEM != ""
}

// ClientConfig converts the file settings into the gateway client's config.
func (k KalshiConfig) ClientConfig() kalshi.Config {
	return kalshi.Config{
		BaseURL:        k.BaseURL,
		RequestTimeout: time.Duration(k.RequestTimeoutSec) * time.Second,
		RateLimitRPS:   k.RateLimitRPS,
		RateLimitBurst: k.RateLimitBurst,
	}
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeoutSec:    10,
			WriteTimeoutSec:   30,
			IdleTimeoutSec:    60,
			RequestTimeoutSec: 25,
		},
		Kalshi: KalshiConfig{
			BaseURL: kalshi.DefaultBaseURL,
		},
		Caps: radar.DefaultCaps(),
	}
}

// Load reads the optional YAML file, applies environment overrides, and
// validates the result. An empty path loads pure defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	c.Kalshi.Email = os.Getenv("KALSHI_EMAIL")
	c.Kalshi.PrivateKeyPEM = os.Getenv("KALSHI_PRIVATE_KEY")

	// KALSHI_API_KEY is overloaded by deployment history: it is the account
	// password under session auth and the public key id under signature auth.
	key := os.Getenv("KALSHI_API_KEY")
	if c.Kalshi.SignatureAuth() {
		c.Kalshi.APIKeyID = key
	} else {
		c.Kalshi.Password = key
	}
}

// Validate ensures one complete credential pair is present and the listener
// settings are sane.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &kalshi.ConfigError{Reason: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}

	if c.Kalshi.SignatureAuth() {
		if c.Kalshi.APIKeyID == "" {
			return &kalshi.ConfigError{Reason: "KALSHI_PRIVATE_KEY is set but KALSHI_API_KEY (key id) is empty"}
		}
		return nil
	}

	if c.Kalshi.Email == "" || c.Kalshi.Password == "" {
		return &kalshi.ConfigError{Reason: "no credentials: set KALSHI_EMAIL and KALSHI_API_KEY, or KALSHI_PRIVATE_KEY and KALSHI_API_KEY"}
	}
	return nil
}
