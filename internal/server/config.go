package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/offer-oven/internal/config"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvAddress     = "OFFER_OVEN_ADDRESS"
	EnvRedisAddr   = "REDIS_ADDR"
	EnvDatabaseURL = "DATABASE_URL"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `yaml:"address"`
	MaxBodySize   string               `yaml:"maxBodySize"`
	Logging       config.LoggingConfig `yaml:"logging"`
	Storage       StorageConfig        `yaml:"storage"`
	Webhook       WebhookConfig        `yaml:"webhook"`
	bodySizeBytes int64
}

// StorageConfig selects the backing stores. Empty values keep the
// in-memory stores.
type StorageConfig struct {
	RedisAddress string `yaml:"redisAddress"` // leads, dispos, and the subscription cache
	PostgresDSN  string `yaml:"postgresDSN"`  // subscriptions
}

// WebhookConfig holds the payment provider webhook settings.
type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:       constants.DefaultServerAddress,
		MaxBodySize:   fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		Logging:       config.LoggingConfig{},
		bodySizeBytes: constants.DefaultMaxBodySizeBytes,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAddress)); v != "" {
		c.Address = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		c.Storage.RedisAddress = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(constants.WebhookSecretEnv); v != "" {
		c.Webhook.Secret = v
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
