package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storybot/model"
)

const (
	ModeWebhook   = "webhook"
	ModeWebsocket = "websocket"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Mode         string                        `yaml:"mode"`
	Webhook      WebhookConfig                 `yaml:"webhook"`
	Websocket    WebsocketConfig               `yaml:"websocket"`
	Storage      StorageConfig                 `yaml:"storage"`
	Log          LogConfig                     `yaml:"log"`
	Entities     EntitiesConfig                `yaml:"entities"`
	ErrorMessage string                        `yaml:"error_message"`
	Stories      []model.CannedStoryDefinition `yaml:"stories"`
}

type WebhookConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

type WebsocketConfig struct {
	Protocol   string        `yaml:"protocol"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type StorageConfig struct {
	Backend string       `yaml:"backend"`
	File    FileConfig   `yaml:"file"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type EntitiesConfig struct {
	Policy string `yaml:"policy"`
	Max    *int   `yaml:"max"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeWebhook
	}
	if c.Webhook.Addr == "" {
		c.Webhook.Addr = ":8080"
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = "bot"
	}
	c.Webhook.Path = strings.Trim(c.Webhook.Path, "/")
	if c.Websocket.Protocol == "" {
		c.Websocket.Protocol = "ws"
	}
	if c.Websocket.Port == 0 {
		c.Websocket.Port = 8080
	}
	if c.Websocket.MaxBackoff == 0 {
		c.Websocket.MaxBackoff = 30 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageMemory
	}
	if c.Storage.File.Dir == "" {
		c.Storage.File.Dir = "sessions"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Storage.Redis.TTL == 0 {
		c.Storage.Redis.TTL = 24 * time.Hour
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "storybot.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Entities.Policy == "" {
		c.Entities.Policy = "append"
	}
	if c.Entities.Max == nil {
		max := 50
		c.Entities.Max = &max
	}
}

// Validate reports every problem found, joined under ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeWebhook, ModeWebsocket:
	default:
		errs = append(errs, fmt.Errorf("mode %q: want %s or %s", c.Mode, ModeWebhook, ModeWebsocket))
	}
	if c.Mode == ModeWebsocket {
		if c.Websocket.Host == "" {
			errs = append(errs, errors.New("websocket.host is required in websocket mode"))
		}
		if c.Websocket.Protocol != "ws" && c.Websocket.Protocol != "wss" {
			errs = append(errs, fmt.Errorf("websocket.protocol %q: want ws or wss", c.Websocket.Protocol))
		}
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StorageRedis, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not supported", c.Log.Level))
	}
	switch c.Entities.Policy {
	case "append", "reset_on_story_change":
	default:
		errs = append(errs, fmt.Errorf("entities.policy %q is not supported", c.Entities.Policy))
	}
	if c.Entities.Max != nil && *c.Entities.Max < 0 {
		errs = append(errs, errors.New("entities.max must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
