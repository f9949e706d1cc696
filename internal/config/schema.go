// Package config handles YAML configuration loading, environment variable
// expansion, credential resolution, and structural validation.
package config

import (
	"time"

	"github.com/thesoulpath/soulpath/internal/gateway"
	"github.com/thesoulpath/soulpath/internal/telemetry"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig        `yaml:"log"`
	Gateway   gateway.Config   `yaml:"gateway"`
	Channels  ChannelsConfig   `yaml:"channels"`
	Engine    EngineConfig     `yaml:"engine"`
	Delivery  DeliveryConfig   `yaml:"delivery"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// ChannelsConfig enables and configures the messaging platforms.
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// TelegramConfig configures the Telegram Bot API connector. The token and
// webhook secret come from the environment, never from the YAML file.
type TelegramConfig struct {
	Enabled bool `yaml:"enabled"`
	// APIURL overrides the Bot API base URL, for tests and proxies.
	APIURL string `yaml:"api_url"`

	BotToken      string `yaml:"-" env:"TELEGRAM_BOT_TOKEN"`
	WebhookSecret string `yaml:"-" env:"TELEGRAM_WEBHOOK_SECRET"`
}

// WhatsAppConfig configures the WhatsApp Business Cloud API connector.
type WhatsAppConfig struct {
	Enabled bool `yaml:"enabled"`
	// APIURL overrides the Graph API base URL, for tests and proxies.
	APIURL string `yaml:"api_url"`

	AccessToken   string `yaml:"-" env:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string `yaml:"-" env:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken   string `yaml:"-" env:"WHATSAPP_VERIFY_TOKEN"`
}

// EngineConfig points at the dialogue engine's REST webhook.
type EngineConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DeliveryConfig selects the delivery log backend and retention.
type DeliveryConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the sqlite database file. Ignored for the memory backend.
	Path string `yaml:"path"`
	// TTL is how long finished records are retained. Zero disables pruning.
	TTL time.Duration `yaml:"ttl"`
	// PruneSchedule is a cron expression for the retention sweep.
	PruneSchedule string `yaml:"prune_schedule"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig tunes outbound dispatch retries.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Engine.Timeout <= 0 {
		c.Engine.Timeout = 30 * time.Second
	}
	if c.Delivery.Backend == "" {
		c.Delivery.Backend = "memory"
	}
	if c.Delivery.PruneSchedule == "" {
		c.Delivery.PruneSchedule = "@hourly"
	}
}
