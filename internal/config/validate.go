package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural validity of a Config. An enabled channel
// with missing credentials is an error: the process must refuse to start
// rather than come up with a connector that cannot authenticate.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", cfg.Log.Format))
	}

	if !cfg.Channels.Telegram.Enabled && !cfg.Channels.WhatsApp.Enabled {
		errs = append(errs, errors.New("config: at least one channel must be enabled"))
	}
	errs = append(errs, validateTelegram(cfg.Channels.Telegram)...)
	errs = append(errs, validateWhatsApp(cfg.Channels.WhatsApp)...)

	if cfg.Engine.URL == "" {
		errs = append(errs, errors.New("config: engine.url is required"))
	}

	switch cfg.Delivery.Backend {
	case "memory":
	case "sqlite":
		if cfg.Delivery.Path == "" {
			errs = append(errs, errors.New("config: delivery.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown delivery backend %q", cfg.Delivery.Backend))
	}

	return errors.Join(errs...)
}

func validateTelegram(cfg TelegramConfig) []error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if cfg.BotToken == "" {
		errs = append(errs, errors.New("config: telegram enabled but TELEGRAM_BOT_TOKEN is not set"))
	}
	if cfg.WebhookSecret == "" {
		errs = append(errs, errors.New("config: telegram enabled but TELEGRAM_WEBHOOK_SECRET is not set"))
	}
	return errs
}

func validateWhatsApp(cfg WhatsAppConfig) []error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if cfg.AccessToken == "" {
		errs = append(errs, errors.New("config: whatsapp enabled but WHATSAPP_ACCESS_TOKEN is not set"))
	}
	if cfg.PhoneNumberID == "" {
		errs = append(errs, errors.New("config: whatsapp enabled but WHATSAPP_PHONE_NUMBER_ID is not set"))
	}
	if cfg.VerifyToken == "" {
		errs = append(errs, errors.New("config: whatsapp enabled but WHATSAPP_VERIFY_TOKEN is not set"))
	}
	return errs
}
