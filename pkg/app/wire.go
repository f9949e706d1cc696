package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/internal/config"
	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/internal/dispatch"
	"github.com/thesoulpath/soulpath/internal/engine"
	"github.com/thesoulpath/soulpath/internal/gateway"
	"github.com/thesoulpath/soulpath/internal/telemetry"
	"github.com/thesoulpath/soulpath/modules/channel/telegram"
	"github.com/thesoulpath/soulpath/modules/channel/whatsapp"
	deliverysqlite "github.com/thesoulpath/soulpath/modules/delivery/sqlite"
)

// wire builds the full component graph from config. Construction is
// explicit and ordered; nothing registers itself globally.
func wire(cfg *config.Config, version string, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry, version, logger)
	if err != nil {
		return nil, err
	}
	a.onStop("telemetry", shutdownTracing)

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg, a, logger)
	if err != nil {
		return nil, err
	}

	metrics := gateway.NewMetrics()
	feed := gateway.NewFeed(logger)
	notifying := delivery.NewNotifyingStore(store, feed.Notify)

	dispatcher := dispatch.New(registry, notifying, dispatch.Policy{
		MaxAttempts:    cfg.Delivery.Retry.MaxAttempts,
		InitialBackoff: cfg.Delivery.Retry.InitialBackoff,
		SendTimeout:    cfg.Delivery.Retry.SendTimeout,
	}, logger, metrics)

	eng := engine.NewRESTEngine(cfg.Engine.URL, cfg.Engine.Timeout, logger)

	if cfg.Delivery.TTL > 0 {
		pruner := delivery.NewPruner(store, cfg.Delivery.TTL, cfg.Delivery.PruneSchedule, logger)
		a.onStart("delivery pruner", pruner.Start)
		a.onStop("delivery pruner", func(context.Context) error {
			pruner.Stop()
			return nil
		})
	}

	gw, err := gateway.New(cfg.Gateway, gateway.Deps{
		Registry:   registry,
		Dispatcher: dispatcher,
		Engine:     eng,
		Store:      notifying,
		Metrics:    metrics,
		Feed:       feed,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := gw.Validate(); err != nil {
		return nil, err
	}
	a.onStart("gateway", gw.Start)
	a.onStop("gateway", gw.Stop)

	return a, nil
}

// buildRegistry constructs the channel adapters enabled in config.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*channel.Registry, error) {
	var entries []channel.Entry

	if tg := cfg.Channels.Telegram; tg.Enabled {
		adapter, err := telegram.New(telegram.Config{
			BotToken:      tg.BotToken,
			WebhookSecret: tg.WebhookSecret,
			APIURL:        tg.APIURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram adapter: %w", err)
		}
		entries = append(entries, channel.Entry{Adapter: adapter, Verifier: adapter})
		logger.Info("channel enabled", "channel", "telegram")
	}

	if wa := cfg.Channels.WhatsApp; wa.Enabled {
		adapter, err := whatsapp.New(whatsapp.Config{
			AccessToken:   wa.AccessToken,
			PhoneNumberID: wa.PhoneNumberID,
			VerifyToken:   wa.VerifyToken,
			APIURL:        wa.APIURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("whatsapp adapter: %w", err)
		}
		entries = append(entries, channel.Entry{Adapter: adapter, Verifier: adapter})
		logger.Info("channel enabled", "channel", "whatsapp")
	}

	return channel.NewRegistry(entries...)
}

// buildStore constructs the delivery log backend named in config.
func buildStore(cfg *config.Config, a *App, logger *slog.Logger) (delivery.Store, error) {
	switch cfg.Delivery.Backend {
	case "memory":
		return delivery.NewMemoryStore(), nil
	case "sqlite":
		store, db, err := deliverysqlite.Open(cfg.Delivery.Path)
		if err != nil {
			return nil, fmt.Errorf("opening delivery log: %w", err)
		}
		a.onStop("delivery log", func(context.Context) error { return db.Close() })
		logger.Info("delivery log opened", "path", cfg.Delivery.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", cfg.Delivery.Backend)
	}
}
