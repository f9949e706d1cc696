// Package app provides the shared entry point for the soulpath binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/thesoulpath/soulpath/internal/config"
	"github.com/thesoulpath/soulpath/internal/security"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, wires every component, starts the gateway, and
// blocks until a shutdown signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Seed the redactor with every credential loaded from the environment
	// so none of them can appear in log output.
	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Channels.Telegram.BotToken)
	redactor.AddLiteral(cfg.Channels.Telegram.WebhookSecret)
	redactor.AddLiteral(cfg.Channels.WhatsApp.AccessToken)
	redactor.AddLiteral(cfg.Channels.WhatsApp.VerifyToken)

	logger := buildLogger(cfg.Log, redactor)

	application, err := wire(cfg, params.Version, logger)
	if err != nil {
		return err
	}

	if err := application.Start(); err != nil {
		application.Stop()
		return err
	}
	logger.Info("started", "version", params.Version, "config", cfgPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())
	application.Stop()
	logger.Info("shutdown complete")
	return nil
}

// buildLogger builds the process logger from config, wrapped in a
// redacting handler. Unknown values were already rejected by
// config.Validate.
func buildLogger(cfg config.LogConfig, redactor *security.Redactor) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(security.NewRedactingHandler(handler, redactor))
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/soulpath/soulpath.yaml →
// ~/.config/soulpath/soulpath.yaml → ./soulpath.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "soulpath", "soulpath.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "soulpath", "soulpath.yaml"))
	}

	candidates = append(candidates, "soulpath.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// component is one started piece of the application.
type component struct {
	name string
	stop func(context.Context) error
}

// App owns the started components and stops them in reverse order.
type App struct {
	logger     *slog.Logger
	start      []func() error
	startNames []string
	components []component
}

// Start runs every registered start hook in order. The caller must Stop
// the app on error to unwind components that already started.
func (a *App) Start() error {
	for i, fn := range a.start {
		if err := fn(); err != nil {
			return fmt.Errorf("starting %s: %w", a.startNames[i], err)
		}
	}
	return nil
}

// Stop stops all components in reverse start order.
func (a *App) Stop() {
	ctx := context.Background()
	for i := len(a.components) - 1; i >= 0; i-- {
		c := a.components[i]
		if err := c.stop(ctx); err != nil {
			a.logger.Error("component stop failed", "component", c.name, "error", err)
		}
	}
	a.components = nil
}

func (a *App) onStart(name string, fn func() error) {
	a.start = append(a.start, fn)
	a.startNames = append(a.startNames, name)
}

func (a *App) onStop(name string, fn func(context.Context) error) {
	a.components = append(a.components, component{name: name, stop: fn})
}
