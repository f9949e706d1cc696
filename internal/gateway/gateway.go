package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/internal/dispatch"
	"github.com/thesoulpath/soulpath/internal/engine"
)

// Gateway is the HTTP front door. It terminates webhook traffic from the
// messaging platforms, acks immediately, and hands decoded events to the
// engine and dispatcher off the request path.
type Gateway struct {
	config     Config
	logger     *slog.Logger
	registry   *channel.Registry
	dispatcher *dispatch.Dispatcher
	engine     engine.Engine
	store      delivery.Store
	metrics    *Metrics
	feed       *Feed
	server     *http.Server
	startedAt  time.Time

	// inflight tracks async webhook processing so Stop can drain it.
	inflight sync.WaitGroup
	draining atomic.Bool
}

// Deps bundles the collaborators the gateway needs. All fields except
// Metrics and Feed are required.
type Deps struct {
	Registry   *channel.Registry
	Dispatcher *dispatch.Dispatcher
	Engine     engine.Engine
	Store      delivery.Store
	Metrics    *Metrics
	Feed       *Feed
}

// New creates a Gateway. It does not start listening.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Gateway, error) {
	cfg.defaults()
	if deps.Registry == nil {
		return nil, errors.New("gateway: registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("gateway: dispatcher is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("gateway: engine is required")
	}
	if deps.Store == nil {
		return nil, errors.New("gateway: delivery store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	return &Gateway{
		config:     cfg,
		logger:     logger.With("component", "gateway"),
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		engine:     deps.Engine,
		store:      deps.Store,
		metrics:    deps.Metrics,
		feed:       deps.Feed,
	}, nil
}

// Validate checks the configuration before Start.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", g.config.Bind, err)
	}
	return nil
}

// Start binds the listener and serves in a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind, "channels", g.registry.Channels())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop refuses new webhook work, waits for in-flight processing up to the
// drain grace, then shuts the server down.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	g.draining.Store(true)
	g.logger.Info("gateway draining")

	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(g.config.DrainGrace):
		g.logger.Warn("drain grace expired with work in flight")
	case <-ctx.Done():
	}

	if g.feed != nil {
		g.feed.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
