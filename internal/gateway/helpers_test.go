package gateway

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/internal/dispatch"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// echoEngine replies with a single text message mirroring the input.
type echoEngine struct{}

func (echoEngine) Handle(_ context.Context, ev event.Inbound) ([]event.Reply, error) {
	return []event.Reply{event.NewTextReply(ev.Channel, ev.SenderID, "echo: "+ev.Text)}, nil
}

// silentEngine never replies.
type silentEngine struct{}

func (silentEngine) Handle(context.Context, event.Inbound) ([]event.Reply, error) {
	return nil, nil
}

type testHarness struct {
	gateway *Gateway
	server  *httptest.Server
	adapter *channel.MockAdapter
	store   *delivery.MemoryStore
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	verifier channel.Verifier
	engine   interface {
		Handle(context.Context, event.Inbound) ([]event.Reply, error)
	}
	auth  AuthConfig
	feed  *Feed
	store delivery.Store
}

func withVerifier(v channel.Verifier) harnessOption {
	return func(c *harnessConfig) { c.verifier = v }
}

func withEngine(e interface {
	Handle(context.Context, event.Inbound) ([]event.Reply, error)
}) harnessOption {
	return func(c *harnessConfig) { c.engine = e }
}

func withAuth(a AuthConfig) harnessOption {
	return func(c *harnessConfig) { c.auth = a }
}

func withFeed(f *Feed) harnessOption {
	return func(c *harnessConfig) { c.feed = f }
}

func withStore(s delivery.Store) harnessOption {
	return func(c *harnessConfig) { c.store = s }
}

// newHarness builds a gateway with one mock telegram channel behind an
// httptest server.
func newHarness(t *testing.T, opts ...harnessOption) *testHarness {
	t.Helper()

	hc := harnessConfig{
		verifier: &channel.MockVerifier{},
		engine:   echoEngine{},
	}
	for _, opt := range opts {
		opt(&hc)
	}

	adapter := &channel.MockAdapter{Channel: event.ChannelTelegram}
	registry, err := channel.NewRegistry(channel.Entry{Adapter: adapter, Verifier: hc.verifier})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	memStore := delivery.NewMemoryStore()
	var store delivery.Store = memStore
	if hc.store != nil {
		store = hc.store
	}
	metrics := NewMetrics()
	disp := dispatch.New(registry, store, dispatch.Policy{
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
	}, logger, metrics)

	gw, err := New(Config{Auth: hc.auth}, Deps{
		Registry:   registry,
		Dispatcher: disp,
		Engine:     hc.engine,
		Store:      store,
		Metrics:    metrics,
		Feed:       hc.feed,
	}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	gw.startedAt = time.Now()

	srv := httptest.NewServer(gw.buildRouter())
	t.Cleanup(srv.Close)

	return &testHarness{gateway: gw, server: srv, adapter: adapter, store: memStore}
}

// waitInflight blocks until async webhook processing settles.
func (h *testHarness) waitInflight(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		h.gateway.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook processing")
	}
}
