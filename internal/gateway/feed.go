package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/thesoulpath/soulpath/internal/delivery"
)

const feedWriteTimeout = 5 * time.Second

// Feed broadcasts delivery record changes to connected WebSocket clients.
// It is wired as the NotifyingStore callback so every Create and Update
// reaches subscribed operators live.
type Feed struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewFeed creates an empty feed.
func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		logger:  logger.With("component", "feed"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Notify implements the delivery.NotifyingStore callback. Slow clients are
// dropped rather than allowed to block the broadcast.
func (f *Feed) Notify(rec delivery.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		f.logger.Error("marshal record failed", "error", err)
		return
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for c := range f.clients {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), feedWriteTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			f.remove(c)
			_ = c.Close(websocket.StatusPolicyViolation, "write timeout")
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection subscribed until
// the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		f.logger.Error("websocket accept failed", "error", err)
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	f.logger.Info("feed client connected", "remote", r.RemoteAddr)

	// Drain the read side so pings and close frames are handled. Clients
	// only listen on this feed; any payload they send is discarded.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			break
		}
	}

	f.remove(conn)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	f.logger.Info("feed client disconnected", "remote", r.RemoteAddr)
}

// Close disconnects all clients and stops accepting new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for c := range f.clients {
		conns = append(conns, c)
	}
	f.clients = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (f *Feed) remove(c *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
}
