package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thesoulpath/soulpath/pkg/event"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 10 << 20
)

// RESTEngine talks to a dialogue engine exposing a REST webhook: one POST
// per inbound event, a JSON array of bot responses back. The sender id is
// the session id, so one conversation maps to one engine session.
type RESTEngine struct {
	url      string
	http     *http.Client
	logger   *slog.Logger
	defaults Defaults
}

// NewRESTEngine creates a REST engine client. timeout bounds each call;
// zero selects the default.
func NewRESTEngine(url string, timeout time.Duration, logger *slog.Logger) *RESTEngine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTEngine{
		url:      url,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With("component", "engine"),
		defaults: StandardDefaults,
	}
}

// engineRequest is the webhook request body.
type engineRequest struct {
	Sender   string            `json:"sender"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// engineResponse is one bot response item. Custom carries structured session
// data the engine attaches to booking confirmations.
type engineResponse struct {
	RecipientID string             `json:"recipient_id"`
	Text        string             `json:"text,omitempty"`
	Image       string             `json:"image,omitempty"`
	Attachment  string             `json:"attachment,omitempty"`
	Buttons     []engineButton     `json:"buttons,omitempty"`
	Custom      *engineCustomBlock `json:"custom,omitempty"`
}

type engineButton struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type engineCustomBlock struct {
	SessionType string `json:"session_type,omitempty"`
	PriceUSD    *int   `json:"price_usd,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

// Handle implements Engine.
func (e *RESTEngine) Handle(ctx context.Context, ev event.Inbound) ([]event.Reply, error) {
	body, err := json.Marshal(engineRequest{
		Sender:   ev.SenderID,
		Message:  ev.Text,
		Metadata: ev.Entities,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("engine: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: request failed: %w", err)
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("engine: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine: unexpected status %d", resp.StatusCode)
	}

	var items []engineResponse
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("engine: decode response: %w", err)
	}

	replies := make([]event.Reply, 0, len(items))
	for _, item := range items {
		replies = append(replies, e.convert(ev, item))
	}
	return replies, nil
}

// convert maps one engine response item to a canonical reply addressed to
// the originating channel and sender.
func (e *RESTEngine) convert(ev event.Inbound, item engineResponse) event.Reply {
	reply := event.Reply{
		Channel:     ev.Channel,
		RecipientID: ev.SenderID,
		Kind:        event.ReplyText,
		Text:        item.Text,
	}

	switch {
	case len(item.Buttons) > 0:
		reply.Kind = event.ReplyButtons
		reply.Buttons = make([]event.Button, 0, len(item.Buttons))
		for _, b := range item.Buttons {
			reply.Buttons = append(reply.Buttons, event.Button{Title: b.Title, Payload: b.Payload})
		}
	case item.Image != "":
		reply.Kind = event.ReplyImage
		reply.MediaURL = item.Image
	case item.Attachment != "":
		reply.Kind = event.ReplyDocument
		reply.MediaURL = item.Attachment
	}

	if item.Custom != nil {
		reply.Text = e.renderSession(reply.Text, item.Custom)
	}
	return reply
}

// renderSession appends a session summary using the named default policy
// for the price when the engine left the slot empty.
func (e *RESTEngine) renderSession(text string, custom *engineCustomBlock) string {
	price := e.defaults.SessionPriceUSD
	if custom.PriceUSD != nil {
		price = *custom.PriceUSD
	}

	var b strings.Builder
	b.WriteString(text)
	if custom.SessionType != "" {
		b.WriteString("\nSesión: " + custom.SessionType)
	}
	b.WriteString("\nPrecio: $" + strconv.Itoa(price) + " USD")
	if custom.Date != "" {
		b.WriteString("\nFecha: " + custom.Date)
	}
	if custom.Time != "" {
		b.WriteString("\nHora: " + custom.Time)
	}
	return b.String()
}
