package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/pkg/event"
)

var tracer = otel.Tracer("soulpath/gateway")

// handleWebhookGet serves platform verification handshakes. WhatsApp probes
// with a challenge that must be echoed verbatim; Telegram has no handshake
// and just gets a liveness body.
func (g *Gateway) handleWebhookGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")
	id := event.ChannelID(name)

	verifier, err := g.registry.Verifier(id)
	if err != nil {
		g.metrics.RecordRejection(name, "unknown_channel")
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}

	challenge, err := verifier.Handshake(r.URL.Query())
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, challenge)
	case errors.Is(err, channel.ErrHandshakeUnsupported):
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "channel": name})
	case errors.Is(err, channel.ErrForbidden):
		g.metrics.RecordRejection(name, "forbidden")
		g.logger.Warn("handshake rejected", "channel", name, "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		g.metrics.RecordRejection(name, "bad_handshake")
		http.Error(w, "bad request", http.StatusBadRequest)
	}
}

// handleWebhookPost verifies and acks the delivery synchronously, then
// decodes and processes it off the request path. The platform only needs
// the ack; everything after is our problem.
func (g *Gateway) handleWebhookPost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")
	id := event.ChannelID(name)

	entry, err := g.registry.Entry(id)
	if err != nil {
		g.metrics.RecordRejection(name, "unknown_channel")
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}

	if g.draining.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, g.config.MaxBodyBytes))
	if err != nil {
		g.metrics.RecordRejection(name, "bad_body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := entry.Verifier.VerifyDelivery(r.Header, body); err != nil {
		switch {
		case errors.Is(err, channel.ErrForbidden):
			g.metrics.RecordRejection(name, "forbidden")
			g.logger.Warn("webhook rejected", "channel", name, "remote", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			g.metrics.RecordRejection(name, "bad_envelope")
			http.Error(w, "bad request", http.StatusBadRequest)
		}
		return
	}

	// Ack before processing. Retries on the platform side are driven by
	// our HTTP status, not by whether the bot answered.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		g.process(context.WithoutCancel(r.Context()), entry, body)
	}()
}

// process decodes the raw payload and runs each event through the engine
// and the dispatcher. Failures here are logged, never surfaced to the
// platform: the delivery was already acked.
func (g *Gateway) process(ctx context.Context, entry channel.Entry, body []byte) {
	ch := entry.Adapter.ID()
	log := g.logger.With("channel", ch)

	events, err := entry.Adapter.Decode(body)
	if err != nil {
		log.Error("payload decode failed", "error", err)
		return
	}

	for _, ev := range events {
		g.metrics.RecordInbound(ch)
		log.Info("inbound event",
			"sender", ev.SenderID,
			"correlation_id", ev.CorrelationID,
			"callback", ev.IsCallback,
		)

		if ev.IsCallback {
			if acker, ok := entry.Adapter.(channel.CallbackAcker); ok {
				if err := acker.AckCallback(ctx, ev); err != nil {
					log.Warn("callback ack failed", "correlation_id", ev.CorrelationID, "error", err)
				}
			}
		}

		g.handleEvent(ctx, ev, log)
	}
}

func (g *Gateway) handleEvent(ctx context.Context, ev event.Inbound, log *slog.Logger) {
	ctx, span := tracer.Start(ctx, "gateway.handle_event", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("channel", string(ev.Channel)),
		attribute.String("correlation_id", ev.CorrelationID),
	)

	replies, err := g.engine.Handle(ctx, ev)
	if err != nil {
		span.SetStatus(codes.Error, "engine failed")
		span.RecordError(err)
		log.Error("engine failed", "correlation_id", ev.CorrelationID, "error", err)
		return
	}
	if len(replies) == 0 {
		return
	}

	if _, err := g.dispatcher.DispatchAll(ctx, replies, ev.CorrelationID); err != nil {
		span.SetStatus(codes.Error, "dispatch failed")
		span.RecordError(err)
		log.Error("dispatch failed", "correlation_id", ev.CorrelationID, "error", err)
	}
}
