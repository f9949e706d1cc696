// Package dispatch fans canonical replies out through channel adapters with
// per-call retry, bounded backoff, and delivery-log bookkeeping.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// Policy controls retry behavior for outbound sends.
type Policy struct {
	// MaxAttempts is the attempt ceiling per reply, first try included.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; it doubles
	// after every transient failure.
	InitialBackoff time.Duration
	// SendTimeout bounds each individual platform call so a stalled API
	// cannot pin a task forever.
	SendTimeout time.Duration
}

// defaults fills zero values with sensible defaults.
func (p *Policy) defaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.SendTimeout <= 0 {
		p.SendTimeout = 5 * time.Second
	}
}

// Observer receives delivery outcomes for metrics. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveDelivery(ch event.ChannelID, status delivery.Status, attempts int)
}

// Dispatcher routes replies to the adapter registered for their channel.
type Dispatcher struct {
	registry *channel.Registry
	store    delivery.Store
	policy   Policy
	logger   *slog.Logger
	observer Observer
}

// New creates a Dispatcher. observer may be nil.
func New(registry *channel.Registry, store delivery.Store, policy Policy, logger *slog.Logger, observer Observer) *Dispatcher {
	policy.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		store:    store,
		policy:   policy,
		logger:   logger.With("component", "dispatch"),
		observer: observer,
	}
}

// Dispatch sends one reply and returns its final delivery record.
// correlationID ties the record to the inbound event that produced the
// reply; when empty, a fresh id is generated.
//
// Transient failures are retried with exponential backoff up to the attempt
// ceiling. Auth and recipient failures are fatal on the first attempt. The
// record is updated after every attempt, so a concurrent status query always
// reflects the latest known outcome, and the final error is returned to the
// caller rather than swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, reply event.Reply, correlationID string) (delivery.Record, error) {
	id := correlationID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	rec := delivery.Record{
		ID:          id,
		Channel:     reply.Channel,
		RecipientID: reply.RecipientID,
		LastStatus:  delivery.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.store.Create(rec); err != nil {
		return rec, fmt.Errorf("dispatch: create delivery record: %w", err)
	}

	adapter, err := d.registry.Adapter(reply.Channel)
	if err != nil {
		rec = d.finish(rec, delivery.StatusFailed, err)
		return rec, err
	}

	backoff := d.policy.InitialBackoff

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		rec.Attempts = attempt

		sendCtx, cancel := context.WithTimeout(ctx, d.policy.SendTimeout)
		err = adapter.Send(sendCtx, reply)
		cancel()

		if err == nil {
			rec = d.finish(rec, delivery.StatusSent, nil)
			return rec, nil
		}

		class := channel.Classify(err)
		lastAttempt := attempt == d.policy.MaxAttempts || class != channel.FailureTransient

		if lastAttempt {
			rec = d.finish(rec, delivery.StatusFailed, err)
			d.logger.Error("delivery failed",
				"id", rec.ID,
				"channel", reply.Channel,
				"class", class,
				"attempts", rec.Attempts,
				"error", err,
			)
			return rec, err
		}

		rec = d.finish(rec, delivery.StatusPending, err)
		d.logger.Warn("transient delivery failure, retrying",
			"id", rec.ID,
			"channel", reply.Channel,
			"attempt", attempt,
			"backoff", backoff,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			rec = d.finish(rec, delivery.StatusFailed, ctx.Err())
			return rec, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	// Unreachable: the loop always returns on the last attempt.
	return rec, err
}

// DispatchAll sends the replies produced by one inbound event in order, so
// per-recipient ordering within an event is preserved. A failed
// reply does not stop the remaining ones; all failures are joined into the
// returned error.
func (d *Dispatcher) DispatchAll(ctx context.Context, replies []event.Reply, correlationID string) ([]delivery.Record, error) {
	var (
		records []delivery.Record
		errs    []error
	)
	for i, reply := range replies {
		id := correlationID
		if id != "" && len(replies) > 1 {
			id = fmt.Sprintf("%s#%d", correlationID, i)
		}
		rec, err := d.Dispatch(ctx, reply, id)
		records = append(records, rec)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return records, errors.Join(errs...)
}

// finish stamps the record with the attempt outcome and persists it.
func (d *Dispatcher) finish(rec delivery.Record, status delivery.Status, err error) delivery.Record {
	rec.LastStatus = status
	rec.UpdatedAt = time.Now()
	if err != nil {
		rec.LastError = err.Error()
	} else {
		rec.LastError = ""
	}
	if uerr := d.store.Update(rec); uerr != nil {
		d.logger.Error("delivery record update failed", "id", rec.ID, "error", uerr)
	}
	if d.observer != nil && status != delivery.StatusPending {
		d.observer.ObserveDelivery(rec.Channel, status, rec.Attempts)
	}
	return rec
}
