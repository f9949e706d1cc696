// Package delivery provides the delivery log: one record per outbound send,
// updated on every attempt, queryable for observability and idempotency
// ("was this already sent") checks.
package delivery

import (
	"time"

	"github.com/thesoulpath/soulpath/pkg/event"
)

// Status is the last known outcome of an outbound send.
type Status string

const (
	// StatusPending means at least one attempt is in flight or scheduled.
	StatusPending Status = "pending"
	// StatusSent means the platform acknowledged the delivery.
	StatusSent Status = "sent"
	// StatusFailed means all attempts are exhausted or the failure was fatal.
	StatusFailed Status = "failed"
)

// Record tracks the outcome of a single outbound reply. ID is the inbound
// correlation id when the reply answers a webhook event, or a generated id
// for engine-initiated sends. Attempts never exceeds the dispatcher's retry
// ceiling.
type Record struct {
	ID          string          `json:"id"`
	Channel     event.ChannelID `json:"channel"`
	RecipientID string          `json:"recipient_id"`
	Attempts    int             `json:"attempts"`
	LastStatus  Status          `json:"last_status"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Store persists delivery records. Implementations must be safe for
// concurrent use; Update must be atomic per record so concurrent retries
// never lose attempts.
type Store interface {
	// Create inserts a new record. Creating an existing id overwrites it:
	// re-dispatch of the same correlation id starts a fresh attempt series.
	Create(rec Record) error

	// Update replaces the stored record for rec.ID.
	Update(rec Record) error

	// Get returns the record for the given id.
	Get(id string) (Record, bool)

	// Recent returns up to n records ordered newest first.
	Recent(n int) ([]Record, error)

	// Prune removes records last updated before the cutoff and reports how
	// many were removed.
	Prune(cutoff time.Time) (int, error)
}
